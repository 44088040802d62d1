/*
Package sqlite provides a SQLite-backed implementation of capacity.Store.

PURPOSE:
  Persists the capacity catalog (resources, availability records,
  unavailability periods, allocations, departments, projects) and serves
  the read paths the aggregation engine consumes. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

READ/WRITE SPLIT:
  The engine only reads. The write methods here exist for the
  administrative API surface (HR-type actions) and scenario seeding; the
  aggregation path never touches them.

SUPERSESSION:
  SupersedeAvailability implements the capacity-change lifecycle: the
  prior open-ended record is closed to the day before the new record's
  effective_from, then the new record is inserted. Records are never
  deleted.

KEY TABLES:
  resources:              The people/equipment catalog (soft-delete flag)
  availability_records:   Baseline capacity with validity intervals
  unavailability_periods: PTO/holiday/sick/training/maintenance intervals
  allocations:            Percent commitments to projects
  departments, projects:  Reference catalogs for filtering/display

DECIMALS AND DATES:
  Hours and percents are stored as TEXT and parsed with shopspring/decimal
  to avoid float drift. Dates are stored as ISO 8601 date strings, which
  compare correctly as text.

WAL MODE:
  Opened with WAL for better concurrency: multiple readers don't block,
  single writer at a time.

SEE ALSO:
  - capacity/store.go: Interface definition
  - capacity/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/capacity-engine/capacity"
)

// Store implements capacity.Store plus the administrative write surface.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS departments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		department_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_resources_department
		ON resources(department_id);
	CREATE INDEX IF NOT EXISTS idx_resources_type
		ON resources(type);

	CREATE TABLE IF NOT EXISTS availability_records (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		hours_per_day TEXT NOT NULL,
		days_per_week TEXT NOT NULL,
		total_hours_per_week TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Hot path: records intersecting a period for one resource
	CREATE INDEX IF NOT EXISTS idx_availability_resource_from
		ON availability_records(resource_id, effective_from);

	CREATE TABLE IF NOT EXISTS unavailability_periods (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_unavailability_resource_dates
		ON unavailability_periods(resource_id, start_date, end_date);

	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		percent TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_resource_dates
		ON allocations(resource_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_allocations_project
		ON allocations(project_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CATALOG TYPES
// =============================================================================

type Department struct {
	ID   capacity.DepartmentID
	Name string
}

type Project struct {
	ID     capacity.ProjectID
	Name   string
	Active bool
}

// =============================================================================
// capacity.Store - READ PATHS
// =============================================================================

// ListResources returns the filtered resource page plus the total match
// count before pagination. Order is name then id: deterministic across
// identical calls.
func (s *Store) ListResources(ctx context.Context, filter capacity.ResourceFilter) ([]capacity.Resource, int, error) {
	where, args := buildResourceWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM resources r " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT r.id, r.type, r.name, COALESCE(r.email, ''), r.active,
		       COALESCE(r.department_id, ''), COALESCE(d.name, '')
		FROM resources r
		LEFT JOIN departments d ON d.id = r.department_id ` +
		where + " ORDER BY r.name, r.id"

	if filter.Size > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Size, (page-1)*filter.Size)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var resources []capacity.Resource
	for rows.Next() {
		var r capacity.Resource
		var active int
		if err := rows.Scan(&r.ID, &r.Type, &r.Name, &r.Email, &active, &r.DepartmentID, &r.DepartmentName); err != nil {
			return nil, 0, err
		}
		r.Active = active != 0
		resources = append(resources, r)
	}
	return resources, total, rows.Err()
}

func buildResourceWhere(filter capacity.ResourceFilter) (string, []any) {
	var conds []string
	var args []any

	if !filter.IncludeInactive {
		conds = append(conds, "r.active = 1")
	}
	if len(filter.IDs) > 0 {
		conds = append(conds, "r.id IN ("+placeholders(len(filter.IDs))+")")
		for _, id := range filter.IDs {
			args = append(args, string(id))
		}
	}
	if len(filter.DepartmentIDs) > 0 {
		conds = append(conds, "r.department_id IN ("+placeholders(len(filter.DepartmentIDs))+")")
		for _, id := range filter.DepartmentIDs {
			args = append(args, string(id))
		}
	}
	if len(filter.Types) > 0 {
		conds = append(conds, "r.type IN ("+placeholders(len(filter.Types))+")")
		for _, t := range filter.Types {
			args = append(args, string(t))
		}
	}
	if filter.Search != "" {
		conds = append(conds, "LOWER(r.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.ProjectID != "" {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM allocations a
			WHERE a.resource_id = r.id AND a.project_id = ? AND a.active = 1)`)
		args = append(args, string(filter.ProjectID))
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// AvailabilityRecords returns records whose validity interval intersects
// [from, to], ordered by effective_from ascending.
func (s *Store) AvailabilityRecords(ctx context.Context, id capacity.ResourceID, from, to capacity.TimePoint) ([]capacity.AvailabilityRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, resource_id, effective_from, effective_to,
		       hours_per_day, days_per_week, total_hours_per_week
		FROM availability_records
		WHERE resource_id = ?
		  AND effective_from <= ?
		  AND (effective_to IS NULL OR effective_to >= ?)
		ORDER BY effective_from`,
		string(id), to.String(), from.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []capacity.AvailabilityRecord
	for rows.Next() {
		var rec capacity.AvailabilityRecord
		var effFrom, hpd, dpw, thw string
		var effTo sql.NullString
		if err := rows.Scan(&rec.ID, &rec.ResourceID, &effFrom, &effTo, &hpd, &dpw, &thw); err != nil {
			return nil, err
		}
		if rec.EffectiveFrom, err = capacity.ParseDate(effFrom); err != nil {
			return nil, err
		}
		if effTo.Valid {
			t, err := capacity.ParseDate(effTo.String)
			if err != nil {
				return nil, err
			}
			rec.EffectiveTo = &t
		}
		rec.HoursPerDay = capacity.MustParseDecimal(hpd)
		rec.DaysPerWeek = capacity.MustParseDecimal(dpw)
		rec.TotalHoursPerWeek = capacity.MustParseDecimal(thw)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UnavailabilityPeriods returns periods overlapping [from, to].
func (s *Store) UnavailabilityPeriods(ctx context.Context, id capacity.ResourceID, from, to capacity.TimePoint) ([]capacity.UnavailabilityPeriod, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, resource_id, type, start_date, end_date, COALESCE(description, '')
		FROM unavailability_periods
		WHERE resource_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date`,
		string(id), to.String(), from.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []capacity.UnavailabilityPeriod
	for rows.Next() {
		var up capacity.UnavailabilityPeriod
		var start, end string
		if err := rows.Scan(&up.ID, &up.ResourceID, &up.Type, &start, &end, &up.Description); err != nil {
			return nil, err
		}
		if up.Start, err = capacity.ParseDate(start); err != nil {
			return nil, err
		}
		if up.End, err = capacity.ParseDate(end); err != nil {
			return nil, err
		}
		periods = append(periods, up)
	}
	return periods, rows.Err()
}

// Allocations returns active allocations overlapping [from, to].
func (s *Store) Allocations(ctx context.Context, id capacity.ResourceID, from, to capacity.TimePoint) ([]capacity.Allocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.resource_id, a.project_id, COALESCE(p.name, ''),
		       a.start_date, a.end_date, a.percent, COALESCE(a.notes, '')
		FROM allocations a
		LEFT JOIN projects p ON p.id = a.project_id
		WHERE a.resource_id = ? AND a.active = 1
		  AND a.start_date <= ? AND a.end_date >= ?
		ORDER BY a.start_date, a.id`,
		string(id), to.String(), from.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []capacity.Allocation
	for rows.Next() {
		var a capacity.Allocation
		var start, end, percent string
		if err := rows.Scan(&a.ID, &a.ResourceID, &a.ProjectID, &a.ProjectName, &start, &end, &percent, &a.Notes); err != nil {
			return nil, err
		}
		if a.Start, err = capacity.ParseDate(start); err != nil {
			return nil, err
		}
		if a.End, err = capacity.ParseDate(end); err != nil {
			return nil, err
		}
		a.Percent = capacity.MustParseDecimal(percent)
		a.Active = true
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

// =============================================================================
// ADMINISTRATIVE WRITES - API surface and scenario seeding only
// =============================================================================

func (s *Store) SaveDepartment(ctx context.Context, d Department) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO departments (id, name) VALUES (?, ?)`,
		string(d.ID), d.Name)
	return err
}

func (s *Store) SaveProject(ctx context.Context, p Project) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO projects (id, name, active) VALUES (?, ?, ?)`,
		string(p.ID), p.Name, boolToInt(p.Active))
	return err
}

func (s *Store) SaveResource(ctx context.Context, r capacity.Resource) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO resources (id, type, name, email, active, department_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), string(r.Type), r.Name, r.Email, boolToInt(r.Active),
		string(r.DepartmentID), nowISO())
	return err
}

// GetResource fetches one resource by ID.
func (s *Store) GetResource(ctx context.Context, id capacity.ResourceID) (*capacity.Resource, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.type, r.name, COALESCE(r.email, ''), r.active,
		       COALESCE(r.department_id, ''), COALESCE(d.name, '')
		FROM resources r
		LEFT JOIN departments d ON d.id = r.department_id
		WHERE r.id = ?`, string(id))

	var r capacity.Resource
	var active int
	err := row.Scan(&r.ID, &r.Type, &r.Name, &r.Email, &active, &r.DepartmentID, &r.DepartmentName)
	if err == sql.ErrNoRows {
		return nil, capacity.ErrResourceNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Active = active != 0
	return &r, nil
}

// SaveAvailability inserts a record as-is, without touching prior records.
func (s *Store) SaveAvailability(ctx context.Context, rec capacity.AvailabilityRecord) error {
	var effTo any
	if rec.EffectiveTo != nil {
		effTo = rec.EffectiveTo.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO availability_records
			(id, resource_id, effective_from, effective_to,
			 hours_per_day, days_per_week, total_hours_per_week, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.ResourceID), rec.EffectiveFrom.String(), effTo,
		rec.HoursPerDay.String(), rec.DaysPerWeek.String(),
		rec.TotalHoursPerWeek.String(), nowISO())
	return err
}

// SupersedeAvailability closes the resource's open-ended records to the day
// before the new record takes effect, then inserts the new record. Both
// writes happen in one transaction.
func (s *Store) SupersedeAvailability(ctx context.Context, rec capacity.AvailabilityRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	closeTo := rec.EffectiveFrom.AddDays(-1).String()
	if _, err := tx.ExecContext(ctx, `
		UPDATE availability_records
		SET effective_to = ?
		WHERE resource_id = ? AND effective_to IS NULL AND effective_from < ?`,
		closeTo, string(rec.ResourceID), rec.EffectiveFrom.String()); err != nil {
		return err
	}

	var effTo any
	if rec.EffectiveTo != nil {
		effTo = rec.EffectiveTo.String()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO availability_records
			(id, resource_id, effective_from, effective_to,
			 hours_per_day, days_per_week, total_hours_per_week, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.ResourceID), rec.EffectiveFrom.String(), effTo,
		rec.HoursPerDay.String(), rec.DaysPerWeek.String(),
		rec.TotalHoursPerWeek.String(), nowISO()); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) SaveUnavailability(ctx context.Context, up capacity.UnavailabilityPeriod) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO unavailability_periods
			(id, resource_id, type, start_date, end_date, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		up.ID, string(up.ResourceID), string(up.Type),
		up.Start.String(), up.End.String(), up.Description, nowISO())
	return err
}

func (s *Store) SaveAllocation(ctx context.Context, a capacity.Allocation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO allocations
			(id, resource_id, project_id, start_date, end_date, percent, active, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.ResourceID), string(a.ProjectID),
		a.Start.String(), a.End.String(), a.Percent.String(),
		boolToInt(a.Active), a.Notes, nowISO())
	return err
}

// ListDepartments returns all departments ordered by name.
func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, active FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var active int
		if err := rows.Scan(&p.ID, &p.Name, &active); err != nil {
			return nil, err
		}
		p.Active = active != 0
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Reset clears all tables. Dev/scenario use only.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{
		"allocations", "unavailability_periods", "availability_records",
		"resources", "projects", "departments",
	} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
