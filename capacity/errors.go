/*
errors.go - Centralized error types for the capacity engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (the HTTP layer) map these onto status codes with the helpers
  at the bottom.

ERROR CATEGORIES:
  1. Validation errors - Bad range or granularity; raised immediately and
     propagated to the caller unmodified. Client errors, never retried.
  2. Fetch errors - A single resource's data fetch failed; isolated at the
     resource-processing boundary so sibling resources still compute.

NOT ERRORS:
  Arithmetic edge cases (division by zero, negative inputs, overallocation)
  are defined behaviors and never surface as errors.
*/
package capacity

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when end_date precedes start_date.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrUnknownGranularity is returned for a granularity outside
	// daily/weekly/monthly.
	ErrUnknownGranularity = errors.New("unknown granularity")

	// ErrResourceFetch marks a per-resource data-access failure.
	ErrResourceFetch = errors.New("resource fetch failed")

	// ErrResourceNotFound is returned when a referenced resource doesn't exist.
	ErrResourceNotFound = errors.New("resource not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError reports the offending range.
type InvalidRangeError struct {
	Start TimePoint
	End   TimePoint
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s before start %s", e.End, e.Start)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// UnknownGranularityError reports the unrecognized value.
type UnknownGranularityError struct {
	Value string
}

func (e *UnknownGranularityError) Error() string {
	return fmt.Sprintf("unknown granularity %q (want daily, weekly, or monthly)", e.Value)
}

func (e *UnknownGranularityError) Unwrap() error { return ErrUnknownGranularity }

// ResourceFetchError wraps the underlying data-access fault for one
// resource. The assembler converts it into a partial-result marker; it
// never aborts sibling computations.
type ResourceFetchError struct {
	ResourceID ResourceID
	Err        error
}

func (e *ResourceFetchError) Error() string {
	return fmt.Sprintf("fetch failed for resource %s: %v", e.ResourceID, e.Err)
}

func (e *ResourceFetchError) Unwrap() error { return e.Err }

func (e *ResourceFetchError) Is(target error) bool { return target == ErrResourceFetch }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrUnknownGranularity)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}
