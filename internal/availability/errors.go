package availability

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the availability subsystem.
var (
	// ErrInvalidQuery marks a malformed query. It is a caller error,
	// surfaced immediately and never retried.
	ErrInvalidQuery = errors.New("invalid availability query")

	// ErrNotFound means the reservation site has no data for the
	// requested hut and dates.
	ErrNotFound = errors.New("no availability data for hut and dates")
)

// InvalidQueryError describes why a query failed validation. It matches
// ErrInvalidQuery under errors.Is.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid availability query: %s", e.Reason)
}

// Is makes errors.Is(err, ErrInvalidQuery) hold for all validation failures.
func (e *InvalidQueryError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// FetchError wraps a network or parse failure while retrieving
// availability for a hut. The cache treats it as non-fatal and falls
// back to stale data when possible.
type FetchError struct {
	HutID string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching availability for hut %s: %v", e.HutID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
