/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Computation packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Contract errors - Caller programming mistakes (unsupported frequency)
  2. Lookup errors - Referenced records that do not exist
  3. Store errors - Persistence-level failures

Business-rule violations deliberately do NOT appear here: advisory
validation returns human-readable problem lists ([]string) and the
anti-spoofing validator returns a result object with flags. Only genuine
failures travel as errors.

USAGE:
  Domain packages can wrap engine errors:

    if errors.Is(err, engine.ErrUnsupportedFrequency) {
        return &SchedulerContractError{...}
    }

SEE ALSO:
  - schedule/period.go: Uses ErrUnsupportedFrequency
  - store/sqlite/sqlite.go: Uses persistence errors
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnsupportedFrequency is returned when the scheduler receives a pay
	// frequency it does not know. This is a caller contract violation, not a
	// data-quality problem.
	ErrUnsupportedFrequency = errors.New("unsupported pay frequency")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrBranchNotFound is returned when a referenced branch doesn't exist.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrPeriodNotFound is returned when a referenced payroll period doesn't exist.
	ErrPeriodNotFound = errors.New("payroll period not found")

	// ErrDuplicatePeriod is returned when a period with the same canonical
	// identity (frequency, start, end) already exists.
	ErrDuplicatePeriod = errors.New("duplicate payroll period")

	// ErrOpenAttendanceEntry is returned when an employee already has an
	// attendance entry with no clock-out. Enforced by the store with a
	// uniqueness constraint so two near-simultaneous clock-ins cannot race.
	ErrOpenAttendanceEntry = errors.New("open attendance entry already exists")

	// ErrNoOpenAttendanceEntry is returned on clock-out when there is nothing
	// to close.
	ErrNoOpenAttendanceEntry = errors.New("no open attendance entry")

	// ErrPeriodNotProcessable is returned when payroll is requested for a
	// period whose cutoff has not been reached.
	ErrPeriodNotProcessable = errors.New("period cutoff not reached")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicatePeriodError carries the canonical identity that collided.
type DuplicatePeriodError struct {
	CanonicalID string
}

func (e *DuplicatePeriodError) Error() string {
	return fmt.Sprintf("payroll period already exists: %s", e.CanonicalID)
}

func (e *DuplicatePeriodError) Unwrap() error {
	return ErrDuplicatePeriod
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// or state the client can observe and correct.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnsupportedFrequency) ||
		errors.Is(err, ErrDuplicatePeriod) ||
		errors.Is(err, ErrOpenAttendanceEntry) ||
		errors.Is(err, ErrNoOpenAttendanceEntry) ||
		errors.Is(err, ErrPeriodNotProcessable)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrBranchNotFound) ||
		errors.Is(err, ErrPeriodNotFound)
}
