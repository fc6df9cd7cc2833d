/*
Package store defines the persistence interfaces for the payroll engine's
collaborators.

PURPOSE:
  The computation packages (attendance, payroll, schedule, geofence) are
  pure and perform no I/O. Everything they consume - employees, branches,
  attendance entries, location history, periods, results - flows through
  the Store interface defined here. Implementations can use SQLite or
  in-memory storage.

KEY CONTRACTS:
  OPEN-ENTRY UNIQUENESS:
    At most one attendance entry with no clock-out may exist per employee.
    The store enforces this atomically (a uniqueness constraint, not a
    read-then-write check), because two near-simultaneous clock-ins from
    the same user (double-tap, retry-after-timeout) would race past any
    application-level check.

  PERIOD IDENTITY:
    Periods are keyed by their canonical identity (frequency, start, end)
    computed by schedule.Period.CanonicalID(). Creating a period whose
    identity already exists fails with engine.ErrDuplicatePeriod.

  REJECTED ATTEMPTS:
    Clock-ins refused by the geofence validator are still recorded (with
    no completion timestamp) so an operator can audit exactly why each
    one was refused.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - store/memory: In-memory for testing/dev

SEE ALSO:
  - store/sqlite/sqlite.go: Concrete implementation
  - api/handlers.go: The request layer driving these interfaces
*/
package store

import (
	"context"
	"time"

	"github.com/warp/payday-engine/engine"
	"github.com/warp/payday-engine/schedule"
)

// =============================================================================
// RECORDS
// =============================================================================

// Employee is the minimal employee contract the engine consumes.
type Employee struct {
	ID         engine.EmployeeID
	Name       string
	HourlyRate engine.Money
	BranchID   engine.BranchID
	CreatedAt  time.Time
}

// Branch is a workplace with its geofence geometry.
type Branch struct {
	ID           engine.BranchID
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	CreatedAt    time.Time
}

// AttendanceEntry is one clock-in, possibly still open (no clock-out).
type AttendanceEntry struct {
	ID         string
	EmployeeID engine.EmployeeID
	Date       engine.TimePoint
	ClockIn    time.Time
	ClockOut   *time.Time
	Hours      float64
	Holiday    bool

	// Claimed clock-in location, kept for the movement-history window.
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
}

// RejectedAttempt is a clock-in the geofence validator refused. Recorded
// with no completion timestamp, for audit.
type RejectedAttempt struct {
	ID             string
	EmployeeID     engine.EmployeeID
	At             time.Time
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	RiskScore      int
	Flags          []string
	Reason         string
}

// PayrollResult is one employee-period calculation, persisted for audit.
// Re-running the same period overwrites: the calculation is idempotent, so
// the stored row is always reproducible from its inputs.
type PayrollResult struct {
	EmployeeID engine.EmployeeID
	PeriodID   string

	RegularHours  float64
	OvertimeHours float64
	HolidayHours  float64

	Gross           engine.Money
	SocialSecurity  engine.Money
	Tax             engine.Money
	SalaryAdvances  engine.Money
	OtherDeductions engine.Money
	TotalDeductions engine.Money
	Net             engine.Money

	CalculatedAt time.Time
}

// SchedulerRun records one period pre-population pass, for audit and UI.
type SchedulerRun struct {
	ID             string
	At             time.Time
	Frequency      schedule.Frequency
	PeriodsCreated int
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

type Store interface {
	// Employees
	CreateEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id engine.EmployeeID) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)

	// Branches
	CreateBranch(ctx context.Context, b Branch) error
	GetBranch(ctx context.Context, id engine.BranchID) (Branch, error)

	// Attendance entries.
	// OpenEntry fails with engine.ErrOpenAttendanceEntry if the employee
	// already has an entry with no clock-out.
	OpenEntry(ctx context.Context, e AttendanceEntry) error
	// CloseEntry sets the clock-out on the employee's open entry and derives
	// the worked hours from its clock-in; engine.ErrNoOpenAttendanceEntry if
	// there is none.
	CloseEntry(ctx context.Context, id engine.EmployeeID, at time.Time) (AttendanceEntry, error)
	// EntriesInRange returns closed entries with Date in [from, to].
	EntriesInRange(ctx context.Context, id engine.EmployeeID, from, to engine.TimePoint) ([]AttendanceEntry, error)
	// LocationHistory returns clock-in locations since the given instant,
	// oldest first - the movement window the geofence validator consumes.
	LocationHistory(ctx context.Context, id engine.EmployeeID, since time.Time) ([]AttendanceEntry, error)
	RecordRejectedAttempt(ctx context.Context, a RejectedAttempt) error
	ListRejectedAttempts(ctx context.Context, id engine.EmployeeID) ([]RejectedAttempt, error)

	// Periods, keyed by canonical identity.
	CreatePeriod(ctx context.Context, p schedule.Period) error
	GetPeriod(ctx context.Context, canonicalID string) (schedule.Period, error)
	ListPeriods(ctx context.Context, year int) ([]schedule.Period, error)

	// Payroll results, upserted by (employee, period).
	SavePayrollResult(ctx context.Context, r PayrollResult) error
	ListPayrollResults(ctx context.Context, periodID string) ([]PayrollResult, error)

	// Scheduler audit trail.
	RecordSchedulerRun(ctx context.Context, r SchedulerRun) error
	ListSchedulerRuns(ctx context.Context, limit int) ([]SchedulerRun, error)
}
