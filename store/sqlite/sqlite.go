/*
Package sqlite provides a SQLite-backed implementation of store.Store.

PURPOSE:
  Persists the engine's collaborator data - employees, branches, attendance
  entries, location history, payroll periods, calculation results, and
  scheduler runs. In production the same patterns apply to PostgreSQL; only
  minor SQL dialect differences.

KEY TABLES:
  employees:          Employee contract {id, hourly_rate, branch}
  branches:           Workplace geometry {lat, lon, radius}
  attendance_entries: Clock-in/out records, claimed location included
  rejected_attempts:  Clock-ins refused by the geofence validator (audit)
  payroll_periods:    Periods keyed by canonical identity
  payroll_results:    One row per (employee, period), overwritten on re-run
  scheduler_runs:     Period pre-population audit trail

CRITICAL CONSTRAINTS:
  idx_one_open_entry: A partial unique index enforcing "at most one
    attendance entry with no clock-out per employee". This closes the race
    between two near-simultaneous clock-ins from the same user; a bare
    read-then-write check cannot.
  payroll_periods PK: The canonical identity (frequency, start, end), so
    duplicate period creation fails at the storage layer.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

USAGE:
  st, err := sqlite.New("./data/payday.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - store/store.go: Interface definitions and contracts
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/payday-engine/engine"
	"github.com/warp/payday-engine/schedule"
	"github.com/warp/payday-engine/store"
)

var _ store.Store = (*Store)(nil)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		branch_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS branches (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		radius_meters REAL NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attendance_entries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		clock_in TEXT NOT NULL,
		clock_out TEXT,
		hours REAL NOT NULL DEFAULT 0,
		holiday BOOLEAN NOT NULL DEFAULT FALSE,
		latitude REAL NOT NULL DEFAULT 0,
		longitude REAL NOT NULL DEFAULT 0,
		accuracy_meters REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_entries_employee_date
		ON attendance_entries(employee_id, date);

	-- CRITICAL: at most one open entry (no clock-out) per employee.
	-- Two near-simultaneous clock-ins race past an application-level
	-- read-then-write check; this index cannot be raced.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_one_open_entry
		ON attendance_entries(employee_id)
		WHERE clock_out IS NULL;

	CREATE TABLE IF NOT EXISTS rejected_attempts (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		at TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		accuracy_meters REAL NOT NULL,
		risk_score INTEGER NOT NULL,
		flags_json TEXT NOT NULL,
		reason TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_rejected_employee
		ON rejected_attempts(employee_id, at);

	-- Keyed by canonical identity: duplicate detection at the storage layer.
	CREATE TABLE IF NOT EXISTS payroll_periods (
		canonical_id TEXT PRIMARY KEY,
		frequency TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		cutoff_date TEXT NOT NULL,
		pay_date TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_periods_start
		ON payroll_periods(period_start);

	CREATE TABLE IF NOT EXISTS payroll_results (
		employee_id TEXT NOT NULL,
		period_id TEXT NOT NULL,
		regular_hours REAL NOT NULL,
		overtime_hours REAL NOT NULL,
		holiday_hours REAL NOT NULL,
		gross TEXT NOT NULL,
		social_security TEXT NOT NULL,
		tax TEXT NOT NULL,
		salary_advances TEXT NOT NULL,
		other_deductions TEXT NOT NULL,
		total_deductions TEXT NOT NULL,
		net TEXT NOT NULL,
		calculated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, period_id)
	);

	CREATE TABLE IF NOT EXISTS scheduler_runs (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		frequency TEXT NOT NULL,
		periods_created INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) CreateEmployee(ctx context.Context, e store.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, hourly_rate, branch_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.HourlyRate.Value.String(), e.BranchID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id engine.EmployeeID) (store.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, hourly_rate, branch_id, created_at
		FROM employees WHERE id = ?`, id)
	return scanEmployee(row)
}

func (s *Store) ListEmployees(ctx context.Context) ([]store.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, hourly_rate, branch_id, created_at
		FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var out []store.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (store.Employee, error) {
	var e store.Employee
	var rate, createdAt string
	var branchID sql.NullString
	if err := row.Scan(&e.ID, &e.Name, &rate, &branchID, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return store.Employee{}, engine.ErrEmployeeNotFound
		}
		return store.Employee{}, fmt.Errorf("failed to scan employee: %w", err)
	}
	e.HourlyRate = engine.MustParseMoney(rate)
	e.BranchID = engine.BranchID(branchID.String)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, nil
}

// =============================================================================
// BRANCHES
// =============================================================================

func (s *Store) CreateBranch(ctx context.Context, b store.Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO branches (id, name, latitude, longitude, radius_meters, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Latitude, b.Longitude, b.RadiusMeters,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create branch: %w", err)
	}
	return nil
}

func (s *Store) GetBranch(ctx context.Context, id engine.BranchID) (store.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b store.Branch
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, latitude, longitude, radius_meters, created_at
		FROM branches WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.Latitude, &b.Longitude, &b.RadiusMeters, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return store.Branch{}, engine.ErrBranchNotFound
		}
		return store.Branch{}, fmt.Errorf("failed to get branch: %w", err)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return b, nil
}

// =============================================================================
// ATTENDANCE ENTRIES
// =============================================================================

func (s *Store) OpenEntry(ctx context.Context, e store.AttendanceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance_entries
		(id, employee_id, date, clock_in, clock_out, hours, holiday, latitude, longitude, accuracy_meters)
		VALUES (?, ?, ?, ?, NULL, 0, ?, ?, ?, ?)`,
		e.ID, e.EmployeeID, e.Date.String(),
		e.ClockIn.UTC().Format(time.RFC3339),
		e.Holiday, e.Latitude, e.Longitude, e.AccuracyMeters,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return engine.ErrOpenAttendanceEntry
		}
		return fmt.Errorf("failed to open attendance entry: %w", err)
	}
	return nil
}

func (s *Store) CloseEntry(ctx context.Context, id engine.EmployeeID, at time.Time) (store.AttendanceEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entryID, clockInStr string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, clock_in FROM attendance_entries
		WHERE employee_id = ? AND clock_out IS NULL`, id).Scan(&entryID, &clockInStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return store.AttendanceEntry{}, engine.ErrNoOpenAttendanceEntry
		}
		return store.AttendanceEntry{}, fmt.Errorf("failed to find open entry: %w", err)
	}

	clockIn, err := time.Parse(time.RFC3339, clockInStr)
	if err != nil {
		return store.AttendanceEntry{}, fmt.Errorf("failed to parse clock-in time: %w", err)
	}
	hours := at.Sub(clockIn).Hours()
	if hours < 0 {
		hours = 0
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE attendance_entries SET clock_out = ?, hours = ?
		WHERE id = ?`,
		at.UTC().Format(time.RFC3339), hours, entryID,
	)
	if err != nil {
		return store.AttendanceEntry{}, fmt.Errorf("failed to close entry: %w", err)
	}
	return s.getEntry(ctx, entryID)
}

func (s *Store) getEntry(ctx context.Context, entryID string) (store.AttendanceEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, date, clock_in, clock_out, hours, holiday,
		       latitude, longitude, accuracy_meters
		FROM attendance_entries WHERE id = ?`, entryID)
	return scanEntry(row)
}

func (s *Store) EntriesInRange(ctx context.Context, id engine.EmployeeID, from, to engine.TimePoint) ([]store.AttendanceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, clock_in, clock_out, hours, holiday,
		       latitude, longitude, accuracy_meters
		FROM attendance_entries
		WHERE employee_id = ? AND clock_out IS NOT NULL AND date >= ? AND date <= ?
		ORDER BY date, clock_in`,
		id, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (s *Store) LocationHistory(ctx context.Context, id engine.EmployeeID, since time.Time) ([]store.AttendanceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, clock_in, clock_out, hours, holiday,
		       latitude, longitude, accuracy_meters
		FROM attendance_entries
		WHERE employee_id = ? AND clock_in >= ?
		ORDER BY clock_in`,
		id, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query location history: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]store.AttendanceEntry, error) {
	var out []store.AttendanceEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row scanner) (store.AttendanceEntry, error) {
	var e store.AttendanceEntry
	var date, clockIn string
	var clockOut sql.NullString
	if err := row.Scan(&e.ID, &e.EmployeeID, &date, &clockIn, &clockOut, &e.Hours,
		&e.Holiday, &e.Latitude, &e.Longitude, &e.AccuracyMeters); err != nil {
		return store.AttendanceEntry{}, fmt.Errorf("failed to scan entry: %w", err)
	}
	e.Date, _ = engine.ParseTimePoint(date)
	e.ClockIn, _ = time.Parse(time.RFC3339, clockIn)
	if clockOut.Valid {
		t, _ := time.Parse(time.RFC3339, clockOut.String)
		e.ClockOut = &t
	}
	return e, nil
}

func (s *Store) RecordRejectedAttempt(ctx context.Context, a store.RejectedAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flagsJSON, _ := json.Marshal(a.Flags)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rejected_attempts
		(id, employee_id, at, latitude, longitude, accuracy_meters, risk_score, flags_json, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EmployeeID, a.At.UTC().Format(time.RFC3339),
		a.Latitude, a.Longitude, a.AccuracyMeters,
		a.RiskScore, string(flagsJSON), a.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to record rejected attempt: %w", err)
	}
	return nil
}

func (s *Store) ListRejectedAttempts(ctx context.Context, id engine.EmployeeID) ([]store.RejectedAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, at, latitude, longitude, accuracy_meters, risk_score, flags_json, reason
		FROM rejected_attempts WHERE employee_id = ? ORDER BY at`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list rejected attempts: %w", err)
	}
	defer rows.Close()

	var out []store.RejectedAttempt
	for rows.Next() {
		var a store.RejectedAttempt
		var at, flagsJSON string
		var reason sql.NullString
		if err := rows.Scan(&a.ID, &a.EmployeeID, &at, &a.Latitude, &a.Longitude,
			&a.AccuracyMeters, &a.RiskScore, &flagsJSON, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan rejected attempt: %w", err)
		}
		a.At, _ = time.Parse(time.RFC3339, at)
		_ = json.Unmarshal([]byte(flagsJSON), &a.Flags)
		a.Reason = reason.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYROLL PERIODS
// =============================================================================

func (s *Store) CreatePeriod(ctx context.Context, p schedule.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_periods
		(canonical_id, frequency, period_start, period_end, cutoff_date, pay_date, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CanonicalID(), p.Frequency,
		p.Start.String(), p.End.String(), p.Cutoff.String(), p.PayDate.String(),
		p.Description, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &engine.DuplicatePeriodError{CanonicalID: p.CanonicalID()}
		}
		return fmt.Errorf("failed to create period: %w", err)
	}
	return nil
}

func (s *Store) GetPeriod(ctx context.Context, canonicalID string) (schedule.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT frequency, period_start, period_end, cutoff_date, pay_date, description
		FROM payroll_periods WHERE canonical_id = ?`, canonicalID)
	p, err := scanPeriod(row)
	if err == sql.ErrNoRows {
		return schedule.Period{}, engine.ErrPeriodNotFound
	}
	return p, err
}

func (s *Store) ListPeriods(ctx context.Context, year int) ([]schedule.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT frequency, period_start, period_end, cutoff_date, pay_date, description
		FROM payroll_periods
		WHERE period_start >= ? AND period_start <= ?
		ORDER BY period_start`,
		fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()

	var out []schedule.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPeriod(row scanner) (schedule.Period, error) {
	var p schedule.Period
	var start, end, cutoff, payDate string
	var description sql.NullString
	if err := row.Scan(&p.Frequency, &start, &end, &cutoff, &payDate, &description); err != nil {
		if err == sql.ErrNoRows {
			return schedule.Period{}, err
		}
		return schedule.Period{}, fmt.Errorf("failed to scan period: %w", err)
	}
	p.Start, _ = engine.ParseTimePoint(start)
	p.End, _ = engine.ParseTimePoint(end)
	p.Cutoff, _ = engine.ParseTimePoint(cutoff)
	p.PayDate, _ = engine.ParseTimePoint(payDate)
	p.Description = description.String
	return p, nil
}

// =============================================================================
// PAYROLL RESULTS
// =============================================================================

// SavePayrollResult upserts by (employee, period). The calculation is
// idempotent, so overwriting is safe: the row is always reproducible.
func (s *Store) SavePayrollResult(ctx context.Context, r store.PayrollResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_results
		(employee_id, period_id, regular_hours, overtime_hours, holiday_hours,
		 gross, social_security, tax, salary_advances, other_deductions, total_deductions, net, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, period_id) DO UPDATE SET
			regular_hours = excluded.regular_hours,
			overtime_hours = excluded.overtime_hours,
			holiday_hours = excluded.holiday_hours,
			gross = excluded.gross,
			social_security = excluded.social_security,
			tax = excluded.tax,
			salary_advances = excluded.salary_advances,
			other_deductions = excluded.other_deductions,
			total_deductions = excluded.total_deductions,
			net = excluded.net,
			calculated_at = excluded.calculated_at`,
		r.EmployeeID, r.PeriodID,
		r.RegularHours, r.OvertimeHours, r.HolidayHours,
		r.Gross.Value.String(), r.SocialSecurity.Value.String(), r.Tax.Value.String(),
		r.SalaryAdvances.Value.String(), r.OtherDeductions.Value.String(),
		r.TotalDeductions.Value.String(), r.Net.Value.String(),
		r.CalculatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save payroll result: %w", err)
	}
	return nil
}

func (s *Store) ListPayrollResults(ctx context.Context, periodID string) ([]store.PayrollResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, period_id, regular_hours, overtime_hours, holiday_hours,
		       gross, social_security, tax, salary_advances, other_deductions, total_deductions, net, calculated_at
		FROM payroll_results WHERE period_id = ? ORDER BY employee_id`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll results: %w", err)
	}
	defer rows.Close()

	var out []store.PayrollResult
	for rows.Next() {
		var r store.PayrollResult
		var gross, ss, tax, adv, other, total, net, calcAt string
		if err := rows.Scan(&r.EmployeeID, &r.PeriodID,
			&r.RegularHours, &r.OvertimeHours, &r.HolidayHours,
			&gross, &ss, &tax, &adv, &other, &total, &net, &calcAt); err != nil {
			return nil, fmt.Errorf("failed to scan payroll result: %w", err)
		}
		r.Gross = engine.MustParseMoney(gross)
		r.SocialSecurity = engine.MustParseMoney(ss)
		r.Tax = engine.MustParseMoney(tax)
		r.SalaryAdvances = engine.MustParseMoney(adv)
		r.OtherDeductions = engine.MustParseMoney(other)
		r.TotalDeductions = engine.MustParseMoney(total)
		r.Net = engine.MustParseMoney(net)
		r.CalculatedAt, _ = time.Parse(time.RFC3339, calcAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// SCHEDULER RUNS
// =============================================================================

func (s *Store) RecordSchedulerRun(ctx context.Context, r store.SchedulerRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduler_runs (id, at, frequency, periods_created)
		VALUES (?, ?, ?, ?)`,
		r.ID, r.At.UTC().Format(time.RFC3339), r.Frequency, r.PeriodsCreated)
	if err != nil {
		return fmt.Errorf("failed to record scheduler run: %w", err)
	}
	return nil
}

func (s *Store) ListSchedulerRuns(ctx context.Context, limit int) ([]store.SchedulerRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, at, frequency, periods_created
		FROM scheduler_runs ORDER BY at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduler runs: %w", err)
	}
	defer rows.Close()

	var out []store.SchedulerRun
	for rows.Next() {
		var r store.SchedulerRun
		var at string
		if err := rows.Scan(&r.ID, &at, &r.Frequency, &r.PeriodsCreated); err != nil {
			return nil, fmt.Errorf("failed to scan scheduler run: %w", err)
		}
		r.At, _ = time.Parse(time.RFC3339, at)
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
