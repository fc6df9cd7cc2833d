package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payday-engine/engine"
	"github.com/warp/payday-engine/schedule"
	"github.com/warp/payday-engine/store"
	"github.com/warp/payday-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testEmployee(id string) store.Employee {
	return store.Employee{
		ID:         engine.EmployeeID(id),
		Name:       "Test Employee " + id,
		HourlyRate: engine.MoneyFromInt(150),
		BranchID:   "branch-1",
	}
}

func openEntry(t *testing.T, s *sqlite.Store, employeeID, entryID string, clockIn time.Time) {
	t.Helper()
	err := s.OpenEntry(context.Background(), store.AttendanceEntry{
		ID:         entryID,
		EmployeeID: engine.EmployeeID(employeeID),
		Date:       engine.FromTime(clockIn),
		ClockIn:    clockIn,
		Latitude:   13.7563,
		Longitude:  100.5018,
	})
	require.NoError(t, err)
}

// =============================================================================
// EMPLOYEES AND BRANCHES
// =============================================================================

func TestEmployee_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateEmployee(ctx, testEmployee("emp-1")))

	got, err := s.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, engine.EmployeeID("emp-1"), got.ID)
	assert.True(t, got.HourlyRate.Equal(engine.MoneyFromInt(150)))
	assert.Equal(t, engine.BranchID("branch-1"), got.BranchID)
}

func TestEmployee_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetEmployee(context.Background(), "ghost")
	assert.ErrorIs(t, err, engine.ErrEmployeeNotFound)
}

func TestBranch_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBranch(ctx, store.Branch{
		ID: "branch-1", Name: "HQ",
		Latitude: 13.7563, Longitude: 100.5018, RadiusMeters: 50,
	}))

	got, err := s.GetBranch(ctx, "branch-1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.RadiusMeters)

	_, err = s.GetBranch(ctx, "ghost")
	assert.ErrorIs(t, err, engine.ErrBranchNotFound)
}

// =============================================================================
// ATTENDANCE ENTRIES
// =============================================================================

func TestOpenEntry_SecondOpenEntry_Rejected(t *testing.T) {
	// GIVEN: An employee with an open entry (no clock-out)
	// WHEN: Opening a second entry for the same employee
	// THEN: The partial unique index rejects it with the sentinel; another
	//       employee's open entry is unaffected

	s := newTestStore(t)
	now := time.Now().UTC()

	openEntry(t, s, "emp-1", "entry-1", now)

	err := s.OpenEntry(context.Background(), store.AttendanceEntry{
		ID:         "entry-2",
		EmployeeID: "emp-1",
		Date:       engine.FromTime(now),
		ClockIn:    now.Add(time.Second),
	})
	assert.ErrorIs(t, err, engine.ErrOpenAttendanceEntry)

	openEntry(t, s, "emp-2", "entry-3", now)
}

func TestCloseEntry_DerivesHoursFromClockIn(t *testing.T) {
	// GIVEN: An entry opened 8 hours ago
	// WHEN: Closing it now
	// THEN: Hours are derived from the stored clock-in, and a new entry can
	//       be opened afterwards

	s := newTestStore(t)
	ctx := context.Background()
	clockIn := time.Now().UTC().Add(-8 * time.Hour).Truncate(time.Second)

	openEntry(t, s, "emp-1", "entry-1", clockIn)

	entry, err := s.CloseEntry(ctx, "emp-1", clockIn.Add(8*time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 8.0, entry.Hours, 0.001)
	require.NotNil(t, entry.ClockOut)

	// The slot is free again
	openEntry(t, s, "emp-1", "entry-2", time.Now().UTC())
}

func TestCloseEntry_NoOpenEntry(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CloseEntry(context.Background(), "emp-1", time.Now())
	assert.ErrorIs(t, err, engine.ErrNoOpenAttendanceEntry)
}

func TestEntriesInRange_ClosedOnly_InclusiveDates(t *testing.T) {
	// GIVEN: Closed entries on Mar 1 and Mar 31, one outside the range,
	//        and one still open
	// WHEN: Querying March
	// THEN: Only the two closed March entries come back, date-ordered

	s := newTestStore(t)
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 31, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		entryID := fmt.Sprintf("entry-%d", i)
		openEntry(t, s, "emp-1", entryID, d)
		_, err := s.CloseEntry(ctx, "emp-1", d.Add(8*time.Hour))
		require.NoError(t, err)
	}
	openEntry(t, s, "emp-1", "entry-open", time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC))

	entries, err := s.EntriesInRange(ctx, "emp-1",
		engine.NewTimePoint(2026, time.March, 1),
		engine.NewTimePoint(2026, time.March, 31))
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "2026-03-01", entries[0].Date.String())
	assert.Equal(t, "2026-03-31", entries[1].Date.String())
}

func TestLocationHistory_SinceFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	openEntry(t, s, "emp-1", "old", now.Add(-40*24*time.Hour))
	_, err := s.CloseEntry(ctx, "emp-1", now.Add(-40*24*time.Hour).Add(8*time.Hour))
	require.NoError(t, err)
	openEntry(t, s, "emp-1", "recent", now.Add(-time.Hour))

	history, err := s.LocationHistory(ctx, "emp-1", now.Add(-30*24*time.Hour))
	require.NoError(t, err)

	require.Len(t, history, 1)
	assert.Equal(t, "recent", history[0].ID)
}

func TestRejectedAttempts_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	attempt := store.RejectedAttempt{
		ID:             "attempt-1",
		EmployeeID:     "emp-1",
		At:             time.Now().UTC().Truncate(time.Second),
		Latitude:       18.7883,
		Longitude:      98.9853,
		AccuracyMeters: 15,
		RiskScore:      90,
		Flags:          []string{"OUTSIDE_RADIUS", "IMPOSSIBLE_SPEED"},
		Reason:         "you are 587000m from the workplace, max allowed 50m",
	}
	require.NoError(t, s.RecordRejectedAttempt(ctx, attempt))

	attempts, err := s.ListRejectedAttempts(ctx, "emp-1")
	require.NoError(t, err)

	require.Len(t, attempts, 1)
	assert.Equal(t, attempt.Flags, attempts[0].Flags)
	assert.Equal(t, attempt.RiskScore, attempts[0].RiskScore)
	assert.Equal(t, attempt.Reason, attempts[0].Reason)
}

// =============================================================================
// PAYROLL PERIODS
// =============================================================================

func marchPeriod(t *testing.T) schedule.Period {
	t.Helper()
	p, err := schedule.GeneratePeriod(schedule.Spec{
		Frequency: schedule.Monthly,
		StartDate: engine.NewTimePoint(2026, time.March, 1),
	})
	require.NoError(t, err)
	return p
}

func TestCreatePeriod_DuplicateIdentity_Rejected(t *testing.T) {
	// GIVEN: A period persisted under its canonical identity
	// WHEN: Creating the same (frequency, start, end) again
	// THEN: The storage layer rejects it with the duplicate sentinel

	s := newTestStore(t)
	ctx := context.Background()
	p := marchPeriod(t)

	require.NoError(t, s.CreatePeriod(ctx, p))

	err := s.CreatePeriod(ctx, p)
	assert.ErrorIs(t, err, engine.ErrDuplicatePeriod)

	var dup *engine.DuplicatePeriodError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, p.CanonicalID(), dup.CanonicalID)
}

func TestPeriod_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := marchPeriod(t)

	require.NoError(t, s.CreatePeriod(ctx, p))

	got, err := s.GetPeriod(ctx, p.CanonicalID())
	require.NoError(t, err)
	assert.True(t, got.Start.Equal(p.Start))
	assert.True(t, got.Cutoff.Equal(p.Cutoff))
	assert.Equal(t, p.Description, got.Description)

	_, err = s.GetPeriod(ctx, "monthly:1999-01-01:1999-01-31")
	assert.ErrorIs(t, err, engine.ErrPeriodNotFound)
}

func TestListPeriods_FilteredByYear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, year := range []int{2025, 2026} {
		p, err := schedule.GeneratePeriod(schedule.Spec{
			Frequency: schedule.Monthly,
			StartDate: engine.NewTimePoint(year, time.June, 1),
		})
		require.NoError(t, err)
		require.NoError(t, s.CreatePeriod(ctx, p))
	}

	periods, err := s.ListPeriods(ctx, 2026)
	require.NoError(t, err)

	require.Len(t, periods, 1)
	assert.Equal(t, 2026, periods[0].Start.Year())
}

// =============================================================================
// PAYROLL RESULTS
// =============================================================================

func TestSavePayrollResult_RerunOverwrites(t *testing.T) {
	// GIVEN: A saved result for (employee, period)
	// WHEN: Saving the same key with different amounts
	// THEN: The row is overwritten, never duplicated; re-runs are safe

	s := newTestStore(t)
	ctx := context.Background()

	result := store.PayrollResult{
		EmployeeID:      "emp-1",
		PeriodID:        "monthly:2026-03-01:2026-03-31",
		RegularHours:    160,
		Gross:           engine.MoneyFromInt(24000),
		SocialSecurity:  engine.MoneyFromInt(750),
		Tax:             engine.MoneyFromInt(100),
		SalaryAdvances:  engine.MoneyZero(),
		OtherDeductions: engine.MoneyZero(),
		TotalDeductions: engine.MoneyFromInt(850),
		Net:             engine.MoneyFromInt(23150),
		CalculatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.SavePayrollResult(ctx, result))

	result.OvertimeHours = 10
	result.Gross = engine.MoneyFromInt(26250)
	require.NoError(t, s.SavePayrollResult(ctx, result))

	results, err := s.ListPayrollResults(ctx, result.PeriodID)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, 10.0, results[0].OvertimeHours)
	assert.True(t, results[0].Gross.Equal(engine.MoneyFromInt(26250)))
}

// =============================================================================
// SCHEDULER RUNS
// =============================================================================

func TestSchedulerRuns_NewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordSchedulerRun(ctx, store.SchedulerRun{
			ID:             fmt.Sprintf("run-%d", i),
			At:             base.Add(time.Duration(i) * time.Minute),
			Frequency:      schedule.Monthly,
			PeriodsCreated: 1,
		}))
	}

	runs, err := s.ListSchedulerRuns(ctx, 2)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
}
