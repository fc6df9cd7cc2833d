// Package memory provides an in-memory store.Store implementation
// (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/payday-engine/engine"
	"github.com/warp/payday-engine/schedule"
	"github.com/warp/payday-engine/store"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

var _ store.Store = (*Memory)(nil)

type Memory struct {
	mu        sync.RWMutex
	employees map[engine.EmployeeID]store.Employee
	branches  map[engine.BranchID]store.Branch
	entries   []store.AttendanceEntry
	rejected  []store.RejectedAttempt
	periods   map[string]schedule.Period
	results   map[resultKey]store.PayrollResult
	runs      []store.SchedulerRun
}

type resultKey struct {
	EmployeeID engine.EmployeeID
	PeriodID   string
}

func New() *Memory {
	return &Memory{
		employees: make(map[engine.EmployeeID]store.Employee),
		branches:  make(map[engine.BranchID]store.Branch),
		periods:   make(map[string]schedule.Period),
		results:   make(map[resultKey]store.PayrollResult),
	}
}

// Employees

func (m *Memory) CreateEmployee(_ context.Context, e store.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id engine.EmployeeID) (store.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return store.Employee{}, engine.ErrEmployeeNotFound
	}
	return e, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]store.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]store.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Branches

func (m *Memory) CreateBranch(_ context.Context, b store.Branch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.branches[b.ID] = b
	return nil
}

func (m *Memory) GetBranch(_ context.Context, id engine.BranchID) (store.Branch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.branches[id]
	if !ok {
		return store.Branch{}, engine.ErrBranchNotFound
	}
	return b, nil
}

// Attendance entries

func (m *Memory) OpenEntry(_ context.Context, e store.AttendanceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Open-entry uniqueness checked under the same lock that inserts, so
	// this is as race-free as the SQL partial index.
	for _, have := range m.entries {
		if have.EmployeeID == e.EmployeeID && have.ClockOut == nil {
			return engine.ErrOpenAttendanceEntry
		}
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *Memory) CloseEntry(_ context.Context, id engine.EmployeeID, at time.Time) (store.AttendanceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].EmployeeID == id && m.entries[i].ClockOut == nil {
			out := at
			hours := at.Sub(m.entries[i].ClockIn).Hours()
			if hours < 0 {
				hours = 0
			}
			m.entries[i].ClockOut = &out
			m.entries[i].Hours = hours
			return m.entries[i], nil
		}
	}
	return store.AttendanceEntry{}, engine.ErrNoOpenAttendanceEntry
}

func (m *Memory) EntriesInRange(_ context.Context, id engine.EmployeeID, from, to engine.TimePoint) ([]store.AttendanceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.AttendanceEntry
	for _, e := range m.entries {
		if e.EmployeeID == id && e.ClockOut != nil &&
			e.Date.AfterOrEqual(from) && e.Date.BeforeOrEqual(to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.Before(out[j].ClockIn) })
	return out, nil
}

func (m *Memory) LocationHistory(_ context.Context, id engine.EmployeeID, since time.Time) ([]store.AttendanceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.AttendanceEntry
	for _, e := range m.entries {
		if e.EmployeeID == id && !e.ClockIn.Before(since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.Before(out[j].ClockIn) })
	return out, nil
}

func (m *Memory) RecordRejectedAttempt(_ context.Context, a store.RejectedAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, a)
	return nil
}

func (m *Memory) ListRejectedAttempts(_ context.Context, id engine.EmployeeID) ([]store.RejectedAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.RejectedAttempt
	for _, a := range m.rejected {
		if a.EmployeeID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

// Periods

func (m *Memory) CreatePeriod(_ context.Context, p schedule.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := p.CanonicalID()
	if _, exists := m.periods[id]; exists {
		return &engine.DuplicatePeriodError{CanonicalID: id}
	}
	m.periods[id] = p
	return nil
}

func (m *Memory) GetPeriod(_ context.Context, canonicalID string) (schedule.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.periods[canonicalID]
	if !ok {
		return schedule.Period{}, engine.ErrPeriodNotFound
	}
	return p, nil
}

func (m *Memory) ListPeriods(_ context.Context, year int) ([]schedule.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schedule.Period
	for _, p := range m.periods {
		if p.Start.Year() == year {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Payroll results

func (m *Memory) SavePayrollResult(_ context.Context, r store.PayrollResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[resultKey{EmployeeID: r.EmployeeID, PeriodID: r.PeriodID}] = r
	return nil
}

func (m *Memory) ListPayrollResults(_ context.Context, periodID string) ([]store.PayrollResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.PayrollResult
	for k, r := range m.results {
		if k.PeriodID == periodID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

// Scheduler runs

func (m *Memory) RecordSchedulerRun(_ context.Context, r store.SchedulerRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

func (m *Memory) ListSchedulerRuns(_ context.Context, limit int) ([]store.SchedulerRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.runs) {
		limit = len(m.runs)
	}
	out := make([]store.SchedulerRun, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}
