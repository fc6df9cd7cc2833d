package schedule

import (
	"time"

	"github.com/warp/payday-engine/engine"
)

// =============================================================================
// LIFECYCLE STATUS - Pure function of "now" vs the four dates
// =============================================================================

type Status string

const (
	// StatusUpcoming: now < Start.
	StatusUpcoming Status = "upcoming"
	// StatusActive: Start <= now <= End.
	StatusActive Status = "active"
	// StatusCutoff: End < now < Cutoff. Inputs may still be amended.
	StatusCutoff Status = "cutoff"
	// StatusProcessing: Cutoff <= now < PayDate. Payroll may run.
	StatusProcessing Status = "processing"
	// StatusCompleted: now >= PayDate.
	StatusCompleted Status = "completed"
)

// StatusAt derives the lifecycle state for a single instant. Callers should
// read the clock once and pass the same instant to every status question
// asked within one logical operation.
func (p Period) StatusAt(now time.Time) Status {
	d := engine.FromTime(now)
	switch {
	case d.Before(p.Start):
		return StatusUpcoming
	case d.BeforeOrEqual(p.End):
		return StatusActive
	case d.Before(p.Cutoff):
		return StatusCutoff
	case d.Before(p.PayDate):
		return StatusProcessing
	default:
		return StatusCompleted
	}
}

// CanProcessAt is the gate an external payroll workflow must check before
// calculating a period: true once the cutoff has been reached (state is
// processing or completed).
func (p Period) CanProcessAt(now time.Time) bool {
	return engine.FromTime(now).AfterOrEqual(p.Cutoff)
}

// DaysUntilPayAt returns calendar days from now to the pay date; zero or
// negative once the pay date has arrived.
func (p Period) DaysUntilPayAt(now time.Time) int {
	return engine.DaysBetween(engine.FromTime(now), p.PayDate)
}
