/*
Package attendance classifies raw attendance time into pay buckets.

PURPOSE:
  Turns the attendance intervals recorded for an employee over a payroll
  period into the regular/overtime/holiday hour buckets the payroll
  calculator prices. This is the first stage of the pay pipeline:

    intervals -> days -> Breakdown -> payroll.Calculate

KEY CONCEPTS:
  - Interval: One raw attendance record (a clock-in/out pair, already
    reduced to hours by the caller), tagged with its calendar date
  - Day: All intervals of one calendar date summed together
  - Breakdown: The final regular/overtime/holiday totals

CLASSIFICATION RULES:
  1. Group intervals by calendar date; a date is a holiday if ANY of its
     intervals is flagged holiday (any-flag-wins)
  2. Holiday day: every hour goes to the holiday bucket, no daily cap -
     holiday pay applies regardless of shift length
  3. Ordinary day: the first DailyRegularHours (default 8) are regular,
     the remainder is overtime

CONTRACT:
  Inputs are assumed already validated non-negative; malformed hours are
  rejected downstream by payroll.ValidateInput, not here. Classification
  itself has no error conditions.

SEE ALSO:
  - payroll/calc.go: Prices the Breakdown
  - geofence/validate.go: Gates whether an interval is recorded at all
*/
package attendance

import (
	"sort"

	"github.com/warp/payday-engine/engine"
)

// =============================================================================
// INPUT TYPES
// =============================================================================

// Interval is a single raw attendance record for one calendar date.
type Interval struct {
	Date    engine.TimePoint
	Hours   float64
	Holiday bool
}

// Day is the aggregate of all intervals on one calendar date.
// Immutable once computed for a given input set.
type Day struct {
	Date    engine.TimePoint
	Hours   float64
	Holiday bool
}

// =============================================================================
// OUTPUT TYPE
// =============================================================================

// Breakdown holds the classified hour buckets.
// Invariant: Total = Regular + Overtime + Holiday.
type Breakdown struct {
	Total    float64
	Regular  float64
	Overtime float64
	Holiday  float64
}

// Add merges another breakdown into this one (value semantics).
func (b Breakdown) Add(o Breakdown) Breakdown {
	return Breakdown{
		Total:    b.Total + o.Total,
		Regular:  b.Regular + o.Regular,
		Overtime: b.Overtime + o.Overtime,
		Holiday:  b.Holiday + o.Holiday,
	}
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Config holds the classification thresholds. Injected rather than
// hard-coded so jurisdictions with a different standard day can vary it.
type Config struct {
	// DailyRegularHours is the per-day threshold above which a
	// non-holiday day's hours become overtime.
	DailyRegularHours float64
}

// DefaultConfig returns the standard 8-hour-day configuration.
func DefaultConfig() Config {
	return Config{DailyRegularHours: 8}
}

// Classifier buckets attendance days under a fixed configuration.
type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// AggregateDays groups intervals by calendar date, summing hours.
// A date is a holiday if any contributing interval is flagged holiday.
// The result is ordered by date so repeated calls are deterministic.
func AggregateDays(intervals []Interval) []Day {
	byDate := make(map[string]*Day)
	for _, iv := range intervals {
		k := iv.Date.String()
		d, ok := byDate[k]
		if !ok {
			d = &Day{Date: iv.Date}
			byDate[k] = d
		}
		d.Hours += iv.Hours
		if iv.Holiday {
			d.Holiday = true
		}
	}

	days := make([]Day, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}

// ClassifyDay buckets a single day.
func (c *Classifier) ClassifyDay(day Day) Breakdown {
	if day.Holiday {
		// Entire day is holiday hours, no daily cap.
		return Breakdown{Total: day.Hours, Holiday: day.Hours}
	}

	regular := day.Hours
	overtime := 0.0
	if regular > c.cfg.DailyRegularHours {
		overtime = regular - c.cfg.DailyRegularHours
		regular = c.cfg.DailyRegularHours
	}
	return Breakdown{Total: day.Hours, Regular: regular, Overtime: overtime}
}

// ClassifyDays accumulates the per-day buckets into a final Breakdown.
func (c *Classifier) ClassifyDays(days []Day) Breakdown {
	var total Breakdown
	for _, day := range days {
		total = total.Add(c.ClassifyDay(day))
	}
	return total
}

// ClassifyIntervals is the full pipeline: aggregate then classify.
func (c *Classifier) ClassifyIntervals(intervals []Interval) Breakdown {
	return c.ClassifyDays(AggregateDays(intervals))
}
