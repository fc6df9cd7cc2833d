/*
Package schedule generates payroll period boundaries and derives their
lifecycle status.

PURPOSE:
  A payroll period is four dates: when work starts counting, when it stops,
  when inputs freeze (cutoff), and when pay goes out. This package derives
  those dates from a pay frequency, and answers the one question an external
  payroll workflow must ask before calculating: "may this period be
  processed yet?"

KEY INSIGHT:
  Status is NOT stored state. It is a pure function of "now" against the
  four dates, so a period can never be in a stale or inconsistent state -
  there is nothing to keep in sync. Now is read once per operation.

LIFECYCLE (wall-clock driven):
  upcoming -> active -> cutoff -> processing -> completed

IDENTITY:
  (frequency, start, end) is the canonical period identity. The scheduler
  computes it deterministically; duplicate detection against that identity
  belongs to the persistence layer.

SEE ALSO:
  - status.go: The lifecycle state machine and processing gate
  - payroll/calc.go: The calculation the cutoff gate protects
*/
package schedule

import (
	"fmt"

	"github.com/warp/payday-engine/engine"
)

// =============================================================================
// FREQUENCY
// =============================================================================

type Frequency string

const (
	Weekly   Frequency = "weekly"
	BiWeekly Frequency = "bi-weekly"
	Monthly  Frequency = "monthly"
	Custom   Frequency = "custom"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case Weekly, BiWeekly, Monthly, Custom:
		return true
	}
	return false
}

// =============================================================================
// PERIOD
// =============================================================================

// Period is one payroll period. Immutable once generated.
// Invariant for a valid period: Start <= End < Cutoff <= PayDate.
type Period struct {
	Frequency   Frequency
	Start       engine.TimePoint
	End         engine.TimePoint
	Cutoff      engine.TimePoint
	PayDate     engine.TimePoint
	Description string
}

// CanonicalID is the deterministic identity (frequency, start, end). A
// persistence layer can key on it for duplicate detection.
func (p Period) CanonicalID() string {
	return fmt.Sprintf("%s:%s:%s", p.Frequency, p.Start, p.End)
}

// Contains returns true if the date is within [Start, End], inclusive
// both ends.
func (p Period) Contains(d engine.TimePoint) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return fmt.Sprintf("[%s, %s] pay %s", p.Start, p.End, p.PayDate)
}

// Validate returns ordering-violation problems as human-readable strings,
// mirroring the payroll calculator's advisory style. The caller decides
// whether problems are blocking.
func (p Period) Validate() []string {
	var problems []string
	if p.Start.After(p.End) {
		problems = append(problems, fmt.Sprintf("period start %s is after period end %s", p.Start, p.End))
	}
	if !p.End.Before(p.Cutoff) {
		problems = append(problems, fmt.Sprintf("cutoff %s must fall after period end %s", p.Cutoff, p.End))
	}
	if p.Cutoff.After(p.PayDate) {
		problems = append(problems, fmt.Sprintf("cutoff %s is after pay date %s", p.Cutoff, p.PayDate))
	}
	return problems
}

// =============================================================================
// SCHEDULER
// =============================================================================

// Spec describes the period to generate.
type Spec struct {
	Frequency Frequency
	StartDate engine.TimePoint

	// For Custom only: caller-supplied boundaries passed through unchanged.
	CustomStart engine.TimePoint
	CustomEnd   engine.TimePoint

	// CutoffDays before pay date; PayDays after period end. Nil selects
	// the defaults (3 and 7); an explicit 0 is honored, so a cutoff may
	// coincide with the pay date.
	CutoffDays *int
	PayDays    *int
}

const (
	DefaultCutoffDays = 3
	DefaultPayDays    = 7
)

// GeneratePeriod derives the period containing (or anchored at) the spec's
// start date. An unknown frequency is a caller contract violation and is
// returned as engine.ErrUnsupportedFrequency.
func GeneratePeriod(spec Spec) (Period, error) {
	cutoffDays := DefaultCutoffDays
	if spec.CutoffDays != nil {
		cutoffDays = *spec.CutoffDays
	}
	payDays := DefaultPayDays
	if spec.PayDays != nil {
		payDays = *spec.PayDays
	}

	var start, end engine.TimePoint
	var description string

	switch spec.Frequency {
	case Weekly:
		// The ISO week (Monday-Sunday) containing the start date.
		start = engine.StartOfWeek(spec.StartDate)
		end = start.AddDays(6)
		description = fmt.Sprintf("Week of %s", start)

	case BiWeekly:
		// Two consecutive ISO weeks starting from the containing week.
		start = engine.StartOfWeek(spec.StartDate)
		end = start.AddDays(13)
		description = fmt.Sprintf("Bi-week of %s", start)

	case Monthly:
		// The full calendar month containing the start date.
		start = engine.StartOfMonth(spec.StartDate.Year(), spec.StartDate.Month())
		end = engine.EndOfMonth(spec.StartDate.Year(), spec.StartDate.Month())
		description = start.Time.Format("January 2006")

	case Custom:
		// Pass-through: no date derivation for this variant.
		start = spec.CustomStart
		end = spec.CustomEnd
		description = fmt.Sprintf("Custom %s to %s", start, end)

	default:
		return Period{}, &FrequencyContractError{Frequency: string(spec.Frequency)}
	}

	payDate := end.AddDays(payDays)
	cutoff := payDate.AddDays(-cutoffDays)

	return Period{
		Frequency:   spec.Frequency,
		Start:       start,
		End:         end,
		Cutoff:      cutoff,
		PayDate:     payDate,
		Description: description,
	}, nil
}

// GeneratePeriodsForYear iterates the frequency's step from January 1 and
// returns a flat ordered list of every period whose start falls in the
// target year. This is the batch pre-population path.
func GeneratePeriodsForYear(year int, freq Frequency, cutoffDays, payDays *int) ([]Period, error) {
	switch freq {
	case Weekly, BiWeekly, Monthly:
	default:
		// Custom has no step to iterate; anything else is unknown.
		return nil, &FrequencyContractError{Frequency: string(freq)}
	}

	var periods []Period
	cursor := engine.StartOfYear(year)

	for {
		period, err := GeneratePeriod(Spec{
			Frequency:  freq,
			StartDate:  cursor,
			CutoffDays: cutoffDays,
			PayDays:    payDays,
		})
		if err != nil {
			return nil, err
		}
		if period.Start.Year() > year {
			break
		}
		// The week containing Jan 1 may start in the previous December;
		// it still belongs to the target year's run.
		periods = append(periods, period)

		switch freq {
		case Weekly:
			cursor = period.Start.AddDays(7)
		case BiWeekly:
			cursor = period.Start.AddDays(14)
		case Monthly:
			cursor = period.Start.AddMonths(1)
		}
	}
	return periods, nil
}

// FrequencyContractError wraps the sentinel with the offending value.
type FrequencyContractError struct {
	Frequency string
}

func (e *FrequencyContractError) Error() string {
	return fmt.Sprintf("unsupported pay frequency %q", e.Frequency)
}

func (e *FrequencyContractError) Unwrap() error {
	return engine.ErrUnsupportedFrequency
}
