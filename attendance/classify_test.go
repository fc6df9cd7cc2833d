package attendance_test

import (
	"testing"
	"time"

	"github.com/warp/payday-engine/attendance"
	"github.com/warp/payday-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestClassifier() *attendance.Classifier {
	return attendance.NewClassifier(attendance.DefaultConfig())
}

func march(day int) engine.TimePoint {
	return engine.NewTimePoint(2026, time.March, day)
}

func assertBreakdown(t *testing.T, got attendance.Breakdown, regular, overtime, holiday float64) {
	t.Helper()
	if got.Regular != regular {
		t.Errorf("regular: expected %.2f, got %.2f", regular, got.Regular)
	}
	if got.Overtime != overtime {
		t.Errorf("overtime: expected %.2f, got %.2f", overtime, got.Overtime)
	}
	if got.Holiday != holiday {
		t.Errorf("holiday: expected %.2f, got %.2f", holiday, got.Holiday)
	}
	if got.Total != regular+overtime+holiday {
		t.Errorf("total %.2f does not equal sum of buckets %.2f", got.Total, regular+overtime+holiday)
	}
}

// =============================================================================
// SINGLE DAY CLASSIFICATION
// =============================================================================

func TestClassifyDay_UnderThreshold_AllRegular(t *testing.T) {
	// GIVEN: A 6-hour ordinary day with an 8-hour threshold
	// WHEN: Classifying
	// THEN: All 6 hours are regular, no overtime

	c := newTestClassifier()

	b := c.ClassifyDay(attendance.Day{Date: march(2), Hours: 6})

	assertBreakdown(t, b, 6, 0, 0)
}

func TestClassifyDay_ExactlyThreshold_NoOvertime(t *testing.T) {
	c := newTestClassifier()

	b := c.ClassifyDay(attendance.Day{Date: march(2), Hours: 8})

	assertBreakdown(t, b, 8, 0, 0)
}

func TestClassifyDay_OverThreshold_RemainderIsOvertime(t *testing.T) {
	// GIVEN: A 10-hour ordinary day
	// WHEN: Classifying
	// THEN: 8 regular + 2 overtime

	c := newTestClassifier()

	b := c.ClassifyDay(attendance.Day{Date: march(2), Hours: 10})

	assertBreakdown(t, b, 8, 2, 0)
}

func TestClassifyDay_Holiday_NoDailyCap(t *testing.T) {
	// GIVEN: A 12-hour day flagged as a holiday
	// WHEN: Classifying
	// THEN: All 12 hours land in the holiday bucket; the 8-hour cap does
	//       not apply to holiday work

	c := newTestClassifier()

	b := c.ClassifyDay(attendance.Day{Date: march(8), Hours: 12, Holiday: true})

	assertBreakdown(t, b, 0, 0, 12)
}

// =============================================================================
// INTERVAL AGGREGATION
// =============================================================================

func TestAggregateDays_SplitShift_SummedPerDate(t *testing.T) {
	// GIVEN: Two intervals on the same date (6h morning, 4h evening)
	// WHEN: Aggregating and classifying
	// THEN: They merge into one 10-hour day: 8 regular + 2 overtime

	c := newTestClassifier()
	intervals := []attendance.Interval{
		{Date: march(2), Hours: 6},
		{Date: march(2), Hours: 4},
	}

	days := attendance.AggregateDays(intervals)
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}

	b := c.ClassifyDays(days)
	assertBreakdown(t, b, 8, 2, 0)
}

func TestAggregateDays_HolidayFlagWins(t *testing.T) {
	// GIVEN: One flagged and one unflagged interval on the same date
	// WHEN: Aggregating
	// THEN: The whole day is a holiday (any-flag-wins)

	days := attendance.AggregateDays([]attendance.Interval{
		{Date: march(8), Hours: 4},
		{Date: march(8), Hours: 3, Holiday: true},
	})

	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	if !days[0].Holiday {
		t.Error("expected the merged day to be flagged holiday")
	}
	if days[0].Hours != 7 {
		t.Errorf("expected 7 hours, got %.2f", days[0].Hours)
	}
}

func TestAggregateDays_OrderedByDate(t *testing.T) {
	// GIVEN: Intervals supplied out of order
	// WHEN: Aggregating
	// THEN: Days come back in calendar order, deterministically

	days := attendance.AggregateDays([]attendance.Interval{
		{Date: march(15), Hours: 8},
		{Date: march(3), Hours: 8},
		{Date: march(9), Hours: 8},
	})

	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	for i := 1; i < len(days); i++ {
		if !days[i-1].Date.Before(days[i].Date) {
			t.Errorf("days out of order at index %d: %s then %s", i, days[i-1].Date, days[i].Date)
		}
	}
}

func TestAggregateDays_Empty(t *testing.T) {
	days := attendance.AggregateDays(nil)
	if len(days) != 0 {
		t.Errorf("expected no days, got %d", len(days))
	}
}

// =============================================================================
// FULL PIPELINE
// =============================================================================

func TestClassifyIntervals_MixedMonth(t *testing.T) {
	// GIVEN: An ordinary 8h day, a 10h day, and an 8h holiday
	// WHEN: Running the full pipeline
	// THEN: 16 regular + 2 overtime + 8 holiday

	c := newTestClassifier()

	b := c.ClassifyIntervals([]attendance.Interval{
		{Date: march(2), Hours: 8},
		{Date: march(3), Hours: 10},
		{Date: march(8), Hours: 8, Holiday: true},
	})

	assertBreakdown(t, b, 16, 2, 8)
}

func TestClassifyIntervals_CustomThreshold(t *testing.T) {
	// GIVEN: A jurisdiction with a 6-hour standard day
	// WHEN: Classifying an 8-hour day
	// THEN: 6 regular + 2 overtime under the injected threshold

	c := attendance.NewClassifier(attendance.Config{DailyRegularHours: 6})

	b := c.ClassifyIntervals([]attendance.Interval{{Date: march(2), Hours: 8}})

	assertBreakdown(t, b, 6, 2, 0)
}
