/*
batch.go - Concurrent multi-employee payroll driver

PURPOSE:
  "Run payroll for N employees" with partial-failure semantics: one
  employee's bad rate must not block the other 99. Each employee is an
  independent pure calculation, so the batch is embarrassingly parallel
  and needs no coordination between items.

DESIGN:
  - Bounded worker pool (Workers, default 4)
  - Per-employee outcomes collected; advisory validation problems are
    recorded as item failures rather than aborting the batch
  - Cancellation stops submitting further work; items already in flight
    finish and are reported
  - A Progress handle exposes running completed/failed counts while a
    batch is in flight; each run gets its own handle, so concurrent
    batches against one runner never share counters

SEE ALSO:
  - calc.go: The per-employee calculation
*/
package payroll

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/warp/payday-engine/attendance"
	"github.com/warp/payday-engine/engine"
)

// =============================================================================
// BATCH INPUT/OUTPUT
// =============================================================================

// Item is one employee's payroll input.
type Item struct {
	EmployeeID      engine.EmployeeID
	Hours           attendance.Breakdown
	HourlyRate      engine.Money
	SalaryAdvances  engine.Money
	OtherDeductions engine.Money
}

// ItemResult is one employee's outcome. Exactly one of Result/Problems is
// meaningful: a nil Problems slice means the calculation succeeded.
type ItemResult struct {
	EmployeeID engine.EmployeeID
	Result     Result
	Problems   []string
}

// Failed reports whether this item was rejected by advisory validation.
func (r ItemResult) Failed() bool { return len(r.Problems) > 0 }

// BatchResult collects all outcomes, ordered by employee ID for determinism.
type BatchResult struct {
	Items     []ItemResult
	Completed int
	Failed    int
	Cancelled bool
}

// =============================================================================
// RUNNER
// =============================================================================

// Runner executes batches against a single calculator configuration. It
// holds no per-batch state, so one runner may serve concurrent runs.
type Runner struct {
	calc    *Calculator
	workers int
}

// NewRunner creates a batch runner. workers <= 0 selects the default of 4.
func NewRunner(calc *Calculator, workers int) *Runner {
	if workers <= 0 {
		workers = 4
	}
	return &Runner{calc: calc, workers: workers}
}

// Progress tracks the running completed/failed counts of one batch. Safe
// to read from another goroutine while the batch is in flight.
type Progress struct {
	completed atomic.Int64
	failed    atomic.Int64
}

// Counts returns the completed/failed totals observed so far.
func (p *Progress) Counts() (completed, failed int) {
	return int(p.completed.Load()), int(p.failed.Load())
}

// Run calculates payroll for every item. Items whose advisory validation
// reports problems are recorded as failures; everything else gets a full
// Result. Cancelling the context stops submitting further items.
func (r *Runner) Run(ctx context.Context, items []Item) BatchResult {
	return r.RunWithProgress(ctx, items, &Progress{})
}

// RunWithProgress is Run with a caller-supplied progress handle for
// observing a batch while it is in flight.
func (r *Runner) RunWithProgress(ctx context.Context, items []Item, prog *Progress) BatchResult {
	jobs := make(chan Item)
	results := make(chan ItemResult, len(items))

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				results <- r.runOne(item, prog)
			}
		}()
	}

	cancelled := false
submit:
	for _, item := range items {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		select {
		case <-ctx.Done():
			cancelled = true
			break submit
		case jobs <- item:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := BatchResult{Cancelled: cancelled}
	for res := range results {
		if res.Failed() {
			out.Failed++
		} else {
			out.Completed++
		}
		out.Items = append(out.Items, res)
	}
	sort.Slice(out.Items, func(i, j int) bool {
		return strings.Compare(string(out.Items[i].EmployeeID), string(out.Items[j].EmployeeID)) < 0
	})
	return out
}

func (r *Runner) runOne(item Item, prog *Progress) ItemResult {
	problems := r.calc.ValidateInput(item.Hours, item.HourlyRate, item.SalaryAdvances, item.OtherDeductions)
	if len(problems) > 0 {
		prog.failed.Add(1)
		return ItemResult{EmployeeID: item.EmployeeID, Problems: problems}
	}

	result := r.calc.Calculate(item.Hours, item.HourlyRate, item.SalaryAdvances, item.OtherDeductions)
	prog.completed.Add(1)
	return ItemResult{EmployeeID: item.EmployeeID, Result: result}
}
