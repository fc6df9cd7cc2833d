/*
scheduler.go - Automated payroll period pre-population

PURPOSE:
  Periodically makes sure the current and the next payroll period exist
  for each configured frequency, so a payroll run never has to generate
  its own period on the fly.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Generates the period containing today and the one after it
  - Duplicate periods are skipped: generation is idempotent because the
    period's canonical ID is derived from its dates
  - Records every pass that created at least one period, for audit and UI

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Frequencies:   Which cadences to keep populated (default: monthly)
  - Enabled:       Whether scheduler is active (default: true)

USAGE:
  scheduler := NewPeriodScheduler(store)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: GeneratePeriod endpoint (manual generation)
  - schedule/period.go: Period derivation rules
*/
package api

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/payday-engine/engine"
	"github.com/warp/payday-engine/schedule"
	"github.com/warp/payday-engine/store"
)

// PeriodScheduler keeps upcoming payroll periods populated.
type PeriodScheduler struct {
	Store         store.Store
	Clock         engine.Clock
	CheckInterval time.Duration
	Frequencies   []schedule.Frequency
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPeriodScheduler creates a new scheduler.
func NewPeriodScheduler(st store.Store) *PeriodScheduler {
	return &PeriodScheduler{
		Store:         st,
		Clock:         engine.SystemClock{},
		CheckInterval: 1 * time.Hour,
		Frequencies:   []schedule.Frequency{schedule.Monthly},
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ps *PeriodScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.wg.Add(1)

	go ps.run()

	log.Printf("[Scheduler] Started with check interval: %v", ps.CheckInterval)
}

// Stop stops the scheduler.
func (ps *PeriodScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ps *PeriodScheduler) run() {
	defer ps.wg.Done()

	// Run immediately on start
	ps.checkAndPopulate()

	for {
		select {
		case <-ps.ticker.C:
			ps.checkAndPopulate()
		case <-ps.stop:
			return
		}
	}
}

func (ps *PeriodScheduler) checkAndPopulate() {
	ctx := context.Background()
	now := ps.Clock.Now()

	for _, freq := range ps.Frequencies {
		created, err := ps.populateFrequency(ctx, freq, now)
		if err != nil {
			log.Printf("[Scheduler] Error populating %s periods: %v", freq, err)
			continue
		}
		if created == 0 {
			continue
		}

		log.Printf("[Scheduler] Created %d %s period(s)", created, freq)
		run := store.SchedulerRun{
			ID:             uuid.NewString(),
			At:             now,
			Frequency:      freq,
			PeriodsCreated: created,
		}
		if err := ps.Store.RecordSchedulerRun(ctx, run); err != nil {
			log.Printf("[Scheduler] Error recording run: %v", err)
		}
	}
}

// populateFrequency ensures the period containing today and the following
// period both exist. Returns how many it had to create.
func (ps *PeriodScheduler) populateFrequency(ctx context.Context, freq schedule.Frequency, now time.Time) (int, error) {
	today := engine.FromTime(now)

	current, err := schedule.GeneratePeriod(schedule.Spec{Frequency: freq, StartDate: today})
	if err != nil {
		return 0, err
	}
	next, err := schedule.GeneratePeriod(schedule.Spec{Frequency: freq, StartDate: current.End.AddDays(1)})
	if err != nil {
		return 0, err
	}

	created := 0
	for _, p := range []schedule.Period{current, next} {
		err := ps.Store.CreatePeriod(ctx, p)
		if errors.Is(err, engine.ErrDuplicatePeriod) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// RunNow triggers an immediate check (for testing/admin).
func (ps *PeriodScheduler) RunNow() {
	ps.checkAndPopulate()
}

// NextRunTime returns when the next scheduled check will occur.
func (ps *PeriodScheduler) NextRunTime() time.Time {
	return ps.Clock.Now().Add(ps.CheckInterval)
}
