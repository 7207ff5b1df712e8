/*
scheduler.go - Budget period scheduler

PURPOSE:
  Periodically makes sure the budget period containing today exists, along
  with the one after it, so a month boundary never leaves clients without
  a period to budget into.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - Period creation is idempotent; reruns reuse stored rows

USAGE:
  scheduler := NewPeriodScheduler(engine, time.Hour)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - budget/period.go: Current and Next
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/envelope-ledger/budget"
)

// PeriodScheduler keeps the current and next budget periods in place.
type PeriodScheduler struct {
	Engine        *budget.Engine
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPeriodScheduler creates a scheduler. A non-positive interval disables it.
func NewPeriodScheduler(engine *budget.Engine, interval time.Duration) *PeriodScheduler {
	return &PeriodScheduler{
		Engine:        engine,
		CheckInterval: interval,
		Enabled:       interval > 0,
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
	if ps.ticker != nil {
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.stop = make(chan struct{})
	ps.wg.Add(1)

	go ps.run(ps.ticker, ps.stop)

	log.Printf("[Scheduler] Started with check interval: %v", ps.CheckInterval)
}

// Stop stops the scheduler and waits for an in-flight check.
func (ps *PeriodScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		ps.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (ps *PeriodScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ps.wg.Done()

	ps.checkAndProcess()

	for {
		select {
		case <-ticker.C:
			ps.checkAndProcess()
		case <-stop:
			return
		}
	}
}

func (ps *PeriodScheduler) checkAndProcess() {
	ctx := context.Background()

	current, err := ps.Engine.Periods.Current(ctx, time.Time{})
	if err != nil {
		log.Printf("[Scheduler] Error ensuring current period: %v", err)
		return
	}
	next, err := ps.Engine.Periods.Next(ctx, current.ID)
	if err != nil {
		log.Printf("[Scheduler] Error ensuring period after %s: %v", current, err)
		return
	}
	log.Printf("[Scheduler] Periods ready: current %s, next %s", current, next)
}
