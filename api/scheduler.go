/*
scheduler.go - Recurring-schedule sweeper

PURPOSE:
  Open-ended recurring debts are generated with installments through
  December of their start year only. This sweeper tops up every active
  recurring debt with the current year's installments once the calendar
  rolls over, so owners don't have to recreate them by hand.

DESIGN:
  - cron-driven: runs on the first day of each month plus once at startup
  - each debt is its own atomic unit (disjoint record sets), delegated to
    the engine's ExtendRecurringSchedules
  - a sweep that finds nothing to extend is a cheap no-op

USAGE:
  sweeper := NewRecurringSweeper(engine)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - debts/engine.go: ExtendRecurringSchedules
*/
package api

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/warp/debt-ledger/debts"
)

// monthlySpec fires at midnight on the first day of each month.
const monthlySpec = "0 0 1 * *"

// RecurringSweeper keeps recurring debt schedules covering the current year.
type RecurringSweeper struct {
	Engine *debts.Engine

	cron *cron.Cron
}

// NewRecurringSweeper creates a sweeper over the given engine.
func NewRecurringSweeper(engine *debts.Engine) *RecurringSweeper {
	return &RecurringSweeper{
		Engine: engine,
		cron:   cron.New(),
	}
}

// Start runs one immediate sweep and schedules the monthly job.
func (rs *RecurringSweeper) Start() {
	rs.sweep()

	if _, err := rs.cron.AddFunc(monthlySpec, rs.sweep); err != nil {
		log.Printf("[Sweeper] Failed to schedule: %v", err)
		return
	}
	rs.cron.Start()
	log.Printf("[Sweeper] Started with schedule %q", monthlySpec)
}

// Stop stops the scheduler, waiting for a running sweep to finish.
func (rs *RecurringSweeper) Stop() {
	ctx := rs.cron.Stop()
	<-ctx.Done()
	log.Println("[Sweeper] Stopped")
}

func (rs *RecurringSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	extended, err := rs.Engine.ExtendRecurringSchedules(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("[Sweeper] Sweep failed: %v", err)
		return
	}
	if extended > 0 {
		log.Printf("[Sweeper] Extended %d recurring debt(s)", extended)
	}
}
