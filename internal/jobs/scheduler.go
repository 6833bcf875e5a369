// Package jobs runs the periodic batch work: releasing due payouts,
// auto-completing stale schedules, expiring deposits and cancelling unpaid
// bookings. Every batch entry point processes each row in its own
// transaction, so one bad row never blocks the rest of the sweep.
package jobs

import (
	"context"
	"log"
	"time"

	"tutorpay/internal/config"
	"tutorpay/internal/services/booking"
	"tutorpay/internal/services/deposit"
	"tutorpay/internal/services/payout"
)

// Scheduler drives the batch jobs on a fixed interval.
type Scheduler struct {
	deposits deposit.Service
	bookings booking.Service
	payouts  payout.Service
	interval time.Duration
	stop     chan struct{}
}

func NewScheduler(deposits deposit.Service, bookings booking.Service, payouts payout.Service) *Scheduler {
	return &Scheduler{
		deposits: deposits,
		bookings: bookings,
		payouts:  payouts,
		interval: config.GetDurationEnv("JOBS_INTERVAL", 5 * time.Minute),
		stop:     make(chan struct{}),
	}
}

// Start launches the scheduler loop in its own goroutine.
func (s *Scheduler) Start() {
	go func() {
		log.Println("Scheduler started...")
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runAll()
			case <-s.stop:
				log.Println("Scheduler stopped")
				return
			}
		}
	}()
}

// Stop terminates the scheduler loop.
func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) runAll() {
	ctx := context.Background()

	s.run("process due payouts", func() (int, error) {
		return s.payouts.ProcessDuePayouts(ctx)
	})
	s.run("auto-complete past-due schedules", func() (int, error) {
		return s.payouts.AutoCompletePastDue(ctx)
	})
	s.run("clean up expired deposits", func() (int, error) {
		return s.deposits.CleanupExpiredDeposits(ctx)
	})
	s.run("cancel expired unpaid bookings", func() (int, error) {
		return s.bookings.AutoCancelExpiredPendingRequests(ctx)
	})
}

// run executes one batch job, recovering from panics so a single job can
// never take the scheduler loop down.
func (s *Scheduler) run(name string, job func() (int, error)) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Job %q panicked: %v", name, r)
		}
	}()

	count, err := job()
	if err != nil {
		log.Printf("Job %q failed: %v", name, err)
		return
	}
	if count > 0 {
		log.Printf("Job %q processed %d rows", name, count)
	}
}
