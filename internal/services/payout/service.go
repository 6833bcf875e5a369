// Package payout schedules and releases tutor earnings. A payout is created
// when a paid schedule completes, held back for a configurable window, and
// credited to the tutor by the release job once its date arrives and no
// dispute is open.
package payout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tutorpay/internal/config"
	"tutorpay/internal/models"
	"tutorpay/internal/repositories"
	"tutorpay/internal/services/notification"
	"tutorpay/internal/services/wallet"
)

var (
	ErrScheduleNotFound  = errors.New("schedule not found")
	ErrPayoutNotFound    = errors.New("payout not found")
	ErrBookingUnpaid     = errors.New("booking is not paid")
	ErrNotConfirmable    = errors.New("schedule cannot be completed in its current state")
	ErrPayoutExists      = errors.New("payout already exists for schedule")
	ErrNotHeld           = errors.New("payout is not held")
	ErrAlreadyReleased   = errors.New("payout was already released")
	ErrUnauthorizedActor = errors.New("caller may not complete this schedule")
)

// Config carries the fee and hold-period knobs.
type Config struct {
	SystemFee  float64
	HoldPeriod time.Duration
}

// ConfigFromEnv loads the payout settings from the environment.
func ConfigFromEnv() Config {
	return Config{
		SystemFee:  config.GetFloatEnv("PAYOUT_SYSTEM_FEE", 0),
		HoldPeriod: config.GetDurationEnv("PAYOUT_HOLD_PERIOD", 72*time.Hour),
	}
}

// AutoCompleteGrace is how long after a lesson's end time the auto-complete
// job waits for the learner to confirm before confirming on their behalf.
const AutoCompleteGrace = 48 * time.Hour

// Service is the payout scheduler.
type Service interface {
	CompleteSchedule(ctx context.Context, scheduleID uint, completedBy string, actorID uint) (*models.TutorPayout, error)
	MarkReported(ctx context.Context, scheduleID, reportID, learnerID uint, reason string) error
	ResolveReport(ctx context.Context, scheduleID uint, releaseToTutor bool) error
	ProcessDuePayouts(ctx context.Context) (int, error)
	AutoCompletePastDue(ctx context.Context) (int, error)
	ListByTutor(ctx context.Context, tutorID uint, limit, offset int) ([]models.TutorPayout, error)
}

type service struct {
	payouts  repositories.PayoutRepository
	tx       repositories.TxManager
	wallets  wallet.Service
	notifier notification.Sink
	cfg      Config
}

func NewService(
	payouts repositories.PayoutRepository,
	tx repositories.TxManager,
	wallets wallet.Service,
	notifier notification.Sink,
	cfg Config,
) Service {
	return &service{
		payouts:  payouts,
		tx:       tx,
		wallets:  wallets,
		notifier: notifier,
		cfg:      cfg,
	}
}

// CompleteSchedule confirms a studied lesson and creates the tutor's payout:
// amount = unit price minus the platform fee, release date = now plus the
// hold period. completedBy records who confirmed (learner, auto or admin);
// a learner confirmation is only accepted from the schedule's own learner.
func (s *service) CompleteSchedule(ctx context.Context, scheduleID uint, completedBy string, actorID uint) (*models.TutorPayout, error) {
	switch completedBy {
	case models.CompletionByLearner, models.CompletionByAuto, models.CompletionByAdmin:
	default:
		return nil, ErrUnauthorizedActor
	}

	var payout *models.TutorPayout
	err := s.tx.Execute(ctx, func(r *repositories.Repos) error {
		sc, err := r.Schedules.GetByID(scheduleID)
		if err != nil {
			if errors.Is(err, repositories.ErrScheduleNotFound) {
				return ErrScheduleNotFound
			}
			return err
		}
		if completedBy == models.CompletionByLearner && sc.LearnerID != actorID {
			return ErrUnauthorizedActor
		}
		if !sc.CanTransition(models.ScheduleStatusCompleted) {
			return ErrNotConfirmable
		}

		b, err := r.Bookings.GetByID(sc.BookingID)
		if err != nil {
			return err
		}
		if b.PaymentStatus == models.PaymentStatusUnpaid {
			return ErrBookingUnpaid
		}

		if _, err := r.Payouts.GetByScheduleID(sc.ID); err == nil {
			return ErrPayoutExists
		} else if !errors.Is(err, repositories.ErrPayoutNotFound) {
			return err
		}

		now := time.Now()
		sc.Status = models.ScheduleStatusCompleted
		sc.CompletedBy = completedBy
		sc.CompletedAt = &now
		if err := r.Schedules.Update(sc); err != nil {
			return err
		}

		amount := b.UnitPrice - s.cfg.SystemFee
		if amount < 0 {
			amount = 0
		}
		payout = &models.TutorPayout{
			ScheduleID:          sc.ID,
			BookingID:           b.ID,
			TutorID:             sc.TutorID,
			Amount:              amount,
			SystemFeeAmount:     s.cfg.SystemFee,
			Status:              models.PayoutStatusPending,
			ScheduledPayoutDate: now.Add(s.cfg.HoldPeriod),
		}
		return r.Payouts.Create(payout)
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// MarkReported puts the schedule's payout on hold while a dispute is open.
// Only the schedule's learner may report it.
func (s *service) MarkReported(ctx context.Context, scheduleID, reportID, learnerID uint, reason string) error {
	return s.tx.Execute(ctx, func(r *repositories.Repos) error {
		sc, err := r.Schedules.GetByID(scheduleID)
		if err != nil {
			if errors.Is(err, repositories.ErrScheduleNotFound) {
				return ErrScheduleNotFound
			}
			return err
		}
		if sc.LearnerID != learnerID {
			return ErrUnauthorizedActor
		}

		p, err := r.Payouts.GetByScheduleID(scheduleID)
		if err != nil {
			if errors.Is(err, repositories.ErrPayoutNotFound) {
				return ErrPayoutNotFound
			}
			return err
		}
		if !p.CanTransition(models.PayoutStatusHeld) {
			return ErrAlreadyReleased
		}
		p.Status = models.PayoutStatusHeld
		p.HoldReason = &reason
		p.ReportID = &reportID
		return r.Payouts.Update(p)
	})
}

// ResolveReport closes a dispute. Either the hold is lifted and the payout
// goes back to the normal release path, or the held amount is redirected to
// the learner through the system wallet and the payout is cancelled. The
// two outcomes are mutually exclusive.
func (s *service) ResolveReport(ctx context.Context, scheduleID uint, releaseToTutor bool) error {
	var notifyLearner uint
	var redirected float64

	err := s.tx.Execute(ctx, func(r *repositories.Repos) error {
		p, err := r.Payouts.GetByScheduleID(scheduleID)
		if err != nil {
			if errors.Is(err, repositories.ErrPayoutNotFound) {
				return ErrPayoutNotFound
			}
			return err
		}
		if p.Status != models.PayoutStatusHeld {
			return ErrNotHeld
		}

		if releaseToTutor {
			p.Status = models.PayoutStatusPending
			p.HoldReason = nil
			p.ReportID = nil
			return r.Payouts.Update(p)
		}

		b, err := r.Bookings.GetByID(p.BookingID)
		if err != nil {
			return err
		}
		if _, err := s.wallets.Apply(r, wallet.EntryRequest{
			UserID:      b.LearnerID,
			Amount:      p.Amount,
			Type:        models.TransactionTypeCredit,
			Reason:      models.TransactionReasonRefund,
			Description: fmt.Sprintf("Refund for disputed session (booking #%d)", b.ID),
			BookingID:   &b.ID,
		}); err != nil {
			return err
		}

		p.Status = models.PayoutStatusCancelled
		if err := r.Payouts.Update(p); err != nil {
			return err
		}

		notifyLearner = b.LearnerID
		redirected = p.Amount
		return nil
	})
	if err != nil {
		return err
	}

	if notifyLearner != 0 {
		s.wallets.InvalidateCache(ctx, notifyLearner)
		s.notifier.Notify(ctx, notifyLearner, fmt.Sprintf("A disputed session was refunded: %.0f credited.", redirected), "/wallet")
	}
	return nil
}

// ProcessDuePayouts releases every pending payout whose date has arrived.
// Each payout runs in its own transaction so one failure does not block the
// rest; the count of successful releases is returned.
func (s *service) ProcessDuePayouts(ctx context.Context) (int, error) {
	due, err := s.payouts.ListDue(time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list due payouts: %w", err)
	}

	count := 0
	for i := range due {
		id := due[i].ID
		var tutorID uint
		var amount float64

		err := s.tx.Execute(ctx, func(r *repositories.Repos) error {
			p, err := r.Payouts.GetByID(id)
			if err != nil {
				return err
			}
			if !p.Releasable(time.Now()) {
				return nil
			}

			txn, err := s.wallets.Apply(r, wallet.EntryRequest{
				UserID:      p.TutorID,
				Amount:      p.Amount,
				Type:        models.TransactionTypeCredit,
				Reason:      models.TransactionReasonPayout,
				Description: fmt.Sprintf("Payout for session #%d", p.ScheduleID),
				BookingID:   &p.BookingID,
			})
			if err != nil {
				return err
			}

			now := time.Now()
			p.Status = models.PayoutStatusPaid
			p.ReleasedAt = &now
			p.WalletTransactionID = &txn.ID
			if err := r.Payouts.Update(p); err != nil {
				return err
			}

			tutorID = p.TutorID
			amount = p.Amount
			return nil
		})
		if err != nil {
			log.Printf("Failed to release payout %d: %v", id, err)
			continue
		}
		if tutorID != 0 {
			s.wallets.InvalidateCache(ctx, tutorID)
			s.notifier.Notify(ctx, tutorID, fmt.Sprintf("Your payout of %.0f was released.", amount), "/wallet")
			count++
		}
	}
	return count, nil
}

// AutoCompletePastDue confirms studied lessons the learner never confirmed
// within the grace window, creating their payouts. Each schedule is its own
// transaction.
func (s *service) AutoCompletePastDue(ctx context.Context) (int, error) {
	return s.autoComplete(ctx, time.Now().Add(-AutoCompleteGrace))
}

func (s *service) autoComplete(ctx context.Context, cutoff time.Time) (int, error) {
	var stale []models.Schedule
	err := s.tx.Execute(ctx, func(r *repositories.Repos) error {
		var err error
		stale, err = r.Schedules.ListStudiedEndedBefore(cutoff)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list stale schedules: %w", err)
	}

	count := 0
	for i := range stale {
		if _, err := s.CompleteSchedule(ctx, stale[i].ID, models.CompletionByAuto, 0); err != nil {
			log.Printf("Failed to auto-complete schedule %d: %v", stale[i].ID, err)
			continue
		}
		count++
	}
	return count, nil
}

func (s *service) ListByTutor(ctx context.Context, tutorID uint, limit, offset int) ([]models.TutorPayout, error) {
	return s.payouts.ListByTutor(tutorID, limit, offset)
}
