// Package booking drives payment and cancellation of session bookings.
// Paying debits the learner for the full amount up front; cancelling
// refunds whatever the consumed sessions have not used up.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tutorpay/internal/models"
	"tutorpay/internal/repositories"
	"tutorpay/internal/services/notification"
	"tutorpay/internal/services/wallet"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotLearner      = errors.New("caller is not the booking's learner")
	ErrAlreadyPaid     = errors.New("booking is already paid")
	ErrNotPayable      = errors.New("booking cannot be paid in its current state")
	ErrNotPaid         = errors.New("booking is not paid")
	ErrNotCancellable  = errors.New("booking cannot be cancelled in its current state")
	ErrScheduleState   = errors.New("schedule is not in a markable state")
)

// PaymentExpiry is how long an unpaid pending booking survives before the
// auto-cancel job removes it.
const PaymentExpiry = 24 * time.Hour

// CancelPreview is the read-only refund computation shown before a learner
// confirms a cancellation.
type CancelPreview struct {
	BookingID        uint    `json:"booking_id"`
	TotalAmount      float64 `json:"total_amount"`
	ConsumedSessions int     `json:"consumed_sessions"`
	RefundableAmount float64 `json:"refundable_amount"`
}

// Service is the booking payment engine.
type Service interface {
	Pay(ctx context.Context, bookingID, learnerID uint) (*models.Booking, error)
	CancelByLearner(ctx context.Context, bookingID, learnerID uint) (*CancelPreview, error)
	GetCancelPreview(ctx context.Context, bookingID uint) (*CancelPreview, error)
	AutoCancelExpiredPendingRequests(ctx context.Context) (int, error)
	MarkScheduleStudied(ctx context.Context, scheduleID, learnerID uint) error
	GetBooking(ctx context.Context, bookingID uint) (*models.Booking, error)
	ListByLearner(ctx context.Context, learnerID uint, limit, offset int) ([]models.Booking, error)
}

type service struct {
	bookings  repositories.BookingRepository
	schedules repositories.ScheduleRepository
	tx        repositories.TxManager
	wallets   wallet.Service
	notifier  notification.Sink
}

func NewService(
	bookings repositories.BookingRepository,
	schedules repositories.ScheduleRepository,
	tx repositories.TxManager,
	wallets wallet.Service,
	notifier notification.Sink,
) Service {
	return &service{
		bookings:  bookings,
		schedules: schedules,
		tx:        tx,
		wallets:   wallets,
		notifier:  notifier,
	}
}

// Pay debits the learner's wallet for the booking total and marks the
// booking paid and confirmed. Zero-amount trial bookings skip the debit.
func (s *service) Pay(ctx context.Context, bookingID, learnerID uint) (*models.Booking, error) {
	var booking *models.Booking
	err := s.tx.Execute(ctx, func(r *repositories.Repos) error {
		b, err := r.Bookings.GetByID(bookingID)
		if err != nil {
			if errors.Is(err, repositories.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if b.LearnerID != learnerID {
			return ErrNotLearner
		}
		if !b.CanTransitionPayment(models.PaymentStatusPaid) {
			return ErrAlreadyPaid
		}
		// A cancelled or completed booking must never accept a late payment,
		// even while its payment status is still unpaid.
		if !b.CanTransition(models.BookingStatusConfirmed) {
			return ErrNotPayable
		}

		if !b.Trial() {
			if _, err := s.wallets.Apply(r, wallet.EntryRequest{
				UserID:      learnerID,
				Amount:      b.TotalAmount,
				Type:        models.TransactionTypeDebit,
				Reason:      models.TransactionReasonBookingPayment,
				Description: fmt.Sprintf("Payment for booking #%d (%s)", b.ID, b.SubjectName),
				BookingID:   &b.ID,
			}); err != nil {
				return err
			}
		}

		now := time.Now()
		b.PaymentStatus = models.PaymentStatusPaid
		b.PaidAt = &now
		b.Status = models.BookingStatusConfirmed
		if err := r.Bookings.Update(b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.wallets.InvalidateCache(ctx, learnerID)
	s.notifier.Notify(ctx, booking.TutorID, fmt.Sprintf("Booking #%d was paid.", booking.ID), fmt.Sprintf("/bookings/%d", booking.ID))
	return booking, nil
}

// CancelByLearner refunds the unconsumed remainder, cancels outstanding
// schedules and releases their slots in one transaction.
func (s *service) CancelByLearner(ctx context.Context, bookingID, learnerID uint) (*CancelPreview, error) {
	var preview *CancelPreview
	var tutorID uint

	err := s.tx.Execute(ctx, func(r *repositories.Repos) error {
		b, err := r.Bookings.GetByID(bookingID)
		if err != nil {
			if errors.Is(err, repositories.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if b.LearnerID != learnerID {
			return ErrNotLearner
		}
		if b.PaymentStatus != models.PaymentStatusPaid {
			return ErrNotPaid
		}
		if !b.CanTransition(models.BookingStatusCancelled) {
			return ErrNotCancellable
		}

		schedules, err := r.Schedules.ListByBooking(b.ID)
		if err != nil {
			return err
		}
		p := computePreview(b, schedules)

		if p.RefundableAmount > 0 {
			if _, err := s.wallets.Apply(r, wallet.EntryRequest{
				UserID:      learnerID,
				Amount:      p.RefundableAmount,
				Type:        models.TransactionTypeCredit,
				Reason:      models.TransactionReasonRefund,
				Description: fmt.Sprintf("Refund for cancelled booking #%d", b.ID),
				BookingID:   &b.ID,
			}); err != nil {
				return err
			}
		}

		for i := range schedules {
			sc := schedules[i]
			if sc.Consumed() || sc.Status == models.ScheduleStatusCancelled {
				continue
			}
			sc.Status = models.ScheduleStatusCancelled
			if err := r.Schedules.Update(&sc); err != nil {
				return err
			}
			if sc.SlotID != nil {
				slot, err := r.Schedules.GetSlot(*sc.SlotID)
				if err != nil {
					return err
				}
				slot.Status = models.SlotStatusOpen
				if err := r.Schedules.UpdateSlot(slot); err != nil {
					return err
				}
			}
		}

		b.Status = models.BookingStatusCancelled
		b.RefundedAmount += p.RefundableAmount
		if p.RefundableAmount >= b.TotalAmount {
			b.PaymentStatus = models.PaymentStatusRefunded
		} else if p.RefundableAmount > 0 {
			b.PaymentStatus = models.PaymentStatusPartiallyRefunded
		}
		if err := r.Bookings.Update(b); err != nil {
			return err
		}

		preview = p
		tutorID = b.TutorID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.wallets.InvalidateCache(ctx, learnerID)
	s.notifier.Notify(ctx, tutorID, fmt.Sprintf("Booking #%d was cancelled by the learner.", bookingID), fmt.Sprintf("/bookings/%d", bookingID))
	return preview, nil
}

// GetCancelPreview computes the refundable amount without mutating anything.
func (s *service) GetCancelPreview(ctx context.Context, bookingID uint) (*CancelPreview, error) {
	b, err := s.bookings.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, repositories.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	schedules, err := s.schedules.ListByBooking(b.ID)
	if err != nil {
		return nil, err
	}
	return computePreview(b, schedules), nil
}

// computePreview derives the refundable amount: total minus the value of
// sessions the learner already sat through.
func computePreview(b *models.Booking, schedules []models.Schedule) *CancelPreview {
	consumed := 0
	for i := range schedules {
		if schedules[i].Consumed() {
			consumed++
		}
	}
	refundable := b.TotalAmount - float64(consumed)*b.UnitPrice
	if refundable < 0 {
		refundable = 0
	}
	return &CancelPreview{
		BookingID:        b.ID,
		TotalAmount:      b.TotalAmount,
		ConsumedSessions: consumed,
		RefundableAmount: refundable,
	}
}

// AutoCancelExpiredPendingRequests cancels unpaid pending bookings older
// than the payment window. Unpaid bookings carry no ledger entry, so there
// is nothing to refund. Each row is its own transaction.
func (s *service) AutoCancelExpiredPendingRequests(ctx context.Context) (int, error) {
	expired, err := s.bookings.ListExpiredUnpaid(time.Now().Add(-PaymentExpiry))
	if err != nil {
		return 0, fmt.Errorf("failed to list expired bookings: %w", err)
	}

	count := 0
	for i := range expired {
		id := expired[i].ID
		cancelled := false
		err := s.tx.Execute(ctx, func(r *repositories.Repos) error {
			b, err := r.Bookings.GetByID(id)
			if err != nil {
				return err
			}
			// The booking may have been paid or cancelled since it was
			// listed; only rows actually transitioned are counted.
			if b.PaymentStatus != models.PaymentStatusUnpaid || !b.CanTransition(models.BookingStatusCancelled) {
				return nil
			}
			b.Status = models.BookingStatusCancelled
			if err := r.Bookings.Update(b); err != nil {
				return err
			}
			cancelled = true
			return nil
		})
		if err != nil {
			log.Printf("Failed to auto-cancel booking %d: %v", id, err)
			continue
		}
		if cancelled {
			count++
		}
	}
	return count, nil
}

// MarkScheduleStudied records that a lesson took place. Only the schedule's
// learner may mark it; this is the state the payout flow later confirms from.
func (s *service) MarkScheduleStudied(ctx context.Context, scheduleID, learnerID uint) error {
	return s.tx.Execute(ctx, func(r *repositories.Repos) error {
		sc, err := r.Schedules.GetByID(scheduleID)
		if err != nil {
			if errors.Is(err, repositories.ErrScheduleNotFound) {
				return ErrScheduleState
			}
			return err
		}
		if sc.LearnerID != learnerID {
			return ErrNotLearner
		}
		if !sc.CanTransition(models.ScheduleStatusStudied) {
			return ErrScheduleState
		}
		sc.Status = models.ScheduleStatusStudied
		return r.Schedules.Update(sc)
	})
}

func (s *service) GetBooking(ctx context.Context, bookingID uint) (*models.Booking, error) {
	b, err := s.bookings.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, repositories.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *service) ListByLearner(ctx context.Context, learnerID uint, limit, offset int) ([]models.Booking, error) {
	return s.bookings.ListByLearner(learnerID, limit, offset)
}
