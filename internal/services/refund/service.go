// Package refund resolves disputed bookings against a percentage policy.
// Approving a request moves funds between the learner, the tutor's pending
// payouts and the system wallet in one unit of work; rejecting touches
// nothing.
package refund

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutorpay/internal/models"
	"tutorpay/internal/repositories"
	"tutorpay/internal/services/notification"
	"tutorpay/internal/services/wallet"
)

var (
	ErrRequestNotFound = errors.New("refund request not found")
	ErrPolicyNotFound  = errors.New("refund policy not found")
	ErrPolicyInactive  = errors.New("refund policy is not active")
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotLearner      = errors.New("caller is not the booking's learner")
	ErrBookingUnpaid   = errors.New("booking is not paid")
	ErrRequestOpen     = errors.New("a pending refund request already exists for this booking")
	ErrAlreadyResolved = errors.New("refund request was already resolved")
)

// Service is the refund policy engine.
type Service interface {
	RequestRefund(ctx context.Context, bookingID, learnerID, policyID uint, reason string) (*models.BookingRefundRequest, error)
	Approve(ctx context.Context, requestID, adminID uint) (*models.BookingRefundRequest, error)
	Reject(ctx context.Context, requestID, adminID uint) (*models.BookingRefundRequest, error)
	ListPolicies(ctx context.Context) ([]models.RefundPolicy, error)
	ListRequests(ctx context.Context, status string, limit, offset int) ([]models.BookingRefundRequest, error)
}

type service struct {
	refunds  repositories.RefundRepository
	tx       repositories.TxManager
	wallets  wallet.Service
	notifier notification.Sink
	systemID uint
}

// NewService creates the refund engine. systemOwnerID is the reserved owner
// identity of the platform wallet that absorbs refund shortfalls.
func NewService(
	refunds repositories.RefundRepository,
	tx repositories.TxManager,
	wallets wallet.Service,
	notifier notification.Sink,
	systemOwnerID uint,
) Service {
	return &service{
		refunds:  refunds,
		tx:       tx,
		wallets:  wallets,
		notifier: notifier,
		systemID: systemOwnerID,
	}
}

// RequestRefund opens a dispute for a paid booking. At most one pending
// request may exist per booking.
func (s *service) RequestRefund(ctx context.Context, bookingID, learnerID, policyID uint, reason string) (*models.BookingRefundRequest, error) {
	var req *models.BookingRefundRequest
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
		if b.PaymentStatus == models.PaymentStatusUnpaid {
			return ErrBookingUnpaid
		}

		policy, err := r.Refunds.GetPolicyByID(policyID)
		if err != nil {
			if errors.Is(err, repositories.ErrRefundPolicyNotFound) {
				return ErrPolicyNotFound
			}
			return err
		}
		if !policy.Active {
			return ErrPolicyInactive
		}

		open, err := r.Refunds.PendingRequestExists(bookingID)
		if err != nil {
			return err
		}
		if open {
			return ErrRequestOpen
		}

		req = &models.BookingRefundRequest{
			BookingID: bookingID,
			PolicyID:  policyID,
			LearnerID: learnerID,
			Reason:    reason,
			Status:    models.RefundRequestStatusPending,
		}
		return r.Refunds.CreateRequest(req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Approve computes approvedAmount = totalAmount x policy percentage / 100
// and moves the money in one transaction: the learner is credited, the
// tutor's pending payouts for the booking absorb what they can, and the
// system wallet is debited for any remainder. A failure anywhere rolls the
// whole resolution back.
func (s *service) Approve(ctx context.Context, requestID, adminID uint) (*models.BookingRefundRequest, error) {
	var req *models.BookingRefundRequest
	var learnerID uint
	var approved float64

	err := s.tx.Execute(ctx, func(r *repositories.Repos) error {
		var err error
		req, err = r.Refunds.GetRequestByID(requestID)
		if err != nil {
			if errors.Is(err, repositories.ErrRefundRequestNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if !req.CanTransition(models.RefundRequestStatusApproved) {
			return ErrAlreadyResolved
		}

		b, err := r.Bookings.GetByID(req.BookingID)
		if err != nil {
			return err
		}
		policy, err := r.Refunds.GetPolicyByID(req.PolicyID)
		if err != nil {
			return err
		}

		approved = b.TotalAmount * policy.RefundPercentage / 100

		if approved > 0 {
			if _, err := s.wallets.Apply(r, wallet.EntryRequest{
				UserID:      req.LearnerID,
				Amount:      approved,
				Type:        models.TransactionTypeCredit,
				Reason:      models.TransactionReasonRefund,
				Description: fmt.Sprintf("Approved refund for booking #%d", b.ID),
				BookingID:   &b.ID,
			}); err != nil {
				return err
			}

			// The refund is funded first from the tutor's not-yet-released
			// payouts for this booking, then from the system wallet.
			remaining := approved
			pending, err := r.Payouts.ListPendingByBooking(b.ID)
			if err != nil {
				return err
			}
			for i := range pending {
				if remaining <= 0 {
					break
				}
				p := pending[i]
				consumed := p.Amount
				if consumed > remaining {
					consumed = remaining
				}
				p.Amount -= consumed
				remaining -= consumed
				if p.Amount == 0 {
					p.Status = models.PayoutStatusCancelled
				}
				if err := r.Payouts.Update(&p); err != nil {
					return err
				}
			}

			if remaining > 0 {
				if _, err := s.wallets.Apply(r, wallet.EntryRequest{
					UserID:      s.systemID,
					Amount:      remaining,
					Type:        models.TransactionTypeDebit,
					Reason:      models.TransactionReasonRefund,
					Description: fmt.Sprintf("Refund shortfall for booking #%d", b.ID),
					BookingID:   &b.ID,
				}); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		req.Status = models.RefundRequestStatusApproved
		req.ApprovedAmount = &approved
		req.ResolvedBy = &adminID
		req.ResolvedAt = &now
		if err := r.Refunds.UpdateRequest(req); err != nil {
			return err
		}

		b.RefundedAmount += approved
		if b.RefundedAmount >= b.TotalAmount {
			b.PaymentStatus = models.PaymentStatusRefunded
		} else if approved > 0 {
			b.PaymentStatus = models.PaymentStatusPartiallyRefunded
		}
		if err := r.Bookings.Update(b); err != nil {
			return err
		}

		learnerID = req.LearnerID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.wallets.InvalidateCache(ctx, learnerID)
	s.wallets.InvalidateCache(ctx, s.systemID)
	s.notifier.Notify(ctx, learnerID, fmt.Sprintf("Your refund request was approved: %.0f credited.", approved), "/wallet")
	return req, nil
}

// Reject closes the request without touching any wallet.
func (s *service) Reject(ctx context.Context, requestID, adminID uint) (*models.BookingRefundRequest, error) {
	var req *models.BookingRefundRequest
	err := s.tx.Execute(ctx, func(r *repositories.Repos) error {
		var err error
		req, err = r.Refunds.GetRequestByID(requestID)
		if err != nil {
			if errors.Is(err, repositories.ErrRefundRequestNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if !req.CanTransition(models.RefundRequestStatusRejected) {
			return ErrAlreadyResolved
		}
		now := time.Now()
		req.Status = models.RefundRequestStatusRejected
		req.ResolvedBy = &adminID
		req.ResolvedAt = &now
		return r.Refunds.UpdateRequest(req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, req.LearnerID, "Your refund request was rejected.", fmt.Sprintf("/bookings/%d", req.BookingID))
	return req, nil
}

func (s *service) ListPolicies(ctx context.Context) ([]models.RefundPolicy, error) {
	return s.refunds.ListActivePolicies()
}

func (s *service) ListRequests(ctx context.Context, status string, limit, offset int) ([]models.BookingRefundRequest, error) {
	return s.refunds.ListRequestsByStatus(status, limit, offset)
}
