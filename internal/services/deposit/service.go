// Package deposit manages adding funds through external payment channels.
// A deposit row is pending until the gateway confirms; the wallet is only
// credited inside the same transaction that marks the deposit completed.
package deposit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tutorpay/internal/gateway"
	"tutorpay/internal/models"
	"tutorpay/internal/repositories"
	"tutorpay/internal/services/notification"
	"tutorpay/internal/services/wallet"

	"github.com/google/uuid"
)

var (
	ErrInvalidAmount   = errors.New("deposit amount must be positive")
	ErrDepositNotFound = errors.New("deposit not found")
	ErrNotOwner        = errors.New("deposit does not belong to caller")
	ErrNotPending      = errors.New("deposit is not pending")
	ErrAmountMismatch  = errors.New("confirmed amount does not match deposit amount")
	ErrWalletMissing   = errors.New("wallet missing for pending deposit")
	ErrCardDeclined    = errors.New("card was declined")
)

// ExpiryWindow is how long a pending deposit stays claimable before the
// cleanup job marks it failed.
const ExpiryWindow = 24 * time.Hour

// CallbackOutcome classifies what ProcessGatewayCallback decided, so the
// webhook handler can map it to the gateway's response codes.
type CallbackOutcome int

const (
	OutcomeCredited CallbackOutcome = iota
	OutcomeAlreadyProcessed
	OutcomeAmountMismatch
	OutcomeGatewayFailed
)

// Service is the deposit lifecycle.
type Service interface {
	CreateDepositRequest(ctx context.Context, userID uint, amount float64, clientIP string) (*models.Deposit, string, error)
	CreateCardDeposit(ctx context.Context, userID uint, amount float64, card gateway.CardDetails) (*models.Deposit, error)
	ProcessGatewayCallback(ctx context.Context, params gateway.CallbackParams) (CallbackOutcome, error)
	CancelDepositRequest(ctx context.Context, depositID, userID uint) error
	CleanupExpiredDeposits(ctx context.Context) (int, error)
	GetDepositHistory(ctx context.Context, userID uint, limit, offset int) ([]models.Deposit, error)
	GetDeposit(ctx context.Context, depositID uint) (*models.Deposit, error)
}

type service struct {
	repo     repositories.DepositRepository
	tx       repositories.TxManager
	wallets  wallet.Service
	vnpay    *gateway.VNPay
	cards    gateway.CardTokenizer
	notifier notification.Sink
}

func NewService(
	repo repositories.DepositRepository,
	tx repositories.TxManager,
	wallets wallet.Service,
	vnpay *gateway.VNPay,
	cards gateway.CardTokenizer,
	notifier notification.Sink,
) Service {
	return &service{
		repo:     repo,
		tx:       tx,
		wallets:  wallets,
		vnpay:    vnpay,
		cards:    cards,
		notifier: notifier,
	}
}

// CreateDepositRequest opens a pending deposit and returns the gateway
// payment URL. The wallet is resolved up front so the callback path never
// has to create one.
func (s *service) CreateDepositRequest(ctx context.Context, userID uint, amount float64, clientIP string) (*models.Deposit, string, error) {
	if amount <= 0 {
		return nil, "", ErrInvalidAmount
	}

	var dep *models.Deposit
	err := s.tx.Execute(ctx, func(r *repositories.Repos) error {
		w, err := s.wallets.GetOrCreate(r, userID)
		if err != nil {
			return err
		}
		dep = &models.Deposit{
			WalletID: w.ID,
			UserID:   userID,
			Amount:   amount,
			Status:   models.DepositStatusPending,
			Channel:  models.DepositChannelVnpay,
			OrderRef: uuid.NewString(),
		}
		return r.Deposits.Create(dep)
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create deposit request: %w", err)
	}

	payURL := s.vnpay.CreatePaymentURL(dep.OrderRef, dep.Amount, clientIP, time.Now())
	return dep, payURL, nil
}

// CreateCardDeposit tokenizes the card and credits the wallet immediately.
// The deposit row is written completed in the same transaction as the
// ledger entry.
func (s *service) CreateCardDeposit(ctx context.Context, userID uint, amount float64, card gateway.CardDetails) (*models.Deposit, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tok, err := s.cards.Tokenize(card)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCardDeclined, err)
	}

	var dep *models.Deposit
	err = s.tx.Execute(ctx, func(r *repositories.Repos) error {
		w, err := s.wallets.GetOrCreate(r, userID)
		if err != nil {
			return err
		}
		now := time.Now()
		dep = &models.Deposit{
			WalletID:       w.ID,
			UserID:         userID,
			Amount:         amount,
			Status:         models.DepositStatusCompleted,
			Channel:        models.DepositChannelCard,
			OrderRef:       uuid.NewString(),
			GatewayTxnCode: tok.Token,
			CompletedAt:    &now,
		}
		if err := r.Deposits.Create(dep); err != nil {
			return err
		}
		_, err = s.wallets.Apply(r, wallet.EntryRequest{
			UserID:      userID,
			Amount:      amount,
			Type:        models.TransactionTypeCredit,
			Reason:      models.TransactionReasonDeposit,
			Description: fmt.Sprintf("Card deposit %s", dep.OrderRef),
			DepositID:   &dep.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.wallets.InvalidateCache(ctx, userID)
	s.notifier.Notify(ctx, userID, fmt.Sprintf("Your card deposit of %.0f was credited.", amount), "/wallet")
	return dep, nil
}

// ProcessGatewayCallback settles a pending deposit from a verified IPN.
// The method is idempotent: a deposit already in a terminal state reports
// its existing outcome without touching the wallet again.
func (s *service) ProcessGatewayCallback(ctx context.Context, params gateway.CallbackParams) (CallbackOutcome, error) {
	var outcome CallbackOutcome
	var notifyUser uint

	err := s.tx.Execute(ctx, func(r *repositories.Repos) error {
		dep, err := r.Deposits.GetByOrderRef(params.OrderRef)
		if err != nil {
			if errors.Is(err, repositories.ErrDepositNotFound) {
				return ErrDepositNotFound
			}
			return err
		}

		if dep.Terminal() {
			outcome = OutcomeAlreadyProcessed
			return nil
		}

		if !params.Succeeded() {
			dep.Status = models.DepositStatusFailed
			dep.FailureReason = fmt.Sprintf("gateway response code %s", params.ResponseCode)
			outcome = OutcomeGatewayFailed
			return r.Deposits.Update(dep)
		}

		if params.ConfirmedAmount != dep.Amount {
			dep.Status = models.DepositStatusFailed
			dep.FailureReason = fmt.Sprintf("amount mismatch: expected %.2f, gateway confirmed %.2f", dep.Amount, params.ConfirmedAmount)
			if err := r.Deposits.Update(dep); err != nil {
				return err
			}
			outcome = OutcomeAmountMismatch
			return nil
		}

		// A pending deposit always has a wallet; losing it means the store
		// is corrupt and the callback must fail loudly.
		if _, err := r.Wallets.GetByID(dep.WalletID); err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return fmt.Errorf("%w: deposit %d wallet %d", ErrWalletMissing, dep.ID, dep.WalletID)
			}
			return err
		}

		if _, err := s.wallets.Apply(r, wallet.EntryRequest{
			UserID:      dep.UserID,
			Amount:      dep.Amount,
			Type:        models.TransactionTypeCredit,
			Reason:      models.TransactionReasonDeposit,
			Description: fmt.Sprintf("Deposit %s", dep.OrderRef),
			DepositID:   &dep.ID,
		}); err != nil {
			return err
		}

		now := time.Now()
		dep.Status = models.DepositStatusCompleted
		dep.GatewayTxnCode = params.GatewayTxnCode
		dep.CompletedAt = &now
		if err := r.Deposits.Update(dep); err != nil {
			return err
		}

		outcome = OutcomeCredited
		notifyUser = dep.UserID
		return nil
	})
	if err != nil {
		return outcome, err
	}

	if outcome == OutcomeCredited {
		s.wallets.InvalidateCache(ctx, notifyUser)
		s.notifier.Notify(ctx, notifyUser, "Your deposit was confirmed and credited.", "/wallet")
	}
	if outcome == OutcomeAmountMismatch {
		return outcome, ErrAmountMismatch
	}
	return outcome, nil
}

// CancelDepositRequest marks a pending deposit failed. Only the owner can
// cancel, and only while the deposit is still pending.
func (s *service) CancelDepositRequest(ctx context.Context, depositID, userID uint) error {
	return s.tx.Execute(ctx, func(r *repositories.Repos) error {
		dep, err := r.Deposits.GetByID(depositID)
		if err != nil {
			if errors.Is(err, repositories.ErrDepositNotFound) {
				return ErrDepositNotFound
			}
			return err
		}
		if dep.UserID != userID {
			return ErrNotOwner
		}
		if dep.Terminal() {
			return ErrNotPending
		}
		dep.Status = models.DepositStatusFailed
		dep.FailureReason = "cancelled by user"
		return r.Deposits.Update(dep)
	})
}

// CleanupExpiredDeposits fails every pending deposit older than the expiry
// window. No ledger entry exists for a pending deposit, so there is nothing
// to reverse. Each row is its own transaction.
func (s *service) CleanupExpiredDeposits(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpiredPending(time.Now().Add(-ExpiryWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to list expired deposits: %w", err)
	}

	count := 0
	for i := range expired {
		dep := expired[i]
		failed := false
		err := s.tx.Execute(ctx, func(r *repositories.Repos) error {
			current, err := r.Deposits.GetByID(dep.ID)
			if err != nil {
				return err
			}
			// The deposit may have settled between listing and this row's
			// transaction; only rows actually transitioned are counted.
			if current.Terminal() {
				return nil
			}
			current.Status = models.DepositStatusFailed
			current.FailureReason = "expired"
			if err := r.Deposits.Update(current); err != nil {
				return err
			}
			failed = true
			return nil
		})
		if err != nil {
			log.Printf("Failed to expire deposit %d: %v", dep.ID, err)
			continue
		}
		if failed {
			count++
		}
	}
	return count, nil
}

func (s *service) GetDepositHistory(ctx context.Context, userID uint, limit, offset int) ([]models.Deposit, error) {
	return s.repo.ListByUser(userID, limit, offset)
}

func (s *service) GetDeposit(ctx context.Context, depositID uint) (*models.Deposit, error) {
	dep, err := s.repo.GetByID(depositID)
	if err != nil {
		if errors.Is(err, repositories.ErrDepositNotFound) {
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	return dep, nil
}
