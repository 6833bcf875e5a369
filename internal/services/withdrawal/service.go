// Package withdrawal moves funds from a wallet to a user's bank account.
// Authorization is synchronous: the debit and the completed withdrawal row
// commit together, and any downstream bank-transfer failure is outside this
// subsystem.
package withdrawal

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
	ErrInvalidAmount       = errors.New("withdrawal amount must be positive")
	ErrBankAccountNotFound = errors.New("bank account not found")
	ErrNotAccountOwner     = errors.New("bank account does not belong to caller")
	ErrAccountInactive     = errors.New("bank account is inactive")
	// ErrUnsupported marks the reserved manual-approval operations.
	ErrUnsupported = errors.New("operation not supported")
)

// Service is the withdrawal lifecycle.
type Service interface {
	CreateWithdrawalRequest(ctx context.Context, userID uint, amount float64, bankAccountID uint) (*models.Withdrawal, error)
	GetWithdrawalHistory(ctx context.Context, userID uint, limit, offset int) ([]models.Withdrawal, error)
	GetPendingWithdrawals(ctx context.Context) ([]models.Withdrawal, error)

	// Reserved. The current design completes withdrawals synchronously;
	// these exist so a manual-approval flow can be added without changing
	// callers.
	ApproveWithdrawal(ctx context.Context, withdrawalID uint) error
	RejectWithdrawal(ctx context.Context, withdrawalID uint, reason string) error
}

type service struct {
	repo     repositories.WithdrawalRepository
	accounts repositories.BankAccountRepository
	tx       repositories.TxManager
	wallets  wallet.Service
	notifier notification.Sink
}

func NewService(
	repo repositories.WithdrawalRepository,
	accounts repositories.BankAccountRepository,
	tx repositories.TxManager,
	wallets wallet.Service,
	notifier notification.Sink,
) Service {
	return &service{
		repo:     repo,
		accounts: accounts,
		tx:       tx,
		wallets:  wallets,
		notifier: notifier,
	}
}

// CreateWithdrawalRequest validates ownership and funds, then debits the
// wallet and records the withdrawal as completed in one transaction.
func (s *service) CreateWithdrawalRequest(ctx context.Context, userID uint, amount float64, bankAccountID uint) (*models.Withdrawal, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	account, err := s.accounts.GetByID(bankAccountID)
	if err != nil {
		if errors.Is(err, repositories.ErrBankAccountNotFound) {
			return nil, ErrBankAccountNotFound
		}
		return nil, err
	}
	if account.UserID != userID {
		return nil, ErrNotAccountOwner
	}
	if account.Status != models.BankAccountStatusActive {
		return nil, ErrAccountInactive
	}

	var wd *models.Withdrawal
	err = s.tx.Execute(ctx, func(r *repositories.Repos) error {
		w, err := s.wallets.GetOrCreate(r, userID)
		if err != nil {
			return err
		}
		now := time.Now()
		wd = &models.Withdrawal{
			WalletID:      w.ID,
			UserID:        userID,
			BankAccountID: bankAccountID,
			Amount:        amount,
			Status:        models.WithdrawalStatusCompleted,
			CompletedAt:   &now,
		}
		if err := r.Withdrawals.Create(wd); err != nil {
			return err
		}
		_, err = s.wallets.Apply(r, wallet.EntryRequest{
			UserID:       userID,
			Amount:       amount,
			Type:         models.TransactionTypeDebit,
			Reason:       models.TransactionReasonWithdrawal,
			Description:  fmt.Sprintf("Withdrawal to %s", account.BankName),
			WithdrawalID: &wd.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.wallets.InvalidateCache(ctx, userID)
	s.notifier.Notify(ctx, userID, fmt.Sprintf("Your withdrawal of %.0f was processed.", amount), "/wallet")
	return wd, nil
}

func (s *service) GetWithdrawalHistory(ctx context.Context, userID uint, limit, offset int) ([]models.Withdrawal, error) {
	return s.repo.ListByUser(userID, limit, offset)
}

func (s *service) GetPendingWithdrawals(ctx context.Context) ([]models.Withdrawal, error) {
	return s.repo.ListByStatus(models.WithdrawalStatusPending)
}

func (s *service) ApproveWithdrawal(ctx context.Context, withdrawalID uint) error {
	return ErrUnsupported
}

func (s *service) RejectWithdrawal(ctx context.Context, withdrawalID uint, reason string) error {
	return ErrUnsupported
}
