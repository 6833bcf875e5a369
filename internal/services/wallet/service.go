package wallet

import (
	"context"
	"errors"
	"fmt"

	"tutorpay/internal/models"
	"tutorpay/internal/repositories"

	"github.com/google/uuid"
)

type service struct {
	repo    repositories.WalletRepository
	cache   Cache
	metrics MetricsCollector
}

// NewService creates a new wallet service. Cache and metrics are optional.
func NewService(repo repositories.WalletRepository, cache Cache, metrics MetricsCollector) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cache == nil {
		cache = noopCache{}
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &service{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
	}
}

func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	if wallet, err := s.cache.GetWallet(ctx, userID); err == nil {
		return wallet, nil
	}

	wallet, err := s.repo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if err := s.cache.CacheWallet(ctx, wallet); err != nil {
		s.metrics.RecordError("cache_wallet", "set_failed")
	}
	return wallet, nil
}

func (s *service) GetBalance(ctx context.Context, userID uint) (float64, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

func (s *service) GetTransactionHistory(ctx context.Context, userID uint, limit, offset int) ([]models.WalletTransaction, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	txns, err := s.repo.ListTransactions(wallet.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return txns, nil
}

// GetOrCreate resolves the user's wallet inside the caller's transaction,
// inserting a zero-balance row if none exists yet. The row lock taken here
// serializes concurrent mutations of the same wallet.
func (s *service) GetOrCreate(r *repositories.Repos, userID uint) (*models.Wallet, error) {
	wallet, err := r.Wallets.GetByUserIDForUpdate(userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, err
	}

	wallet = &models.Wallet{UserID: userID}
	if err := r.Wallets.Create(wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return wallet, nil
}

// Apply validates and executes one balance mutation, writing the ledger row
// that explains it. A debit that would drive the balance negative fails with
// ErrInsufficientFunds before anything is written.
func (s *service) Apply(r *repositories.Repos, req EntryRequest) (*models.WalletTransaction, error) {
	if req.Amount <= 0 {
		s.metrics.RecordError("apply", "invalid_amount")
		return nil, ErrInvalidAmount
	}
	if req.Type != models.TransactionTypeCredit && req.Type != models.TransactionTypeDebit {
		s.metrics.RecordError("apply", "invalid_type")
		return nil, ErrInvalidEntryType
	}

	wallet, err := s.GetOrCreate(r, req.UserID)
	if err != nil {
		return nil, err
	}

	before := wallet.Balance
	switch req.Type {
	case models.TransactionTypeCredit:
		wallet.Balance += req.Amount
	case models.TransactionTypeDebit:
		if wallet.Balance < req.Amount {
			s.metrics.RecordError("apply", "insufficient_funds")
			return nil, ErrInsufficientFunds
		}
		wallet.Balance -= req.Amount
	}

	if err := r.Wallets.Update(wallet); err != nil {
		return nil, err
	}

	txn := &models.WalletTransaction{
		WalletID:      wallet.ID,
		Reference:     uuid.NewString(),
		Type:          req.Type,
		Reason:        req.Reason,
		Status:        "completed",
		Amount:        req.Amount,
		BalanceBefore: before,
		BalanceAfter:  wallet.Balance,
		Description:   req.Description,
		DepositID:     req.DepositID,
		WithdrawalID:  req.WithdrawalID,
		BookingID:     req.BookingID,
	}
	if err := r.Wallets.CreateTransaction(txn); err != nil {
		return nil, err
	}

	s.metrics.RecordEntry(req.Type, req.Reason, req.Amount)
	return txn, nil
}

// ApplyAll stages several entries in the caller's transaction. If any entry
// fails, the caller's transaction rolls back and none of them take effect;
// this is how the three-way refund moves funds atomically between the
// learner, tutor and system wallets.
func (s *service) ApplyAll(r *repositories.Repos, reqs []EntryRequest) ([]*models.WalletTransaction, error) {
	txns := make([]*models.WalletTransaction, 0, len(reqs))
	for _, req := range reqs {
		txn, err := s.Apply(r, req)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (s *service) InvalidateCache(ctx context.Context, userID uint) {
	if err := s.cache.InvalidateWallet(ctx, userID); err != nil {
		s.metrics.RecordError("invalidate_cache", "delete_failed")
	}
}

type noopCache struct{}

func (noopCache) GetWallet(context.Context, uint) (*models.Wallet, error) {
	return nil, errors.New("cache disabled")
}
func (noopCache) CacheWallet(context.Context, *models.Wallet) error   { return nil }
func (noopCache) InvalidateWallet(context.Context, uint) error        { return nil }
