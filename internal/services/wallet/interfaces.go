package wallet

import (
	"context"

	"tutorpay/internal/models"
	"tutorpay/internal/repositories"
)

// Service is the wallet store and transaction ledger. Apply is the only
// sanctioned way to change a balance; every other service composes it inside
// a repositories.TxManager unit of work.
type Service interface {
	// Read side
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	GetBalance(ctx context.Context, userID uint) (float64, error)
	GetTransactionHistory(ctx context.Context, userID uint, limit, offset int) ([]models.WalletTransaction, error)

	// Ledger primitives. These take the caller's transaction-scoped repo
	// bundle so the balance mutation, the ledger row and the caller's own
	// writes commit together.
	GetOrCreate(r *repositories.Repos, userID uint) (*models.Wallet, error)
	Apply(r *repositories.Repos, req EntryRequest) (*models.WalletTransaction, error)
	ApplyAll(r *repositories.Repos, reqs []EntryRequest) ([]*models.WalletTransaction, error)

	// InvalidateCache drops the cached wallet after a mutation committed.
	InvalidateCache(ctx context.Context, userID uint)
}
