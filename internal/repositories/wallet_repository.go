package repositories

import (
	"errors"

	"tutorpay/internal/models"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("wallet transaction not found")
)

// WalletRepository defines the interface for wallet and ledger row operations.
// Ledger rows are append-only; there is deliberately no update or delete for
// WalletTransaction.
type WalletRepository interface {
	// Core wallet operations
	Create(wallet *models.Wallet) error
	GetByID(id uint) (*models.Wallet, error)
	GetByUserID(userID uint) (*models.Wallet, error)
	// GetByUserIDForUpdate locks the wallet row for the duration of the
	// surrounding transaction. Callers mutating a balance must read through
	// this to avoid lost updates between concurrent debits and credits.
	GetByUserIDForUpdate(userID uint) (*models.Wallet, error)
	Update(wallet *models.Wallet) error

	// Ledger operations
	CreateTransaction(txn *models.WalletTransaction) error
	GetTransactionByID(id uint) (*models.WalletTransaction, error)
	ListTransactions(walletID uint, limit, offset int) ([]models.WalletTransaction, error)

	// Aggregation
	TotalBalanceExcluding(userID uint) (float64, error)
	CountWallets() (int64, error)
}
