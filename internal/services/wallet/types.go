package wallet

import (
	"context"

	"tutorpay/internal/models"
)

// EntryRequest describes one ledger entry to apply against a user's wallet.
// The wallet itself is resolved (and lazily created) inside the unit of work.
type EntryRequest struct {
	UserID       uint
	Amount       float64
	Type         string
	Reason       string
	Description  string
	DepositID    *uint
	WithdrawalID *uint
	BookingID    *uint
}

// Cache defines the wallet read-cache operations the service needs.
type Cache interface {
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	CacheWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, userID uint) error
}

// MetricsCollector records ledger activity.
type MetricsCollector interface {
	RecordEntry(entryType, reason string, amount float64)
	RecordError(operation, errType string)
}
