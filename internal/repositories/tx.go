package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repos bundles every repository bound to one *gorm.DB. Inside
// TxManager.Execute the bundle is rebound to the transaction, so any writes
// made through it commit or roll back together.
type Repos struct {
	Wallets       WalletRepository
	Deposits      DepositRepository
	BankAccounts  BankAccountRepository
	Withdrawals   WithdrawalRepository
	Bookings      BookingRepository
	Schedules     ScheduleRepository
	Payouts       PayoutRepository
	Refunds       RefundRepository
	Notifications NotificationRepository
}

// NewRepos binds all repositories to the given database handle.
func NewRepos(db *gorm.DB) *Repos {
	return &Repos{
		Wallets:       NewWalletRepository(db),
		Deposits:      NewDepositRepository(db),
		BankAccounts:  NewBankAccountRepository(db),
		Withdrawals:   NewWithdrawalRepository(db),
		Bookings:      NewBookingRepository(db),
		Schedules:     NewScheduleRepository(db),
		Payouts:       NewPayoutRepository(db),
		Refunds:       NewRefundRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// TxManager runs a unit of work inside a single database transaction.
type TxManager interface {
	Execute(ctx context.Context, fn func(r *Repos) error) error
}

type txManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &txManager{db: db}
}

func (m *txManager) Execute(ctx context.Context, fn func(r *Repos) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}
