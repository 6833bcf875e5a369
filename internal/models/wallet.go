package models

import (
	"time"
)

// Transaction types
const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// Transaction reasons
const (
	TransactionReasonDeposit        = "deposit"
	TransactionReasonWithdrawal     = "withdrawal"
	TransactionReasonBookingPayment = "booking_payment"
	TransactionReasonRefund         = "refund"
	TransactionReasonPayout         = "payout"
)

// Wallet holds a user's spendable and locked balances. One wallet per user,
// created lazily on first access. Balance and LockedBalance never go negative.
type Wallet struct {
	ID            uint    `gorm:"primarykey"`
	UserID        uint    `gorm:"uniqueIndex;not null"`
	Balance       float64 `gorm:"not null;default:0"`
	LockedBalance float64 `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// WalletTransaction is one immutable ledger row explaining a balance delta.
// Rows for a wallet are append-only; the latest BalanceAfter always equals the
// wallet's current balance, and the signed amounts sum to it from zero.
type WalletTransaction struct {
	ID            uint    `gorm:"primarykey"`
	WalletID      uint    `gorm:"index;not null"`
	Reference     string  `gorm:"uniqueIndex;not null"`
	Type          string  `gorm:"not null"`
	Reason        string  `gorm:"not null"`
	Status        string  `gorm:"not null;default:'completed'"`
	Amount        float64 `gorm:"not null"`
	BalanceBefore float64 `gorm:"not null"`
	BalanceAfter  float64 `gorm:"not null"`
	Description   string
	DepositID     *uint `gorm:"index"`
	WithdrawalID  *uint `gorm:"index"`
	BookingID     *uint `gorm:"index"`
	CreatedAt     time.Time
}

// Signed returns the amount with its direction applied.
func (t *WalletTransaction) Signed() float64 {
	if t.Type == TransactionTypeDebit {
		return -t.Amount
	}
	return t.Amount
}
