package models

import (
	"time"
)

// Withdrawal statuses. The current flow debits the wallet and records the row
// as completed in one step; pending and rejected exist for the reserved
// manual-approval path.
const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusCompleted = "completed"
	WithdrawalStatusRejected  = "rejected"
)

var withdrawalTransitions = map[string][]string{
	WithdrawalStatusPending: {WithdrawalStatusCompleted, WithdrawalStatusRejected},
}

// Withdrawal is a request to move wallet funds to an external bank account.
type Withdrawal struct {
	ID            uint    `gorm:"primarykey"`
	WalletID      uint    `gorm:"index;not null"`
	UserID        uint    `gorm:"index;not null"`
	BankAccountID uint    `gorm:"index;not null"`
	Amount        float64 `gorm:"not null"`
	Status        string  `gorm:"not null;default:'pending'"`
	Note          string
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	BankAccount *BankAccount `gorm:"foreignKey:BankAccountID"`
}

// CanTransition reports whether moving to the given status is allowed.
func (w *Withdrawal) CanTransition(to string) bool {
	return canTransition(withdrawalTransitions, w.Status, to)
}

// BankAccount statuses
const (
	BankAccountStatusActive   = "active"
	BankAccountStatusInactive = "inactive"
)

// BankAccount is a user's payout destination.
type BankAccount struct {
	ID            uint   `gorm:"primarykey"`
	UserID        uint   `gorm:"index;not null"`
	BankName      string `gorm:"not null"`
	AccountNumber string `gorm:"not null"`
	AccountHolder string `gorm:"not null"`
	Status        string `gorm:"not null;default:'active'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
