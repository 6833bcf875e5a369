package models

import (
	"time"
)

// Deposit statuses. Pending is the only non-terminal state.
const (
	DepositStatusPending   = "pending"
	DepositStatusCompleted = "completed"
	DepositStatusFailed    = "failed"
)

// Deposit channels
const (
	DepositChannelVnpay = "vnpay"
	DepositChannelCard  = "card"
)

var depositTransitions = map[string][]string{
	DepositStatusPending: {DepositStatusCompleted, DepositStatusFailed},
}

// Deposit is a request to add funds through an external gateway. No balance
// change happens until the gateway confirms; a completed or failed deposit
// never transitions again.
type Deposit struct {
	ID             uint    `gorm:"primarykey"`
	WalletID       uint    `gorm:"index;not null"`
	UserID         uint    `gorm:"index;not null"`
	Amount         float64 `gorm:"not null"`
	Status         string  `gorm:"not null;default:'pending'"`
	Channel        string  `gorm:"not null;default:'vnpay'"`
	OrderRef       string  `gorm:"uniqueIndex;not null"`
	GatewayTxnCode string
	FailureReason  string
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanTransition reports whether moving to the given status is allowed.
func (d *Deposit) CanTransition(to string) bool {
	return canTransition(depositTransitions, d.Status, to)
}

// Terminal reports whether the deposit reached a final state.
func (d *Deposit) Terminal() bool {
	return d.Status != DepositStatusPending
}

func canTransition(table map[string][]string, from, to string) bool {
	for _, allowed := range table[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
