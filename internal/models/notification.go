package models

import (
	"time"
)

// Notification statuses
const (
	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
)

// Notification is an outbox row. Rows are written after the financial
// transaction they describe has committed; delivery failures never roll a
// ledger mutation back.
type Notification struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"index;not null"`
	Message   string `gorm:"not null"`
	Link      string
	Status    string `gorm:"not null;default:'pending'"`
	SentAt    *time.Time
	CreatedAt time.Time
}
