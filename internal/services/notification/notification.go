// Package notification persists user-facing messages to an outbox table.
// Notifications are written after the financial transaction they describe
// has committed; a failed write is logged and never unwinds the ledger.
package notification

import (
	"context"
	"log"

	"tutorpay/internal/models"
	"tutorpay/internal/repositories"
)

// Sink receives a message for a user.
type Sink interface {
	Notify(ctx context.Context, userID uint, message, link string)
}

type outboxSink struct {
	repo repositories.NotificationRepository
}

func NewOutboxSink(repo repositories.NotificationRepository) Sink {
	return &outboxSink{repo: repo}
}

func (s *outboxSink) Notify(_ context.Context, userID uint, message, link string) {
	n := &models.Notification{
		UserID:  userID,
		Message: message,
		Link:    link,
		Status:  models.NotificationStatusPending,
	}
	if err := s.repo.Create(n); err != nil {
		log.Printf("Failed to persist notification for user %d: %v", userID, err)
		return
	}
	log.Printf("Notification queued for user %d: %s", userID, message)
}

// NopSink discards everything. Used in tests and tooling.
type NopSink struct{}

func (NopSink) Notify(context.Context, uint, string, string) {}
