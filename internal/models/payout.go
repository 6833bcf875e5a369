package models

import (
	"time"
)

// TutorPayout statuses. Held blocks release until the dispute resolves;
// cancelled marks a payout whose held amount was redirected to the learner.
const (
	PayoutStatusPending   = "pending"
	PayoutStatusPaid      = "paid"
	PayoutStatusHeld      = "held"
	PayoutStatusCancelled = "cancelled"
)

var payoutTransitions = map[string][]string{
	PayoutStatusPending: {PayoutStatusPaid, PayoutStatusHeld},
	PayoutStatusHeld:    {PayoutStatusPending, PayoutStatusCancelled},
}

// TutorPayout is a held, time-scheduled credit owed to a tutor for one
// completed session, net of the platform fee. Exactly one payout exists per
// completed, paid schedule.
type TutorPayout struct {
	ID                  uint    `gorm:"primarykey"`
	ScheduleID          uint    `gorm:"uniqueIndex;not null"`
	BookingID           uint    `gorm:"index;not null"`
	TutorID             uint    `gorm:"index;not null"`
	Amount              float64 `gorm:"not null"`
	SystemFeeAmount     float64 `gorm:"not null"`
	Status              string  `gorm:"not null;default:'pending'"`
	ScheduledPayoutDate time.Time
	HoldReason          *string
	ReportID            *uint
	ReleasedAt          *time.Time
	WalletTransactionID *uint
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CanTransition reports whether moving to the given status is allowed.
func (p *TutorPayout) CanTransition(to string) bool {
	return canTransition(payoutTransitions, p.Status, to)
}

// Releasable reports whether the payout may be credited to the tutor as of
// the given time.
func (p *TutorPayout) Releasable(asOf time.Time) bool {
	return p.Status == PayoutStatusPending && !p.ScheduledPayoutDate.After(asOf)
}
