package models

import (
	"time"
)

// BookingRefundRequest statuses. Pending is the only non-terminal state.
const (
	RefundRequestStatusPending  = "pending"
	RefundRequestStatusApproved = "approved"
	RefundRequestStatusRejected = "rejected"
)

var refundRequestTransitions = map[string][]string{
	RefundRequestStatusPending: {RefundRequestStatusApproved, RefundRequestStatusRejected},
}

// RefundPolicy is a named percentage rule applied when approving a disputed
// booking's refund.
type RefundPolicy struct {
	ID               uint    `gorm:"primarykey"`
	Name             string  `gorm:"uniqueIndex;not null"`
	RefundPercentage float64 `gorm:"not null"`
	Active           bool    `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BookingRefundRequest tracks a disputed booking's refund through resolution.
// Approving sets ApprovedAmount and moves the funds; rejecting leaves every
// wallet untouched.
type BookingRefundRequest struct {
	ID             uint   `gorm:"primarykey"`
	BookingID      uint   `gorm:"index;not null"`
	PolicyID       uint   `gorm:"index;not null"`
	LearnerID      uint   `gorm:"index;not null"`
	Reason         string `gorm:"not null"`
	Status         string `gorm:"not null;default:'pending'"`
	ApprovedAmount *float64
	ResolvedBy     *uint
	ResolvedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Policy *RefundPolicy `gorm:"foreignKey:PolicyID"`
}

// CanTransition reports whether moving to the given status is allowed.
func (r *BookingRefundRequest) CanTransition(to string) bool {
	return canTransition(refundRequestTransitions, r.Status, to)
}
