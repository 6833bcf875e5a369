package models

import (
	"time"
)

// Booking statuses
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// Booking payment statuses
const (
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusPaid              = "paid"
	PaymentStatusPartiallyRefunded = "partially_refunded"
	PaymentStatusRefunded          = "refunded"
)

var bookingTransitions = map[string][]string{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

var paymentStatusTransitions = map[string][]string{
	PaymentStatusUnpaid: {PaymentStatusPaid},
	PaymentStatusPaid:   {PaymentStatusPartiallyRefunded, PaymentStatusRefunded},
	PaymentStatusPartiallyRefunded: {PaymentStatusRefunded, PaymentStatusPartiallyRefunded},
}

// Booking is a learner's purchase of a block of sessions with a tutor.
// Paying debits the learner wallet for TotalAmount; cancelling refunds the
// unconsumed remainder.
type Booking struct {
	ID             uint    `gorm:"primarykey"`
	LearnerID      uint    `gorm:"index;not null"`
	TutorID        uint    `gorm:"index;not null"`
	SubjectName    string  `gorm:"not null"`
	UnitPrice      float64 `gorm:"not null"`
	TotalSessions  int     `gorm:"not null"`
	TotalAmount    float64 `gorm:"not null"`
	Status         string  `gorm:"not null;default:'pending'"`
	PaymentStatus  string  `gorm:"not null;default:'unpaid'"`
	RefundedAmount float64 `gorm:"not null;default:0"`
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanTransition reports whether moving to the given status is allowed.
func (b *Booking) CanTransition(to string) bool {
	return canTransition(bookingTransitions, b.Status, to)
}

// CanTransitionPayment reports whether moving to the given payment status is allowed.
func (b *Booking) CanTransitionPayment(to string) bool {
	return canTransition(paymentStatusTransitions, b.PaymentStatus, to)
}

// Trial reports whether the booking carries no charge.
func (b *Booking) Trial() bool {
	return b.TotalAmount == 0
}
