package models

import (
	"time"
)

// Schedule statuses. Studied means the lesson took place; completed means the
// completion was confirmed (by the learner, the auto-complete job, or an
// admin) and a payout was authorized. Studied and completed sessions count as
// consumed when computing cancellation refunds.
const (
	ScheduleStatusScheduled = "scheduled"
	ScheduleStatusStudied   = "studied"
	ScheduleStatusCompleted = "completed"
	ScheduleStatusCancelled = "cancelled"
)

// Completion sources
const (
	CompletionByLearner = "learner"
	CompletionByAuto    = "auto"
	CompletionByAdmin   = "admin"
)

var scheduleTransitions = map[string][]string{
	ScheduleStatusScheduled: {ScheduleStatusStudied, ScheduleStatusCancelled},
	ScheduleStatusStudied:   {ScheduleStatusCompleted, ScheduleStatusCancelled},
}

// Schedule is one lesson instance belonging to a booking.
type Schedule struct {
	ID          uint `gorm:"primarykey"`
	BookingID   uint `gorm:"index;not null"`
	TutorID     uint `gorm:"index;not null"`
	LearnerID   uint `gorm:"index;not null"`
	SlotID      *uint
	StartTime   time.Time `gorm:"not null"`
	EndTime     time.Time `gorm:"not null"`
	Status      string    `gorm:"not null;default:'scheduled'"`
	CompletedBy string
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CanTransition reports whether moving to the given status is allowed.
func (s *Schedule) CanTransition(to string) bool {
	return canTransition(scheduleTransitions, s.Status, to)
}

// Consumed reports whether the session counts against the refundable amount.
func (s *Schedule) Consumed() bool {
	return s.Status == ScheduleStatusStudied || s.Status == ScheduleStatusCompleted
}

// Availability slot statuses
const (
	SlotStatusOpen   = "open"
	SlotStatusBooked = "booked"
)

// AvailabilitySlot is a tutor's bookable time window. Cancelling a schedule
// releases its slot back to open.
type AvailabilitySlot struct {
	ID        uint      `gorm:"primarykey"`
	TutorID   uint      `gorm:"index;not null"`
	StartTime time.Time `gorm:"not null"`
	EndTime   time.Time `gorm:"not null"`
	Status    string    `gorm:"not null;default:'open'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
