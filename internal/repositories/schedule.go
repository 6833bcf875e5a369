package repositories

import (
	"errors"
	"fmt"
	"time"

	"tutorpay/internal/models"

	"gorm.io/gorm"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrSlotNotFound     = errors.New("availability slot not found")
)

// ScheduleRepository defines the interface for schedule and slot persistence.
type ScheduleRepository interface {
	Create(schedule *models.Schedule) error
	GetByID(id uint) (*models.Schedule, error)
	Update(schedule *models.Schedule) error
	ListByBooking(bookingID uint) ([]models.Schedule, error)
	// ListStudiedEndedBefore returns studied schedules whose lesson ended
	// before the given cutoff and that were never confirmed.
	ListStudiedEndedBefore(cutoff time.Time) ([]models.Schedule, error)

	GetSlot(id uint) (*models.AvailabilitySlot, error)
	UpdateSlot(slot *models.AvailabilitySlot) error
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(schedule *models.Schedule) error {
	if err := r.db.Create(schedule).Error; err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) GetByID(id uint) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := r.db.First(&schedule, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &schedule, nil
}

func (r *scheduleRepository) Update(schedule *models.Schedule) error {
	if err := r.db.Save(schedule).Error; err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) ListByBooking(bookingID uint) ([]models.Schedule, error) {
	var schedules []models.Schedule
	err := r.db.Where("booking_id = ?", bookingID).Order("start_time").Find(&schedules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) ListStudiedEndedBefore(cutoff time.Time) ([]models.Schedule, error) {
	var schedules []models.Schedule
	err := r.db.Where("status = ? AND end_time < ?", models.ScheduleStatusStudied, cutoff).
		Find(&schedules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list past-due schedules: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) GetSlot(id uint) (*models.AvailabilitySlot, error) {
	var slot models.AvailabilitySlot
	if err := r.db.First(&slot, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to get availability slot: %w", err)
	}
	return &slot, nil
}

func (r *scheduleRepository) UpdateSlot(slot *models.AvailabilitySlot) error {
	if err := r.db.Save(slot).Error; err != nil {
		return fmt.Errorf("failed to update availability slot: %w", err)
	}
	return nil
}
