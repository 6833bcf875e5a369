package repositories

import (
	"errors"
	"fmt"
	"time"

	"tutorpay/internal/models"

	"gorm.io/gorm"
)

var ErrBookingNotFound = errors.New("booking not found")

// BookingRepository defines the interface for booking persistence.
type BookingRepository interface {
	Create(booking *models.Booking) error
	GetByID(id uint) (*models.Booking, error)
	Update(booking *models.Booking) error
	ListByLearner(learnerID uint, limit, offset int) ([]models.Booking, error)
	ListExpiredUnpaid(before time.Time) ([]models.Booking, error)
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(booking *models.Booking) error {
	if err := r.db.Create(booking).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) GetByID(id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.First(&booking, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) Update(booking *models.Booking) error {
	if err := r.db.Save(booking).Error; err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) ListByLearner(learnerID uint, limit, offset int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Where("learner_id = ?", learnerID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListExpiredUnpaid(before time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Where("status = ? AND payment_status = ? AND created_at < ?",
		models.BookingStatusPending, models.PaymentStatusUnpaid, before).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired unpaid bookings: %w", err)
	}
	return bookings, nil
}
