package repositories

import (
	"errors"
	"fmt"
	"time"

	"tutorpay/internal/models"

	"gorm.io/gorm"
)

var ErrPayoutNotFound = errors.New("tutor payout not found")

// PayoutRepository defines the interface for tutor payout persistence.
type PayoutRepository interface {
	Create(payout *models.TutorPayout) error
	GetByID(id uint) (*models.TutorPayout, error)
	GetByScheduleID(scheduleID uint) (*models.TutorPayout, error)
	Update(payout *models.TutorPayout) error
	ListDue(asOf time.Time) ([]models.TutorPayout, error)
	ListPendingByBooking(bookingID uint) ([]models.TutorPayout, error)
	ListByTutor(tutorID uint, limit, offset int) ([]models.TutorPayout, error)
	SumPendingAmount() (float64, error)
}

type payoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &payoutRepository{db: db}
}

func (r *payoutRepository) Create(payout *models.TutorPayout) error {
	if err := r.db.Create(payout).Error; err != nil {
		return fmt.Errorf("failed to create tutor payout: %w", err)
	}
	return nil
}

func (r *payoutRepository) GetByID(id uint) (*models.TutorPayout, error) {
	var payout models.TutorPayout
	if err := r.db.First(&payout, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("failed to get tutor payout: %w", err)
	}
	return &payout, nil
}

func (r *payoutRepository) GetByScheduleID(scheduleID uint) (*models.TutorPayout, error) {
	var payout models.TutorPayout
	if err := r.db.Where("schedule_id = ?", scheduleID).First(&payout).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("failed to get tutor payout by schedule: %w", err)
	}
	return &payout, nil
}

func (r *payoutRepository) Update(payout *models.TutorPayout) error {
	if err := r.db.Save(payout).Error; err != nil {
		return fmt.Errorf("failed to update tutor payout: %w", err)
	}
	return nil
}

func (r *payoutRepository) ListDue(asOf time.Time) ([]models.TutorPayout, error) {
	var payouts []models.TutorPayout
	err := r.db.Where("status = ? AND scheduled_payout_date <= ?", models.PayoutStatusPending, asOf).
		Order("id").
		Find(&payouts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due payouts: %w", err)
	}
	return payouts, nil
}

func (r *payoutRepository) ListPendingByBooking(bookingID uint) ([]models.TutorPayout, error) {
	var payouts []models.TutorPayout
	err := r.db.Where("booking_id = ? AND status = ?", bookingID, models.PayoutStatusPending).
		Order("id").
		Find(&payouts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payouts for booking: %w", err)
	}
	return payouts, nil
}

func (r *payoutRepository) ListByTutor(tutorID uint, limit, offset int) ([]models.TutorPayout, error) {
	var payouts []models.TutorPayout
	err := r.db.Where("tutor_id = ?", tutorID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&payouts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts by tutor: %w", err)
	}
	return payouts, nil
}

func (r *payoutRepository) SumPendingAmount() (float64, error) {
	var total float64
	err := r.db.Model(&models.TutorPayout{}).
		Where("status = ?", models.PayoutStatusPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum pending payouts: %w", err)
	}
	return total, nil
}
