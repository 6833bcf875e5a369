package repositories

import (
	"errors"
	"fmt"
	"time"

	"tutorpay/internal/models"

	"gorm.io/gorm"
)

var ErrDepositNotFound = errors.New("deposit not found")

// DepositRepository defines the interface for deposit persistence.
type DepositRepository interface {
	Create(deposit *models.Deposit) error
	GetByID(id uint) (*models.Deposit, error)
	GetByOrderRef(orderRef string) (*models.Deposit, error)
	Update(deposit *models.Deposit) error
	ListByUser(userID uint, limit, offset int) ([]models.Deposit, error)
	ListExpiredPending(before time.Time) ([]models.Deposit, error)
}

type depositRepository struct {
	db *gorm.DB
}

func NewDepositRepository(db *gorm.DB) DepositRepository {
	return &depositRepository{db: db}
}

func (r *depositRepository) Create(deposit *models.Deposit) error {
	if err := r.db.Create(deposit).Error; err != nil {
		return fmt.Errorf("failed to create deposit: %w", err)
	}
	return nil
}

func (r *depositRepository) GetByID(id uint) (*models.Deposit, error) {
	var deposit models.Deposit
	if err := r.db.First(&deposit, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrDepositNotFound
		}
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return &deposit, nil
}

func (r *depositRepository) GetByOrderRef(orderRef string) (*models.Deposit, error) {
	var deposit models.Deposit
	if err := r.db.Where("order_ref = ?", orderRef).First(&deposit).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrDepositNotFound
		}
		return nil, fmt.Errorf("failed to get deposit by order ref: %w", err)
	}
	return &deposit, nil
}

func (r *depositRepository) Update(deposit *models.Deposit) error {
	if err := r.db.Save(deposit).Error; err != nil {
		return fmt.Errorf("failed to update deposit: %w", err)
	}
	return nil
}

func (r *depositRepository) ListByUser(userID uint, limit, offset int) ([]models.Deposit, error) {
	var deposits []models.Deposit
	err := r.db.Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&deposits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return deposits, nil
}

func (r *depositRepository) ListExpiredPending(before time.Time) ([]models.Deposit, error) {
	var deposits []models.Deposit
	err := r.db.Where("status = ? AND created_at < ?", models.DepositStatusPending, before).
		Find(&deposits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired deposits: %w", err)
	}
	return deposits, nil
}
