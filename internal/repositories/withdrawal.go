package repositories

import (
	"errors"
	"fmt"

	"tutorpay/internal/models"

	"gorm.io/gorm"
)

var (
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrBankAccountNotFound = errors.New("bank account not found")
)

// WithdrawalRepository defines the interface for withdrawal persistence.
type WithdrawalRepository interface {
	Create(withdrawal *models.Withdrawal) error
	GetByID(id uint) (*models.Withdrawal, error)
	Update(withdrawal *models.Withdrawal) error
	ListByUser(userID uint, limit, offset int) ([]models.Withdrawal, error)
	ListByStatus(status string) ([]models.Withdrawal, error)
}

// BankAccountRepository defines the interface for bank account persistence.
type BankAccountRepository interface {
	Create(account *models.BankAccount) error
	GetByID(id uint) (*models.BankAccount, error)
	ListByUser(userID uint) ([]models.BankAccount, error)
}

type withdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

func (r *withdrawalRepository) Create(withdrawal *models.Withdrawal) error {
	if err := r.db.Create(withdrawal).Error; err != nil {
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return nil
}

func (r *withdrawalRepository) GetByID(id uint) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := r.db.First(&withdrawal, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return &withdrawal, nil
}

func (r *withdrawalRepository) Update(withdrawal *models.Withdrawal) error {
	if err := r.db.Save(withdrawal).Error; err != nil {
		return fmt.Errorf("failed to update withdrawal: %w", err)
	}
	return nil
}

func (r *withdrawalRepository) ListByUser(userID uint, limit, offset int) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&withdrawals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (r *withdrawalRepository) ListByStatus(status string) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.Where("status = ?", status).Order("id").Find(&withdrawals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals by status: %w", err)
	}
	return withdrawals, nil
}

type bankAccountRepository struct {
	db *gorm.DB
}

func NewBankAccountRepository(db *gorm.DB) BankAccountRepository {
	return &bankAccountRepository{db: db}
}

func (r *bankAccountRepository) Create(account *models.BankAccount) error {
	if err := r.db.Create(account).Error; err != nil {
		return fmt.Errorf("failed to create bank account: %w", err)
	}
	return nil
}

func (r *bankAccountRepository) GetByID(id uint) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := r.db.First(&account, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrBankAccountNotFound
		}
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	return &account, nil
}

func (r *bankAccountRepository) ListByUser(userID uint) ([]models.BankAccount, error) {
	var accounts []models.BankAccount
	if err := r.db.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	return accounts, nil
}
