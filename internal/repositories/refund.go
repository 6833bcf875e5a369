package repositories

import (
	"errors"
	"fmt"

	"tutorpay/internal/models"

	"gorm.io/gorm"
)

var (
	ErrRefundPolicyNotFound  = errors.New("refund policy not found")
	ErrRefundRequestNotFound = errors.New("refund request not found")
)

// RefundRepository defines the interface for refund policy and request persistence.
type RefundRepository interface {
	CreatePolicy(policy *models.RefundPolicy) error
	GetPolicyByID(id uint) (*models.RefundPolicy, error)
	ListActivePolicies() ([]models.RefundPolicy, error)

	CreateRequest(request *models.BookingRefundRequest) error
	GetRequestByID(id uint) (*models.BookingRefundRequest, error)
	UpdateRequest(request *models.BookingRefundRequest) error
	PendingRequestExists(bookingID uint) (bool, error)
	ListRequestsByStatus(status string, limit, offset int) ([]models.BookingRefundRequest, error)
}

type refundRepository struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) RefundRepository {
	return &refundRepository{db: db}
}

func (r *refundRepository) CreatePolicy(policy *models.RefundPolicy) error {
	if err := r.db.Create(policy).Error; err != nil {
		return fmt.Errorf("failed to create refund policy: %w", err)
	}
	return nil
}

func (r *refundRepository) GetPolicyByID(id uint) (*models.RefundPolicy, error) {
	var policy models.RefundPolicy
	if err := r.db.First(&policy, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRefundPolicyNotFound
		}
		return nil, fmt.Errorf("failed to get refund policy: %w", err)
	}
	return &policy, nil
}

func (r *refundRepository) ListActivePolicies() ([]models.RefundPolicy, error) {
	var policies []models.RefundPolicy
	if err := r.db.Where("active = ?", true).Find(&policies).Error; err != nil {
		return nil, fmt.Errorf("failed to list refund policies: %w", err)
	}
	return policies, nil
}

func (r *refundRepository) CreateRequest(request *models.BookingRefundRequest) error {
	if err := r.db.Create(request).Error; err != nil {
		return fmt.Errorf("failed to create refund request: %w", err)
	}
	return nil
}

func (r *refundRepository) GetRequestByID(id uint) (*models.BookingRefundRequest, error) {
	var request models.BookingRefundRequest
	if err := r.db.First(&request, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRefundRequestNotFound
		}
		return nil, fmt.Errorf("failed to get refund request: %w", err)
	}
	return &request, nil
}

func (r *refundRepository) UpdateRequest(request *models.BookingRefundRequest) error {
	if err := r.db.Save(request).Error; err != nil {
		return fmt.Errorf("failed to update refund request: %w", err)
	}
	return nil
}

func (r *refundRepository) PendingRequestExists(bookingID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.BookingRefundRequest{}).
		Where("booking_id = ? AND status = ?", bookingID, models.RefundRequestStatusPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check refund requests: %w", err)
	}
	return count > 0, nil
}

func (r *refundRepository) ListRequestsByStatus(status string, limit, offset int) ([]models.BookingRefundRequest, error) {
	var requests []models.BookingRefundRequest
	err := r.db.Where("status = ?", status).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list refund requests: %w", err)
	}
	return requests, nil
}
