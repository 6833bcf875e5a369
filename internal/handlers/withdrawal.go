package handlers

import (
	"errors"

	"tutorpay/internal/services/wallet"
	"tutorpay/internal/services/withdrawal"
	"tutorpay/internal/utils"
	"tutorpay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type WithdrawalHandler struct {
	withdrawalService withdrawal.Service
}

func NewWithdrawalHandler(withdrawalService withdrawal.Service) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalService: withdrawalService,
	}
}

// CreateWithdrawal debits the caller's wallet toward their bank account.
func (h *WithdrawalHandler) CreateWithdrawal(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount        float64 `json:"amount" validate:"required,gt=0"`
		BankAccountID uint    `json:"bank_account_id" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	if errs := validation.Struct(input); errs != nil {
		return utils.Respond(c, fiber.StatusBadRequest, fiber.Map{"error": "validation failed", "details": errs})
	}

	wd, err := h.withdrawalService.CreateWithdrawalRequest(c.Context(), claims.UserID, input.Amount, input.BankAccountID)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{"withdrawal": wd})
	case errors.Is(err, withdrawal.ErrInvalidAmount):
		return utils.BadRequest(c, "Amount must be greater than 0")
	case errors.Is(err, withdrawal.ErrBankAccountNotFound):
		return utils.NotFound(c, "Bank account not found")
	case errors.Is(err, withdrawal.ErrNotAccountOwner):
		return utils.Forbidden(c, "Bank account does not belong to you")
	case errors.Is(err, withdrawal.ErrAccountInactive):
		return utils.BadRequest(c, "Bank account is inactive")
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return utils.BadRequest(c, "Insufficient funds")
	default:
		return utils.InternalError(c, "Failed to create withdrawal")
	}
}

// GetWithdrawalHistory lists the caller's withdrawals, newest first.
func (h *WithdrawalHandler) GetWithdrawalHistory(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, 1, 20)
	withdrawals, err := h.withdrawalService.GetWithdrawalHistory(c.Context(), claims.UserID, p.Limit, p.Offset)
	if err != nil {
		return utils.InternalError(c, "Failed to get withdrawal history")
	}

	return utils.Success(c, utils.NewPaginatedResponse(withdrawals, p))
}

// GetPendingWithdrawals lists withdrawals awaiting manual approval. Admin only.
func (h *WithdrawalHandler) GetPendingWithdrawals(c *fiber.Ctx) error {
	withdrawals, err := h.withdrawalService.GetPendingWithdrawals(c.Context())
	if err != nil {
		return utils.InternalError(c, "Failed to get pending withdrawals")
	}
	return utils.Success(c, fiber.Map{"withdrawals": withdrawals})
}
