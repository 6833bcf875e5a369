package handlers

import (
	"errors"
	"log"
	"net/url"

	"tutorpay/internal/gateway"
	"tutorpay/internal/services/deposit"
	"tutorpay/internal/utils"
	"tutorpay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type DepositHandler struct {
	depositService deposit.Service
	vnpay          *gateway.VNPay
}

func NewDepositHandler(depositService deposit.Service, vnpay *gateway.VNPay) *DepositHandler {
	return &DepositHandler{
		depositService: depositService,
		vnpay:          vnpay,
	}
}

// CreateDeposit opens a pending deposit and returns the gateway pay URL.
func (h *DepositHandler) CreateDeposit(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount float64 `json:"amount" validate:"required,gt=0"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	if errs := validation.Struct(input); errs != nil {
		return utils.Respond(c, fiber.StatusBadRequest, fiber.Map{"error": "validation failed", "details": errs})
	}

	dep, payURL, err := h.depositService.CreateDepositRequest(c.Context(), claims.UserID, input.Amount, c.IP())
	if err != nil {
		if errors.Is(err, deposit.ErrInvalidAmount) {
			return utils.BadRequest(c, "Amount must be greater than 0")
		}
		return utils.InternalError(c, "Failed to create deposit")
	}

	return utils.Success(c, fiber.Map{
		"deposit": dep,
		"pay_url": payURL,
	})
}

// CreateCardDeposit tokenizes a card and credits the wallet immediately.
func (h *DepositHandler) CreateCardDeposit(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount      float64 `json:"amount" validate:"required,gt=0"`
		CardNumber  string  `json:"card_number" validate:"required"`
		ExpiryMonth string  `json:"expiry_month" validate:"required"`
		ExpiryYear  string  `json:"expiry_year" validate:"required"`
		CVV         string  `json:"cvv" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	if errs := validation.Struct(input); errs != nil {
		return utils.Respond(c, fiber.StatusBadRequest, fiber.Map{"error": "validation failed", "details": errs})
	}

	dep, err := h.depositService.CreateCardDeposit(c.Context(), claims.UserID, input.Amount, gateway.CardDetails{
		CardNumber:  input.CardNumber,
		ExpiryMonth: input.ExpiryMonth,
		ExpiryYear:  input.ExpiryYear,
		CVV:         input.CVV,
	})
	if err != nil {
		if errors.Is(err, deposit.ErrCardDeclined) {
			return utils.BadRequest(c, "Card was declined")
		}
		return utils.InternalError(c, "Failed to process card deposit")
	}

	return utils.Success(c, fiber.Map{"deposit": dep})
}

// CancelDeposit marks the caller's pending deposit as failed.
func (h *DepositHandler) CancelDeposit(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	depositID, err := c.ParamsInt("id")
	if err != nil || depositID < 1 {
		return utils.BadRequest(c, "Invalid deposit id")
	}

	err = h.depositService.CancelDepositRequest(c.Context(), uint(depositID), claims.UserID)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{"message": "Deposit cancelled"})
	case errors.Is(err, deposit.ErrDepositNotFound):
		return utils.NotFound(c, "Deposit not found")
	case errors.Is(err, deposit.ErrNotOwner):
		return utils.Forbidden(c, "Deposit does not belong to you")
	case errors.Is(err, deposit.ErrNotPending):
		return utils.Conflict(c, "Deposit is no longer pending")
	default:
		return utils.InternalError(c, "Failed to cancel deposit")
	}
}

// GetDepositHistory lists the caller's deposits, newest first.
func (h *DepositHandler) GetDepositHistory(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, 1, 20)
	deposits, err := h.depositService.GetDepositHistory(c.Context(), claims.UserID, p.Limit, p.Offset)
	if err != nil {
		return utils.InternalError(c, "Failed to get deposit history")
	}

	return utils.Success(c, utils.NewPaginatedResponse(deposits, p))
}

// VNPayIPN is the server-to-server confirmation endpoint. The gateway
// expects a bare {RspCode, Message} body with its own status codes, never
// the normal API envelope, and retries until it receives one.
func (h *DepositHandler) VNPayIPN(c *fiber.Ctx) error {
	query, err := parseQuery(c)
	if err != nil {
		return ipnResponse(c, "97", "Invalid Checksum")
	}

	params, err := h.vnpay.ValidateCallback(query)
	if err != nil {
		log.Printf("IPN signature rejected: %v", err)
		return ipnResponse(c, "97", "Invalid Checksum")
	}

	outcome, err := h.depositService.ProcessGatewayCallback(c.Context(), params)
	switch {
	case errors.Is(err, deposit.ErrDepositNotFound):
		return ipnResponse(c, "01", "Order not Found")
	case errors.Is(err, deposit.ErrAmountMismatch):
		return ipnResponse(c, "04", "Invalid Amount")
	case err != nil:
		log.Printf("IPN processing failed for order %s: %v", params.OrderRef, err)
		return ipnResponse(c, "99", "Unknown error")
	}

	if outcome == deposit.OutcomeAlreadyProcessed {
		return ipnResponse(c, "02", "Order already confirmed")
	}
	return ipnResponse(c, "00", "Confirm Success")
}

func parseQuery(c *fiber.Ctx) (url.Values, error) {
	return url.ParseQuery(string(c.Request().URI().QueryString()))
}

func ipnResponse(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"RspCode": code,
		"Message": message,
	})
}
