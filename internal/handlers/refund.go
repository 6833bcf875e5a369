package handlers

import (
	"errors"

	"tutorpay/internal/models"
	"tutorpay/internal/services/refund"
	"tutorpay/internal/utils"
	"tutorpay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type RefundHandler struct {
	refundService refund.Service
}

func NewRefundHandler(refundService refund.Service) *RefundHandler {
	return &RefundHandler{
		refundService: refundService,
	}
}

// RequestRefund opens a dispute for a paid booking.
func (h *RefundHandler) RequestRefund(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		BookingID uint   `json:"booking_id" validate:"required"`
		PolicyID  uint   `json:"policy_id" validate:"required"`
		Reason    string `json:"reason" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	if errs := validation.Struct(input); errs != nil {
		return utils.Respond(c, fiber.StatusBadRequest, fiber.Map{"error": "validation failed", "details": errs})
	}

	req, err := h.refundService.RequestRefund(c.Context(), input.BookingID, claims.UserID, input.PolicyID, input.Reason)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{"request": req})
	case errors.Is(err, refund.ErrBookingNotFound):
		return utils.NotFound(c, "Booking not found")
	case errors.Is(err, refund.ErrNotLearner):
		return utils.Forbidden(c, "Booking does not belong to you")
	case errors.Is(err, refund.ErrBookingUnpaid):
		return utils.Conflict(c, "Booking is not paid")
	case errors.Is(err, refund.ErrPolicyNotFound):
		return utils.NotFound(c, "Refund policy not found")
	case errors.Is(err, refund.ErrPolicyInactive):
		return utils.BadRequest(c, "Refund policy is not active")
	case errors.Is(err, refund.ErrRequestOpen):
		return utils.Conflict(c, "A pending refund request already exists")
	default:
		return utils.InternalError(c, "Failed to create refund request")
	}
}

// ApproveRefund resolves a request in the learner's favor. Admin only.
func (h *RefundHandler) ApproveRefund(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	requestID, err := c.ParamsInt("id")
	if err != nil || requestID < 1 {
		return utils.BadRequest(c, "Invalid request id")
	}

	req, err := h.refundService.Approve(c.Context(), uint(requestID), claims.UserID)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{"request": req})
	case errors.Is(err, refund.ErrRequestNotFound):
		return utils.NotFound(c, "Refund request not found")
	case errors.Is(err, refund.ErrAlreadyResolved):
		return utils.Conflict(c, "Refund request was already resolved")
	default:
		return utils.InternalError(c, "Failed to approve refund")
	}
}

// RejectRefund closes a request without moving any funds. Admin only.
func (h *RefundHandler) RejectRefund(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	requestID, err := c.ParamsInt("id")
	if err != nil || requestID < 1 {
		return utils.BadRequest(c, "Invalid request id")
	}

	req, err := h.refundService.Reject(c.Context(), uint(requestID), claims.UserID)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{"request": req})
	case errors.Is(err, refund.ErrRequestNotFound):
		return utils.NotFound(c, "Refund request not found")
	case errors.Is(err, refund.ErrAlreadyResolved):
		return utils.Conflict(c, "Refund request was already resolved")
	default:
		return utils.InternalError(c, "Failed to reject refund")
	}
}

// ListPolicies returns the active refund policies.
func (h *RefundHandler) ListPolicies(c *fiber.Ctx) error {
	policies, err := h.refundService.ListPolicies(c.Context())
	if err != nil {
		return utils.InternalError(c, "Failed to list policies")
	}
	return utils.Success(c, fiber.Map{"policies": policies})
}

// ListPendingRequests returns unresolved refund requests. Admin only.
func (h *RefundHandler) ListPendingRequests(c *fiber.Ctx) error {
	p := utils.GetPagination(c, 1, 20)
	requests, err := h.refundService.ListRequests(c.Context(), models.RefundRequestStatusPending, p.Limit, p.Offset)
	if err != nil {
		return utils.InternalError(c, "Failed to list refund requests")
	}
	return utils.Success(c, utils.NewPaginatedResponse(requests, p))
}
