package handlers

import (
	"errors"

	"tutorpay/internal/models"
	"tutorpay/internal/services/payout"
	"tutorpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type PayoutHandler struct {
	payoutService payout.Service
}

func NewPayoutHandler(payoutService payout.Service) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
	}
}

// ConfirmSchedule lets the learner confirm a studied lesson, creating the
// tutor's payout.
func (h *PayoutHandler) ConfirmSchedule(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	scheduleID, err := c.ParamsInt("id")
	if err != nil || scheduleID < 1 {
		return utils.BadRequest(c, "Invalid schedule id")
	}

	p, err := h.payoutService.CompleteSchedule(c.Context(), uint(scheduleID), models.CompletionByLearner, claims.UserID)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{"payout": p})
	case errors.Is(err, payout.ErrScheduleNotFound):
		return utils.NotFound(c, "Schedule not found")
	case errors.Is(err, payout.ErrUnauthorizedActor):
		return utils.Forbidden(c, "Schedule does not belong to you")
	case errors.Is(err, payout.ErrNotConfirmable):
		return utils.Conflict(c, "Schedule cannot be confirmed")
	case errors.Is(err, payout.ErrBookingUnpaid):
		return utils.Conflict(c, "Booking is not paid")
	case errors.Is(err, payout.ErrPayoutExists):
		return utils.Conflict(c, "Schedule was already confirmed")
	default:
		return utils.InternalError(c, "Failed to confirm schedule")
	}
}

// MarkReported holds a payout while a dispute is open.
func (h *PayoutHandler) MarkReported(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	scheduleID, err := c.ParamsInt("id")
	if err != nil || scheduleID < 1 {
		return utils.BadRequest(c, "Invalid schedule id")
	}

	var input struct {
		ReportID uint   `json:"report_id"`
		Reason   string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	err = h.payoutService.MarkReported(c.Context(), uint(scheduleID), input.ReportID, claims.UserID, input.Reason)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{"message": "Payout held"})
	case errors.Is(err, payout.ErrScheduleNotFound):
		return utils.NotFound(c, "Schedule not found")
	case errors.Is(err, payout.ErrUnauthorizedActor):
		return utils.Forbidden(c, "Schedule does not belong to you")
	case errors.Is(err, payout.ErrPayoutNotFound):
		return utils.NotFound(c, "Payout not found")
	case errors.Is(err, payout.ErrAlreadyReleased):
		return utils.Conflict(c, "Payout was already released")
	default:
		return utils.InternalError(c, "Failed to hold payout")
	}
}

// ListPayouts lists the calling tutor's payouts, newest first.
func (h *PayoutHandler) ListPayouts(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, 1, 20)
	payouts, err := h.payoutService.ListByTutor(c.Context(), claims.UserID, p.Limit, p.Offset)
	if err != nil {
		return utils.InternalError(c, "Failed to list payouts")
	}

	return utils.Success(c, utils.NewPaginatedResponse(payouts, p))
}
