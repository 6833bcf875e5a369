package handlers

import (
	"errors"

	"tutorpay/internal/models"
	"tutorpay/internal/services/dashboard"
	"tutorpay/internal/services/deposit"
	"tutorpay/internal/services/payout"
	"tutorpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	dashboardService dashboard.Service
	depositService   deposit.Service
	payoutService    payout.Service
}

func NewAdminHandler(
	dashboardService dashboard.Service,
	depositService deposit.Service,
	payoutService payout.Service,
) *AdminHandler {
	return &AdminHandler{
		dashboardService: dashboardService,
		depositService:   depositService,
		payoutService:    payoutService,
	}
}

// GetDashboard returns the platform-wide financial summary.
func (h *AdminHandler) GetDashboard(c *fiber.Ctx) error {
	summary, err := h.dashboardService.GetSummary(c.Context())
	if err != nil {
		return utils.InternalError(c, "Failed to build dashboard")
	}
	return utils.Success(c, fiber.Map{"summary": summary})
}

// CleanupExpiredDeposits fails every pending deposit past the expiry window.
func (h *AdminHandler) CleanupExpiredDeposits(c *fiber.Ctx) error {
	count, err := h.depositService.CleanupExpiredDeposits(c.Context())
	if err != nil {
		return utils.InternalError(c, "Failed to clean up deposits")
	}
	return utils.Success(c, fiber.Map{"expired": count})
}

// CompleteScheduleOverride confirms a schedule on the admin's authority.
func (h *AdminHandler) CompleteScheduleOverride(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	scheduleID, err := c.ParamsInt("id")
	if err != nil || scheduleID < 1 {
		return utils.BadRequest(c, "Invalid schedule id")
	}

	p, err := h.payoutService.CompleteSchedule(c.Context(), uint(scheduleID), models.CompletionByAdmin, claims.UserID)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{"payout": p})
	case errors.Is(err, payout.ErrScheduleNotFound):
		return utils.NotFound(c, "Schedule not found")
	case errors.Is(err, payout.ErrNotConfirmable):
		return utils.Conflict(c, "Schedule cannot be confirmed")
	case errors.Is(err, payout.ErrPayoutExists):
		return utils.Conflict(c, "Schedule was already confirmed")
	default:
		return utils.InternalError(c, "Failed to complete schedule")
	}
}

// ResolveReport closes a dispute, either lifting the hold or redirecting
// the held amount to the learner.
func (h *AdminHandler) ResolveReport(c *fiber.Ctx) error {
	scheduleID, err := c.ParamsInt("id")
	if err != nil || scheduleID < 1 {
		return utils.BadRequest(c, "Invalid schedule id")
	}

	var input struct {
		ReleaseToTutor bool `json:"release_to_tutor"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}

	err = h.payoutService.ResolveReport(c.Context(), uint(scheduleID), input.ReleaseToTutor)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{"message": "Report resolved"})
	case errors.Is(err, payout.ErrPayoutNotFound):
		return utils.NotFound(c, "Payout not found")
	case errors.Is(err, payout.ErrNotHeld):
		return utils.Conflict(c, "Payout is not held")
	default:
		return utils.InternalError(c, "Failed to resolve report")
	}
}

// ProcessDuePayouts releases every due payout immediately.
func (h *AdminHandler) ProcessDuePayouts(c *fiber.Ctx) error {
	count, err := h.payoutService.ProcessDuePayouts(c.Context())
	if err != nil {
		return utils.InternalError(c, "Failed to process payouts")
	}
	return utils.Success(c, fiber.Map{"released": count})
}
