package handlers

import (
	"errors"

	"tutorpay/internal/services/booking"
	"tutorpay/internal/services/wallet"
	"tutorpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type BookingHandler struct {
	bookingService booking.Service
}

func NewBookingHandler(bookingService booking.Service) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

// PayBooking debits the caller for the booking total.
func (h *BookingHandler) PayBooking(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	bookingID, err := c.ParamsInt("id")
	if err != nil || bookingID < 1 {
		return utils.BadRequest(c, "Invalid booking id")
	}

	b, err := h.bookingService.Pay(c.Context(), uint(bookingID), claims.UserID)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{"booking": b})
	case errors.Is(err, booking.ErrBookingNotFound):
		return utils.NotFound(c, "Booking not found")
	case errors.Is(err, booking.ErrNotLearner):
		return utils.Forbidden(c, "Booking does not belong to you")
	case errors.Is(err, booking.ErrAlreadyPaid):
		return utils.Conflict(c, "Booking is already paid")
	case errors.Is(err, booking.ErrNotPayable):
		return utils.Conflict(c, "Booking cannot be paid")
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return utils.BadRequest(c, "Insufficient funds")
	default:
		return utils.InternalError(c, "Failed to pay booking")
	}
}

// CancelBooking refunds the unconsumed remainder and cancels the rest.
func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	bookingID, err := c.ParamsInt("id")
	if err != nil || bookingID < 1 {
		return utils.BadRequest(c, "Invalid booking id")
	}

	preview, err := h.bookingService.CancelByLearner(c.Context(), uint(bookingID), claims.UserID)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{"cancellation": preview})
	case errors.Is(err, booking.ErrBookingNotFound):
		return utils.NotFound(c, "Booking not found")
	case errors.Is(err, booking.ErrNotLearner):
		return utils.Forbidden(c, "Booking does not belong to you")
	case errors.Is(err, booking.ErrNotPaid):
		return utils.Conflict(c, "Booking is not paid")
	case errors.Is(err, booking.ErrNotCancellable):
		return utils.Conflict(c, "Booking cannot be cancelled")
	default:
		return utils.InternalError(c, "Failed to cancel booking")
	}
}

// GetCancelPreview shows the refund the learner would receive.
func (h *BookingHandler) GetCancelPreview(c *fiber.Ctx) error {
	bookingID, err := c.ParamsInt("id")
	if err != nil || bookingID < 1 {
		return utils.BadRequest(c, "Invalid booking id")
	}

	preview, err := h.bookingService.GetCancelPreview(c.Context(), uint(bookingID))
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return utils.NotFound(c, "Booking not found")
		}
		return utils.InternalError(c, "Failed to compute preview")
	}

	return utils.Success(c, fiber.Map{"preview": preview})
}

// ListBookings lists the caller's bookings, newest first.
func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, 1, 20)
	bookings, err := h.bookingService.ListByLearner(c.Context(), claims.UserID, p.Limit, p.Offset)
	if err != nil {
		return utils.InternalError(c, "Failed to list bookings")
	}

	return utils.Success(c, utils.NewPaginatedResponse(bookings, p))
}

// MarkScheduleStudied records that a lesson took place.
func (h *BookingHandler) MarkScheduleStudied(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	scheduleID, err := c.ParamsInt("id")
	if err != nil || scheduleID < 1 {
		return utils.BadRequest(c, "Invalid schedule id")
	}

	err = h.bookingService.MarkScheduleStudied(c.Context(), uint(scheduleID), claims.UserID)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{"message": "Schedule marked studied"})
	case errors.Is(err, booking.ErrNotLearner):
		return utils.Forbidden(c, "Schedule does not belong to you")
	case errors.Is(err, booking.ErrScheduleState):
		return utils.Conflict(c, "Schedule cannot be marked studied")
	default:
		return utils.InternalError(c, "Failed to mark schedule studied")
	}
}
