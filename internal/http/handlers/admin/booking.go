package admin

import (
	"errors"
	"strconv"

	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/http/response"
	"github.com/coursebook/internal/repository"
	"github.com/coursebook/internal/service"

	"github.com/gin-gonic/gin"
)

// CancelBookingRequest 管理端取消预订请求
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// ListBookings 预订列表
func (h *Handler) ListBookings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.BookingListFilter{
		Page:          page,
		PageSize:      pageSize,
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		Email:         c.Query("email"),
		Search:        c.Query("search"),
	}
	if v, err := strconv.ParseUint(c.Query("session_id"), 10, 64); err == nil {
		filter.SessionID = uint(v)
	}
	if v, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil {
		filter.UserID = uint(v)
	}

	bookings, total, err := h.BookingService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list bookings", err)
		return
	}
	response.SuccessWithPage(c, bookings, buildPagination(page, pageSize, total))
}

// GetBooking 预订详情
func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	booking, err := h.BookingService.GetByID(id)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	response.Success(c, booking)
}

// CancelBooking 管理端取消预订，不受取消窗口限制
func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	// 取消原因可选，请求体为空时按无原因处理
	var req CancelBookingRequest
	_ = c.ShouldBindJSON(&req)

	booking, err := h.BookingService.CancelBooking(id, req.Reason, constants.ActorRoleAdmin, 0)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	requestLog(c).Infow("booking_cancelled_by_admin",
		"booking_id", booking.ID,
		"confirmation_code", booking.ConfirmationCode,
	)
	response.Success(c, booking)
}

func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBookingNotFound):
		respondError(c, response.CodeNotFound, "booking not found", nil)
	case errors.Is(err, service.ErrBookingStateInvalid):
		respondError(c, response.CodeBadRequest, "booking state does not allow this operation", nil)
	case errors.Is(err, service.ErrCancellationWindow):
		respondError(c, response.CodeBadRequest, "cancellation window has passed", nil)
	default:
		respondError(c, response.CodeInternal, "booking operation failed", err)
	}
}
