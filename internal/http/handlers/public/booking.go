package public

import (
	"strconv"

	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/http/response"
	"github.com/coursebook/internal/repository"
	"github.com/coursebook/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateBookingRequest 创建预订请求
type CreateBookingRequest struct {
	SessionID    uint   `json:"session_id" binding:"required"`
	ContactName  string `json:"contact_name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required"`
	ContactPhone string `json:"contact_phone"`
	Participants int    `json:"participants" binding:"required"`
	CouponCode   string `json:"coupon_code"`
}

// CancelBookingRequest 取消预订请求
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// QuoteBooking 预订价格预览（不占用席位）
func (h *Handler) QuoteBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	session, err := h.SessionService.GetByID(req.SessionID)
	if err != nil {
		respondWithMappedError(c, err, bookingCreateErrorRules, response.CodeInternal, "failed to quote booking")
		return
	}

	quote, err := h.BookingService.Quote(session, service.CreateBookingInput{
		SessionID:            req.SessionID,
		UserID:               optionalUserID(c),
		ContactName:          req.ContactName,
		ContactEmail:         req.ContactEmail,
		ContactPhone:         req.ContactPhone,
		NumberOfParticipants: req.Participants,
		CouponCode:           req.CouponCode,
	})
	if err != nil {
		respondWithMappedError(c, err, bookingCreateErrorRules, response.CodeInternal, "failed to quote booking")
		return
	}
	response.Success(c, quote)
}

// CreateBooking 创建预订：占用席位并生成订单与待支付记录
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	booking, err := h.BookingService.CreateBooking(service.CreateBookingInput{
		SessionID:            req.SessionID,
		UserID:               optionalUserID(c),
		ContactName:          req.ContactName,
		ContactEmail:         req.ContactEmail,
		ContactPhone:         req.ContactPhone,
		NumberOfParticipants: req.Participants,
		CouponCode:           req.CouponCode,
	})
	if err != nil {
		respondWithMappedError(c, err, bookingCreateErrorRules, response.CodeInternal, "failed to create booking")
		return
	}

	requestLog(c).Infow("booking_created",
		"booking_id", booking.ID,
		"confirmation_code", booking.ConfirmationCode,
		"session_id", booking.SessionID,
		"participants", booking.NumberOfParticipants,
	)
	response.Success(c, booking)
}

// GetBookingByCode 按确认码查询预订
func (h *Handler) GetBookingByCode(c *gin.Context) {
	code := c.Param("code")
	booking, err := h.BookingService.GetByConfirmationCode(code)
	if err != nil {
		respondWithMappedError(c, err, bookingCancelErrorRules, response.CodeInternal, "failed to load booking")
		return
	}
	response.Success(c, booking)
}

// CancelBookingByCode 游客按确认码取消预订
func (h *Handler) CancelBookingByCode(c *gin.Context) {
	code := c.Param("code")
	var req CancelBookingRequest
	_ = c.ShouldBindJSON(&req)

	booking, err := h.BookingService.GetByConfirmationCode(code)
	if err != nil {
		respondWithMappedError(c, err, bookingCancelErrorRules, response.CodeInternal, "failed to cancel booking")
		return
	}

	cancelled, err := h.BookingService.CancelBooking(booking.ID, req.Reason, constants.ActorRoleCustomer, booking.UserID)
	if err != nil {
		respondWithMappedError(c, err, bookingCancelErrorRules, response.CodeInternal, "failed to cancel booking")
		return
	}
	response.Success(c, cancelled)
}

// CancelBooking 登录用户取消自己的预订
func (h *Handler) CancelBooking(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid booking id", err)
		return
	}
	var req CancelBookingRequest
	_ = c.ShouldBindJSON(&req)

	cancelled, err := h.BookingService.CancelBooking(uint(id), req.Reason, constants.ActorRoleCustomer, uid)
	if err != nil {
		respondWithMappedError(c, err, bookingCancelErrorRules, response.CodeInternal, "failed to cancel booking")
		return
	}
	response.Success(c, cancelled)
}

// ListMyBookings 登录用户的预订列表
func (h *Handler) ListMyBookings(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	bookings, total, err := h.BookingService.List(repository.BookingListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load bookings", err)
		return
	}
	response.SuccessWithPage(c, bookings, buildPagination(page, pageSize, total))
}
