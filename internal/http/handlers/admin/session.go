package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/coursebook/internal/http/response"
	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/repository"
	"github.com/coursebook/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionRequest 排期创建或更新请求
type SessionRequest struct {
	CourseTypeID      uint         `json:"course_type_id" binding:"required"`
	VenueID           uint         `json:"venue_id" binding:"required"`
	StartAt           time.Time    `json:"start_at" binding:"required"`
	EndAt             time.Time    `json:"end_at" binding:"required"`
	MaxCapacity       int          `json:"max_capacity"`
	PricePerSeat      models.Money `json:"price_per_seat"`
	GroupDiscountRate models.Money `json:"group_discount_rate"`
	MaxPerBooking     int          `json:"max_per_booking"`
	IsActive          *bool        `json:"is_active"`
}

func (r SessionRequest) toInput() service.SessionInput {
	return service.SessionInput{
		CourseTypeID:      r.CourseTypeID,
		VenueID:           r.VenueID,
		StartAt:           r.StartAt,
		EndAt:             r.EndAt,
		MaxCapacity:       r.MaxCapacity,
		PricePerSeat:      r.PricePerSeat,
		GroupDiscountRate: r.GroupDiscountRate,
		MaxPerBooking:     r.MaxPerBooking,
		IsActive:          r.IsActive,
	}
}

// ListSessions 排期列表（含停用与过期）
func (h *Handler) ListSessions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.SessionListFilter{
		Page:     page,
		PageSize: pageSize,
	}
	if v, err := strconv.ParseUint(c.Query("course_type_id"), 10, 64); err == nil {
		filter.CourseTypeID = uint(v)
	}
	if v, err := strconv.ParseUint(c.Query("venue_id"), 10, 64); err == nil {
		filter.VenueID = uint(v)
	}
	if v, err := time.Parse(time.RFC3339, c.Query("start_from")); err == nil {
		filter.StartFrom = &v
	}
	if v, err := time.Parse(time.RFC3339, c.Query("start_to")); err == nil {
		filter.StartTo = &v
	}

	sessions, total, err := h.SessionService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list sessions", err)
		return
	}
	response.SuccessWithPage(c, sessions, buildPagination(page, pageSize, total))
}

// CreateSession 创建排期
func (h *Handler) CreateSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	session, err := h.SessionService.Create(req.toInput())
	if err != nil {
		respondSessionError(c, err)
		return
	}
	requestLog(c).Infow("session_created",
		"session_id", session.ID,
		"course_type_id", session.CourseTypeID,
		"venue_id", session.VenueID,
		"start_at", session.StartAt,
	)
	response.Success(c, session)
}

// UpdateSession 更新排期，容量不可低于已预订人数
func (h *Handler) UpdateSession(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	session, err := h.SessionService.Update(id, req.toInput())
	if err != nil {
		respondSessionError(c, err)
		return
	}
	response.Success(c, session)
}

// GetSession 排期详情
func (h *Handler) GetSession(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	session, err := h.SessionService.GetByID(id)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	response.Success(c, session)
}

// DeactivateSession 下架排期，停止接受新预订
func (h *Handler) DeactivateSession(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.SessionService.Deactivate(id); err != nil {
		respondSessionError(c, err)
		return
	}
	requestLog(c).Infow("session_deactivated", "session_id", id)
	response.SuccessWithMsg(c, "session deactivated", nil)
}

// CompleteSessionBookings 将已结束排期下的已确认预订批量转为完成
func (h *Handler) CompleteSessionBookings(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	completed, err := h.BookingService.CompleteSessionBookings(id, time.Now())
	if err != nil {
		respondSessionError(c, err)
		return
	}
	requestLog(c).Infow("session_bookings_completed", "session_id", id, "completed", completed)
	response.Success(c, gin.H{"completed": completed})
}

func respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(c, response.CodeNotFound, "session not found", nil)
	case errors.Is(err, service.ErrCourseTypeNotFound):
		respondError(c, response.CodeBadRequest, "course type not found", nil)
	case errors.Is(err, service.ErrVenueNotFound):
		respondError(c, response.CodeBadRequest, "venue not found", nil)
	case errors.Is(err, service.ErrSessionTimeInvalid):
		respondError(c, response.CodeBadRequest, "session end must be after start", nil)
	case errors.Is(err, service.ErrCapacityInvalid):
		respondError(c, response.CodeBadRequest, "capacity must be positive", nil)
	case errors.Is(err, service.ErrCapacityBelowUsage):
		respondError(c, response.CodeConflict, "capacity cannot drop below reserved seats", nil)
	case errors.Is(err, service.ErrBookingStateInvalid):
		respondError(c, response.CodeBadRequest, "session bookings state does not allow this operation", nil)
	default:
		respondError(c, response.CodeInternal, "session operation failed", err)
	}
}
