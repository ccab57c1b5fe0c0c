package public

import (
	"strconv"
	"time"

	"github.com/coursebook/internal/http/response"
	"github.com/coursebook/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListCourseTypes 获取开放预约的课程类型列表
func (h *Handler) ListCourseTypes(c *gin.Context) {
	courseTypes, err := h.CourseTypeService.List(true)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load course types", err)
		return
	}
	response.Success(c, courseTypes)
}

// ListVenues 获取可用场地列表
func (h *Handler) ListVenues(c *gin.Context) {
	venues, err := h.VenueService.List(true)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load venues", err)
		return
	}
	response.Success(c, venues)
}

// ListSessions 获取可预约排期列表
func (h *Handler) ListSessions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.SessionListFilter{
		Page:         page,
		PageSize:     pageSize,
		OnlyActive:   true,
		OnlyBookable: true,
	}
	if v, err := strconv.ParseUint(c.Query("course_type_id"), 10, 64); err == nil {
		filter.CourseTypeID = uint(v)
	}
	if v, err := strconv.ParseUint(c.Query("venue_id"), 10, 64); err == nil {
		filter.VenueID = uint(v)
	}
	if from, err := time.Parse(time.RFC3339, c.Query("start_from")); err == nil {
		filter.StartFrom = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("start_to")); err == nil {
		filter.StartTo = &to
	}

	sessions, total, err := h.SessionService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load sessions", err)
		return
	}
	response.SuccessWithPage(c, sessions, buildPagination(page, pageSize, total))
}

// GetSession 获取排期详情
func (h *Handler) GetSession(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid session id", err)
		return
	}
	session, err := h.SessionService.GetByID(uint(id))
	if err != nil {
		respondWithMappedError(c, err, bookingCreateErrorRules, response.CodeInternal, "failed to load session")
		return
	}
	response.Success(c, session)
}
