package admin

import (
	"errors"
	"strconv"

	"github.com/coursebook/internal/http/response"
	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/service"

	"github.com/gin-gonic/gin"
)

// CourseTypeRequest 课程类型创建或更新请求
type CourseTypeRequest struct {
	Code          string       `json:"code"`
	Name          string       `json:"name" binding:"required"`
	Description   string       `json:"description"`
	DurationHours int          `json:"duration_hours"`
	BasePrice     models.Money `json:"base_price"`
	Tags          []string     `json:"tags"`
	IsActive      *bool        `json:"is_active"`
	SortOrder     int          `json:"sort_order"`
}

// VenueRequest 场地创建或更新请求
type VenueRequest struct {
	Name     string `json:"name" binding:"required"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Capacity int    `json:"capacity" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

func (r CourseTypeRequest) toInput() service.CourseTypeInput {
	return service.CourseTypeInput{
		Code:          r.Code,
		Name:          r.Name,
		Description:   r.Description,
		DurationHours: r.DurationHours,
		BasePrice:     r.BasePrice,
		Tags:          r.Tags,
		IsActive:      r.IsActive,
		SortOrder:     r.SortOrder,
	}
}

func (r VenueRequest) toInput() service.VenueInput {
	return service.VenueInput{
		Name:     r.Name,
		Address:  r.Address,
		City:     r.City,
		Capacity: r.Capacity,
		IsActive: r.IsActive,
	}
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid id", err)
		return 0, false
	}
	return uint(id), true
}

// ListCourseTypes 课程类型列表（含停用）
func (h *Handler) ListCourseTypes(c *gin.Context) {
	courseTypes, err := h.CourseTypeService.List(false)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list course types", err)
		return
	}
	response.Success(c, courseTypes)
}

// CreateCourseType 创建课程类型
func (h *Handler) CreateCourseType(c *gin.Context) {
	var req CourseTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	courseType, err := h.CourseTypeService.Create(req.toInput())
	if err != nil {
		respondCourseTypeError(c, err)
		return
	}
	requestLog(c).Infow("course_type_created", "course_type_id", courseType.ID, "code", courseType.Code)
	response.Success(c, courseType)
}

// UpdateCourseType 更新课程类型（编码不可变）
func (h *Handler) UpdateCourseType(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req CourseTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	courseType, err := h.CourseTypeService.Update(id, req.toInput())
	if err != nil {
		respondCourseTypeError(c, err)
		return
	}
	response.Success(c, courseType)
}

// GetCourseType 课程类型详情
func (h *Handler) GetCourseType(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	courseType, err := h.CourseTypeService.GetByID(id)
	if err != nil {
		respondCourseTypeError(c, err)
		return
	}
	response.Success(c, courseType)
}

// DeleteCourseType 删除课程类型
func (h *Handler) DeleteCourseType(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.CourseTypeService.Delete(id); err != nil {
		respondCourseTypeError(c, err)
		return
	}
	response.SuccessWithMsg(c, "course type deleted", nil)
}

func respondCourseTypeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseTypeNotFound):
		respondError(c, response.CodeNotFound, "course type not found", nil)
	case errors.Is(err, service.ErrCourseCodeInvalid):
		respondError(c, response.CodeBadRequest, "course code must be 3 uppercase letters", nil)
	default:
		respondError(c, response.CodeInternal, "course type operation failed", err)
	}
}

// ListVenues 场地列表（含停用）
func (h *Handler) ListVenues(c *gin.Context) {
	venues, err := h.VenueService.List(false)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list venues", err)
		return
	}
	response.Success(c, venues)
}

// CreateVenue 创建场地
func (h *Handler) CreateVenue(c *gin.Context) {
	var req VenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	venue, err := h.VenueService.Create(req.toInput())
	if err != nil {
		respondVenueError(c, err)
		return
	}
	requestLog(c).Infow("venue_created", "venue_id", venue.ID, "name", venue.Name)
	response.Success(c, venue)
}

// UpdateVenue 更新场地
func (h *Handler) UpdateVenue(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req VenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	venue, err := h.VenueService.Update(id, req.toInput())
	if err != nil {
		respondVenueError(c, err)
		return
	}
	response.Success(c, venue)
}

// GetVenue 场地详情
func (h *Handler) GetVenue(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	venue, err := h.VenueService.GetByID(id)
	if err != nil {
		respondVenueError(c, err)
		return
	}
	response.Success(c, venue)
}

// DeleteVenue 删除场地
func (h *Handler) DeleteVenue(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.VenueService.Delete(id); err != nil {
		respondVenueError(c, err)
		return
	}
	response.SuccessWithMsg(c, "venue deleted", nil)
}

func respondVenueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrVenueNotFound):
		respondError(c, response.CodeNotFound, "venue not found", nil)
	case errors.Is(err, service.ErrCapacityInvalid):
		respondError(c, response.CodeBadRequest, "capacity must be positive", nil)
	default:
		respondError(c, response.CodeInternal, "venue operation failed", err)
	}
}
