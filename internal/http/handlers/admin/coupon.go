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

// CouponRequest 优惠券创建或更新请求
type CouponRequest struct {
	Code          string       `json:"code" binding:"required"`
	Type          string       `json:"type" binding:"required"`
	Value         models.Money `json:"value"`
	MinAmount     models.Money `json:"min_amount"`
	MaxDiscount   models.Money `json:"max_discount"`
	UsageLimit    int          `json:"usage_limit"`
	PerUserLimit  int          `json:"per_user_limit"`
	FirstTimeOnly bool         `json:"first_time_only"`
	IsStackable   bool         `json:"is_stackable"`
	StartsAt      *time.Time   `json:"starts_at"`
	EndsAt        *time.Time   `json:"ends_at"`
	IsActive      *bool        `json:"is_active"`
}

func (r CouponRequest) toInput() service.CouponInput {
	return service.CouponInput{
		Code:          r.Code,
		Type:          r.Type,
		Value:         r.Value,
		MinAmount:     r.MinAmount,
		MaxDiscount:   r.MaxDiscount,
		UsageLimit:    r.UsageLimit,
		PerUserLimit:  r.PerUserLimit,
		FirstTimeOnly: r.FirstTimeOnly,
		IsStackable:   r.IsStackable,
		StartsAt:      r.StartsAt,
		EndsAt:        r.EndsAt,
		IsActive:      r.IsActive,
	}
}

// ListCoupons 优惠券列表
func (h *Handler) ListCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     c.Query("code"),
	}
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true" || raw == "1"
		filter.IsActive = &active
	}

	coupons, total, err := h.CouponAdminService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list coupons", err)
		return
	}
	response.SuccessWithPage(c, coupons, buildPagination(page, pageSize, total))
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	coupon, err := h.CouponAdminService.Create(req.toInput())
	if err != nil {
		respondCouponAdminError(c, err)
		return
	}
	requestLog(c).Infow("coupon_created", "coupon_id", coupon.ID, "code", coupon.Code)
	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	coupon, err := h.CouponAdminService.Update(id, req.toInput())
	if err != nil {
		respondCouponAdminError(c, err)
		return
	}
	response.Success(c, coupon)
}

// GetCoupon 优惠券详情
func (h *Handler) GetCoupon(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	coupon, err := h.CouponAdminService.GetByID(id)
	if err != nil {
		respondCouponAdminError(c, err)
		return
	}
	response.Success(c, coupon)
}

// DeleteCoupon 删除优惠券
func (h *Handler) DeleteCoupon(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.CouponAdminService.Delete(id); err != nil {
		respondCouponAdminError(c, err)
		return
	}
	response.SuccessWithMsg(c, "coupon deleted", nil)
}

// ListCouponUsages 优惠券使用记录
func (h *Handler) ListCouponUsages(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	usages, total, err := h.CouponAdminService.ListUsages(repository.CouponUsageListFilter{
		Page:     page,
		PageSize: pageSize,
		CouponID: id,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list coupon usages", err)
		return
	}
	response.SuccessWithPage(c, usages, buildPagination(page, pageSize, total))
}

func respondCouponAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCouponNotFound):
		respondError(c, response.CodeNotFound, "coupon not found", nil)
	case errors.Is(err, service.ErrCouponInvalid):
		respondError(c, response.CodeBadRequest, "coupon definition is invalid", nil)
	default:
		respondError(c, response.CodeInternal, "coupon operation failed", err)
	}
}
