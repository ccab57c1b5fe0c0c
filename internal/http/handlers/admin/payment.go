package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/http/response"
	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/repository"
	"github.com/coursebook/internal/service"

	"github.com/gin-gonic/gin"
)

// RefundRequest 退款请求
type RefundRequest struct {
	Amount models.Money `json:"amount"`
	Reason string       `json:"reason"`
}

// MarkPaymentRequest 人工标记支付结果请求
type MarkPaymentRequest struct {
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

// ListPayments 支付列表
func (h *Handler) ListPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.PaymentListFilter{
		Page:     page,
		PageSize: pageSize,
		Provider: c.Query("provider"),
		Status:   c.Query("status"),
	}
	if v, err := strconv.ParseUint(c.Query("order_id"), 10, 64); err == nil {
		filter.OrderID = uint(v)
	}

	payments, total, err := h.PaymentService.ListPayments(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list payments", err)
		return
	}
	response.SuccessWithPage(c, payments, buildPagination(page, pageSize, total))
}

// GetPayment 支付详情
func (h *Handler) GetPayment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	payment, err := h.PaymentService.GetPayment(id)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.Success(c, payment)
}

// RefundPayment 对支付发起退款，可部分退款
func (h *Handler) RefundPayment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	refund, err := h.PaymentService.RefundPayment(id, req.Amount, req.Reason, constants.ActorRoleAdmin)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	requestLog(c).Infow("payment_refunded",
		"payment_id", id,
		"refund_id", refund.ID,
		"amount", refund.Amount,
	)
	response.Success(c, refund)
}

// MarkPaymentSucceeded 人工确认收款（银行转账等线下渠道）
func (h *Handler) MarkPaymentSucceeded(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req MarkPaymentRequest
	_ = c.ShouldBindJSON(&req)

	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = "manual-" + strconv.FormatUint(uint64(id), 10)
	}
	payment, err := h.PaymentService.MarkSucceeded(id, reference, models.JSON{
		"marked_by":  adminID,
		"marked_at":  time.Now().Format(time.RFC3339),
		"reference":  reference,
		"actor_role": constants.ActorRoleAdmin,
	})
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	requestLog(c).Infow("payment_marked_succeeded",
		"payment_id", payment.ID,
		"admin_id", adminID,
		"reference", reference,
	)
	response.Success(c, payment)
}

// MarkPaymentFailed 人工标记支付失败
func (h *Handler) MarkPaymentFailed(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req MarkPaymentRequest
	_ = c.ShouldBindJSON(&req)

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "marked failed by admin"
	}
	payment, err := h.PaymentService.MarkFailed(id, reason)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	requestLog(c).Infow("payment_marked_failed",
		"payment_id", payment.ID,
		"admin_id", adminID,
		"reason", reason,
	)
	response.Success(c, payment)
}

// ListRefunds 支付的退款记录
func (h *Handler) ListRefunds(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	refunds, err := h.RefundRepo.ListByPayment(id)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list refunds", err)
		return
	}
	response.Success(c, refunds)
}

func respondPaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPaymentNotFound):
		respondError(c, response.CodeNotFound, "payment not found", nil)
	case errors.Is(err, service.ErrPaymentStatusInvalid):
		respondError(c, response.CodeBadRequest, "payment status does not allow this operation", nil)
	case errors.Is(err, service.ErrRefundAmountInvalid):
		respondError(c, response.CodeBadRequest, "refund amount is invalid", nil)
	case errors.Is(err, service.ErrOverRefund):
		respondError(c, response.CodeBadRequest, "refund exceeds refundable amount", nil)
	case errors.Is(err, service.ErrPaymentProviderUnknown):
		respondError(c, response.CodeBadRequest, "unknown payment provider", nil)
	default:
		respondError(c, response.CodeInternal, "payment operation failed", err)
	}
}
