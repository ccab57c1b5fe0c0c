package public

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/coursebook/internal/http/response"
	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StartCheckout 登录用户对自己的订单发起支付
func (h *Handler) StartCheckout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid order id", err)
		return
	}
	order, err := h.OrderService.GetByIDAndUser(uint(orderID), uid)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "failed to load order")
		return
	}

	email := ""
	if user, err := h.UserAuthService.GetUserByID(uid); err == nil && user != nil {
		email = user.Email
	}
	result, err := h.PaymentService.StartCheckout(c.Request.Context(), order.ID, email)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "failed to start checkout")
		return
	}
	requestLog(c).Infow("checkout_started",
		"order_no", order.OrderNo,
		"payment_id", result.PaymentID,
		"provider", result.Provider,
	)
	response.Success(c, result)
}

// StartCheckoutByCode 游客凭确认码对预订的订单发起支付
func (h *Handler) StartCheckoutByCode(c *gin.Context) {
	booking, err := h.BookingService.GetByConfirmationCode(c.Param("code"))
	if err != nil {
		respondWithMappedError(c, err, bookingCancelErrorRules, response.CodeInternal, "failed to load booking")
		return
	}
	order, err := h.OrderService.GetByBookingID(booking.ID)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "failed to load order")
		return
	}
	result, err := h.PaymentService.StartCheckout(c.Request.Context(), order.ID, booking.ContactEmail)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "failed to start checkout")
		return
	}
	requestLog(c).Infow("checkout_started",
		"order_no", order.OrderNo,
		"payment_id", result.PaymentID,
		"provider", result.Provider,
	)
	response.Success(c, result)
}

// GetMyOrder 查询当前用户的订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid order id", err)
		return
	}
	order, err := h.OrderService.GetByIDAndUser(uint(orderID), uid)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "failed to load order")
		return
	}
	response.Success(c, order)
}

// ListMyOrders 查询当前用户的订单列表
func (h *Handler) ListMyOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list orders", err)
		return
	}
	response.SuccessWithPage(c, orders, buildPagination(page, pageSize, total))
}

// StripeWebhook Stripe webhook 回调。签名校验失败直接拒绝，
// 业务侧按支付状态幂等处理重复事件。
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	event, err := webhook.ConstructEvent(body, c.GetHeader("Stripe-Signature"), h.Config.Payment.Stripe.WebhookSecret)
	if err != nil {
		log.Warnw("stripe_webhook_signature_invalid", "error", err, "body_size", len(body))
		respondError(c, response.CodeBadRequest, "invalid signature", err)
		return
	}
	log.Infow("stripe_webhook_received",
		"event_id", event.ID,
		"event_type", event.Type,
		"client_ip", c.ClientIP(),
		"body_size", len(body),
	)

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		h.handleStripeCheckoutSucceeded(c, event)
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		h.handleStripeCheckoutFailed(c, event)
	default:
		response.Success(c, gin.H{"received": true, "handled": false})
	}
}

func (h *Handler) handleStripeCheckoutSucceeded(c *gin.Context, event stripe.Event) {
	log := requestLog(c)
	session, paymentID, ok := parseStripeCheckoutSession(c, event)
	if !ok {
		return
	}

	providerRef := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		providerRef = session.PaymentIntent.ID
	}
	payload := models.JSON{}
	if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
		payload = models.JSON{"session_id": session.ID}
	}

	payment, err := h.PaymentService.MarkSucceeded(paymentID, providerRef, payload)
	if err != nil {
		log.Warnw("stripe_webhook_mark_succeeded_failed",
			"event_id", event.ID,
			"payment_id", paymentID,
			"session_id", session.ID,
			"error", err,
		)
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "failed to process payment event")
		return
	}
	log.Infow("stripe_webhook_payment_succeeded",
		"event_id", event.ID,
		"payment_id", payment.ID,
		"provider_ref", providerRef,
	)
	response.Success(c, gin.H{"received": true, "handled": true})
}

func (h *Handler) handleStripeCheckoutFailed(c *gin.Context, event stripe.Event) {
	log := requestLog(c)
	session, paymentID, ok := parseStripeCheckoutSession(c, event)
	if !ok {
		return
	}

	payment, err := h.PaymentService.MarkFailed(paymentID, string(event.Type))
	if err != nil {
		log.Warnw("stripe_webhook_mark_failed_failed",
			"event_id", event.ID,
			"payment_id", paymentID,
			"session_id", session.ID,
			"error", err,
		)
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "failed to process payment event")
		return
	}
	log.Infow("stripe_webhook_payment_failed",
		"event_id", event.ID,
		"payment_id", payment.ID,
		"session_id", session.ID,
	)
	response.Success(c, gin.H{"received": true, "handled": true})
}

func parseStripeCheckoutSession(c *gin.Context, event stripe.Event) (*stripe.CheckoutSession, uint, bool) {
	log := requestLog(c)
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Warnw("stripe_webhook_session_parse_failed", "event_id", event.ID, "error", err)
		respondError(c, response.CodeBadRequest, "invalid event payload", err)
		return nil, 0, false
	}
	raw := session.Metadata["payment_id"]
	paymentID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || paymentID == 0 {
		log.Warnw("stripe_webhook_payment_id_missing",
			"event_id", event.ID,
			"session_id", session.ID,
			"payment_id_raw", raw,
		)
		// 非本系统发起的会话，确认收到避免渠道重试
		response.Success(c, gin.H{"received": true, "handled": false})
		return nil, 0, false
	}
	return &session, uint(paymentID), true
}
