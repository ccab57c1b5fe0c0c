package service

import (
	"context"
	"strings"
	"time"

	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/gateway"
	"github.com/coursebook/internal/logger"
	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/queue"
	"github.com/coursebook/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentService 支付与退款服务
type PaymentService struct {
	paymentRepo    repository.PaymentRepository
	refundRepo     repository.RefundRepository
	orderRepo      repository.OrderRepository
	bookingRepo    repository.BookingRepository
	invoiceSeqRepo repository.InvoiceSequenceRepository
	providers      map[string]gateway.Provider
	queueClient    *queue.Client
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	refundRepo repository.RefundRepository,
	orderRepo repository.OrderRepository,
	bookingRepo repository.BookingRepository,
	invoiceSeqRepo repository.InvoiceSequenceRepository,
	providers map[string]gateway.Provider,
	queueClient *queue.Client,
) *PaymentService {
	return &PaymentService{
		paymentRepo:    paymentRepo,
		refundRepo:     refundRepo,
		orderRepo:      orderRepo,
		bookingRepo:    bookingRepo,
		invoiceSeqRepo: invoiceSeqRepo,
		providers:      providers,
		queueClient:    queueClient,
	}
}

// CheckoutResult 发起支付返回
type CheckoutResult struct {
	PaymentID   uint   `json:"payment_id"`
	Provider    string `json:"provider"`
	ProviderRef string `json:"provider_ref"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// StartCheckout 对订单的待支付记录发起渠道收款，支付进入 processing
func (s *PaymentService) StartCheckout(ctx context.Context, orderID uint, customerEmail string) (*CheckoutResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return nil, ErrOrderStatusInvalid
	}

	payment := findPaymentByStatus(order.Payments, constants.PaymentStatusPending)
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	provider, ok := s.providers[payment.Provider]
	if !ok {
		return nil, ErrPaymentProviderUnknown
	}

	description := "Order " + order.OrderNo
	if len(order.Items) > 0 {
		description = order.Items[0].Description
	}
	result, err := provider.CreateCheckout(ctx, gateway.CheckoutInput{
		OrderNo:       order.OrderNo,
		PaymentID:     payment.ID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Description:   description,
		CustomerEmail: customerEmail,
	})
	if err != nil {
		logger.Errorw("payment_checkout_create_failed",
			"order_no", order.OrderNo,
			"payment_id", payment.ID,
			"provider", payment.Provider,
			"error", err,
		)
		return nil, err
	}

	now := time.Now()
	if err := s.paymentRepo.UpdateStatus(payment.ID, constants.PaymentStatusProcessing, map[string]interface{}{
		"provider_ref": result.ProviderRef,
		"updated_at":   now,
	}); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(order.ID, order.Status, map[string]interface{}{
		"payment_status": constants.PaymentStatusProcessing,
		"updated_at":     now,
	}); err != nil {
		return nil, err
	}

	return &CheckoutResult{
		PaymentID:   payment.ID,
		Provider:    payment.Provider,
		ProviderRef: result.ProviderRef,
		RedirectURL: result.RedirectURL,
	}, nil
}

// MarkSucceeded 标记支付成功：订单确认、预订确认并签发发票号，单事务完成。
// 渠道重复回调时依据支付状态幂等返回。
func (s *PaymentService) MarkSucceeded(paymentID uint, providerRef string, payload models.JSON) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if payment.Status == constants.PaymentStatusSucceeded {
		return payment, nil
	}
	if !canTransitionPayment(payment.Status, constants.PaymentStatusSucceeded) {
		return nil, ErrPaymentStatusInvalid
	}

	now := time.Now()
	var bookingID uint

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		bookingRepo := s.bookingRepo.WithTx(tx)
		invoiceSeqRepo := s.invoiceSeqRepo.WithTx(tx)

		updates := map[string]interface{}{
			"paid_at":    now,
			"updated_at": now,
		}
		if strings.TrimSpace(providerRef) != "" {
			updates["provider_ref"] = providerRef
		}
		if payload != nil {
			updates["provider_payload"] = payload
		}
		if err := paymentRepo.UpdateStatus(payment.ID, constants.PaymentStatusSucceeded, updates); err != nil {
			return err
		}

		order, err := orderRepo.GetByID(payment.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if canTransitionOrder(order.Status, constants.OrderStatusConfirmed) {
			if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusConfirmed, map[string]interface{}{
				"payment_status": constants.PaymentStatusSucceeded,
				"paid_at":        now,
				"updated_at":     now,
			}); err != nil {
				return err
			}
		}

		if payment.BookingID == nil {
			return nil
		}
		booking, err := bookingRepo.GetByID(*payment.BookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return nil
		}
		bookingID = booking.ID

		bookingUpdates := map[string]interface{}{
			"payment_status": constants.BookingPaymentPaid,
			"confirmed_at":   now,
			"updated_at":     now,
		}
		if booking.InvoiceNo == nil {
			seq, err := invoiceSeqRepo.Next(invoiceYearMonth(now))
			if err != nil {
				return err
			}
			bookingUpdates["invoice_no"] = formatInvoiceNo(now, seq)
		}
		if canTransitionBooking(booking.Status, constants.BookingStatusConfirmed) {
			return bookingRepo.UpdateStatus(booking.ID, constants.BookingStatusConfirmed, bookingUpdates)
		}
		delete(bookingUpdates, "confirmed_at")
		return bookingRepo.UpdateStatus(booking.ID, booking.Status, bookingUpdates)
	})
	if err != nil {
		return nil, err
	}

	if bookingID != 0 {
		if err := s.queueClient.EnqueueBookingStatusEmail(queue.BookingStatusEmailPayload{
			BookingID: bookingID,
			Status:    constants.BookingStatusConfirmed,
		}); err != nil {
			logger.Errorw("booking_enqueue_status_email_failed",
				"booking_id", bookingID,
				"error", err,
			)
		}
	}

	return s.paymentRepo.GetByID(payment.ID)
}

// MarkFailed 标记支付失败：订单随之失败，预订保持待支付并等待超时回收席位
func (s *PaymentService) MarkFailed(paymentID uint, reason string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if payment.Status == constants.PaymentStatusFailed {
		return payment, nil
	}
	if !canTransitionPayment(payment.Status, constants.PaymentStatusFailed) {
		return nil, ErrPaymentStatusInvalid
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		bookingRepo := s.bookingRepo.WithTx(tx)

		if err := paymentRepo.UpdateStatus(payment.ID, constants.PaymentStatusFailed, map[string]interface{}{
			"failure_reason": strings.TrimSpace(reason),
			"updated_at":     now,
		}); err != nil {
			return err
		}

		order, err := orderRepo.GetByID(payment.OrderID)
		if err != nil {
			return err
		}
		if order != nil && canTransitionOrder(order.Status, constants.OrderStatusFailed) {
			if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusFailed, map[string]interface{}{
				"payment_status": constants.PaymentStatusFailed,
				"updated_at":     now,
			}); err != nil {
				return err
			}
		}

		if payment.BookingID != nil {
			booking, err := bookingRepo.GetByID(*payment.BookingID)
			if err != nil {
				return err
			}
			if booking != nil && booking.Status == constants.BookingStatusPending {
				if err := bookingRepo.UpdateStatus(booking.ID, booking.Status, map[string]interface{}{
					"payment_status": constants.BookingPaymentFailed,
					"updated_at":     now,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.paymentRepo.GetByID(payment.ID)
}

// RefundPayment 发起退款。
// 先在事务内用条件更新预留退款额度（并发超退直接拒绝），再调渠道打款；
// 渠道失败时回滚额度并将退款单置为 failed，留待重试。
func (s *PaymentService) RefundPayment(paymentID uint, amount models.Money, reason, actor string) (*models.Refund, error) {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	switch payment.Status {
	case constants.PaymentStatusSucceeded, constants.PaymentStatusPartiallyRefunded:
	default:
		return nil, ErrPaymentStatusInvalid
	}
	amount = models.NewMoneyFromDecimal(amount.Decimal)
	if !amount.Decimal.GreaterThan(decimal.Zero) {
		return nil, ErrRefundAmountInvalid
	}
	if amount.Decimal.GreaterThan(payment.RefundableAmount().Decimal) {
		return nil, ErrOverRefund
	}

	now := time.Now()
	refund := &models.Refund{
		PaymentID: payment.ID,
		Amount:    amount,
		Currency:  payment.Currency,
		Reason:    strings.TrimSpace(reason),
		Status:    constants.RefundStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		refundRepo := s.refundRepo.WithTx(tx)

		affected, err := paymentRepo.AddRefundedAmount(payment.ID, amount)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrOverRefund
		}
		return refundRepo.Create(refund)
	})
	if err != nil {
		return nil, err
	}

	provider, ok := s.providers[payment.Provider]
	if !ok {
		s.rollbackRefund(payment, refund, "unknown provider")
		return nil, ErrPaymentProviderUnknown
	}
	result, err := provider.Refund(context.Background(), gateway.RefundInput{
		ProviderRef: payment.ProviderRef,
		Amount:      amount,
		Currency:    payment.Currency,
		Reason:      refund.Reason,
	})
	if err != nil {
		logger.Errorw("payment_refund_provider_failed",
			"payment_id", payment.ID,
			"refund_id", refund.ID,
			"provider", payment.Provider,
			"error", err,
		)
		s.rollbackRefund(payment, refund, err.Error())
		return nil, err
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		refundRepo := s.refundRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		refund.Status = constants.RefundStatusSucceeded
		refund.ProviderRef = result.ProviderRef
		refund.UpdatedAt = time.Now()
		if err := refundRepo.Update(refund); err != nil {
			return err
		}

		fresh, err := paymentRepo.GetByID(payment.ID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return ErrPaymentNotFound
		}
		status := constants.PaymentStatusPartiallyRefunded
		if !fresh.RefundableAmount().Decimal.GreaterThan(decimal.Zero) {
			status = constants.PaymentStatusRefunded
		}
		if err := paymentRepo.UpdateStatus(payment.ID, status, map[string]interface{}{
			"updated_at": time.Now(),
		}); err != nil {
			return err
		}

		if status == constants.PaymentStatusRefunded {
			order, err := orderRepo.GetByID(payment.OrderID)
			if err != nil {
				return err
			}
			if order != nil && canTransitionOrder(order.Status, constants.OrderStatusRefunded) {
				if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusRefunded, map[string]interface{}{
					"payment_status": constants.PaymentStatusRefunded,
					"updated_at":     time.Now(),
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("payment_refund_succeeded",
		"payment_id", payment.ID,
		"refund_id", refund.ID,
		"amount", amount.String(),
		"actor", actor,
	)
	return refund, nil
}

// rollbackRefund 渠道退款未成功时回退额度占用
func (s *PaymentService) rollbackRefund(payment *models.Payment, refund *models.Refund, note string) {
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		refundRepo := s.refundRepo.WithTx(tx)
		refund.Status = constants.RefundStatusFailed
		refund.FailureNote = note
		refund.UpdatedAt = time.Now()
		if err := refundRepo.Update(refund); err != nil {
			return err
		}
		// Money 绑定为 2 位小数精确值，避免浮点误差破坏等额回滚
		return tx.Model(&models.Payment{}).
			Where("id = ? AND refunded_amount >= ?", payment.ID, refund.Amount).
			UpdateColumn("refunded_amount", gorm.Expr("refunded_amount - ?", refund.Amount)).Error
	})
	if err != nil {
		logger.Errorw("payment_refund_rollback_failed",
			"payment_id", payment.ID,
			"refund_id", refund.ID,
			"error", err,
		)
	}
}

// GetPayment 查询支付单
func (s *PaymentService) GetPayment(id uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// ListPayments 支付单列表
func (s *PaymentService) ListPayments(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	return s.paymentRepo.List(filter)
}

// FindByProviderRef 按渠道流水号查支付单（webhook 回调入口）
func (s *PaymentService) FindByProviderRef(provider, providerRef string) (*models.Payment, error) {
	return s.paymentRepo.GetByProviderRef(provider, providerRef)
}

func findPaymentByStatus(payments []models.Payment, status string) *models.Payment {
	for i := range payments {
		if payments[i].Status == status {
			return &payments[i]
		}
	}
	return nil
}
