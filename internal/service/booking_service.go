package service

import (
	"errors"
	"strings"
	"time"

	"github.com/coursebook/internal/config"
	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/logger"
	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/queue"
	"github.com/coursebook/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingPolicy 预订策略（取消窗口、团体折扣、退款比例均为配置项）
type BookingPolicy struct {
	CancellationWindowHours       int
	GroupDiscountThreshold        int
	MaxParticipantsPerBooking     int
	FullRefundWindowHours         int
	LateCancellationRefundPercent int
	PaymentExpireMinutes          int
}

// PolicyFromConfig 从配置生成预订策略，空值回退默认
func PolicyFromConfig(cfg *config.BookingConfig) BookingPolicy {
	policy := BookingPolicy{
		CancellationWindowHours:       48,
		GroupDiscountThreshold:        5,
		MaxParticipantsPerBooking:     12,
		FullRefundWindowHours:         48,
		LateCancellationRefundPercent: 0,
		PaymentExpireMinutes:          30,
	}
	if cfg == nil {
		return policy
	}
	if cfg.CancellationWindowHours > 0 {
		policy.CancellationWindowHours = cfg.CancellationWindowHours
	}
	if cfg.GroupDiscountThreshold > 0 {
		policy.GroupDiscountThreshold = cfg.GroupDiscountThreshold
	}
	if cfg.MaxParticipantsPerBooking > 0 {
		policy.MaxParticipantsPerBooking = cfg.MaxParticipantsPerBooking
	}
	if cfg.FullRefundWindowHours > 0 {
		policy.FullRefundWindowHours = cfg.FullRefundWindowHours
	}
	if cfg.LateCancellationRefundPercent > 0 && cfg.LateCancellationRefundPercent <= 100 {
		policy.LateCancellationRefundPercent = cfg.LateCancellationRefundPercent
	}
	if cfg.PaymentExpireMinutes > 0 {
		policy.PaymentExpireMinutes = cfg.PaymentExpireMinutes
	}
	return policy
}

// BookingService 预订生命周期服务
type BookingService struct {
	bookingRepo    repository.BookingRepository
	sessionRepo    repository.SessionRepository
	orderRepo      repository.OrderRepository
	paymentRepo    repository.PaymentRepository
	couponRepo     repository.CouponRepository
	usageRepo      repository.CouponUsageRepository
	couponService  *CouponService
	paymentService *PaymentService
	queueClient    *queue.Client
	policy         BookingPolicy
	currency       string
	provider       string
}

// NewBookingService 创建预订服务
func NewBookingService(
	bookingRepo repository.BookingRepository,
	sessionRepo repository.SessionRepository,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	couponRepo repository.CouponRepository,
	usageRepo repository.CouponUsageRepository,
	couponService *CouponService,
	paymentService *PaymentService,
	queueClient *queue.Client,
	policy BookingPolicy,
	currency string,
	provider string,
) *BookingService {
	if strings.TrimSpace(currency) == "" {
		currency = constants.SiteCurrencyDefault
	}
	if strings.TrimSpace(provider) == "" {
		provider = constants.PaymentProviderManual
	}
	return &BookingService{
		bookingRepo:    bookingRepo,
		sessionRepo:    sessionRepo,
		orderRepo:      orderRepo,
		paymentRepo:    paymentRepo,
		couponRepo:     couponRepo,
		usageRepo:      usageRepo,
		couponService:  couponService,
		paymentService: paymentService,
		queueClient:    queueClient,
		policy:         policy,
		currency:       currency,
		provider:       provider,
	}
}

// CreateBookingInput 创建预订入参
type CreateBookingInput struct {
	SessionID            uint
	UserID               uint
	ContactName          string
	ContactEmail         string
	ContactPhone         string
	NumberOfParticipants int
	CouponCode           string
}

// BookingQuote 预订价格分解
type BookingQuote struct {
	OriginalAmount       models.Money
	GroupDiscountAmount  models.Money
	CouponDiscountAmount models.Money
	TotalAmount          models.Money
	Coupon               *models.Coupon
}

// computeGroupPrice 计算团体价：人数达到阈值且排期配置了折扣比例时生效。
// 纯函数，便于独立测试。
func computeGroupPrice(pricePerSeat models.Money, participants int, groupRate models.Money, threshold int) (original, groupDiscount models.Money) {
	originalDec := pricePerSeat.Decimal.Mul(decimal.NewFromInt(int64(participants)))
	original = models.NewMoneyFromDecimal(originalDec)
	if threshold > 0 && participants >= threshold && groupRate.Decimal.GreaterThan(decimal.Zero) {
		rate := groupRate.Decimal.Div(decimal.NewFromInt(100))
		groupDiscount = models.NewMoneyFromDecimal(originalDec.Mul(rate))
	}
	return original, groupDiscount
}

// Quote 计算预订报价（不落库、不占座）
func (s *BookingService) Quote(session *models.ScheduledSession, input CreateBookingInput) (*BookingQuote, error) {
	original, groupDiscount := computeGroupPrice(session.PricePerSeat, input.NumberOfParticipants, session.GroupDiscountRate, s.policy.GroupDiscountThreshold)
	subtotal := models.NewMoneyFromDecimal(original.Decimal.Sub(groupDiscount.Decimal))

	quote := &BookingQuote{
		OriginalAmount:      original,
		GroupDiscountAmount: groupDiscount,
		TotalAmount:         subtotal,
	}

	if strings.TrimSpace(input.CouponCode) != "" {
		discount, coupon, err := s.couponService.ApplyCoupon(subtotal, input.CouponCode, CouponContext{
			UserID:       input.UserID,
			ContactEmail: input.ContactEmail,
		})
		if err != nil {
			return nil, err
		}
		quote.CouponDiscountAmount = discount
		quote.Coupon = coupon
		quote.TotalAmount = models.NewMoneyFromDecimal(subtotal.Decimal.Sub(discount.Decimal))
	}
	return quote, nil
}

// CreateBooking 创建预订：占座 → 计价 → 落库 → 生成确认码 → 建单建支付，单事务内完成。
// 占座之后任一步失败都会随事务回滚，容量不会泄漏。
func (s *BookingService) CreateBooking(input CreateBookingInput) (*models.Booking, error) {
	input.ContactEmail = strings.ToLower(strings.TrimSpace(input.ContactEmail))
	input.ContactName = strings.TrimSpace(input.ContactName)
	if input.ContactEmail == "" {
		return nil, ErrContactEmailRequired
	}
	if input.NumberOfParticipants < 1 {
		return nil, ErrInvalidParticipants
	}

	session, err := s.sessionRepo.GetByIDWithRelations(input.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	maxPer := session.MaxPerBooking
	if maxPer <= 0 {
		maxPer = s.policy.MaxParticipantsPerBooking
	}
	if maxPer > 0 && input.NumberOfParticipants > maxPer {
		return nil, ErrParticipantsExceeded
	}

	now := time.Now()
	if !session.IsBookable(now) {
		return nil, ErrSessionClosed
	}
	if session.AvailableSpots() < input.NumberOfParticipants {
		return nil, ErrInsufficientCapacity
	}

	quote, err := s.Quote(session, input)
	if err != nil {
		return nil, err
	}

	coursePrefix := ""
	if session.CourseType != nil {
		coursePrefix = session.CourseType.Code
	}

	booking := &models.Booking{
		SessionID:            session.ID,
		UserID:               input.UserID,
		ContactName:          input.ContactName,
		ContactEmail:         input.ContactEmail,
		ContactPhone:         strings.TrimSpace(input.ContactPhone),
		NumberOfParticipants: input.NumberOfParticipants,
		OriginalAmount:       quote.OriginalAmount,
		GroupDiscountAmount:  quote.GroupDiscountAmount,
		CouponDiscountAmount: quote.CouponDiscountAmount,
		TotalAmount:          quote.TotalAmount,
		Currency:             s.currency,
		Status:               constants.BookingStatusPending,
		PaymentStatus:        constants.BookingPaymentPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if quote.Coupon != nil {
		booking.CouponID = &quote.Coupon.ID
	}

	expiresAt := now.Add(time.Duration(s.policy.PaymentExpireMinutes) * time.Minute)

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		bookingRepo := s.bookingRepo.WithTx(tx)
		sessionRepo := s.sessionRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)

		affected, err := sessionRepo.ReserveSeats(session.ID, input.NumberOfParticipants)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInsufficientCapacity
		}

		// 跨事务撞码靠确认码唯一索引兜底，冲突时重掷随机段再插
		err = createWithUniqueCode(tx,
			func() string { return generateConfirmationCode(coursePrefix, session.StartAt) },
			func(code string) error {
				booking.ConfirmationCode = code
				return bookingRepo.Create(booking)
			},
		)
		if err != nil {
			return err
		}

		order := &models.Order{
			BookingID:      &booking.ID,
			UserID:         input.UserID,
			Status:         constants.OrderStatusPending,
			PaymentStatus:  constants.PaymentStatusPending,
			Currency:       s.currency,
			SubtotalAmount: quote.OriginalAmount,
			DiscountAmount: models.NewMoneyFromDecimal(quote.GroupDiscountAmount.Decimal.Add(quote.CouponDiscountAmount.Decimal)),
			TotalAmount:    quote.TotalAmount,
			CouponID:       booking.CouponID,
			ExpiresAt:      &expiresAt,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		item := models.OrderItem{
			LineType:       constants.OrderItemTypeBooking,
			BookingID:      &booking.ID,
			ReferenceID:    session.ID,
			Description:    bookingLineDescription(session),
			UnitPrice:      session.PricePerSeat,
			Quantity:       input.NumberOfParticipants,
			DiscountAmount: order.DiscountAmount,
			TotalPrice:     quote.TotalAmount,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		err = createWithUniqueCode(tx,
			func() string { return generateOrderNo(now) },
			func(orderNo string) error {
				order.OrderNo = orderNo
				return orderRepo.Create(order, []models.OrderItem{item})
			},
		)
		if err != nil {
			return err
		}

		payment := &models.Payment{
			OrderID:   order.ID,
			BookingID: &booking.ID,
			Provider:  s.provider,
			Amount:    quote.TotalAmount,
			Currency:  s.currency,
			Status:    constants.PaymentStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := paymentRepo.Create(payment); err != nil {
			return err
		}

		if quote.Coupon != nil {
			couponRepo := s.couponRepo.WithTx(tx)
			usageRepo := s.usageRepo.WithTx(tx)
			affected, err := couponRepo.IncrementUsedCount(quote.Coupon.ID, 1)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrCouponUsageLimit
			}
			usage := &models.CouponUsage{
				CouponID:       quote.Coupon.ID,
				UserID:         input.UserID,
				ContactEmail:   input.ContactEmail,
				BookingID:      booking.ID,
				OrderID:        order.ID,
				DiscountAmount: quote.CouponDiscountAmount,
				CreatedAt:      now,
			}
			if err := usageRepo.Create(usage); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isBookingDomainErr(err) {
			return nil, err
		}
		logger.Errorw("booking_create_failed",
			"session_id", input.SessionID,
			"participants", input.NumberOfParticipants,
			"error", err,
		)
		return nil, ErrBookingCreateFailed
	}

	// 超时取消走延迟任务，入队失败由巡检兜底，不回滚已提交的预订
	if err := s.queueClient.EnqueueBookingTimeoutCancel(queue.BookingTimeoutCancelPayload{
		BookingID: booking.ID,
	}, time.Until(expiresAt)); err != nil {
		logger.Errorw("booking_enqueue_timeout_cancel_failed",
			"booking_id", booking.ID,
			"confirmation_code", booking.ConfirmationCode,
			"error", err,
		)
	}
	if err := s.queueClient.EnqueueBookingStatusEmail(queue.BookingStatusEmailPayload{
		BookingID: booking.ID,
		Status:    booking.Status,
	}); err != nil {
		logger.Errorw("booking_enqueue_status_email_failed",
			"booking_id", booking.ID,
			"error", err,
		)
	}

	full, err := s.bookingRepo.GetByIDWithRelations(booking.ID)
	if err == nil && full != nil {
		return full, nil
	}
	return booking, nil
}

// CancelBooking 取消预订：校验状态与取消窗口，释放席位并回滚优惠券占用，
// 已支付的预订按退款策略发起退款。
func (s *BookingService) CancelBooking(bookingID uint, reason, actor string, userID uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByIDWithRelations(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if actor == constants.ActorRoleCustomer && booking.UserID != 0 && booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	if !canTransitionBooking(booking.Status, constants.BookingStatusCancelled) {
		return nil, ErrBookingStateInvalid
	}

	now := time.Now()
	if actor == constants.ActorRoleCustomer && booking.Session != nil && booking.Session.IsActive {
		cutoff := booking.Session.StartAt.Add(-time.Duration(s.policy.CancellationWindowHours) * time.Hour)
		if now.After(cutoff) {
			return nil, ErrCancellationWindow
		}
	}

	wasPaid := booking.PaymentStatus == constants.BookingPaymentPaid

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		bookingRepo := s.bookingRepo.WithTx(tx)
		sessionRepo := s.sessionRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		updates := map[string]interface{}{
			"cancel_reason": strings.TrimSpace(reason),
			"cancelled_by":  actor,
			"cancelled_at":  now,
			"updated_at":    now,
		}
		// 条件流转：并发取消（用户、管理端、超时任务）只有一方能赢得该行，
		// 输掉的一方在释放席位之前被挡下，席位不会被重复释放
		affected, err := bookingRepo.UpdateStatusIf(booking.ID,
			[]string{constants.BookingStatusPending, constants.BookingStatusConfirmed},
			constants.BookingStatusCancelled, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrBookingStateInvalid
		}

		// 释放量与预订人数严格一致；条件更新下限为零，双重释放不会出现负数
		if _, err := sessionRepo.ReleaseSeats(booking.SessionID, booking.NumberOfParticipants); err != nil {
			return err
		}

		if booking.CouponID != nil && !wasPaid {
			couponRepo := s.couponRepo.WithTx(tx)
			usageRepo := s.usageRepo.WithTx(tx)
			if err := couponRepo.DecrementUsedCount(*booking.CouponID, 1); err != nil {
				return err
			}
			if err := usageRepo.DeleteByBookingID(booking.ID); err != nil {
				return err
			}
		}

		order, err := orderRepo.GetByBookingID(booking.ID)
		if err != nil {
			return err
		}
		if order != nil && canBeCanceled(order.Status) {
			if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusCanceled, map[string]interface{}{
				"canceled_at": now,
				"updated_at":  now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if wasPaid {
		s.refundCancelledBooking(booking, reason, now)
	}

	if err := s.queueClient.EnqueueBookingStatusEmail(queue.BookingStatusEmailPayload{
		BookingID: booking.ID,
		Status:    constants.BookingStatusCancelled,
	}); err != nil {
		logger.Errorw("booking_enqueue_status_email_failed",
			"booking_id", booking.ID,
			"error", err,
		)
	}

	return s.bookingRepo.GetByIDWithRelations(booking.ID)
}

// refundCancelledBooking 按退款策略对已支付预订发起退款：
// 距开课大于全额退款窗口退全款，否则按配置比例退款（0 表示不退）。
func (s *BookingService) refundCancelledBooking(booking *models.Booking, reason string, now time.Time) {
	refundPercent := 100
	if booking.Session != nil {
		cutoff := booking.Session.StartAt.Add(-time.Duration(s.policy.FullRefundWindowHours) * time.Hour)
		if now.After(cutoff) {
			refundPercent = s.policy.LateCancellationRefundPercent
		}
	}
	if refundPercent <= 0 {
		return
	}

	payment, err := s.findSucceededPayment(booking.ID)
	if err != nil {
		logger.Errorw("booking_refund_payment_lookup_failed",
			"booking_id", booking.ID,
			"error", err,
		)
		return
	}
	if payment == nil {
		return
	}

	amount := payment.RefundableAmount()
	if refundPercent < 100 {
		ratio := decimal.NewFromInt(int64(refundPercent)).Div(decimal.NewFromInt(100))
		amount = models.NewMoneyFromDecimal(payment.Amount.Decimal.Mul(ratio))
	}
	if !amount.Decimal.GreaterThan(decimal.Zero) {
		return
	}

	if _, err := s.paymentService.RefundPayment(payment.ID, amount, reason, constants.ActorRoleSystem); err != nil {
		logger.Errorw("booking_cancel_refund_failed",
			"booking_id", booking.ID,
			"payment_id", payment.ID,
			"error", err,
		)
		return
	}

	if err := s.bookingRepo.UpdateStatus(booking.ID, constants.BookingStatusCancelled, map[string]interface{}{
		"payment_status": constants.BookingPaymentRefunded,
		"updated_at":     time.Now(),
	}); err != nil {
		logger.Errorw("booking_refund_status_update_failed",
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

func (s *BookingService) findSucceededPayment(bookingID uint) (*models.Payment, error) {
	order, err := s.orderRepo.GetByBookingID(bookingID)
	if err != nil || order == nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListByOrder(order.ID)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		switch payments[i].Status {
		case constants.PaymentStatusSucceeded, constants.PaymentStatusPartiallyRefunded:
			return &payments[i], nil
		}
	}
	return nil, nil
}

// GetByConfirmationCode 按确认码查询预订
func (s *BookingService) GetByConfirmationCode(code string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByConfirmationCode(code)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// GetByID 按 ID 查询预订
func (s *BookingService) GetByID(id uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByIDWithRelations(id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// List 预订列表
func (s *BookingService) List(filter repository.BookingListFilter) ([]models.Booking, int64, error) {
	return s.bookingRepo.List(filter)
}

// CancelTimeoutBooking 取消超时未支付的预订（延迟任务与巡检共用，幂等）
func (s *BookingService) CancelTimeoutBooking(bookingID uint) error {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return err
	}
	if booking == nil || booking.Status != constants.BookingStatusPending {
		return nil
	}
	if booking.PaymentStatus == constants.BookingPaymentPaid {
		return nil
	}
	_, err = s.CancelBooking(bookingID, "payment timeout", constants.ActorRoleSystem, 0)
	if errors.Is(err, ErrBookingStateInvalid) {
		return nil
	}
	return err
}

// CompleteSessionBookings 将已结束排期下的已确认预订置为完成，返回完成数量
func (s *BookingService) CompleteSessionBookings(sessionID uint, now time.Time) (int, error) {
	bookings, err := s.bookingRepo.ListConfirmedBySession(sessionID)
	if err != nil {
		return 0, err
	}
	completed := 0
	for i := range bookings {
		affected, err := s.bookingRepo.UpdateStatusIf(bookings[i].ID,
			[]string{constants.BookingStatusConfirmed},
			constants.BookingStatusCompleted, map[string]interface{}{
				"completed_at": now,
				"updated_at":   now,
			})
		if err != nil {
			logger.Errorw("booking_complete_failed",
				"booking_id", bookings[i].ID,
				"error", err,
			)
			continue
		}
		completed += int(affected)
	}
	return completed, nil
}

// SweepTimeoutBookings 巡检超时未支付的预订并取消（延迟任务丢失时的兜底）
func (s *BookingService) SweepTimeoutBookings(now time.Time, limit int) (int, error) {
	cutoff := now.Add(-time.Duration(s.policy.PaymentExpireMinutes) * time.Minute)
	bookings, err := s.bookingRepo.ListPendingCreatedBefore(cutoff, limit)
	if err != nil {
		return 0, err
	}
	canceled := 0
	for i := range bookings {
		if err := s.CancelTimeoutBooking(bookings[i].ID); err != nil {
			logger.Errorw("booking_timeout_sweep_failed",
				"booking_id", bookings[i].ID,
				"error", err,
			)
			continue
		}
		canceled++
	}
	return canceled, nil
}

// CompleteDueBookings 巡检已结束的排期并完成其下的已确认预订，返回完成总数
func (s *BookingService) CompleteDueBookings(now time.Time, limit int) (int, error) {
	sessions, err := s.sessionRepo.ListEndedBefore(now, limit)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range sessions {
		done, err := s.CompleteSessionBookings(sessions[i].ID, now)
		if err != nil {
			logger.Errorw("session_complete_sweep_failed",
				"session_id", sessions[i].ID,
				"error", err,
			)
			continue
		}
		total += done
	}
	return total, nil
}

func bookingLineDescription(session *models.ScheduledSession) string {
	name := "Course session"
	if session.CourseType != nil && strings.TrimSpace(session.CourseType.Name) != "" {
		name = session.CourseType.Name
	}
	return name + " " + session.StartAt.Format("2006-01-02 15:04")
}

func isBookingDomainErr(err error) bool {
	for _, candidate := range []error{
		ErrInsufficientCapacity,
		ErrSessionClosed,
		ErrCouponUsageLimit,
		ErrIdentifierExhausted,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}
