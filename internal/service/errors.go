package service

import "errors"

// 课程排期与容量
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionClosed        = errors.New("session is not open for booking")
	ErrInsufficientCapacity = errors.New("not enough seats available")
	ErrInvalidParticipants  = errors.New("invalid number of participants")
	ErrParticipantsExceeded = errors.New("participants exceed per-booking limit")
)

// 优惠券
var (
	ErrCouponInvalid       = errors.New("coupon is invalid")
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponInactive      = errors.New("coupon is inactive")
	ErrCouponNotStarted    = errors.New("coupon is not started")
	ErrCouponExpired       = errors.New("coupon is expired")
	ErrCouponUsageLimit    = errors.New("coupon usage limit reached")
	ErrCouponPerUserLimit  = errors.New("coupon per-user limit reached")
	ErrCouponMinAmount     = errors.New("order amount below coupon minimum")
	ErrCouponFirstTimeOnly = errors.New("coupon is for first-time customers only")
)

// 预订
var (
	ErrBookingNotFound      = errors.New("booking not found")
	ErrBookingStateInvalid  = errors.New("booking state does not allow this operation")
	ErrCancellationWindow   = errors.New("cancellation window has passed")
	ErrBookingCreateFailed  = errors.New("booking create failed")
	ErrNotBookingOwner      = errors.New("booking does not belong to this user")
	ErrContactEmailRequired = errors.New("contact email is required")
	ErrIdentifierExhausted  = errors.New("identifier generation attempts exhausted")
)

// 订单与支付
var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrOrderStatusInvalid     = errors.New("order status does not allow this operation")
	ErrOrderCreateFailed      = errors.New("order create failed")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrPaymentStatusInvalid   = errors.New("payment status does not allow this operation")
	ErrPaymentProviderUnknown = errors.New("unknown payment provider")
	ErrRefundAmountInvalid    = errors.New("refund amount is invalid")
	ErrOverRefund             = errors.New("refund exceeds refundable amount")
	ErrQueueUnavailable       = errors.New("task queue unavailable")
)

// 邮件
var (
	ErrEmailServiceDisabled      = errors.New("email service is disabled")
	ErrEmailServiceNotConfigured = errors.New("email service is not configured")
	ErrInvalidEmail              = errors.New("invalid email address")
	ErrEmailRecipientRejected    = errors.New("recipient address rejected by mail server")
)

// 认证
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserDisabled       = errors.New("user account is disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrPasswordTooWeak    = errors.New("password does not meet strength requirements")
	ErrTooManyAttempts    = errors.New("too many failed attempts, try again later")
)

// 目录管理
var (
	ErrCourseTypeNotFound = errors.New("course type not found")
	ErrCourseCodeInvalid  = errors.New("course code must be 3 uppercase letters")
	ErrVenueNotFound      = errors.New("venue not found")
	ErrSessionTimeInvalid = errors.New("session end must be after start")
	ErrCapacityInvalid    = errors.New("capacity must be positive")
	ErrCapacityBelowUsage = errors.New("capacity cannot drop below reserved seats")
)
