package public

import (
	"errors"

	"github.com/coursebook/internal/http/response"
	"github.com/coursebook/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var couponErrorRules = []mappedHandlerError{
	{target: service.ErrCouponInvalid, code: response.CodeBadRequest, msg: "coupon is invalid"},
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, msg: "coupon not found"},
	{target: service.ErrCouponInactive, code: response.CodeBadRequest, msg: "coupon is inactive"},
	{target: service.ErrCouponNotStarted, code: response.CodeBadRequest, msg: "coupon is not started"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, msg: "coupon is expired"},
	{target: service.ErrCouponUsageLimit, code: response.CodeBadRequest, msg: "coupon usage limit reached"},
	{target: service.ErrCouponPerUserLimit, code: response.CodeBadRequest, msg: "coupon per-user limit reached"},
	{target: service.ErrCouponMinAmount, code: response.CodeBadRequest, msg: "booking amount below coupon minimum"},
	{target: service.ErrCouponFirstTimeOnly, code: response.CodeBadRequest, msg: "coupon is for first-time customers only"},
}

var bookingCreateErrorRules = concatMappedHandlerErrors(couponErrorRules, []mappedHandlerError{
	{target: service.ErrSessionNotFound, code: response.CodeNotFound, msg: "session not found"},
	{target: service.ErrSessionClosed, code: response.CodeBadRequest, msg: "session is not open for booking"},
	{target: service.ErrInsufficientCapacity, code: response.CodeConflict, msg: "not enough seats available"},
	{target: service.ErrInvalidParticipants, code: response.CodeBadRequest, msg: "invalid number of participants"},
	{target: service.ErrParticipantsExceeded, code: response.CodeBadRequest, msg: "participants exceed per-booking limit"},
	{target: service.ErrContactEmailRequired, code: response.CodeBadRequest, msg: "contact email is required"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "invalid email address"},
	{target: service.ErrIdentifierExhausted, code: response.CodeInternal, msg: "could not allocate booking reference"},
})

var bookingCancelErrorRules = []mappedHandlerError{
	{target: service.ErrBookingNotFound, code: response.CodeNotFound, msg: "booking not found"},
	{target: service.ErrNotBookingOwner, code: response.CodeForbidden, msg: "booking does not belong to this user"},
	{target: service.ErrBookingStateInvalid, code: response.CodeBadRequest, msg: "booking state does not allow cancellation"},
	{target: service.ErrCancellationWindow, code: response.CodeBadRequest, msg: "cancellation window has passed"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, msg: "order status does not allow payment"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, msg: "payment not found"},
	{target: service.ErrPaymentStatusInvalid, code: response.CodeBadRequest, msg: "payment status does not allow this operation"},
	{target: service.ErrPaymentProviderUnknown, code: response.CodeBadRequest, msg: "unknown payment provider"},
}

var userAuthErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "invalid email or password"},
	{target: service.ErrUserDisabled, code: response.CodeForbidden, msg: "account is disabled"},
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "user not found"},
	{target: service.ErrEmailTaken, code: response.CodeBadRequest, msg: "email is already registered"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "invalid email address"},
	{target: service.ErrPasswordTooWeak, code: response.CodeBadRequest, msg: "password does not meet strength requirements"},
	{target: service.ErrTooManyAttempts, code: response.CodeTooManyRequests, msg: "too many failed attempts, try again later"},
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}
