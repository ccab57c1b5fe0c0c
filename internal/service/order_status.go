package service

import (
	"strings"

	"github.com/coursebook/internal/constants"
)

// allowedOrderTransitions 订单状态机：仅登记在表内的迁移合法
var allowedOrderTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed: true,
		constants.OrderStatusCanceled:  true,
		constants.OrderStatusFailed:    true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCanceled:   true,
		constants.OrderStatusFailed:     true,
		constants.OrderStatusRefunded:   true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped:   true,
		constants.OrderStatusDelivered: true,
		constants.OrderStatusCompleted: true,
		constants.OrderStatusFailed:    true,
		constants.OrderStatusRefunded:  true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusCompleted: true,
		constants.OrderStatusFailed:    true,
		constants.OrderStatusRefunded:  true,
	},
	constants.OrderStatusDelivered: {
		constants.OrderStatusCompleted: true,
		constants.OrderStatusRefunded:  true,
	},
	constants.OrderStatusCompleted: {
		constants.OrderStatusRefunded: true,
	},
}

// canTransitionOrder 判断订单状态迁移是否合法
func canTransitionOrder(from, to string) bool {
	nexts, ok := allowedOrderTransitions[normalizeStatus(from)]
	if !ok {
		return false
	}
	return nexts[normalizeStatus(to)]
}

// canBeCanceled 仅待支付与已确认订单可取消
func canBeCanceled(status string) bool {
	switch normalizeStatus(status) {
	case constants.OrderStatusPending, constants.OrderStatusConfirmed:
		return true
	}
	return false
}

// allowedPaymentTransitions 支付状态机
var allowedPaymentTransitions = map[string]map[string]bool{
	// pending 可直达 succeeded：线下收款无确认中间态
	constants.PaymentStatusPending: {
		constants.PaymentStatusProcessing: true,
		constants.PaymentStatusSucceeded:  true,
		constants.PaymentStatusCanceled:   true,
		constants.PaymentStatusFailed:     true,
	},
	constants.PaymentStatusProcessing: {
		constants.PaymentStatusSucceeded: true,
		constants.PaymentStatusFailed:    true,
		constants.PaymentStatusCanceled:  true,
	},
	constants.PaymentStatusSucceeded: {
		constants.PaymentStatusRefunded:          true,
		constants.PaymentStatusPartiallyRefunded: true,
	},
	constants.PaymentStatusPartiallyRefunded: {
		constants.PaymentStatusRefunded:          true,
		constants.PaymentStatusPartiallyRefunded: true,
	},
}

// canTransitionPayment 判断支付状态迁移是否合法
func canTransitionPayment(from, to string) bool {
	nexts, ok := allowedPaymentTransitions[normalizeStatus(from)]
	if !ok {
		return false
	}
	return nexts[normalizeStatus(to)]
}

// allowedBookingTransitions 预订状态机：Cancelled/Completed 为终态
var allowedBookingTransitions = map[string]map[string]bool{
	constants.BookingStatusPending: {
		constants.BookingStatusConfirmed: true,
		constants.BookingStatusCancelled: true,
	},
	constants.BookingStatusConfirmed: {
		constants.BookingStatusCompleted: true,
		constants.BookingStatusCancelled: true,
	},
}

// canTransitionBooking 判断预订状态迁移是否合法
func canTransitionBooking(from, to string) bool {
	nexts, ok := allowedBookingTransitions[normalizeStatus(from)]
	if !ok {
		return false
	}
	return nexts[normalizeStatus(to)]
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}
