package service

import (
	"testing"

	"github.com/coursebook/internal/constants"
)

func TestCanTransitionOrder(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusConfirmed, true},
		{constants.OrderStatusPending, constants.OrderStatusCanceled, true},
		{constants.OrderStatusPending, constants.OrderStatusFailed, true},
		{constants.OrderStatusPending, constants.OrderStatusCompleted, false},
		{constants.OrderStatusConfirmed, constants.OrderStatusRefunded, true},
		{constants.OrderStatusConfirmed, constants.OrderStatusPending, false},
		{constants.OrderStatusCompleted, constants.OrderStatusRefunded, true},
		{constants.OrderStatusCanceled, constants.OrderStatusConfirmed, false},
		{constants.OrderStatusRefunded, constants.OrderStatusCompleted, false},
		{"unknown", constants.OrderStatusConfirmed, false},
	}
	for _, tc := range cases {
		if got := canTransitionOrder(tc.from, tc.to); got != tc.want {
			t.Errorf("canTransitionOrder(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanTransitionOrderNormalizesInput(t *testing.T) {
	if !canTransitionOrder(" Pending ", "CONFIRMED") {
		t.Fatal("expected case-insensitive transition to be allowed")
	}
}

func TestCanTransitionPayment(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{constants.PaymentStatusPending, constants.PaymentStatusProcessing, true},
		{constants.PaymentStatusPending, constants.PaymentStatusSucceeded, true},
		{constants.PaymentStatusPending, constants.PaymentStatusFailed, true},
		{constants.PaymentStatusProcessing, constants.PaymentStatusSucceeded, true},
		{constants.PaymentStatusProcessing, constants.PaymentStatusRefunded, false},
		{constants.PaymentStatusSucceeded, constants.PaymentStatusPartiallyRefunded, true},
		{constants.PaymentStatusSucceeded, constants.PaymentStatusRefunded, true},
		{constants.PaymentStatusPartiallyRefunded, constants.PaymentStatusRefunded, true},
		{constants.PaymentStatusSucceeded, constants.PaymentStatusPending, false},
		{constants.PaymentStatusFailed, constants.PaymentStatusSucceeded, false},
		{constants.PaymentStatusRefunded, constants.PaymentStatusSucceeded, false},
	}
	for _, tc := range cases {
		if got := canTransitionPayment(tc.from, tc.to); got != tc.want {
			t.Errorf("canTransitionPayment(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanTransitionBooking(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{constants.BookingStatusPending, constants.BookingStatusConfirmed, true},
		{constants.BookingStatusPending, constants.BookingStatusCancelled, true},
		{constants.BookingStatusPending, constants.BookingStatusCompleted, false},
		{constants.BookingStatusConfirmed, constants.BookingStatusCompleted, true},
		{constants.BookingStatusConfirmed, constants.BookingStatusCancelled, true},
		{constants.BookingStatusCancelled, constants.BookingStatusConfirmed, false},
		{constants.BookingStatusCompleted, constants.BookingStatusCancelled, false},
	}
	for _, tc := range cases {
		if got := canTransitionBooking(tc.from, tc.to); got != tc.want {
			t.Errorf("canTransitionBooking(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanBeCanceled(t *testing.T) {
	if !canBeCanceled(constants.OrderStatusPending) {
		t.Fatal("pending order should be cancelable")
	}
	if !canBeCanceled(constants.OrderStatusConfirmed) {
		t.Fatal("confirmed order should be cancelable")
	}
	if canBeCanceled(constants.OrderStatusCompleted) {
		t.Fatal("completed order should not be cancelable")
	}
	if canBeCanceled(constants.OrderStatusRefunded) {
		t.Fatal("refunded order should not be cancelable")
	}
}
