package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/coursebook/internal/models"

	"github.com/shopspring/decimal"
)

func TestBuildBookingStatusContent(t *testing.T) {
	startAt := time.Date(2026, 9, 14, 9, 30, 0, 0, time.UTC)
	base := BookingStatusEmailInput{
		ConfirmationCode: "EFA-260914-Q7PM",
		CourseName:       "Emergency First Aid at Work",
		VenueName:        "Riverside Training Centre",
		StartAt:          startAt,
		Participants:     3,
		Amount:           models.Money{Decimal: decimal.NewFromInt(255)},
		Currency:         "gbp",
	}

	tests := []struct {
		name                string
		status              string
		invoiceNo           string
		wantSubjectContains []string
		wantBodyContains    []string
	}{
		{
			name:      "confirmed",
			status:    "confirmed",
			invoiceNo: "INV-202609-00017",
			wantSubjectContains: []string{
				"Booking EFA-260914-Q7PM confirmed",
			},
			wantBodyContains: []string{
				"Booking reference: EFA-260914-Q7PM",
				"Course: Emergency First Aid at Work",
				"Venue: Riverside Training Centre",
				"Participants: 3",
				"Total: 255.00 GBP",
				"Invoice: INV-202609-00017",
				"your places are confirmed",
			},
		},
		{
			name:   "cancelled",
			status: "cancelled",
			wantSubjectContains: []string{
				"Booking EFA-260914-Q7PM cancelled",
			},
			wantBodyContains: []string{
				"has been cancelled",
				"original payment method",
			},
		},
		{
			name:   "completed",
			status: "Completed",
			wantSubjectContains: []string{
				"Thank you for attending",
			},
			wantBodyContains: []string{
				"certificates will be issued separately",
			},
		},
		{
			name:   "pending_fallback",
			status: "pending",
			wantSubjectContains: []string{
				"Booking EFA-260914-Q7PM received",
			},
			wantBodyContains: []string{
				"confirmed once payment completes",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			input.Status = tc.status
			input.InvoiceNo = tc.invoiceNo

			subject, body := buildBookingStatusContent("Safety First Training", input)
			if !strings.Contains(subject, "[Safety First Training]") {
				t.Fatalf("subject should carry the site name, got %q", subject)
			}
			for _, want := range tc.wantSubjectContains {
				if !strings.Contains(subject, want) {
					t.Fatalf("subject %q should contain %q", subject, want)
				}
			}
			for _, want := range tc.wantBodyContains {
				if !strings.Contains(body, want) {
					t.Fatalf("body should contain %q, got:\n%s", want, body)
				}
			}
		})
	}
}

func TestBuildBookingStatusContentDefaultSiteName(t *testing.T) {
	subject, _ := buildBookingStatusContent("", BookingStatusEmailInput{
		ConfirmationCode: "EFA-260914-Q7PM",
		Status:           "confirmed",
	})
	if !strings.Contains(subject, "[Course Booking]") {
		t.Fatalf("expected default site name in subject, got %q", subject)
	}
}

func TestBuildFromAddress(t *testing.T) {
	if got := buildFromAddress("noreply@example.com", ""); got != "noreply@example.com" {
		t.Fatalf("expected bare address without display name, got %q", got)
	}
	got := buildFromAddress("noreply@example.com", "Safety First")
	if !strings.Contains(got, "<noreply@example.com>") {
		t.Fatalf("expected address part in %q", got)
	}
	if !strings.Contains(got, "Safety First") {
		t.Fatalf("expected display name in %q", got)
	}
}

func TestNormalizeEmailSendError(t *testing.T) {
	if got := normalizeEmailSendError(nil); got != nil {
		t.Fatalf("nil error should pass through, got %v", got)
	}

	rejected := []string{
		"550 5.1.1 recipient address rejected: user unknown",
		"smtp error: no such recipient here",
		"550 requested action not taken: mailbox unavailable",
	}
	for _, message := range rejected {
		if got := normalizeEmailSendError(errors.New(message)); !errors.Is(got, ErrEmailRecipientRejected) {
			t.Fatalf("message %q should map to ErrEmailRecipientRejected, got %v", message, got)
		}
	}

	passthrough := errors.New("dial tcp: connection refused")
	if got := normalizeEmailSendError(passthrough); got != passthrough {
		t.Fatalf("unrelated errors should pass through, got %v", got)
	}
}
