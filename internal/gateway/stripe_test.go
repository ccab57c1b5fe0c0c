package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/coursebook/internal/config"
	"github.com/coursebook/internal/models"

	"github.com/shopspring/decimal"
)

func TestNewStripeProviderRequiresSecretKey(t *testing.T) {
	if _, err := NewStripeProvider(nil); !errors.Is(err, ErrProviderConfigInvalid) {
		t.Fatalf("nil config should be rejected, got %v", err)
	}
	if _, err := NewStripeProvider(&config.StripeConfig{SecretKey: "   "}); !errors.Is(err, ErrProviderConfigInvalid) {
		t.Fatalf("blank secret key should be rejected, got %v", err)
	}
	provider, err := NewStripeProvider(&config.StripeConfig{SecretKey: "sk_test_xxx"})
	if err != nil {
		t.Fatalf("valid config should build provider: %v", err)
	}
	if provider.Name() == "" {
		t.Fatalf("provider name should not be empty")
	}
}

func TestStripeRefundRequiresProviderRef(t *testing.T) {
	provider, err := NewStripeProvider(&config.StripeConfig{SecretKey: "sk_test_xxx"})
	if err != nil {
		t.Fatalf("build provider failed: %v", err)
	}
	_, err = provider.Refund(context.Background(), RefundInput{
		Amount:   models.Money{Decimal: decimal.NewFromInt(10)},
		Currency: "GBP",
	})
	if !errors.Is(err, ErrProviderConfigInvalid) {
		t.Fatalf("missing provider ref should be rejected, got %v", err)
	}
}

func TestToMinorUnit(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		currency string
		want     int64
	}{
		{name: "gbp_two_decimal", amount: "85.00", currency: "GBP", want: 8500},
		{name: "gbp_rounds_half_up", amount: "12.345", currency: "gbp", want: 1235},
		{name: "jpy_zero_decimal", amount: "1200", currency: "JPY", want: 1200},
		{name: "jpy_drops_fraction", amount: "1200.4", currency: "jpy", want: 1200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			value, err := decimal.NewFromString(tc.amount)
			if err != nil {
				t.Fatalf("parse amount failed: %v", err)
			}
			got := toMinorUnit(models.Money{Decimal: value}, tc.currency)
			if got != tc.want {
				t.Fatalf("minor unit want %d got %d", tc.want, got)
			}
		})
	}
}

func TestManualProviderCheckoutAndRefund(t *testing.T) {
	provider := NewManualProvider()

	checkout, err := provider.CreateCheckout(context.Background(), CheckoutInput{PaymentID: 7})
	if err != nil {
		t.Fatalf("manual checkout failed: %v", err)
	}
	if checkout.ProviderRef != "manual-7" {
		t.Fatalf("provider ref want manual-7 got %s", checkout.ProviderRef)
	}
	if checkout.RedirectURL != "" {
		t.Fatalf("manual checkout should not produce a redirect URL")
	}

	refund, err := provider.Refund(context.Background(), RefundInput{ProviderRef: checkout.ProviderRef})
	if err != nil {
		t.Fatalf("manual refund failed: %v", err)
	}
	if refund.ProviderRef != "manual-refund-manual-7" {
		t.Fatalf("refund ref want manual-refund-manual-7 got %s", refund.ProviderRef)
	}
	if refund.Status != "succeeded" {
		t.Fatalf("refund status want succeeded got %s", refund.Status)
	}
}
