package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/coursebook/internal/config"
	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

// 按渠道要求以最小货币单位报价的零小数货币
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {},
	"KRW": {}, "MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {},
	"VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

// StripeProvider Stripe 渠道实现（Checkout Session 收款 + PaymentIntent 退款）
type StripeProvider struct {
	client     *stripe.Client
	successURL string
	cancelURL  string
}

// NewStripeProvider 创建 Stripe 渠道
func NewStripeProvider(cfg *config.StripeConfig) (*StripeProvider, error) {
	if cfg == nil || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, ErrProviderConfigInvalid
	}
	return &StripeProvider{
		client:     stripe.NewClient(strings.TrimSpace(cfg.SecretKey)),
		successURL: strings.TrimSpace(cfg.SuccessURL),
		cancelURL:  strings.TrimSpace(cfg.CancelURL),
	}, nil
}

// Name 渠道标识
func (p *StripeProvider) Name() string {
	return constants.PaymentProviderStripe
}

// CreateCheckout 创建 Checkout Session，返回收银台跳转地址
func (p *StripeProvider) CreateCheckout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	params := &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String("payment"),
		SuccessURL:        stripe.String(p.successURL),
		CancelURL:         stripe.String(p.cancelURL),
		ClientReferenceID: stripe.String(input.OrderNo),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(toMinorUnit(input.Amount, input.Currency)),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(input.Description),
					},
				},
			},
		},
		Metadata: map[string]string{
			"order_no":   input.OrderNo,
			"payment_id": fmt.Sprintf("%d", input.PaymentID),
		},
	}
	if strings.TrimSpace(input.CustomerEmail) != "" {
		params.CustomerEmail = stripe.String(input.CustomerEmail)
	}

	session, err := p.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRequestFailed, err)
	}
	return &CheckoutResult{
		ProviderRef: session.ID,
		RedirectURL: session.URL,
		Status:      string(session.Status),
	}, nil
}

// Refund 按 PaymentIntent 发起退款
func (p *StripeProvider) Refund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	if strings.TrimSpace(input.ProviderRef) == "" {
		return nil, ErrProviderConfigInvalid
	}
	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(input.ProviderRef),
		Amount:        stripe.Int64(toMinorUnit(input.Amount, input.Currency)),
	}
	refund, err := p.client.V1Refunds.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRequestFailed, err)
	}
	return &RefundResult{
		ProviderRef: refund.ID,
		Status:      string(refund.Status),
	}, nil
}

// toMinorUnit 将金额换算为渠道最小货币单位
func toMinorUnit(amount models.Money, currency string) int64 {
	value := amount.Decimal.Round(2)
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return value.Round(0).IntPart()
	}
	return value.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
