package gateway

import (
	"context"
	"fmt"

	"github.com/coursebook/internal/constants"
)

// ManualProvider 线下收款渠道：不经第三方，由管理端手工标记支付与退款结果
type ManualProvider struct{}

// NewManualProvider 创建线下渠道
func NewManualProvider() *ManualProvider {
	return &ManualProvider{}
}

// Name 渠道标识
func (p *ManualProvider) Name() string {
	return constants.PaymentProviderManual
}

// CreateCheckout 线下渠道无收银台，直接返回占位引用
func (p *ManualProvider) CreateCheckout(_ context.Context, input CheckoutInput) (*CheckoutResult, error) {
	return &CheckoutResult{
		ProviderRef: fmt.Sprintf("manual-%d", input.PaymentID),
		Status:      "open",
	}, nil
}

// Refund 线下退款记录为已受理，实际打款由管理端处理
func (p *ManualProvider) Refund(_ context.Context, input RefundInput) (*RefundResult, error) {
	return &RefundResult{
		ProviderRef: "manual-refund-" + input.ProviderRef,
		Status:      "succeeded",
	}, nil
}
