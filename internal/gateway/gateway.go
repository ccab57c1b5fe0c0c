package gateway

import (
	"context"
	"errors"

	"github.com/coursebook/internal/models"
)

var (
	ErrProviderConfigInvalid = errors.New("payment provider config invalid")
	ErrProviderRequestFailed = errors.New("payment provider request failed")
)

// CheckoutInput 创建收款会话输入
type CheckoutInput struct {
	OrderNo       string
	PaymentID     uint
	Amount        models.Money
	Currency      string
	Description   string
	CustomerEmail string
}

// CheckoutResult 创建收款会话返回
type CheckoutResult struct {
	ProviderRef string // 第三方会话/意图标识
	RedirectURL string // 收银台跳转地址（manual 渠道为空）
	Status      string
}

// RefundInput 退款输入
type RefundInput struct {
	ProviderRef string
	Amount      models.Money
	Currency    string
	Reason      string
}

// RefundResult 退款返回
type RefundResult struct {
	ProviderRef string
	Status      string
}

// Provider 支付渠道抽象：创建收款会话与发起退款
type Provider interface {
	Name() string
	CreateCheckout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	Refund(ctx context.Context, input RefundInput) (*RefundResult, error)
}
