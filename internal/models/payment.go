package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 支付记录
type Payment struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                          // 主键
	OrderID         uint           `gorm:"index;not null" json:"order_id"`                                // 订单ID
	BookingID       *uint          `gorm:"index" json:"booking_id,omitempty"`                             // 关联预约ID
	Provider        string         `gorm:"not null" json:"provider"`                                      // 支付提供方（stripe/manual）
	ProviderRef     string         `gorm:"index" json:"provider_ref"`                                     // 第三方流水号（幂等键为支付ID）
	Amount          Money          `gorm:"type:decimal(20,2);not null" json:"amount"`                     // 支付金额
	RefundedAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"refunded_amount"`  // 已退款金额（不超过支付金额）
	Currency        string         `gorm:"not null" json:"currency"`                                      // 币种
	Status          string         `gorm:"index;not null" json:"status"`                                  // 支付状态
	FailureReason   string         `gorm:"type:text" json:"failure_reason,omitempty"`                     // 失败原因
	ProviderPayload JSON           `gorm:"type:json" json:"provider_payload"`                             // 第三方回调数据
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                                          // 支付成功时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	// 关联
	Refunds []Refund `gorm:"foreignKey:PaymentID" json:"refunds,omitempty"` // 退款记录
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}

// RefundableAmount 剩余可退款金额
func (p *Payment) RefundableAmount() Money {
	return NewMoneyFromDecimal(p.Amount.Decimal.Sub(p.RefundedAmount.Decimal))
}
