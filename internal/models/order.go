package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                          // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                          // 订单编号
	BookingID      *uint          `gorm:"index" json:"booking_id,omitempty"`                             // 关联预约ID（预约类订单）
	UserID         uint           `gorm:"index;not null" json:"user_id,omitempty"`                       // 用户ID（游客订单为 0）
	Status         string         `gorm:"index;not null" json:"status"`                                  // 订单状态
	PaymentStatus  string         `gorm:"index;not null" json:"payment_status"`                          // 支付状态
	Currency       string         `gorm:"not null" json:"currency"`                                      // 币种
	SubtotalAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal_amount"`  // 小计金额
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`  // 优惠金额
	TaxAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`       // 税费金额
	ShippingAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_amount"`  // 运费金额
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`     // 实付金额
	CouponID       *uint          `gorm:"index" json:"coupon_id,omitempty"`                              // 优惠券ID
	ExpiresAt      *time.Time     `gorm:"index" json:"expires_at"`                                       // 支付过期时间
	PaidAt         *time.Time     `gorm:"index" json:"paid_at"`                                          // 支付时间
	CanceledAt     *time.Time     `gorm:"index" json:"canceled_at"`                                      // 取消时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	// 关联
	Items    []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`    // 订单项
	Payments []Payment   `gorm:"foreignKey:OrderID" json:"payments,omitempty"` // 支付记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
