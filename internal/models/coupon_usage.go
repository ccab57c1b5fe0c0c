package models

import (
	"time"

	"gorm.io/gorm"
)

// CouponUsage 优惠券使用记录（只增不改）
type CouponUsage struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                         // 主键
	CouponID       uint           `gorm:"index;not null" json:"coupon_id"`                              // 优惠券ID
	UserID         uint           `gorm:"index;not null" json:"user_id"`                                // 用户ID（游客为 0）
	ContactEmail   string         `gorm:"index;size:255" json:"contact_email"`                          // 预订联系邮箱（游客按邮箱限次）
	BookingID      uint           `gorm:"index;not null" json:"booking_id"`                             // 预约ID
	OrderID        uint           `gorm:"index;not null" json:"order_id"`                               // 订单ID
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 实际优惠金额
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间
}

// TableName 指定表名
func (CouponUsage) TableName() string {
	return "coupon_usages"
}
