package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表
type OrderItem struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderID        uint           `gorm:"index;not null" json:"order_id"`                               // 订单ID
	LineType       string         `gorm:"type:varchar(20);not null" json:"line_type"`                   // 行类型（booking/product/service）
	BookingID      *uint          `gorm:"index" json:"booking_id,omitempty"`                            // 预约ID（booking 行）
	ReferenceID    uint           `gorm:"index" json:"reference_id,omitempty"`                          // 商品/服务引用ID
	Description    string         `gorm:"not null" json:"description"`                                  // 行描述快照
	UnitPrice      Money          `gorm:"type:decimal(20,2);not null" json:"unit_price"`                // 单价
	Quantity       int            `gorm:"not null" json:"quantity"`                                     // 数量
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 行优惠金额
	TotalPrice     Money          `gorm:"type:decimal(20,2);not null" json:"total_price"`               // 行小计
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                                   // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
