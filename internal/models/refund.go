package models

import (
	"time"

	"gorm.io/gorm"
)

// Refund 退款记录（仅针对已存在的支付创建）
type Refund struct {
	ID          uint           `gorm:"primarykey" json:"id"`                      // 主键
	PaymentID   uint           `gorm:"index;not null" json:"payment_id"`          // 支付ID
	Amount      Money          `gorm:"type:decimal(20,2);not null" json:"amount"` // 退款金额
	Currency    string         `gorm:"not null" json:"currency"`                  // 币种
	Reason      string         `gorm:"type:text" json:"reason"`                   // 退款原因
	Status      string         `gorm:"index;not null" json:"status"`              // 退款状态
	ProviderRef string         `gorm:"index" json:"provider_ref"`                 // 第三方退款流水号
	FailureNote string         `gorm:"type:text" json:"failure_note,omitempty"`   // 失败说明（含待重试信息）
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (Refund) TableName() string {
	return "refunds"
}
