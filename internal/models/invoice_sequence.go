package models

import (
	"time"
)

// InvoiceSequence 发票号月度序列表（独立单调计数器，避免主键空洞）
type InvoiceSequence struct {
	ID        uint      `gorm:"primarykey" json:"id"`                              // 主键
	YearMonth string    `gorm:"type:varchar(6);uniqueIndex;not null" json:"year_month"` // 月份（YYYYMM）
	LastSeq   int       `gorm:"not null;default:0" json:"last_seq"`                // 当月已分配序号
	UpdatedAt time.Time `json:"updated_at"`                                        // 更新时间
}

// TableName 指定表名
func (InvoiceSequence) TableName() string {
	return "invoice_sequences"
}
