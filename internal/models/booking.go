package models

import (
	"time"

	"gorm.io/gorm"
)

// Booking 预约表
type Booking struct {
	ID                   uint           `gorm:"primarykey" json:"id"`                                               // 主键
	ConfirmationCode     string         `gorm:"uniqueIndex;not null" json:"confirmation_code"`                      // 确认码（对外唯一标识）
	InvoiceNo            *string        `gorm:"uniqueIndex" json:"invoice_no,omitempty"`                            // 发票号（支付成功后生成）
	SessionID            uint           `gorm:"index;not null" json:"session_id"`                                   // 排期ID
	UserID               uint           `gorm:"index;not null" json:"user_id,omitempty"`                            // 用户ID（游客预约为 0）
	ContactName          string         `gorm:"not null" json:"contact_name"`                                       // 联系人姓名
	ContactEmail         string         `gorm:"index;not null" json:"contact_email"`                                // 联系人邮箱
	ContactPhone         string         `gorm:"type:varchar(32)" json:"contact_phone"`                              // 联系人电话
	NumberOfParticipants int            `gorm:"not null" json:"number_of_participants"`                             // 参与人数
	OriginalAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"original_amount"`       // 原始金额
	GroupDiscountAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"group_discount_amount"` // 团体折扣金额
	CouponDiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"coupon_discount_amount"` // 优惠券折扣金额
	TotalAmount          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`          // 实付金额
	Currency             string         `gorm:"not null" json:"currency"`                                           // 币种
	CouponID             *uint          `gorm:"index" json:"coupon_id,omitempty"`                                   // 优惠券ID
	Status               string         `gorm:"index;not null" json:"status"`                                       // 预约状态
	PaymentStatus        string         `gorm:"index;not null" json:"payment_status"`                               // 支付状态
	CancelReason         string         `gorm:"type:text" json:"cancel_reason,omitempty"`                           // 取消原因
	CancelledBy          string         `gorm:"type:varchar(20)" json:"cancelled_by,omitempty"`                     // 取消操作者角色
	ConfirmedAt          *time.Time     `gorm:"index" json:"confirmed_at"`                                          // 确认时间
	CancelledAt          *time.Time     `gorm:"index" json:"cancelled_at"`                                          // 取消时间
	CompletedAt          *time.Time     `gorm:"index" json:"completed_at"`                                          // 完成时间
	CreatedAt            time.Time      `gorm:"index" json:"created_at"`                                            // 创建时间
	UpdatedAt            time.Time      `gorm:"index" json:"updated_at"`                                            // 更新时间
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`                                                     // 软删除时间

	// 关联
	Session *ScheduledSession `gorm:"foreignKey:SessionID" json:"session,omitempty"` // 排期
	Order   *Order            `gorm:"foreignKey:BookingID" json:"order,omitempty"`   // 订单
}

// TableName 指定表名
func (Booking) TableName() string {
	return "bookings"
}
