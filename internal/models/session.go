package models

import (
	"time"

	"gorm.io/gorm"
)

// ScheduledSession 课程排期表（可预约的单次开课实例）
type ScheduledSession struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                             // 主键
	CourseTypeID      uint           `gorm:"index;not null" json:"course_type_id"`                             // 课程类型ID
	VenueID           uint           `gorm:"index;not null" json:"venue_id"`                                   // 场地ID
	StartAt           time.Time      `gorm:"index;not null" json:"start_at"`                                   // 开课时间
	EndAt             time.Time      `gorm:"index;not null" json:"end_at"`                                     // 结课时间
	MaxCapacity       int            `gorm:"not null" json:"max_capacity"`                                     // 最大席位数
	ReservedCapacity  int            `gorm:"not null;default:0" json:"reserved_capacity"`                      // 已预占席位数
	PricePerSeat      Money          `gorm:"type:decimal(20,2);not null" json:"price_per_seat"`                // 单席位价格
	GroupDiscountRate Money          `gorm:"type:decimal(6,2);not null;default:0" json:"group_discount_rate"` // 团体折扣比例（百分比，0 表示不启用）
	MaxPerBooking     int            `gorm:"not null;default:0" json:"max_per_booking"`                        // 单笔预约人数上限（0 表示使用全局配置）
	IsActive          bool           `gorm:"not null;index" json:"is_active"`                                  // 是否开放（管理端下架为软停用）
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                          // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                   // 软删除时间

	// 关联
	CourseType *CourseType `gorm:"foreignKey:CourseTypeID" json:"course_type,omitempty"` // 课程类型
	Venue      *Venue      `gorm:"foreignKey:VenueID" json:"venue,omitempty"`            // 场地
	Bookings   []Booking   `gorm:"foreignKey:SessionID" json:"bookings,omitempty"`       // 预约列表
}

// TableName 指定表名
func (ScheduledSession) TableName() string {
	return "scheduled_sessions"
}

// AvailableSpots 剩余可预约席位数
func (s *ScheduledSession) AvailableSpots() int {
	remaining := s.MaxCapacity - s.ReservedCapacity
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsBookable 判断排期当前是否可预约
func (s *ScheduledSession) IsBookable(now time.Time) bool {
	return s.IsActive && s.StartAt.After(now)
}
