package models

import (
	"time"

	"gorm.io/gorm"
)

// CourseType 课程类型表
type CourseType struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Code          string         `gorm:"type:varchar(3);uniqueIndex;not null" json:"code"`          // 三位前缀编码（EFA/FAW/PFA）
	Name          string         `gorm:"not null" json:"name"`                                      // 课程名称
	Description   string         `gorm:"type:text" json:"description"`                              // 课程描述
	DurationHours int            `gorm:"not null" json:"duration_hours"`                            // 课时（小时）
	BasePrice     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"`   // 基础单价
	Tags          StringArray    `gorm:"type:json" json:"tags"`                                     // 标签数组
	IsActive      bool           `gorm:"not null;index" json:"is_active"`                           // 是否开放预约
	SortOrder     int            `gorm:"default:0;index" json:"sort_order"`                         // 排序权重
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	// 关联
	Sessions []ScheduledSession `gorm:"foreignKey:CourseTypeID" json:"sessions,omitempty"` // 排期列表
}

// TableName 指定表名
func (CourseType) TableName() string {
	return "course_types"
}
