package models

import (
	"time"

	"gorm.io/gorm"
)

// Venue 培训场地表
type Venue struct {
	ID        uint           `gorm:"primarykey" json:"id"`              // 主键
	Name      string         `gorm:"uniqueIndex;not null" json:"name"`  // 场地名称
	Address   string         `gorm:"type:text" json:"address"`          // 场地地址
	City      string         `gorm:"index" json:"city"`                 // 所在城市
	Capacity  int            `gorm:"not null" json:"capacity"`            // 场地容量上限
	IsActive  bool           `gorm:"not null;index" json:"is_active"`     // 是否可用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`           // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                        // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间
}

// TableName 指定表名
func (Venue) TableName() string {
	return "venues"
}
