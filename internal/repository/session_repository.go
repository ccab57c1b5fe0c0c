package repository

import (
	"errors"
	"time"

	"github.com/coursebook/internal/models"

	"gorm.io/gorm"
)

// SessionRepository 课程排期数据访问接口
type SessionRepository interface {
	Create(session *models.ScheduledSession) error
	GetByID(id uint) (*models.ScheduledSession, error)
	GetByIDWithRelations(id uint) (*models.ScheduledSession, error)
	List(filter SessionListFilter) ([]models.ScheduledSession, int64, error)
	Update(session *models.ScheduledSession) error
	UpdateFields(id uint, updates map[string]interface{}) error
	Delete(id uint) error
	ReserveSeats(sessionID uint, count int) (int64, error)
	ReleaseSeats(sessionID uint, count int) (int64, error)
	ListEndedBefore(cutoff time.Time, limit int) ([]models.ScheduledSession, error)
	WithTx(tx *gorm.DB) *GormSessionRepository
}

// GormSessionRepository GORM 实现
type GormSessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建排期仓库
func NewSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSessionRepository) WithTx(tx *gorm.DB) *GormSessionRepository {
	if tx == nil {
		return r
	}
	return &GormSessionRepository{db: tx}
}

// Create 创建排期
func (r *GormSessionRepository) Create(session *models.ScheduledSession) error {
	return r.db.Create(session).Error
}

// GetByID 根据 ID 获取排期
func (r *GormSessionRepository) GetByID(id uint) (*models.ScheduledSession, error) {
	var session models.ScheduledSession
	if err := r.db.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// GetByIDWithRelations 获取排期及其课程类型、场地
func (r *GormSessionRepository) GetByIDWithRelations(id uint) (*models.ScheduledSession, error) {
	var session models.ScheduledSession
	if err := r.db.Preload("CourseType").Preload("Venue").First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// List 获取排期列表
func (r *GormSessionRepository) List(filter SessionListFilter) ([]models.ScheduledSession, int64, error) {
	var sessions []models.ScheduledSession
	query := r.db.Model(&models.ScheduledSession{})

	if filter.CourseTypeID > 0 {
		query = query.Where("course_type_id = ?", filter.CourseTypeID)
	}
	if filter.VenueID > 0 {
		query = query.Where("venue_id = ?", filter.VenueID)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.OnlyBookable {
		query = query.Where("is_active = ? AND start_at > ?", true, time.Now())
	}
	if filter.StartFrom != nil {
		query = query.Where("start_at >= ?", *filter.StartFrom)
	}
	if filter.StartTo != nil {
		query = query.Where("start_at <= ?", *filter.StartTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Preload("CourseType").Preload("Venue").Order("start_at asc").Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// Update 更新排期
func (r *GormSessionRepository) Update(session *models.ScheduledSession) error {
	return r.db.Save(session).Error
}

// UpdateFields 按字段更新排期
func (r *GormSessionRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.ScheduledSession{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 删除排期
func (r *GormSessionRepository) Delete(id uint) error {
	return r.db.Delete(&models.ScheduledSession{}, id).Error
}

// ReserveSeats 预占座位：仅在排期开放且剩余容量足够时生效，返回受影响行数。
// 条件更新在单条语句内完成检查与扣减，并发下不会超卖。
func (r *GormSessionRepository) ReserveSeats(sessionID uint, count int) (int64, error) {
	if sessionID == 0 || count <= 0 {
		return 0, errors.New("invalid seat reserve params")
	}
	result := r.db.Model(&models.ScheduledSession{}).
		Where("id = ? AND is_active = ? AND start_at > ? AND reserved_capacity + ? <= max_capacity",
			sessionID, true, time.Now(), count).
		UpdateColumn("reserved_capacity", gorm.Expr("reserved_capacity + ?", count))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReleaseSeats 释放座位占用：已占数不足时不生效，避免负值。
func (r *GormSessionRepository) ReleaseSeats(sessionID uint, count int) (int64, error) {
	if sessionID == 0 || count <= 0 {
		return 0, errors.New("invalid seat release params")
	}
	result := r.db.Model(&models.ScheduledSession{}).
		Where("id = ? AND reserved_capacity >= ?", sessionID, count).
		UpdateColumn("reserved_capacity", gorm.Expr("reserved_capacity - ?", count))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListEndedBefore 获取已结束的排期（用于完成状态巡检）
func (r *GormSessionRepository) ListEndedBefore(cutoff time.Time, limit int) ([]models.ScheduledSession, error) {
	if limit <= 0 {
		limit = 100
	}
	var sessions []models.ScheduledSession
	if err := r.db.Where("end_at <= ?", cutoff).
		Order("end_at asc").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
