package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/models"

	"gorm.io/gorm"
)

// BookingRepository 预订数据访问接口
type BookingRepository interface {
	Create(booking *models.Booking) error
	GetByID(id uint) (*models.Booking, error)
	GetByIDWithRelations(id uint) (*models.Booking, error)
	GetByConfirmationCode(code string) (*models.Booking, error)
	List(filter BookingListFilter) ([]models.Booking, int64, error)
	Update(booking *models.Booking) error
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	UpdateStatusIf(id uint, fromStatuses []string, status string, updates map[string]interface{}) (int64, error)
	CountPriorByEmail(email string, excludeID uint) (int64, error)
	ListConfirmedBySession(sessionID uint) ([]models.Booking, error)
	ListPendingCreatedBefore(cutoff time.Time, limit int) ([]models.Booking, error)
	WithTx(tx *gorm.DB) *GormBookingRepository
}

// GormBookingRepository GORM 实现
type GormBookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository 创建预订仓库
func NewBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBookingRepository) WithTx(tx *gorm.DB) *GormBookingRepository {
	if tx == nil {
		return r
	}
	return &GormBookingRepository{db: tx}
}

// Create 创建预订
func (r *GormBookingRepository) Create(booking *models.Booking) error {
	return r.db.Create(booking).Error
}

// GetByID 根据 ID 获取预订
func (r *GormBookingRepository) GetByID(id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// GetByIDWithRelations 获取预订及排期、课程类型、场地
func (r *GormBookingRepository) GetByIDWithRelations(id uint) (*models.Booking, error) {
	var booking models.Booking
	query := r.db.Preload("Session").Preload("Session.CourseType").Preload("Session.Venue")
	if err := query.First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// GetByConfirmationCode 根据确认码获取预订
func (r *GormBookingRepository) GetByConfirmationCode(code string) (*models.Booking, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	var booking models.Booking
	query := r.db.Preload("Session").Preload("Session.CourseType").Preload("Session.Venue")
	if err := query.Where("confirmation_code = ?", code).First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// List 获取预订列表
func (r *GormBookingRepository) List(filter BookingListFilter) ([]models.Booking, int64, error) {
	var bookings []models.Booking
	query := r.db.Model(&models.Booking{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.SessionID > 0 {
		query = query.Where("session_id = ?", filter.SessionID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Email != "" {
		query = query.Where("contact_email = ?", strings.ToLower(strings.TrimSpace(filter.Email)))
	}
	if filter.Search != "" {
		like := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("confirmation_code LIKE ? OR contact_name LIKE ? OR contact_email LIKE ?", like, like, like)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Preload("Session").Preload("Session.CourseType").
		Order("id desc").Find(&bookings).Error; err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// Update 更新预订
func (r *GormBookingRepository) Update(booking *models.Booking) error {
	return r.db.Save(booking).Error
}

// UpdateStatus 更新预订状态及附加字段
func (r *GormBookingRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.Booking{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateStatusIf 条件状态流转：仅当前状态仍在 fromStatuses 内才生效，返回生效行数
// 并发取消同一预订时只有一方能赢得该行，另一方拿到 0 行
func (r *GormBookingRepository) UpdateStatusIf(id uint, fromStatuses []string, status string, updates map[string]interface{}) (int64, error) {
	if id == 0 || len(fromStatuses) == 0 {
		return 0, errors.New("invalid status transition params")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	result := r.db.Model(&models.Booking{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// CountPriorByEmail 统计该邮箱此前的有效预订数（用于首单优惠判定）
func (r *GormBookingRepository) CountPriorByEmail(email string, excludeID uint) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return 0, nil
	}
	var count int64
	query := r.db.Model(&models.Booking{}).
		Where("contact_email = ?", email).
		Where("status <> ?", constants.BookingStatusCancelled)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListConfirmedBySession 获取排期下已确认的预订
func (r *GormBookingRepository) ListConfirmedBySession(sessionID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := r.db.Where("session_id = ? AND status = ?", sessionID, constants.BookingStatusConfirmed).
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListPendingCreatedBefore 获取超时未支付的待处理预订
func (r *GormBookingRepository) ListPendingCreatedBefore(cutoff time.Time, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	var bookings []models.Booking
	if err := r.db.Where("status = ? AND created_at <= ?", constants.BookingStatusPending, cutoff).
		Order("created_at asc").
		Limit(limit).
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}
