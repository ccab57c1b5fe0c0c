package repository

import (
	"strings"

	"github.com/coursebook/internal/models"

	"gorm.io/gorm"
)

// CouponUsageRepository 优惠券使用记录数据访问接口
type CouponUsageRepository interface {
	Create(usage *models.CouponUsage) error
	CountByCouponAndUser(couponID, userID uint) (int64, error)
	CountByCouponAndEmail(couponID uint, email string) (int64, error)
	List(filter CouponUsageListFilter) ([]models.CouponUsage, int64, error)
	DeleteByBookingID(bookingID uint) error
	WithTx(tx *gorm.DB) *GormCouponUsageRepository
}

// GormCouponUsageRepository GORM 实现
type GormCouponUsageRepository struct {
	db *gorm.DB
}

// NewCouponUsageRepository 创建优惠券使用记录仓库
func NewCouponUsageRepository(db *gorm.DB) *GormCouponUsageRepository {
	return &GormCouponUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponUsageRepository) WithTx(tx *gorm.DB) *GormCouponUsageRepository {
	if tx == nil {
		return r
	}
	return &GormCouponUsageRepository{db: tx}
}

// Create 创建使用记录
func (r *GormCouponUsageRepository) Create(usage *models.CouponUsage) error {
	return r.db.Create(usage).Error
}

// CountByCouponAndUser 统计用户对某张券的使用次数
func (r *GormCouponUsageRepository) CountByCouponAndUser(couponID, userID uint) (int64, error) {
	if couponID == 0 || userID == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByCouponAndEmail 统计邮箱对某张券的使用次数（游客预订按邮箱限次）
func (r *GormCouponUsageRepository) CountByCouponAndEmail(couponID uint, email string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if couponID == 0 || email == "" {
		return 0, nil
	}
	var count int64
	if err := r.db.Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND contact_email = ?", couponID, email).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// List 获取使用记录列表
func (r *GormCouponUsageRepository) List(filter CouponUsageListFilter) ([]models.CouponUsage, int64, error) {
	var usages []models.CouponUsage
	query := r.db.Model(&models.CouponUsage{})

	if filter.CouponID > 0 {
		query = query.Where("coupon_id = ?", filter.CouponID)
	}
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&usages).Error; err != nil {
		return nil, 0, err
	}
	return usages, total, nil
}

// DeleteByBookingID 删除预订关联的使用记录（取消预订时回滚）
func (r *GormCouponUsageRepository) DeleteByBookingID(bookingID uint) error {
	if bookingID == 0 {
		return nil
	}
	return r.db.Where("booking_id = ?", bookingID).Delete(&models.CouponUsage{}).Error
}
