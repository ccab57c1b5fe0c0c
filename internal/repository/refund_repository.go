package repository

import (
	"errors"

	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/models"

	"gorm.io/gorm"
)

// RefundRepository 退款数据访问接口
type RefundRepository interface {
	Create(refund *models.Refund) error
	GetByID(id uint) (*models.Refund, error)
	ListByPayment(paymentID uint) ([]models.Refund, error)
	SumSucceededByPayment(paymentID uint) (models.Money, error)
	Update(refund *models.Refund) error
	WithTx(tx *gorm.DB) *GormRefundRepository
}

// GormRefundRepository GORM 实现
type GormRefundRepository struct {
	db *gorm.DB
}

// NewRefundRepository 创建退款仓库
func NewRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRefundRepository) WithTx(tx *gorm.DB) *GormRefundRepository {
	if tx == nil {
		return r
	}
	return &GormRefundRepository{db: tx}
}

// Create 创建退款单
func (r *GormRefundRepository) Create(refund *models.Refund) error {
	return r.db.Create(refund).Error
}

// GetByID 根据 ID 获取退款单
func (r *GormRefundRepository) GetByID(id uint) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.First(&refund, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refund, nil
}

// ListByPayment 获取支付单下的退款记录
func (r *GormRefundRepository) ListByPayment(paymentID uint) ([]models.Refund, error) {
	var refunds []models.Refund
	if err := r.db.Where("payment_id = ?", paymentID).
		Order("id asc").
		Find(&refunds).Error; err != nil {
		return nil, err
	}
	return refunds, nil
}

// SumSucceededByPayment 统计支付单已成功退款的总额
func (r *GormRefundRepository) SumSucceededByPayment(paymentID uint) (models.Money, error) {
	var row struct {
		Total models.Money
	}
	if err := r.db.Model(&models.Refund{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("payment_id = ? AND status = ?", paymentID, constants.RefundStatusSucceeded).
		Take(&row).Error; err != nil {
		return models.Money{}, err
	}
	return row.Total, nil
}

// Update 更新退款单
func (r *GormRefundRepository) Update(refund *models.Refund) error {
	return r.db.Save(refund).Error
}
