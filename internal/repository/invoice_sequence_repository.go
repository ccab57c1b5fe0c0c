package repository

import (
	"errors"

	"github.com/coursebook/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceSequenceRepository 发票号月度序列数据访问接口
type InvoiceSequenceRepository interface {
	Next(yearMonth string) (int, error)
	Current(yearMonth string) (int, error)
	WithTx(tx *gorm.DB) *GormInvoiceSequenceRepository
}

// GormInvoiceSequenceRepository GORM 实现
type GormInvoiceSequenceRepository struct {
	db *gorm.DB
}

// NewInvoiceSequenceRepository 创建发票序列仓库
func NewInvoiceSequenceRepository(db *gorm.DB) *GormInvoiceSequenceRepository {
	return &GormInvoiceSequenceRepository{db: db}
}

// WithTx 绑定事务
func (r *GormInvoiceSequenceRepository) WithTx(tx *gorm.DB) *GormInvoiceSequenceRepository {
	if tx == nil {
		return r
	}
	return &GormInvoiceSequenceRepository{db: tx}
}

// Next 获取指定月份的下一个序列值。
// 通过 upsert 单语句自增，月份唯一键保证并发下序列单调且不重复；
// 调用方应在发票落库的同一事务内使用，失败时随事务回滚。
func (r *GormInvoiceSequenceRepository) Next(yearMonth string) (int, error) {
	if len(yearMonth) != 6 {
		return 0, errors.New("invalid invoice sequence year month")
	}
	seq := models.InvoiceSequence{YearMonth: yearMonth, LastSeq: 1}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year_month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_seq": gorm.Expr("last_seq + 1")}),
	}).Create(&seq).Error; err != nil {
		return 0, err
	}

	var current models.InvoiceSequence
	if err := r.db.Where("year_month = ?", yearMonth).First(&current).Error; err != nil {
		return 0, err
	}
	return current.LastSeq, nil
}

// Current 查看指定月份当前序列值（不存在返回 0）
func (r *GormInvoiceSequenceRepository) Current(yearMonth string) (int, error) {
	var current models.InvoiceSequence
	if err := r.db.Where("year_month = ?", yearMonth).First(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return current.LastSeq, nil
}
