package repository

import (
	"errors"

	"github.com/coursebook/internal/models"

	"gorm.io/gorm"
)

// VenueRepository 场地数据访问接口
type VenueRepository interface {
	Create(venue *models.Venue) error
	GetByID(id uint) (*models.Venue, error)
	List(onlyActive bool) ([]models.Venue, error)
	Update(venue *models.Venue) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormVenueRepository
}

// GormVenueRepository GORM 实现
type GormVenueRepository struct {
	db *gorm.DB
}

// NewVenueRepository 创建场地仓库
func NewVenueRepository(db *gorm.DB) *GormVenueRepository {
	return &GormVenueRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVenueRepository) WithTx(tx *gorm.DB) *GormVenueRepository {
	if tx == nil {
		return r
	}
	return &GormVenueRepository{db: tx}
}

// Create 创建场地
func (r *GormVenueRepository) Create(venue *models.Venue) error {
	return r.db.Create(venue).Error
}

// GetByID 根据 ID 获取场地
func (r *GormVenueRepository) GetByID(id uint) (*models.Venue, error) {
	var venue models.Venue
	if err := r.db.First(&venue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &venue, nil
}

// List 获取场地列表
func (r *GormVenueRepository) List(onlyActive bool) ([]models.Venue, error) {
	var venues []models.Venue
	query := r.db.Model(&models.Venue{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("id asc").Find(&venues).Error; err != nil {
		return nil, err
	}
	return venues, nil
}

// Update 更新场地
func (r *GormVenueRepository) Update(venue *models.Venue) error {
	return r.db.Save(venue).Error
}

// Delete 删除场地
func (r *GormVenueRepository) Delete(id uint) error {
	return r.db.Delete(&models.Venue{}, id).Error
}
