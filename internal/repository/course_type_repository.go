package repository

import (
	"errors"
	"strings"

	"github.com/coursebook/internal/models"

	"gorm.io/gorm"
)

// CourseTypeRepository 课程类型数据访问接口
type CourseTypeRepository interface {
	Create(courseType *models.CourseType) error
	GetByID(id uint) (*models.CourseType, error)
	GetByCode(code string) (*models.CourseType, error)
	List(onlyActive bool) ([]models.CourseType, error)
	Update(courseType *models.CourseType) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormCourseTypeRepository
}

// GormCourseTypeRepository GORM 实现
type GormCourseTypeRepository struct {
	db *gorm.DB
}

// NewCourseTypeRepository 创建课程类型仓库
func NewCourseTypeRepository(db *gorm.DB) *GormCourseTypeRepository {
	return &GormCourseTypeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCourseTypeRepository) WithTx(tx *gorm.DB) *GormCourseTypeRepository {
	if tx == nil {
		return r
	}
	return &GormCourseTypeRepository{db: tx}
}

// Create 创建课程类型
func (r *GormCourseTypeRepository) Create(courseType *models.CourseType) error {
	return r.db.Create(courseType).Error
}

// GetByID 根据 ID 获取课程类型
func (r *GormCourseTypeRepository) GetByID(id uint) (*models.CourseType, error) {
	var courseType models.CourseType
	if err := r.db.First(&courseType, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &courseType, nil
}

// GetByCode 根据课程代码获取课程类型
func (r *GormCourseTypeRepository) GetByCode(code string) (*models.CourseType, error) {
	var courseType models.CourseType
	if err := r.db.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&courseType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &courseType, nil
}

// List 获取课程类型列表
func (r *GormCourseTypeRepository) List(onlyActive bool) ([]models.CourseType, error) {
	var courseTypes []models.CourseType
	query := r.db.Model(&models.CourseType{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("sort_order asc, id asc").Find(&courseTypes).Error; err != nil {
		return nil, err
	}
	return courseTypes, nil
}

// Update 更新课程类型
func (r *GormCourseTypeRepository) Update(courseType *models.CourseType) error {
	return r.db.Save(courseType).Error
}

// Delete 删除课程类型
func (r *GormCourseTypeRepository) Delete(id uint) error {
	return r.db.Delete(&models.CourseType{}, id).Error
}
