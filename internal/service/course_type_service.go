package service

import (
	"regexp"
	"strings"

	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/repository"
)

// 课程编码固定三位大写字母，用作确认码前缀
var courseCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// CourseTypeService 课程类型服务
type CourseTypeService struct {
	courseTypeRepo repository.CourseTypeRepository
}

// NewCourseTypeService 创建课程类型服务
func NewCourseTypeService(courseTypeRepo repository.CourseTypeRepository) *CourseTypeService {
	return &CourseTypeService{courseTypeRepo: courseTypeRepo}
}

// CourseTypeInput 课程类型维护入参
type CourseTypeInput struct {
	Code          string
	Name          string
	Description   string
	DurationHours int
	BasePrice     models.Money
	Tags          []string
	IsActive      *bool
	SortOrder     int
}

// Create 创建课程类型
func (s *CourseTypeService) Create(input CourseTypeInput) (*models.CourseType, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if !courseCodePattern.MatchString(code) {
		return nil, ErrCourseCodeInvalid
	}

	courseType := &models.CourseType{
		Code:          code,
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		DurationHours: input.DurationHours,
		BasePrice:     input.BasePrice,
		Tags:          input.Tags,
		IsActive:      true,
		SortOrder:     input.SortOrder,
	}
	if input.IsActive != nil {
		courseType.IsActive = *input.IsActive
	}
	if courseType.DurationHours <= 0 {
		courseType.DurationHours = 6
	}
	if err := s.courseTypeRepo.Create(courseType); err != nil {
		return nil, err
	}
	return courseType, nil
}

// Update 更新课程类型（编码创建后不可变，避免历史确认码失配）
func (s *CourseTypeService) Update(id uint, input CourseTypeInput) (*models.CourseType, error) {
	courseType, err := s.courseTypeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if courseType == nil {
		return nil, ErrCourseTypeNotFound
	}

	courseType.Name = strings.TrimSpace(input.Name)
	courseType.Description = input.Description
	if input.DurationHours > 0 {
		courseType.DurationHours = input.DurationHours
	}
	courseType.BasePrice = input.BasePrice
	courseType.Tags = input.Tags
	courseType.SortOrder = input.SortOrder
	if input.IsActive != nil {
		courseType.IsActive = *input.IsActive
	}
	if err := s.courseTypeRepo.Update(courseType); err != nil {
		return nil, err
	}
	return courseType, nil
}

// GetByID 查询课程类型
func (s *CourseTypeService) GetByID(id uint) (*models.CourseType, error) {
	courseType, err := s.courseTypeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if courseType == nil {
		return nil, ErrCourseTypeNotFound
	}
	return courseType, nil
}

// List 课程类型列表
func (s *CourseTypeService) List(onlyActive bool) ([]models.CourseType, error) {
	return s.courseTypeRepo.List(onlyActive)
}

// Delete 删除课程类型（软删除）
func (s *CourseTypeService) Delete(id uint) error {
	courseType, err := s.courseTypeRepo.GetByID(id)
	if err != nil {
		return err
	}
	if courseType == nil {
		return ErrCourseTypeNotFound
	}
	return s.courseTypeRepo.Delete(id)
}
