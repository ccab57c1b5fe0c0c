package service

import (
	"strings"

	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/repository"
)

// VenueService 培训场地服务
type VenueService struct {
	venueRepo repository.VenueRepository
}

// NewVenueService 创建场地服务
func NewVenueService(venueRepo repository.VenueRepository) *VenueService {
	return &VenueService{venueRepo: venueRepo}
}

// VenueInput 场地维护入参
type VenueInput struct {
	Name     string
	Address  string
	City     string
	Capacity int
	IsActive *bool
}

// Create 创建场地
func (s *VenueService) Create(input VenueInput) (*models.Venue, error) {
	if input.Capacity <= 0 {
		return nil, ErrCapacityInvalid
	}
	venue := &models.Venue{
		Name:     strings.TrimSpace(input.Name),
		Address:  input.Address,
		City:     strings.TrimSpace(input.City),
		Capacity: input.Capacity,
		IsActive: true,
	}
	if input.IsActive != nil {
		venue.IsActive = *input.IsActive
	}
	if err := s.venueRepo.Create(venue); err != nil {
		return nil, err
	}
	return venue, nil
}

// Update 更新场地
func (s *VenueService) Update(id uint, input VenueInput) (*models.Venue, error) {
	venue, err := s.venueRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if venue == nil {
		return nil, ErrVenueNotFound
	}
	if input.Capacity <= 0 {
		return nil, ErrCapacityInvalid
	}

	venue.Name = strings.TrimSpace(input.Name)
	venue.Address = input.Address
	venue.City = strings.TrimSpace(input.City)
	venue.Capacity = input.Capacity
	if input.IsActive != nil {
		venue.IsActive = *input.IsActive
	}
	if err := s.venueRepo.Update(venue); err != nil {
		return nil, err
	}
	return venue, nil
}

// GetByID 查询场地
func (s *VenueService) GetByID(id uint) (*models.Venue, error) {
	venue, err := s.venueRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if venue == nil {
		return nil, ErrVenueNotFound
	}
	return venue, nil
}

// List 场地列表
func (s *VenueService) List(onlyActive bool) ([]models.Venue, error) {
	return s.venueRepo.List(onlyActive)
}

// Delete 删除场地（软删除）
func (s *VenueService) Delete(id uint) error {
	venue, err := s.venueRepo.GetByID(id)
	if err != nil {
		return err
	}
	if venue == nil {
		return ErrVenueNotFound
	}
	return s.venueRepo.Delete(id)
}
