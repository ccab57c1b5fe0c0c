package service

import (
	"time"

	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/repository"
)

// SessionService 课程排期服务（管理端维护 + 公开查询）
type SessionService struct {
	sessionRepo    repository.SessionRepository
	courseTypeRepo repository.CourseTypeRepository
	venueRepo      repository.VenueRepository
}

// NewSessionService 创建排期服务
func NewSessionService(sessionRepo repository.SessionRepository, courseTypeRepo repository.CourseTypeRepository, venueRepo repository.VenueRepository) *SessionService {
	return &SessionService{
		sessionRepo:    sessionRepo,
		courseTypeRepo: courseTypeRepo,
		venueRepo:      venueRepo,
	}
}

// SessionInput 排期维护入参
type SessionInput struct {
	CourseTypeID      uint
	VenueID           uint
	StartAt           time.Time
	EndAt             time.Time
	MaxCapacity       int
	PricePerSeat      models.Money
	GroupDiscountRate models.Money
	MaxPerBooking     int
	IsActive          *bool
}

// Create 创建排期：校验课程类型、场地与时间区间，容量默认取场地容量
func (s *SessionService) Create(input SessionInput) (*models.ScheduledSession, error) {
	courseType, err := s.courseTypeRepo.GetByID(input.CourseTypeID)
	if err != nil {
		return nil, err
	}
	if courseType == nil {
		return nil, ErrCourseTypeNotFound
	}
	venue, err := s.venueRepo.GetByID(input.VenueID)
	if err != nil {
		return nil, err
	}
	if venue == nil {
		return nil, ErrVenueNotFound
	}
	if !input.EndAt.After(input.StartAt) {
		return nil, ErrSessionTimeInvalid
	}
	capacity := input.MaxCapacity
	if capacity <= 0 {
		capacity = venue.Capacity
	}
	if capacity <= 0 {
		return nil, ErrCapacityInvalid
	}

	session := &models.ScheduledSession{
		CourseTypeID:      input.CourseTypeID,
		VenueID:           input.VenueID,
		StartAt:           input.StartAt,
		EndAt:             input.EndAt,
		MaxCapacity:       capacity,
		PricePerSeat:      input.PricePerSeat,
		GroupDiscountRate: input.GroupDiscountRate,
		MaxPerBooking:     input.MaxPerBooking,
		IsActive:          true,
	}
	if input.IsActive != nil {
		session.IsActive = *input.IsActive
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return s.sessionRepo.GetByIDWithRelations(session.ID)
}

// Update 更新排期：容量不可降到已占席位之下
func (s *SessionService) Update(id uint, input SessionInput) (*models.ScheduledSession, error) {
	session, err := s.sessionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !input.EndAt.After(input.StartAt) {
		return nil, ErrSessionTimeInvalid
	}
	if input.MaxCapacity > 0 && input.MaxCapacity < session.ReservedCapacity {
		return nil, ErrCapacityBelowUsage
	}

	session.StartAt = input.StartAt
	session.EndAt = input.EndAt
	if input.MaxCapacity > 0 {
		session.MaxCapacity = input.MaxCapacity
	}
	session.PricePerSeat = input.PricePerSeat
	session.GroupDiscountRate = input.GroupDiscountRate
	session.MaxPerBooking = input.MaxPerBooking
	if input.IsActive != nil {
		session.IsActive = *input.IsActive
	}
	if err := s.sessionRepo.Update(session); err != nil {
		return nil, err
	}
	return s.sessionRepo.GetByIDWithRelations(session.ID)
}

// Deactivate 下架排期（已有预订保留，取消流程单独处理）
func (s *SessionService) Deactivate(id uint) error {
	session, err := s.sessionRepo.GetByID(id)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	return s.sessionRepo.UpdateFields(id, map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now(),
	})
}

// GetByID 查询排期
func (s *SessionService) GetByID(id uint) (*models.ScheduledSession, error) {
	session, err := s.sessionRepo.GetByIDWithRelations(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List 排期列表
func (s *SessionService) List(filter repository.SessionListFilter) ([]models.ScheduledSession, int64, error) {
	return s.sessionRepo.List(filter)
}
