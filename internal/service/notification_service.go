package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coursebook/internal/cache"
	"github.com/coursebook/internal/logger"
	"github.com/coursebook/internal/repository"
)

// 同一预订同一状态的通知在该窗口内只发一次
const notificationDedupeTTL = 10 * time.Minute

// NotificationService 预订状态通知服务，消费队列里的邮件任务
type NotificationService struct {
	bookingRepo  repository.BookingRepository
	emailService *EmailService
}

// NewNotificationService 创建通知服务
func NewNotificationService(bookingRepo repository.BookingRepository, emailService *EmailService) *NotificationService {
	return &NotificationService{
		bookingRepo:  bookingRepo,
		emailService: emailService,
	}
}

// SendBookingStatusNotification 发送预订状态邮件
// 状态以数据库当前值为准，任务重放或乱序时不会发出过期状态
func (s *NotificationService) SendBookingStatusNotification(ctx context.Context, bookingID uint, status string) error {
	booking, err := s.bookingRepo.GetByIDWithRelations(bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		logger.Warnw("booking_notify_skipped", "booking_id", bookingID, "reason", "booking not found")
		return nil
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && booking.Status != status {
		logger.Infow("booking_notify_skipped",
			"booking_id", bookingID,
			"requested_status", status,
			"current_status", booking.Status,
		)
		return nil
	}
	if booking.ContactEmail == "" {
		return nil
	}

	dedupeKey := fmt.Sprintf("notify:booking:%d:%s", booking.ID, booking.Status)
	ok, err := cache.SetNX(ctx, dedupeKey, "1", notificationDedupeTTL)
	if err != nil {
		logger.Warnw("booking_notify_dedupe_failed", "booking_id", booking.ID, "error", err)
	}
	if err == nil && !ok {
		return nil
	}

	input := BookingStatusEmailInput{
		ConfirmationCode: booking.ConfirmationCode,
		Status:           booking.Status,
		Participants:     booking.NumberOfParticipants,
		Amount:           booking.TotalAmount,
		Currency:         booking.Currency,
	}
	if booking.InvoiceNo != nil {
		input.InvoiceNo = *booking.InvoiceNo
	}
	if booking.Session != nil {
		input.StartAt = booking.Session.StartAt
		if booking.Session.CourseType != nil {
			input.CourseName = booking.Session.CourseType.Name
		}
		if booking.Session.Venue != nil {
			input.VenueName = booking.Session.Venue.Name
		}
	}

	if err := s.emailService.SendBookingStatusEmail(booking.ContactEmail, input); err != nil {
		if err == ErrEmailServiceDisabled || err == ErrEmailServiceNotConfigured {
			logger.Infow("booking_notify_skipped", "booking_id", booking.ID, "reason", err.Error())
			return nil
		}
		return err
	}
	logger.Infow("booking_notify_sent",
		"booking_id", booking.ID,
		"status", booking.Status,
		"recipient", booking.ContactEmail,
	)
	return nil
}
