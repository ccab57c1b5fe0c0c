package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coursebook/internal/logger"
	"github.com/coursebook/internal/provider"
	"github.com/coursebook/internal/queue"
	"github.com/coursebook/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskBookingStatusEmail, c.handleBookingStatusEmail)
	mux.HandleFunc(queue.TaskBookingTimeoutCancel, c.handleBookingTimeoutCancel)
	mux.HandleFunc(queue.TaskSessionCompleteSweep, c.handleSessionCompleteSweep)
}

func (c *Consumer) handleBookingStatusEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_booking_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.BookingStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_booking_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.BookingID == 0 {
		logger.Debugw("worker_booking_status_email_skip_invalid_payload", "booking_id", payload.BookingID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_booking_status_email_skip_notification_service_nil", "booking_id", payload.BookingID)
		return nil
	}
	if err := c.NotificationService.SendBookingStatusNotification(ctx, payload.BookingID, payload.Status); err != nil {
		logger.Warnw("worker_booking_status_email_send_failed",
			"booking_id", payload.BookingID,
			"status", payload.Status,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleBookingTimeoutCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_booking_timeout_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.BookingTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_booking_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.BookingID == 0 {
		logger.Debugw("worker_booking_timeout_cancel_skip_invalid_payload", "booking_id", payload.BookingID)
		return nil
	}
	if c.BookingService == nil {
		logger.Warnw("worker_booking_timeout_cancel_skip_booking_service_nil", "booking_id", payload.BookingID)
		return nil
	}
	if err := c.BookingService.CancelTimeoutBooking(payload.BookingID); err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			logger.Debugw("worker_booking_timeout_cancel_skip_not_found", "booking_id", payload.BookingID)
			return nil
		case errors.Is(err, service.ErrBookingStateInvalid):
			logger.Debugw("worker_booking_timeout_cancel_skip_state", "booking_id", payload.BookingID)
			return nil
		default:
			logger.Warnw("worker_booking_timeout_cancel_failed", "booking_id", payload.BookingID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleSessionCompleteSweep(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_session_complete_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	if c.BookingService == nil {
		logger.Warnw("worker_session_complete_sweep_skip_booking_service_nil")
		return nil
	}
	completed, err := c.BookingService.CompleteDueBookings(time.Now(), sweepBatchSize)
	if err != nil {
		logger.Warnw("worker_session_complete_sweep_failed", "error", err)
		return err
	}
	if completed > 0 {
		logger.Infow("worker_session_complete_sweep_done", "completed", completed)
	}
	return nil
}
