package queue

import (
	"encoding/json"

	"github.com/coursebook/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskBookingStatusEmail 预订状态邮件通知任务
	TaskBookingStatusEmail = constants.TaskBookingStatusEmail
	// TaskBookingTimeoutCancel 预订超时取消任务
	TaskBookingTimeoutCancel = constants.TaskBookingTimeoutCancel
	// TaskSessionCompleteSweep 排期完成巡检任务
	TaskSessionCompleteSweep = constants.TaskSessionCompleteSweep
)

// BookingStatusEmailPayload 预订状态邮件任务载荷
type BookingStatusEmailPayload struct {
	BookingID uint   `json:"booking_id"`
	Status    string `json:"status"`
}

// BookingTimeoutCancelPayload 预订超时取消任务载荷
type BookingTimeoutCancelPayload struct {
	BookingID uint `json:"booking_id"`
}

// SessionCompleteSweepPayload 排期完成巡检任务载荷
type SessionCompleteSweepPayload struct{}

// NewBookingStatusEmailTask 创建预订状态邮件任务
func NewBookingStatusEmailTask(payload BookingStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBookingStatusEmail, body), nil
}

// NewBookingTimeoutCancelTask 创建预订超时取消任务
func NewBookingTimeoutCancelTask(payload BookingTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBookingTimeoutCancel, body), nil
}

// NewSessionCompleteSweepTask 创建排期完成巡检任务
func NewSessionCompleteSweepTask() (*asynq.Task, error) {
	body, err := json.Marshal(SessionCompleteSweepPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionCompleteSweep, body), nil
}
