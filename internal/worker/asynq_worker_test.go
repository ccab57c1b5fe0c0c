package worker

import (
	"context"
	"testing"

	"github.com/coursebook/internal/provider"
	"github.com/coursebook/internal/queue"

	"github.com/hibiken/asynq"
)

func TestHandleBookingStatusEmailRejectsMalformedPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskBookingStatusEmail, []byte("{not-json"))

	if err := consumer.handleBookingStatusEmail(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error for malformed payload")
	}
}

func TestHandleBookingStatusEmailSkipsZeroBookingID(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskBookingStatusEmail, []byte(`{"booking_id":0,"status":"confirmed"}`))

	if err := consumer.handleBookingStatusEmail(context.Background(), task); err != nil {
		t.Fatalf("zero booking id should be dropped without error, got %v", err)
	}
}

func TestHandleBookingTimeoutCancelSkipsWhenServiceMissing(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskBookingTimeoutCancel, []byte(`{"booking_id":42}`))

	if err := consumer.handleBookingTimeoutCancel(context.Background(), task); err != nil {
		t.Fatalf("missing booking service should not fail the task, got %v", err)
	}
}

func TestHandleBookingTimeoutCancelRejectsMalformedPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskBookingTimeoutCancel, []byte("not-json"))

	if err := consumer.handleBookingTimeoutCancel(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error for malformed payload")
	}
}

func TestRegisterToleratesNilReceiverAndMux(t *testing.T) {
	var consumer *Consumer
	consumer.Register(nil)

	NewConsumer(&provider.Container{}).Register(nil)
}
