package worker

import (
	"context"
	"errors"
	"time"

	"github.com/coursebook/internal/config"
	"github.com/coursebook/internal/logger"
	"github.com/coursebook/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	sweepInterval  = time.Minute
	sweepBatchSize = 100
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.BookingService != nil {
		go s.runSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runSweepLoop 定时巡检：延迟任务丢失时兜底取消超时预订、完成已结束排期、取消过期订单
func (s *Service) runSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil {
		return
	}
	runOnce := func() {
		now := time.Now()
		if s.consumer.BookingService != nil {
			if _, err := s.consumer.BookingService.SweepTimeoutBookings(now, sweepBatchSize); err != nil {
				logger.Warnw("worker_timeout_sweep_failed", "error", err)
			}
			if _, err := s.consumer.BookingService.CompleteDueBookings(now, sweepBatchSize); err != nil {
				logger.Warnw("worker_complete_sweep_failed", "error", err)
			}
		}
		if s.consumer.OrderService != nil {
			if _, err := s.consumer.OrderService.CancelExpired(now, sweepBatchSize); err != nil {
				logger.Warnw("worker_order_expire_sweep_failed", "error", err)
			}
		}
	}
	runOnce()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
