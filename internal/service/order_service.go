package service

import (
	"time"

	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/logger"
	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/repository"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
	}
}

// GetByID 查询订单
func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByOrderNo 按订单号查询订单
func (s *OrderService) GetByOrderNo(orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByBookingID 按预订查询订单
func (s *OrderService) GetByBookingID(bookingID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByIDAndUser 查询用户自己的订单
func (s *OrderService) GetByIDAndUser(id, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 订单列表
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// AdvanceStatus 管理端推进订单状态，仅允许状态机登记的迁移
func (s *OrderService) AdvanceStatus(id uint, target string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !canTransitionOrder(order.Status, target) {
		return nil, ErrOrderStatusInvalid
	}
	now := time.Now()
	updates := map[string]interface{}{
		"updated_at": now,
	}
	if normalizeStatus(target) == constants.OrderStatusCanceled {
		updates["canceled_at"] = now
	}
	if err := s.orderRepo.UpdateStatus(order.ID, target, updates); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(order.ID)
}

// CancelExpired 取消已过支付期限的待支付订单，返回处理数量（巡检任务调用）
func (s *OrderService) CancelExpired(now time.Time, limit int) (int, error) {
	orders, err := s.orderRepo.ListExpiredPending(now, limit)
	if err != nil {
		return 0, err
	}
	canceled := 0
	for i := range orders {
		if err := s.orderRepo.UpdateStatus(orders[i].ID, constants.OrderStatusCanceled, map[string]interface{}{
			"canceled_at": now,
			"updated_at":  now,
		}); err != nil {
			logger.Errorw("order_expire_cancel_failed",
				"order_id", orders[i].ID,
				"order_no", orders[i].OrderNo,
				"error", err,
			)
			continue
		}
		canceled++
	}
	return canceled, nil
}
