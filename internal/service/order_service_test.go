package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewOrderService(repository.NewOrderRepository(db), repository.NewPaymentRepository(db)), db
}

func createTestOrder(t *testing.T, db *gorm.DB, status string, expiresAt *time.Time) *models.Order {
	t.Helper()
	now := time.Now()
	order := &models.Order{
		OrderNo:       fmt.Sprintf("ORD-260314-%04d", now.UnixNano()%10000),
		Status:        status,
		PaymentStatus: constants.PaymentStatusPending,
		Currency:      "GBP",
		TotalAmount:   money(t, "85"),
		ExpiresAt:     expiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestAdvanceStatus(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	order := createTestOrder(t, db, constants.OrderStatusPending, nil)

	advanced, err := service.AdvanceStatus(order.ID, constants.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("advance status failed: %v", err)
	}
	if advanced.Status != constants.OrderStatusConfirmed {
		t.Fatalf("expected confirmed order, got %s", advanced.Status)
	}

	// 不在状态机内的迁移直接拒绝
	if _, err := service.AdvanceStatus(order.ID, constants.OrderStatusPending); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid, got %v", err)
	}
	if _, err := service.AdvanceStatus(9999, constants.OrderStatusConfirmed); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestAdvanceStatusToCanceledStampsTime(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	order := createTestOrder(t, db, constants.OrderStatusPending, nil)

	canceled, err := service.AdvanceStatus(order.ID, constants.OrderStatusCanceled)
	if err != nil {
		t.Fatalf("advance status failed: %v", err)
	}
	if canceled.Status != constants.OrderStatusCanceled {
		t.Fatalf("expected canceled order, got %s", canceled.Status)
	}
	if canceled.CanceledAt == nil {
		t.Fatal("canceled_at should be set")
	}
}

func TestCancelExpired(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	expired := createTestOrder(t, db, constants.OrderStatusPending, &past)
	alive := createTestOrder(t, db, constants.OrderStatusPending, &future)
	confirmed := createTestOrder(t, db, constants.OrderStatusConfirmed, &past)

	canceled, err := service.CancelExpired(time.Now(), 100)
	if err != nil {
		t.Fatalf("cancel expired failed: %v", err)
	}
	if canceled != 1 {
		t.Fatalf("expected 1 canceled order, got %d", canceled)
	}

	check := func(id uint, want string) {
		var fresh models.Order
		if err := db.First(&fresh, id).Error; err != nil {
			t.Fatalf("load order failed: %v", err)
		}
		if fresh.Status != want {
			t.Fatalf("order %d: expected %s, got %s", id, want, fresh.Status)
		}
	}
	check(expired.ID, constants.OrderStatusCanceled)
	check(alive.ID, constants.OrderStatusPending)
	check(confirmed.ID, constants.OrderStatusConfirmed)
}

func TestGetByBookingID(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	bookingID := uint(42)
	now := time.Now()
	order := &models.Order{
		OrderNo:       "ORD-260314-4242",
		BookingID:     &bookingID,
		Status:        constants.OrderStatusPending,
		PaymentStatus: constants.PaymentStatusPending,
		Currency:      "GBP",
		TotalAmount:   money(t, "85"),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	found, err := service.GetByBookingID(bookingID)
	if err != nil {
		t.Fatalf("get by booking id failed: %v", err)
	}
	if found.ID != order.ID {
		t.Fatalf("unexpected order id: %d", found.ID)
	}
	if _, err := service.GetByBookingID(999); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
