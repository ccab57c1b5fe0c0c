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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCouponServiceTest(t *testing.T) (*CouponService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:coupon_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Coupon{},
		&models.CouponUsage{},
		&models.Booking{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	couponRepo := repository.NewCouponRepository(db)
	usageRepo := repository.NewCouponUsageRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	return NewCouponService(couponRepo, usageRepo, bookingRepo), db
}

func money(t *testing.T, value string) models.Money {
	t.Helper()
	m, err := models.NewMoneyFromString(value)
	if err != nil {
		t.Fatalf("parse money %q failed: %v", value, err)
	}
	return m
}

func createTestCoupon(t *testing.T, db *gorm.DB, coupon *models.Coupon) *models.Coupon {
	t.Helper()
	now := time.Now()
	coupon.CreatedAt = now
	coupon.UpdatedAt = now
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return coupon
}

func TestApplyCouponFixedDiscount(t *testing.T) {
	service, db := setupCouponServiceTest(t)
	createTestCoupon(t, db, &models.Coupon{
		Code:      "SAVE10",
		Type:      constants.CouponTypeFixed,
		Value:     money(t, "10"),
		MinAmount: money(t, "100"),
		IsActive:  true,
	})

	discount, coupon, err := service.ApplyCoupon(money(t, "150"), "save10", CouponContext{ContactEmail: "alice@example.com"})
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	if coupon == nil || coupon.Code != "SAVE10" {
		t.Fatalf("unexpected coupon: %+v", coupon)
	}
	if !discount.Decimal.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected discount 10, got %s", discount.String())
	}
}

func TestApplyCouponFixedNeverExceedsSubtotal(t *testing.T) {
	service, db := setupCouponServiceTest(t)
	createTestCoupon(t, db, &models.Coupon{
		Code:     "BIG50",
		Type:     constants.CouponTypeFixed,
		Value:    money(t, "50"),
		IsActive: true,
	})

	discount, _, err := service.ApplyCoupon(money(t, "30"), "BIG50", CouponContext{})
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	if !discount.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("discount should be capped at subtotal, got %s", discount.String())
	}
}

func TestApplyCouponPercentageWithCap(t *testing.T) {
	service, db := setupCouponServiceTest(t)
	createTestCoupon(t, db, &models.Coupon{
		Code:        "WELCOME15",
		Type:        constants.CouponTypePercent,
		Value:       money(t, "15"),
		MaxDiscount: money(t, "50"),
		IsActive:    true,
	})

	// 15% of 200 = 30，未触及上限
	discount, _, err := service.ApplyCoupon(money(t, "200"), "WELCOME15", CouponContext{})
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	if !discount.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected discount 30, got %s", discount.String())
	}

	// 15% of 1000 = 150，截断到 MaxDiscount=50
	discount, _, err = service.ApplyCoupon(money(t, "1000"), "WELCOME15", CouponContext{})
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	if !discount.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected discount capped at 50, got %s", discount.String())
	}
}

func TestApplyCouponMinAmount(t *testing.T) {
	service, db := setupCouponServiceTest(t)
	createTestCoupon(t, db, &models.Coupon{
		Code:      "SAVE10",
		Type:      constants.CouponTypeFixed,
		Value:     money(t, "10"),
		MinAmount: money(t, "100"),
		IsActive:  true,
	})

	_, _, err := service.ApplyCoupon(money(t, "50"), "SAVE10", CouponContext{})
	if !errors.Is(err, ErrCouponMinAmount) {
		t.Fatalf("expected ErrCouponMinAmount, got %v", err)
	}
}

func TestApplyCouponNotFound(t *testing.T) {
	service, _ := setupCouponServiceTest(t)
	_, _, err := service.ApplyCoupon(money(t, "100"), "NOPE", CouponContext{})
	if !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got %v", err)
	}
}

// 停用的过期券必须先报停用，校验顺序在窗口期之前
func TestApplyCouponInactiveBeforeWindow(t *testing.T) {
	service, db := setupCouponServiceTest(t)
	past := time.Now().Add(-24 * time.Hour)
	createTestCoupon(t, db, &models.Coupon{
		Code:     "OLD",
		Type:     constants.CouponTypeFixed,
		Value:    money(t, "5"),
		EndsAt:   &past,
		IsActive: false,
	})

	_, _, err := service.ApplyCoupon(money(t, "100"), "OLD", CouponContext{})
	if !errors.Is(err, ErrCouponInactive) {
		t.Fatalf("expected ErrCouponInactive, got %v", err)
	}
}

func TestApplyCouponWindow(t *testing.T) {
	service, db := setupCouponServiceTest(t)
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)
	createTestCoupon(t, db, &models.Coupon{
		Code:     "SOON",
		Type:     constants.CouponTypeFixed,
		Value:    money(t, "5"),
		StartsAt: &future,
		IsActive: true,
	})
	createTestCoupon(t, db, &models.Coupon{
		Code:     "GONE",
		Type:     constants.CouponTypeFixed,
		Value:    money(t, "5"),
		EndsAt:   &past,
		IsActive: true,
	})

	_, _, err := service.ApplyCoupon(money(t, "100"), "SOON", CouponContext{})
	if !errors.Is(err, ErrCouponNotStarted) {
		t.Fatalf("expected ErrCouponNotStarted, got %v", err)
	}
	_, _, err = service.ApplyCoupon(money(t, "100"), "GONE", CouponContext{})
	if !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected ErrCouponExpired, got %v", err)
	}
}

func TestApplyCouponUsageLimit(t *testing.T) {
	service, db := setupCouponServiceTest(t)
	createTestCoupon(t, db, &models.Coupon{
		Code:       "FULL",
		Type:       constants.CouponTypeFixed,
		Value:      money(t, "5"),
		UsageLimit: 2,
		UsedCount:  2,
		IsActive:   true,
	})

	_, _, err := service.ApplyCoupon(money(t, "100"), "FULL", CouponContext{})
	if !errors.Is(err, ErrCouponUsageLimit) {
		t.Fatalf("expected ErrCouponUsageLimit, got %v", err)
	}
}

func TestApplyCouponPerUserLimitByUser(t *testing.T) {
	service, db := setupCouponServiceTest(t)
	coupon := createTestCoupon(t, db, &models.Coupon{
		Code:         "ONCE",
		Type:         constants.CouponTypeFixed,
		Value:        money(t, "5"),
		PerUserLimit: 1,
		IsActive:     true,
	})
	usage := models.CouponUsage{
		CouponID:     coupon.ID,
		UserID:       7,
		ContactEmail: "bob@example.com",
		BookingID:    1,
		OrderID:      1,
		CreatedAt:    time.Now(),
	}
	if err := db.Create(&usage).Error; err != nil {
		t.Fatalf("create usage failed: %v", err)
	}

	_, _, err := service.ApplyCoupon(money(t, "100"), "ONCE", CouponContext{UserID: 7})
	if !errors.Is(err, ErrCouponPerUserLimit) {
		t.Fatalf("expected ErrCouponPerUserLimit, got %v", err)
	}

	// 其他用户不受影响
	if _, _, err := service.ApplyCoupon(money(t, "100"), "ONCE", CouponContext{UserID: 8}); err != nil {
		t.Fatalf("other user should pass, got %v", err)
	}
}

func TestApplyCouponPerUserLimitByEmailForGuests(t *testing.T) {
	service, db := setupCouponServiceTest(t)
	coupon := createTestCoupon(t, db, &models.Coupon{
		Code:         "ONCE",
		Type:         constants.CouponTypeFixed,
		Value:        money(t, "5"),
		PerUserLimit: 1,
		IsActive:     true,
	})
	usage := models.CouponUsage{
		CouponID:     coupon.ID,
		ContactEmail: "guest@example.com",
		BookingID:    1,
		OrderID:      1,
		CreatedAt:    time.Now(),
	}
	if err := db.Create(&usage).Error; err != nil {
		t.Fatalf("create usage failed: %v", err)
	}

	_, _, err := service.ApplyCoupon(money(t, "100"), "ONCE", CouponContext{ContactEmail: "guest@example.com"})
	if !errors.Is(err, ErrCouponPerUserLimit) {
		t.Fatalf("expected ErrCouponPerUserLimit, got %v", err)
	}
}

func TestApplyCouponFirstTimeOnly(t *testing.T) {
	service, db := setupCouponServiceTest(t)
	createTestCoupon(t, db, &models.Coupon{
		Code:          "FIRST",
		Type:          constants.CouponTypeFixed,
		Value:         money(t, "5"),
		FirstTimeOnly: true,
		IsActive:      true,
	})
	booking := models.Booking{
		ConfirmationCode:     "EFA-260314-AB12",
		SessionID:            1,
		ContactName:          "Carol",
		ContactEmail:         "carol@example.com",
		NumberOfParticipants: 1,
		Currency:             "GBP",
		Status:               constants.BookingStatusConfirmed,
		PaymentStatus:        constants.BookingPaymentPaid,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("create booking failed: %v", err)
	}

	_, _, err := service.ApplyCoupon(money(t, "100"), "FIRST", CouponContext{ContactEmail: "carol@example.com"})
	if !errors.Is(err, ErrCouponFirstTimeOnly) {
		t.Fatalf("expected ErrCouponFirstTimeOnly, got %v", err)
	}

	// 新邮箱视为首单
	if _, _, err := service.ApplyCoupon(money(t, "100"), "FIRST", CouponContext{ContactEmail: "new@example.com"}); err != nil {
		t.Fatalf("first-time email should pass, got %v", err)
	}
}

// 已取消的预订不计入首单判定
func TestApplyCouponFirstTimeOnlyIgnoresCancelled(t *testing.T) {
	service, db := setupCouponServiceTest(t)
	createTestCoupon(t, db, &models.Coupon{
		Code:          "FIRST",
		Type:          constants.CouponTypeFixed,
		Value:         money(t, "5"),
		FirstTimeOnly: true,
		IsActive:      true,
	})
	booking := models.Booking{
		ConfirmationCode:     "EFA-260314-CD34",
		SessionID:            1,
		ContactName:          "Dave",
		ContactEmail:         "dave@example.com",
		NumberOfParticipants: 1,
		Currency:             "GBP",
		Status:               constants.BookingStatusCancelled,
		PaymentStatus:        constants.BookingPaymentPending,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	if err := db.Create(&booking).Error; err != nil {
		t.Fatalf("create booking failed: %v", err)
	}

	if _, _, err := service.ApplyCoupon(money(t, "100"), "FIRST", CouponContext{ContactEmail: "dave@example.com"}); err != nil {
		t.Fatalf("cancelled bookings should not block first-time coupon, got %v", err)
	}
}

func TestApplyCouponFrozenNow(t *testing.T) {
	service, db := setupCouponServiceTest(t)
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC)
	createTestCoupon(t, db, &models.Coupon{
		Code:     "JUNE",
		Type:     constants.CouponTypeFixed,
		Value:    money(t, "5"),
		StartsAt: &start,
		EndsAt:   &end,
		IsActive: true,
	})

	inside := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	if _, _, err := service.ApplyCoupon(money(t, "100"), "JUNE", CouponContext{Now: inside}); err != nil {
		t.Fatalf("coupon should be valid inside window, got %v", err)
	}
	after := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if _, _, err := service.ApplyCoupon(money(t, "100"), "JUNE", CouponContext{Now: after}); !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected ErrCouponExpired after window, got %v", err)
	}
}

func TestApplyCouponBlankCode(t *testing.T) {
	service, _ := setupCouponServiceTest(t)
	_, _, err := service.ApplyCoupon(money(t, "100"), "   ", CouponContext{})
	if !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("expected ErrCouponInvalid, got %v", err)
	}
}
