package service

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/gateway"
	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupBookingServiceTest(t *testing.T) (*BookingService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:booking_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.CourseType{},
		&models.Venue{},
		&models.ScheduledSession{},
		&models.Booking{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Refund{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.InvoiceSequence{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	bookingRepo := repository.NewBookingRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	invoiceSeqRepo := repository.NewInvoiceSequenceRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	usageRepo := repository.NewCouponUsageRepository(db)

	couponService := NewCouponService(couponRepo, usageRepo, bookingRepo)
	providers := map[string]gateway.Provider{
		constants.PaymentProviderManual: gateway.NewManualProvider(),
	}
	paymentService := NewPaymentService(paymentRepo, refundRepo, orderRepo, bookingRepo, invoiceSeqRepo, providers, nil)

	policy := PolicyFromConfig(nil)
	service := NewBookingService(
		bookingRepo, sessionRepo, orderRepo, paymentRepo, couponRepo, usageRepo,
		couponService, paymentService, nil, policy, "GBP", constants.PaymentProviderManual,
	)
	return service, db
}

func createBookableSession(t *testing.T, db *gorm.DB, startAt time.Time, maxCapacity int, groupRate string) *models.ScheduledSession {
	t.Helper()
	now := time.Now()
	courseType := models.CourseType{
		Code:          "EFA",
		Name:          "Emergency First Aid at Work",
		DurationHours: 6,
		BasePrice:     money(t, "85"),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.Where("code = ?", courseType.Code).FirstOrCreate(&courseType).Error; err != nil {
		t.Fatalf("create course type failed: %v", err)
	}
	venue := models.Venue{
		Name:      fmt.Sprintf("Test Venue %d", now.UnixNano()),
		City:      "Manchester",
		Capacity:  maxCapacity,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&venue).Error; err != nil {
		t.Fatalf("create venue failed: %v", err)
	}
	session := &models.ScheduledSession{
		CourseTypeID:      courseType.ID,
		VenueID:           venue.ID,
		StartAt:           startAt,
		EndAt:             startAt.Add(6 * time.Hour),
		MaxCapacity:       maxCapacity,
		PricePerSeat:      money(t, "85"),
		GroupDiscountRate: money(t, groupRate),
		MaxPerBooking:     6,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	return session
}

func TestComputeGroupPrice(t *testing.T) {
	rate := money(t, "10")

	original, discount := computeGroupPrice(money(t, "85"), 2, rate, 5)
	if !original.Decimal.Equal(decimal.NewFromInt(170)) {
		t.Fatalf("expected original 170, got %s", original.String())
	}
	if !discount.Decimal.IsZero() {
		t.Fatalf("expected no group discount below threshold, got %s", discount.String())
	}

	original, discount = computeGroupPrice(money(t, "85"), 5, rate, 5)
	if !original.Decimal.Equal(decimal.NewFromInt(425)) {
		t.Fatalf("expected original 425, got %s", original.String())
	}
	if !discount.Decimal.Equal(decimal.RequireFromString("42.5")) {
		t.Fatalf("expected group discount 42.5, got %s", discount.String())
	}

	_, discount = computeGroupPrice(money(t, "85"), 8, money(t, "0"), 5)
	if !discount.Decimal.IsZero() {
		t.Fatalf("zero rate should give no discount, got %s", discount.String())
	}
}

func TestCreateBooking(t *testing.T) {
	service, db := setupBookingServiceTest(t)
	session := createBookableSession(t, db, time.Now().Add(72*time.Hour), 12, "10")

	booking, err := service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		ContactName:          "Alice Smith",
		ContactEmail:         "Alice@Example.com",
		NumberOfParticipants: 2,
	})
	if err != nil {
		t.Fatalf("create booking failed: %v", err)
	}

	codePattern := regexp.MustCompile(`^EFA-\d{6}-[A-Z0-9]{4}$`)
	if !codePattern.MatchString(booking.ConfirmationCode) {
		t.Fatalf("unexpected confirmation code: %s", booking.ConfirmationCode)
	}
	if booking.ContactEmail != "alice@example.com" {
		t.Fatalf("contact email should be lowercased, got %s", booking.ContactEmail)
	}
	if booking.Status != constants.BookingStatusPending {
		t.Fatalf("expected pending booking, got %s", booking.Status)
	}
	if !booking.TotalAmount.Decimal.Equal(decimal.NewFromInt(170)) {
		t.Fatalf("expected total 170, got %s", booking.TotalAmount.String())
	}

	var fresh models.ScheduledSession
	if err := db.First(&fresh, session.ID).Error; err != nil {
		t.Fatalf("load session failed: %v", err)
	}
	if fresh.ReservedCapacity != 2 {
		t.Fatalf("expected 2 seats reserved, got %d", fresh.ReservedCapacity)
	}

	var order models.Order
	if err := db.Where("booking_id = ?", booking.ID).First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	orderNoPattern := regexp.MustCompile(`^ORD-\d{6}-\d{4}$`)
	if !orderNoPattern.MatchString(order.OrderNo) {
		t.Fatalf("unexpected order no: %s", order.OrderNo)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if order.ExpiresAt == nil {
		t.Fatal("order should carry a payment deadline")
	}

	var payment models.Payment
	if err := db.Where("order_id = ?", order.ID).First(&payment).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if payment.Status != constants.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", payment.Status)
	}
	if payment.Provider != constants.PaymentProviderManual {
		t.Fatalf("unexpected payment provider: %s", payment.Provider)
	}
	if !payment.Amount.Decimal.Equal(booking.TotalAmount.Decimal) {
		t.Fatalf("payment amount %s should match booking total %s", payment.Amount.String(), booking.TotalAmount.String())
	}
}

func TestCreateBookingAppliesGroupDiscount(t *testing.T) {
	service, db := setupBookingServiceTest(t)
	session := createBookableSession(t, db, time.Now().Add(72*time.Hour), 12, "10")

	booking, err := service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		ContactName:          "Bob Jones",
		ContactEmail:         "bob@example.com",
		NumberOfParticipants: 5,
	})
	if err != nil {
		t.Fatalf("create booking failed: %v", err)
	}
	if !booking.OriginalAmount.Decimal.Equal(decimal.NewFromInt(425)) {
		t.Fatalf("expected original 425, got %s", booking.OriginalAmount.String())
	}
	if !booking.GroupDiscountAmount.Decimal.Equal(decimal.RequireFromString("42.5")) {
		t.Fatalf("expected group discount 42.5, got %s", booking.GroupDiscountAmount.String())
	}
	if !booking.TotalAmount.Decimal.Equal(decimal.RequireFromString("382.5")) {
		t.Fatalf("expected total 382.5, got %s", booking.TotalAmount.String())
	}
}

func TestCreateBookingWithCoupon(t *testing.T) {
	service, db := setupBookingServiceTest(t)
	session := createBookableSession(t, db, time.Now().Add(72*time.Hour), 12, "0")
	coupon := createTestCoupon(t, db, &models.Coupon{
		Code:       "SAVE10",
		Type:       constants.CouponTypeFixed,
		Value:      money(t, "10"),
		MinAmount:  money(t, "100"),
		UsageLimit: 5,
		IsActive:   true,
	})

	booking, err := service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		ContactName:          "Carol White",
		ContactEmail:         "carol@example.com",
		NumberOfParticipants: 2,
		CouponCode:           "save10",
	})
	if err != nil {
		t.Fatalf("create booking failed: %v", err)
	}
	if !booking.CouponDiscountAmount.Decimal.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected coupon discount 10, got %s", booking.CouponDiscountAmount.String())
	}
	if !booking.TotalAmount.Decimal.Equal(decimal.NewFromInt(160)) {
		t.Fatalf("expected total 160, got %s", booking.TotalAmount.String())
	}
	if booking.CouponID == nil || *booking.CouponID != coupon.ID {
		t.Fatalf("booking should reference the coupon, got %v", booking.CouponID)
	}

	var fresh models.Coupon
	if err := db.First(&fresh, coupon.ID).Error; err != nil {
		t.Fatalf("load coupon failed: %v", err)
	}
	if fresh.UsedCount != 1 {
		t.Fatalf("expected used count 1, got %d", fresh.UsedCount)
	}
	var usageCount int64
	if err := db.Model(&models.CouponUsage{}).Where("booking_id = ?", booking.ID).Count(&usageCount).Error; err != nil {
		t.Fatalf("count usages failed: %v", err)
	}
	if usageCount != 1 {
		t.Fatalf("expected 1 usage row, got %d", usageCount)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	service, db := setupBookingServiceTest(t)
	session := createBookableSession(t, db, time.Now().Add(72*time.Hour), 12, "0")

	_, err := service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		NumberOfParticipants: 1,
	})
	if !errors.Is(err, ErrContactEmailRequired) {
		t.Fatalf("expected ErrContactEmailRequired, got %v", err)
	}

	_, err = service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		ContactEmail:         "x@example.com",
		NumberOfParticipants: 0,
	})
	if !errors.Is(err, ErrInvalidParticipants) {
		t.Fatalf("expected ErrInvalidParticipants, got %v", err)
	}

	_, err = service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		ContactEmail:         "x@example.com",
		NumberOfParticipants: 7,
	})
	if !errors.Is(err, ErrParticipantsExceeded) {
		t.Fatalf("expected ErrParticipantsExceeded, got %v", err)
	}

	_, err = service.CreateBooking(CreateBookingInput{
		SessionID:            9999,
		ContactEmail:         "x@example.com",
		NumberOfParticipants: 1,
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCreateBookingInsufficientCapacity(t *testing.T) {
	service, db := setupBookingServiceTest(t)
	session := createBookableSession(t, db, time.Now().Add(72*time.Hour), 6, "0")

	if _, err := service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		ContactName:          "Group A",
		ContactEmail:         "a@example.com",
		NumberOfParticipants: 4,
	}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	_, err := service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		ContactName:          "Group B",
		ContactEmail:         "b@example.com",
		NumberOfParticipants: 3,
	})
	if !errors.Is(err, ErrInsufficientCapacity) {
		t.Fatalf("expected ErrInsufficientCapacity, got %v", err)
	}
}

func TestCreateBookingSessionClosed(t *testing.T) {
	service, db := setupBookingServiceTest(t)
	session := createBookableSession(t, db, time.Now().Add(72*time.Hour), 12, "0")
	if err := db.Model(&models.ScheduledSession{}).Where("id = ?", session.ID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate session failed: %v", err)
	}

	_, err := service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		ContactEmail:         "x@example.com",
		NumberOfParticipants: 1,
	})
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestCancelBookingReleasesSeatsAndCoupon(t *testing.T) {
	service, db := setupBookingServiceTest(t)
	session := createBookableSession(t, db, time.Now().Add(96*time.Hour), 12, "0")
	coupon := createTestCoupon(t, db, &models.Coupon{
		Code:     "SAVE5",
		Type:     constants.CouponTypeFixed,
		Value:    money(t, "5"),
		IsActive: true,
	})

	booking, err := service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		ContactName:          "Dana Green",
		ContactEmail:         "dana@example.com",
		NumberOfParticipants: 3,
		CouponCode:           "SAVE5",
	})
	if err != nil {
		t.Fatalf("create booking failed: %v", err)
	}

	cancelled, err := service.CancelBooking(booking.ID, "plans changed", constants.ActorRoleCustomer, 0)
	if err != nil {
		t.Fatalf("cancel booking failed: %v", err)
	}
	if cancelled.Status != constants.BookingStatusCancelled {
		t.Fatalf("expected cancelled booking, got %s", cancelled.Status)
	}
	if cancelled.CancelReason != "plans changed" {
		t.Fatalf("unexpected cancel reason: %s", cancelled.CancelReason)
	}
	if cancelled.CancelledBy != constants.ActorRoleCustomer {
		t.Fatalf("unexpected cancelled_by: %s", cancelled.CancelledBy)
	}

	var fresh models.ScheduledSession
	if err := db.First(&fresh, session.ID).Error; err != nil {
		t.Fatalf("load session failed: %v", err)
	}
	if fresh.ReservedCapacity != 0 {
		t.Fatalf("expected seats released, reserved=%d", fresh.ReservedCapacity)
	}

	var freshCoupon models.Coupon
	if err := db.First(&freshCoupon, coupon.ID).Error; err != nil {
		t.Fatalf("load coupon failed: %v", err)
	}
	if freshCoupon.UsedCount != 0 {
		t.Fatalf("expected coupon usage rolled back, used=%d", freshCoupon.UsedCount)
	}

	var order models.Order
	if err := db.Where("booking_id = ?", booking.ID).First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.Status != constants.OrderStatusCanceled {
		t.Fatalf("expected canceled order, got %s", order.Status)
	}

	// 终态后再取消必须拒绝
	if _, err := service.CancelBooking(booking.ID, "", constants.ActorRoleCustomer, 0); !errors.Is(err, ErrBookingStateInvalid) {
		t.Fatalf("expected ErrBookingStateInvalid on double cancel, got %v", err)
	}
}

func TestCancelBookingWindowEnforcedForCustomers(t *testing.T) {
	service, db := setupBookingServiceTest(t)
	// 开课前 24 小时，已在 48 小时取消窗口之内
	session := createBookableSession(t, db, time.Now().Add(24*time.Hour), 12, "0")

	booking, err := service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		ContactName:          "Evan Black",
		ContactEmail:         "evan@example.com",
		NumberOfParticipants: 2,
	})
	if err != nil {
		t.Fatalf("create booking failed: %v", err)
	}

	_, err = service.CancelBooking(booking.ID, "", constants.ActorRoleCustomer, 0)
	if !errors.Is(err, ErrCancellationWindow) {
		t.Fatalf("expected ErrCancellationWindow, got %v", err)
	}

	// 管理端取消不受窗口限制
	cancelled, err := service.CancelBooking(booking.ID, "course rescheduled", constants.ActorRoleAdmin, 0)
	if err != nil {
		t.Fatalf("admin cancel failed: %v", err)
	}
	if cancelled.Status != constants.BookingStatusCancelled {
		t.Fatalf("expected cancelled booking, got %s", cancelled.Status)
	}
}

func TestCancelBookingOwnership(t *testing.T) {
	service, db := setupBookingServiceTest(t)
	session := createBookableSession(t, db, time.Now().Add(96*time.Hour), 12, "0")

	booking, err := service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		UserID:               5,
		ContactName:          "Fay Brown",
		ContactEmail:         "fay@example.com",
		NumberOfParticipants: 1,
	})
	if err != nil {
		t.Fatalf("create booking failed: %v", err)
	}

	if _, err := service.CancelBooking(booking.ID, "", constants.ActorRoleCustomer, 6); !errors.Is(err, ErrNotBookingOwner) {
		t.Fatalf("expected ErrNotBookingOwner, got %v", err)
	}
	if _, err := service.CancelBooking(booking.ID, "", constants.ActorRoleCustomer, 5); err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}
}

func TestCompleteSessionBookings(t *testing.T) {
	service, db := setupBookingServiceTest(t)
	session := createBookableSession(t, db, time.Now().Add(96*time.Hour), 12, "0")

	booking, err := service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		ContactName:          "Gus Reed",
		ContactEmail:         "gus@example.com",
		NumberOfParticipants: 1,
	})
	if err != nil {
		t.Fatalf("create booking failed: %v", err)
	}
	if err := db.Model(&models.Booking{}).Where("id = ?", booking.ID).
		Update("status", constants.BookingStatusConfirmed).Error; err != nil {
		t.Fatalf("confirm booking failed: %v", err)
	}

	completed, err := service.CompleteSessionBookings(session.ID, time.Now())
	if err != nil {
		t.Fatalf("complete session bookings failed: %v", err)
	}
	if completed != 1 {
		t.Fatalf("expected 1 completed booking, got %d", completed)
	}

	var fresh models.Booking
	if err := db.First(&fresh, booking.ID).Error; err != nil {
		t.Fatalf("load booking failed: %v", err)
	}
	if fresh.Status != constants.BookingStatusCompleted {
		t.Fatalf("expected completed booking, got %s", fresh.Status)
	}
	if fresh.CompletedAt == nil {
		t.Fatal("completed_at should be set")
	}
}

func TestQuoteDoesNotReserveSeats(t *testing.T) {
	service, db := setupBookingServiceTest(t)
	session := createBookableSession(t, db, time.Now().Add(72*time.Hour), 12, "10")

	quote, err := service.Quote(session, CreateBookingInput{NumberOfParticipants: 5})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !quote.TotalAmount.Decimal.Equal(decimal.RequireFromString("382.5")) {
		t.Fatalf("expected quote total 382.5, got %s", quote.TotalAmount.String())
	}

	var fresh models.ScheduledSession
	if err := db.First(&fresh, session.ID).Error; err != nil {
		t.Fatalf("load session failed: %v", err)
	}
	if fresh.ReservedCapacity != 0 {
		t.Fatalf("quote must not reserve seats, reserved=%d", fresh.ReservedCapacity)
	}
}

func TestCancelBookingConcurrentReleasesSeatsOnce(t *testing.T) {
	service, db := setupBookingServiceTest(t)
	session := createBookableSession(t, db, time.Now().Add(96*time.Hour), 12, "0")

	target, err := service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		ContactName:          "Ana Novak",
		ContactEmail:         "ana@example.com",
		NumberOfParticipants: 3,
	})
	if err != nil {
		t.Fatalf("create booking failed: %v", err)
	}
	// 同排期下的另一笔有效预订，用它的席位检验取消是否只释放了一次
	if _, err := service.CreateBooking(CreateBookingInput{
		SessionID:            session.ID,
		ContactName:          "Ben Okoro",
		ContactEmail:         "ben@example.com",
		NumberOfParticipants: 3,
	}); err != nil {
		t.Fatalf("create second booking failed: %v", err)
	}

	start := make(chan struct{})
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := service.CancelBooking(target.ID, "double cancel race", constants.ActorRoleCustomer, 0)
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrBookingStateInvalid):
			rejected++
		default:
			t.Fatalf("unexpected cancel error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("expected exactly one winner, got succeeded=%d rejected=%d", succeeded, rejected)
	}

	var fresh models.ScheduledSession
	if err := db.First(&fresh, session.ID).Error; err != nil {
		t.Fatalf("load session failed: %v", err)
	}
	if fresh.ReservedCapacity != 3 {
		t.Fatalf("expected the live booking's 3 seats intact, reserved=%d", fresh.ReservedCapacity)
	}
}
