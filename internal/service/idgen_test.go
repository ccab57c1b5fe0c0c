package service

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestGenerateConfirmationCodeFormat(t *testing.T) {
	date := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^[A-Z]{3}-\d{6}-[A-Z0-9]{4}$`)

	code := generateConfirmationCode("EFA", date)
	if !pattern.MatchString(code) {
		t.Fatalf("unexpected confirmation code format: %s", code)
	}
	if code[:10] != "EFA-260314" {
		t.Fatalf("unexpected confirmation code prefix: %s", code)
	}
}

func TestGenerateConfirmationCodePrefixNormalization(t *testing.T) {
	date := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^[A-Z]{3}-\d{6}-[A-Z0-9]{4}$`)

	cases := map[string]string{
		"":      "XXX",
		"f":     "FXX",
		" fa ":  "FAX",
		"paedi": "PAE",
	}
	for input, want := range cases {
		code := generateConfirmationCode(input, date)
		if !pattern.MatchString(code) {
			t.Fatalf("prefix %q produced invalid code: %s", input, code)
		}
		if code[:3] != want {
			t.Fatalf("prefix %q: want %s, got %s", input, want, code[:3])
		}
	}
}

func TestGenerateOrderNoFormat(t *testing.T) {
	date := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^ORD-\d{6}-\d{4}$`)

	orderNo := generateOrderNo(date)
	if !pattern.MatchString(orderNo) {
		t.Fatalf("unexpected order no format: %s", orderNo)
	}
	if orderNo[:10] != "ORD-261102" {
		t.Fatalf("unexpected order no date part: %s", orderNo)
	}
}

func TestFormatInvoiceNo(t *testing.T) {
	date := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^INV-\d{6}-\d{5}$`)

	invoiceNo := formatInvoiceNo(date, 42)
	if !pattern.MatchString(invoiceNo) {
		t.Fatalf("unexpected invoice no format: %s", invoiceNo)
	}
	if invoiceNo != "INV-202607-00042" {
		t.Fatalf("unexpected invoice no: %s", invoiceNo)
	}
	if invoiceYearMonth(date) != "202607" {
		t.Fatalf("unexpected invoice year month: %s", invoiceYearMonth(date))
	}
}

func setupIdentifierTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:idgen_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Booking{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newCodeTestBooking(code string) *models.Booking {
	now := time.Now()
	return &models.Booking{
		ConfirmationCode:     code,
		SessionID:            1,
		ContactName:          "Test Customer",
		ContactEmail:         "customer@example.com",
		NumberOfParticipants: 1,
		Currency:             "GBP",
		Status:               constants.BookingStatusPending,
		PaymentStatus:        constants.BookingPaymentPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// 撞上已占用的确认码时必须重掷编号重试，而不是让整笔创建失败
func TestCreateWithUniqueCodeRetriesOnTakenCode(t *testing.T) {
	db := setupIdentifierTest(t)
	if err := db.Create(newCodeTestBooking("EFA-260314-AAAA")).Error; err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	codes := []string{"EFA-260314-AAAA", "EFA-260314-BBBB"}
	attempts := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		return createWithUniqueCode(tx,
			func() string {
				code := codes[attempts]
				attempts++
				return code
			},
			func(code string) error {
				return tx.Create(newCodeTestBooking(code)).Error
			},
		)
	})
	if err != nil {
		t.Fatalf("create with unique code failed: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}

	var count int64
	if err := db.Model(&models.Booking{}).Where("confirmation_code = ?", "EFA-260314-BBBB").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected retried booking persisted, got %d rows", count)
	}
}

func TestCreateWithUniqueCodeExhausted(t *testing.T) {
	db := setupIdentifierTest(t)
	if err := db.Create(newCodeTestBooking("EFA-260314-AAAA")).Error; err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	attempts := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		return createWithUniqueCode(tx,
			func() string {
				attempts++
				return "EFA-260314-AAAA"
			},
			func(code string) error {
				return tx.Create(newCodeTestBooking(code)).Error
			},
		)
	})
	if !errors.Is(err, ErrIdentifierExhausted) {
		t.Fatalf("expected ErrIdentifierExhausted, got %v", err)
	}
	if attempts != codeMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", codeMaxAttempts, attempts)
	}

	var count int64
	if err := db.Model(&models.Booking{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected only the seed booking, got %d rows", count)
	}
}

func TestCreateWithUniqueCodeStopsOnOtherErrors(t *testing.T) {
	db := setupIdentifierTest(t)
	createErr := errors.New("db down")
	attempts := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		return createWithUniqueCode(tx,
			func() string { return "EFA-260314-CCCC" },
			func(code string) error {
				attempts++
				return createErr
			},
		)
	})
	if !errors.Is(err, createErr) {
		t.Fatalf("expected create error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected single attempt, got %d", attempts)
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"translated":          {gorm.ErrDuplicatedKey, true},
		"wrapped translated":  {fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		"sqlite message":      {errors.New("UNIQUE constraint failed: bookings.confirmation_code"), true},
		"postgres message":    {errors.New(`duplicate key value violates unique constraint "idx_bookings_confirmation_code"`), true},
		"unrelated":           {errors.New("connection refused"), false},
		"not null constraint": {errors.New("NOT NULL constraint failed: bookings.currency"), false},
	}
	for name, tc := range cases {
		if got := isDuplicateKeyError(tc.err); got != tc.want {
			t.Fatalf("%s: want %v, got %v", name, tc.want, got)
		}
	}
}
