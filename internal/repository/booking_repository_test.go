package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupBookingRepositoryTest(t *testing.T) (*GormBookingRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:booking_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Booking{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewBookingRepository(db), db
}

func createStatusTestBooking(t *testing.T, db *gorm.DB, status string) *models.Booking {
	t.Helper()
	now := time.Now()
	booking := &models.Booking{
		SessionID:            1,
		ConfirmationCode:     fmt.Sprintf("EFA-260101-%04d", now.UnixNano()%10000),
		ContactName:          "Status Test",
		ContactEmail:         "status@example.com",
		NumberOfParticipants: 2,
		Status:               status,
		PaymentStatus:        constants.BookingPaymentPending,
		Currency:             "GBP",
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := db.Create(booking).Error; err != nil {
		t.Fatalf("create booking failed: %v", err)
	}
	return booking
}

func bookingStatusOf(t *testing.T, db *gorm.DB, id uint) string {
	t.Helper()
	var booking models.Booking
	if err := db.First(&booking, id).Error; err != nil {
		t.Fatalf("load booking failed: %v", err)
	}
	return booking.Status
}

func TestUpdateStatusIfFlipsOnlyMatchingStatus(t *testing.T) {
	repo, db := setupBookingRepositoryTest(t)
	booking := createStatusTestBooking(t, db, constants.BookingStatusPending)

	cancellable := []string{constants.BookingStatusPending, constants.BookingStatusConfirmed}

	affected, err := repo.UpdateStatusIf(booking.ID, cancellable, constants.BookingStatusCancelled, nil)
	if err != nil {
		t.Fatalf("conditional update failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row affected, got %d", affected)
	}
	if got := bookingStatusOf(t, db, booking.ID); got != constants.BookingStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", got)
	}

	// 已经是终态，再次流转必须拿到 0 行
	affected, err = repo.UpdateStatusIf(booking.ID, cancellable, constants.BookingStatusCancelled, nil)
	if err != nil {
		t.Fatalf("conditional update failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected second flip to affect 0 rows, got %d", affected)
	}
}

func TestUpdateStatusIfIgnoresNonMatchingSource(t *testing.T) {
	repo, db := setupBookingRepositoryTest(t)
	booking := createStatusTestBooking(t, db, constants.BookingStatusPending)

	affected, err := repo.UpdateStatusIf(booking.ID,
		[]string{constants.BookingStatusConfirmed},
		constants.BookingStatusCompleted, nil)
	if err != nil {
		t.Fatalf("conditional update failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("pending booking must not complete, got %d rows", affected)
	}
	if got := bookingStatusOf(t, db, booking.ID); got != constants.BookingStatusPending {
		t.Fatalf("status changed unexpectedly: %s", got)
	}
}

func TestUpdateStatusIfRejectsInvalidParams(t *testing.T) {
	repo, _ := setupBookingRepositoryTest(t)
	if _, err := repo.UpdateStatusIf(0, []string{constants.BookingStatusPending}, constants.BookingStatusCancelled, nil); err == nil {
		t.Fatal("expected error for zero booking id")
	}
	if _, err := repo.UpdateStatusIf(1, nil, constants.BookingStatusCancelled, nil); err == nil {
		t.Fatal("expected error for empty source status set")
	}
}
