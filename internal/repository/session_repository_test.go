package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/coursebook/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupSessionRepositoryTest(t *testing.T) (*GormSessionRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:session_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.ScheduledSession{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewSessionRepository(db), db
}

func createCapacityTestSession(t *testing.T, db *gorm.DB, maxCapacity, reserved int, startAt time.Time, active bool) *models.ScheduledSession {
	t.Helper()
	now := time.Now()
	session := &models.ScheduledSession{
		CourseTypeID:     1,
		VenueID:          1,
		StartAt:          startAt,
		EndAt:            startAt.Add(6 * time.Hour),
		MaxCapacity:      maxCapacity,
		ReservedCapacity: reserved,
		PricePerSeat:     models.NewMoneyFromDecimal(decimal.NewFromInt(85)),
		IsActive:         active,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	return session
}

func reservedCapacityOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var session models.ScheduledSession
	if err := db.First(&session, id).Error; err != nil {
		t.Fatalf("load session failed: %v", err)
	}
	return session.ReservedCapacity
}

func TestReserveSeats(t *testing.T) {
	repo, db := setupSessionRepositoryTest(t)
	session := createCapacityTestSession(t, db, 12, 0, time.Now().Add(72*time.Hour), true)

	affected, err := repo.ReserveSeats(session.ID, 10)
	if err != nil {
		t.Fatalf("reserve seats failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row affected, got %d", affected)
	}
	if got := reservedCapacityOf(t, db, session.ID); got != 10 {
		t.Fatalf("expected reserved capacity 10, got %d", got)
	}

	// 剩余 2 席，占 3 席必须整体失败，占用量不变
	affected, err = repo.ReserveSeats(session.ID, 3)
	if err != nil {
		t.Fatalf("reserve seats failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected over-capacity reserve to affect 0 rows, got %d", affected)
	}
	if got := reservedCapacityOf(t, db, session.ID); got != 10 {
		t.Fatalf("reserved capacity changed on failed reserve: %d", got)
	}

	// 刚好占满允许
	affected, err = repo.ReserveSeats(session.ID, 2)
	if err != nil {
		t.Fatalf("reserve seats failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected exact-fit reserve to succeed, got %d rows", affected)
	}
	if got := reservedCapacityOf(t, db, session.ID); got != 12 {
		t.Fatalf("expected reserved capacity 12, got %d", got)
	}
}

func TestReserveSeatsRejectsClosedSessions(t *testing.T) {
	repo, db := setupSessionRepositoryTest(t)

	inactive := createCapacityTestSession(t, db, 12, 0, time.Now().Add(72*time.Hour), false)
	affected, err := repo.ReserveSeats(inactive.ID, 1)
	if err != nil {
		t.Fatalf("reserve seats failed: %v", err)
	}
	if affected != 0 {
		t.Fatal("inactive session should not accept reservations")
	}

	started := createCapacityTestSession(t, db, 12, 0, time.Now().Add(-time.Hour), true)
	affected, err = repo.ReserveSeats(started.ID, 1)
	if err != nil {
		t.Fatalf("reserve seats failed: %v", err)
	}
	if affected != 0 {
		t.Fatal("started session should not accept reservations")
	}
}

func TestReserveSeatsConcurrentNeverOversells(t *testing.T) {
	repo, db := setupSessionRepositoryTest(t)
	// 已占 10/12，两笔并发各要 2 席，只允许一笔成功
	session := createCapacityTestSession(t, db, 12, 10, time.Now().Add(72*time.Hour), true)

	start := make(chan struct{})
	results := make(chan int64, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			affected, err := repo.ReserveSeats(session.ID, 2)
			if err != nil {
				t.Errorf("reserve seats failed: %v", err)
				results <- 0
				return
			}
			results <- affected
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var won int64
	for affected := range results {
		won += affected
	}
	if won != 1 {
		t.Fatalf("expected exactly one winning reservation, got %d", won)
	}
	if got := reservedCapacityOf(t, db, session.ID); got != 12 {
		t.Fatalf("expected reserved capacity 12, got %d", got)
	}
}

func TestReserveSeatsInvalidParams(t *testing.T) {
	repo, _ := setupSessionRepositoryTest(t)
	if _, err := repo.ReserveSeats(0, 1); err == nil {
		t.Fatal("expected error for zero session id")
	}
	if _, err := repo.ReserveSeats(1, 0); err == nil {
		t.Fatal("expected error for zero count")
	}
	if _, err := repo.ReserveSeats(1, -2); err == nil {
		t.Fatal("expected error for negative count")
	}
}

func TestReleaseSeats(t *testing.T) {
	repo, db := setupSessionRepositoryTest(t)
	session := createCapacityTestSession(t, db, 12, 5, time.Now().Add(72*time.Hour), true)

	affected, err := repo.ReleaseSeats(session.ID, 3)
	if err != nil {
		t.Fatalf("release seats failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row affected, got %d", affected)
	}
	if got := reservedCapacityOf(t, db, session.ID); got != 2 {
		t.Fatalf("expected reserved capacity 2, got %d", got)
	}

	// 占用不足时不生效，不会出现负数
	affected, err = repo.ReleaseSeats(session.ID, 5)
	if err != nil {
		t.Fatalf("release seats failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected over-release to affect 0 rows, got %d", affected)
	}
	if got := reservedCapacityOf(t, db, session.ID); got != 2 {
		t.Fatalf("reserved capacity changed on failed release: %d", got)
	}
}
