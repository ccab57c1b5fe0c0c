package repository

import (
	"time"

	"github.com/coursebook/internal/constants"

	"gorm.io/gorm"
)

// DashboardRepository 后台仪表盘聚合查询
type DashboardRepository interface {
	CountBookingsByStatus(from, to time.Time) (map[string]int64, error)
	SumPaidRevenue(from, to time.Time) (float64, error)
	CountPayments(from, to time.Time) (total, succeeded, failed int64, err error)
	CountUpcomingSessions(now time.Time) (int64, error)
	SeatUtilization(now time.Time) (reserved, capacity int64, err error)
	BookingTrend(from, to time.Time) ([]BookingTrendRow, error)
	TopCourseTypes(from, to time.Time, limit int) ([]CourseTypeRankingRow, error)
}

// BookingTrendRow 每日预订趋势行
type BookingTrendRow struct {
	Day       string  `gorm:"column:day"`
	Bookings  int64   `gorm:"column:bookings"`
	Confirmed int64   `gorm:"column:confirmed"`
	Revenue   float64 `gorm:"column:revenue"`
}

// CourseTypeRankingRow 课程类型排行行
type CourseTypeRankingRow struct {
	CourseTypeID uint    `gorm:"column:course_type_id"`
	Name         string  `gorm:"column:name"`
	Bookings     int64   `gorm:"column:bookings"`
	Participants int64   `gorm:"column:participants"`
	Revenue      float64 `gorm:"column:revenue"`
}

// GormDashboardRepository GORM 实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// CountBookingsByStatus 统计时间段内各状态预订数
func (r *GormDashboardRepository) CountBookingsByStatus(from, to time.Time) (map[string]int64, error) {
	type row struct {
		Status string `gorm:"column:status"`
		Total  int64  `gorm:"column:total"`
	}
	var rows []row
	err := r.db.Table("bookings").
		Select("status, COUNT(*) AS total").
		Where("created_at >= ? AND created_at < ? AND deleted_at IS NULL", from, to).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, item := range rows {
		result[item.Status] = item.Total
	}
	return result, nil
}

// SumPaidRevenue 统计时间段内已支付预订总额
func (r *GormDashboardRepository) SumPaidRevenue(from, to time.Time) (float64, error) {
	var total float64
	err := r.db.Table("payments").
		Select("COALESCE(SUM(amount - refunded_amount), 0)").
		Where("status IN ? AND created_at >= ? AND created_at < ? AND deleted_at IS NULL",
			[]string{constants.PaymentStatusSucceeded, constants.PaymentStatusPartiallyRefunded}, from, to).
		Scan(&total).Error
	return total, err
}

// CountPayments 统计时间段内支付笔数
func (r *GormDashboardRepository) CountPayments(from, to time.Time) (total, succeeded, failed int64, err error) {
	base := r.db.Table("payments").Where("created_at >= ? AND created_at < ? AND deleted_at IS NULL", from, to)
	if err = base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return
	}
	if err = base.Session(&gorm.Session{}).
		Where("status IN ?", []string{constants.PaymentStatusSucceeded, constants.PaymentStatusRefunded, constants.PaymentStatusPartiallyRefunded}).
		Count(&succeeded).Error; err != nil {
		return
	}
	err = base.Session(&gorm.Session{}).Where("status = ?", constants.PaymentStatusFailed).Count(&failed).Error
	return
}

// CountUpcomingSessions 统计未来可预约排期数
func (r *GormDashboardRepository) CountUpcomingSessions(now time.Time) (int64, error) {
	var total int64
	err := r.db.Table("scheduled_sessions").
		Where("is_active = ? AND start_at > ? AND deleted_at IS NULL", true, now).
		Count(&total).Error
	return total, err
}

// SeatUtilization 统计未来排期的已占与总容量
func (r *GormDashboardRepository) SeatUtilization(now time.Time) (reserved, capacity int64, err error) {
	type row struct {
		Reserved int64 `gorm:"column:reserved"`
		Capacity int64 `gorm:"column:capacity"`
	}
	var item row
	err = r.db.Table("scheduled_sessions").
		Select("COALESCE(SUM(reserved_capacity), 0) AS reserved, COALESCE(SUM(max_capacity), 0) AS capacity").
		Where("is_active = ? AND start_at > ? AND deleted_at IS NULL", true, now).
		Scan(&item).Error
	return item.Reserved, item.Capacity, err
}

// BookingTrend 按天统计预订趋势
func (r *GormDashboardRepository) BookingTrend(from, to time.Time) ([]BookingTrendRow, error) {
	var rows []BookingTrendRow
	err := r.db.Table("bookings").
		Select("DATE(created_at) AS day, "+
			"COUNT(*) AS bookings, "+
			"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS confirmed, "+
			"COALESCE(SUM(CASE WHEN payment_status = ? THEN total_amount ELSE 0 END), 0) AS revenue",
			constants.BookingStatusConfirmed, constants.PaymentStatusSucceeded).
		Where("created_at >= ? AND created_at < ? AND deleted_at IS NULL", from, to).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

// TopCourseTypes 统计时间段内预订量最高的课程类型
func (r *GormDashboardRepository) TopCourseTypes(from, to time.Time, limit int) ([]CourseTypeRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []CourseTypeRankingRow
	err := r.db.Table("bookings").
		Select("scheduled_sessions.course_type_id AS course_type_id, "+
			"course_types.name AS name, "+
			"COUNT(bookings.id) AS bookings, "+
			"COALESCE(SUM(bookings.number_of_participants), 0) AS participants, "+
			"COALESCE(SUM(bookings.total_amount), 0) AS revenue").
		Joins("JOIN scheduled_sessions ON scheduled_sessions.id = bookings.session_id").
		Joins("JOIN course_types ON course_types.id = scheduled_sessions.course_type_id").
		Where("bookings.created_at >= ? AND bookings.created_at < ? AND bookings.deleted_at IS NULL", from, to).
		Where("bookings.status <> ?", constants.BookingStatusCancelled).
		Group("scheduled_sessions.course_type_id, course_types.name").
		Order("bookings DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
