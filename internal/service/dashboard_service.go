package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coursebook/internal/cache"
	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/repository"
)

const (
	dashboardCacheTTL      = 45 * time.Second
	dashboardCustomMaxDays = 90
)

// DashboardService 后台仪表盘服务，聚合预订经营数据
type DashboardService struct {
	repo     repository.DashboardRepository
	currency string
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository, currency string) *DashboardService {
	return &DashboardService{repo: repo, currency: currency}
}

// DashboardQueryInput 仪表盘查询输入
type DashboardQueryInput struct {
	Range        string
	From         *time.Time
	To           *time.Time
	ForceRefresh bool
}

// DashboardOverviewResponse 仪表盘总览响应
type DashboardOverviewResponse struct {
	Range    string       `json:"range"`
	From     string       `json:"from"`
	To       string       `json:"to"`
	Currency string       `json:"currency"`
	KPI      DashboardKPI `json:"kpi"`
}

// DashboardKPI 仪表盘核心指标
type DashboardKPI struct {
	BookingsTotal      int64  `json:"bookings_total"`
	BookingsConfirmed  int64  `json:"bookings_confirmed"`
	BookingsPending    int64  `json:"bookings_pending"`
	BookingsCancelled  int64  `json:"bookings_cancelled"`
	BookingsCompleted  int64  `json:"bookings_completed"`
	Revenue            string `json:"revenue"`
	PaymentsTotal      int64  `json:"payments_total"`
	PaymentsSuccess    int64  `json:"payments_success"`
	PaymentsFailed     int64  `json:"payments_failed"`
	PaymentSuccessRate string `json:"payment_success_rate"`
	UpcomingSessions   int64  `json:"upcoming_sessions"`
	SeatsReserved      int64  `json:"seats_reserved"`
	SeatsCapacity      int64  `json:"seats_capacity"`
	SeatUtilization    string `json:"seat_utilization"`
}

// DashboardTrendResponse 仪表盘趋势响应
type DashboardTrendResponse struct {
	Range  string                `json:"range"`
	From   string                `json:"from"`
	To     string                `json:"to"`
	Points []DashboardTrendPoint `json:"points"`
}

// DashboardTrendPoint 趋势点
type DashboardTrendPoint struct {
	Date      string `json:"date"`
	Bookings  int64  `json:"bookings"`
	Confirmed int64  `json:"confirmed"`
	Revenue   string `json:"revenue"`
}

// DashboardRankingsResponse 课程排行榜响应
type DashboardRankingsResponse struct {
	Range      string                   `json:"range"`
	From       string                   `json:"from"`
	To         string                   `json:"to"`
	TopCourses []DashboardCourseRanking `json:"top_courses"`
}

// DashboardCourseRanking 课程类型排行项
type DashboardCourseRanking struct {
	CourseTypeID uint   `json:"course_type_id"`
	Name         string `json:"name"`
	Bookings     int64  `json:"bookings"`
	Participants int64  `json:"participants"`
	Revenue      string `json:"revenue"`
}

// GetOverview 获取仪表盘总览
func (s *DashboardService) GetOverview(ctx context.Context, input DashboardQueryInput) (*DashboardOverviewResponse, error) {
	from, to, rangeName, err := resolveDashboardRange(input)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:overview:%s:%d:%d", rangeName, from.Unix(), to.Unix())
	if !input.ForceRefresh {
		var cached DashboardOverviewResponse
		if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	byStatus, err := s.repo.CountBookingsByStatus(from, to)
	if err != nil {
		return nil, err
	}
	revenue, err := s.repo.SumPaidRevenue(from, to)
	if err != nil {
		return nil, err
	}
	paymentsTotal, paymentsSuccess, paymentsFailed, err := s.repo.CountPayments(from, to)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	upcoming, err := s.repo.CountUpcomingSessions(now)
	if err != nil {
		return nil, err
	}
	reserved, capacity, err := s.repo.SeatUtilization(now)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, count := range byStatus {
		total += count
	}
	response := &DashboardOverviewResponse{
		Range:    rangeName,
		From:     from.Format(time.RFC3339),
		To:       to.Format(time.RFC3339),
		Currency: s.currency,
		KPI: DashboardKPI{
			BookingsTotal:      total,
			BookingsConfirmed:  byStatus[constants.BookingStatusConfirmed],
			BookingsPending:    byStatus[constants.BookingStatusPending],
			BookingsCancelled:  byStatus[constants.BookingStatusCancelled],
			BookingsCompleted:  byStatus[constants.BookingStatusCompleted],
			Revenue:            fmt.Sprintf("%.2f", revenue),
			PaymentsTotal:      paymentsTotal,
			PaymentsSuccess:    paymentsSuccess,
			PaymentsFailed:     paymentsFailed,
			PaymentSuccessRate: formatRate(paymentsSuccess, paymentsTotal),
			UpcomingSessions:   upcoming,
			SeatsReserved:      reserved,
			SeatsCapacity:      capacity,
			SeatUtilization:    formatRate(reserved, capacity),
		},
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetTrend 获取每日预订趋势
func (s *DashboardService) GetTrend(ctx context.Context, input DashboardQueryInput) (*DashboardTrendResponse, error) {
	from, to, rangeName, err := resolveDashboardRange(input)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:trend:%s:%d:%d", rangeName, from.Unix(), to.Unix())
	if !input.ForceRefresh {
		var cached DashboardTrendResponse
		if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.repo.BookingTrend(from, to)
	if err != nil {
		return nil, err
	}
	points := make([]DashboardTrendPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, DashboardTrendPoint{
			Date:      row.Day,
			Bookings:  row.Bookings,
			Confirmed: row.Confirmed,
			Revenue:   fmt.Sprintf("%.2f", row.Revenue),
		})
	}
	response := &DashboardTrendResponse{
		Range:  rangeName,
		From:   from.Format(time.RFC3339),
		To:     to.Format(time.RFC3339),
		Points: points,
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetRankings 获取课程排行榜
func (s *DashboardService) GetRankings(ctx context.Context, input DashboardQueryInput, limit int) (*DashboardRankingsResponse, error) {
	from, to, rangeName, err := resolveDashboardRange(input)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:rankings:%s:%d:%d:%d", rangeName, from.Unix(), to.Unix(), limit)
	if !input.ForceRefresh {
		var cached DashboardRankingsResponse
		if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.repo.TopCourseTypes(from, to, limit)
	if err != nil {
		return nil, err
	}
	rankings := make([]DashboardCourseRanking, 0, len(rows))
	for _, row := range rows {
		rankings = append(rankings, DashboardCourseRanking{
			CourseTypeID: row.CourseTypeID,
			Name:         row.Name,
			Bookings:     row.Bookings,
			Participants: row.Participants,
			Revenue:      fmt.Sprintf("%.2f", row.Revenue),
		})
	}
	response := &DashboardRankingsResponse{
		Range:      rangeName,
		From:       from.Format(time.RFC3339),
		To:         to.Format(time.RFC3339),
		TopCourses: rankings,
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

func resolveDashboardRange(input DashboardQueryInput) (time.Time, time.Time, string, error) {
	now := time.Now()
	rangeName := strings.ToLower(strings.TrimSpace(input.Range))
	switch rangeName {
	case "", "today":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 0, 1), "today", nil
	case "7d":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -6)
		return start, now, "7d", nil
	case "30d":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -29)
		return start, now, "30d", nil
	case "custom":
		if input.From == nil || input.To == nil {
			return time.Time{}, time.Time{}, "", fmt.Errorf("custom range requires from and to")
		}
		from := *input.From
		to := *input.To
		if !to.After(from) {
			return time.Time{}, time.Time{}, "", fmt.Errorf("custom range end must be after start")
		}
		if to.Sub(from) > dashboardCustomMaxDays*24*time.Hour {
			return time.Time{}, time.Time{}, "", fmt.Errorf("custom range cannot exceed %d days", dashboardCustomMaxDays)
		}
		return from, to, "custom", nil
	default:
		return time.Time{}, time.Time{}, "", fmt.Errorf("unsupported range %q", rangeName)
	}
}

func formatRate(part, total int64) string {
	if total <= 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(part)/float64(total)*100)
}
