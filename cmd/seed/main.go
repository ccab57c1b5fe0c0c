package main

import (
	"time"

	"github.com/coursebook/internal/config"
	"github.com/coursebook/internal/logger"
	"github.com/coursebook/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 课程类型
	courseTypes := []models.CourseType{
		{
			Code:          "EFA",
			Name:          "Emergency First Aid at Work",
			Description:   "One-day emergency first aid course covering CPR, choking, bleeding and shock.",
			DurationHours: 6,
			BasePrice:     models.NewMoneyFromDecimal(decimal.NewFromInt(85)),
			Tags:          models.StringArray{"first-aid", "workplace", "one-day"},
			IsActive:      true,
			SortOrder:     1,
		},
		{
			Code:          "FAW",
			Name:          "First Aid at Work",
			Description:   "Three-day comprehensive first aid course for designated workplace first aiders.",
			DurationHours: 18,
			BasePrice:     models.NewMoneyFromDecimal(decimal.NewFromInt(225)),
			Tags:          models.StringArray{"first-aid", "workplace", "three-day"},
			IsActive:      true,
			SortOrder:     2,
		},
		{
			Code:          "PFA",
			Name:          "Paediatric First Aid",
			Description:   "Two-day paediatric first aid course for childcare professionals, meets EYFS requirements.",
			DurationHours: 12,
			BasePrice:     models.NewMoneyFromDecimal(decimal.NewFromInt(140)),
			Tags:          models.StringArray{"first-aid", "paediatric", "two-day"},
			IsActive:      true,
			SortOrder:     3,
		},
	}

	for _, ct := range courseTypes {
		var existing models.CourseType
		if err := models.DB.Where("code = ?", ct.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&ct).Error; err != nil {
				stdLog.Printf("Failed to create course type %s: %v", ct.Code, err)
			} else {
				stdLog.Printf("Created course type: %s", ct.Code)
			}
		} else {
			stdLog.Printf("Course type already exists: %s", ct.Code)
		}
	}

	// 场地
	venues := []models.Venue{
		{Name: "Central Training Centre", Address: "12 King Street", City: "Manchester", Capacity: 12, IsActive: true},
		{Name: "Riverside Suite", Address: "3 Quay Road", City: "Leeds", Capacity: 16, IsActive: true},
		{Name: "Harbour View Rooms", Address: "45 Dock Lane", City: "Liverpool", Capacity: 10, IsActive: true},
	}

	for _, v := range venues {
		var existing models.Venue
		if err := models.DB.Where("name = ?", v.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&v).Error; err != nil {
				stdLog.Printf("Failed to create venue %s: %v", v.Name, err)
			} else {
				stdLog.Printf("Created venue: %s", v.Name)
			}
		} else {
			stdLog.Printf("Venue already exists: %s", v.Name)
		}
	}

	// 加载课程与场地，生成未来四周的排期
	var courseList []models.CourseType
	if err := models.DB.Order("sort_order").Find(&courseList).Error; err != nil {
		stdLog.Fatalf("Failed to load course types: %v", err)
	}
	var venueList []models.Venue
	if err := models.DB.Order("id").Find(&venueList).Error; err != nil {
		stdLog.Fatalf("Failed to load venues: %v", err)
	}
	if len(courseList) == 0 || len(venueList) == 0 {
		stdLog.Fatalf("No course types or venues available for session seeding")
	}

	nextMonday := time.Now().AddDate(0, 0, (8-int(time.Now().Weekday()))%7)
	start := time.Date(nextMonday.Year(), nextMonday.Month(), nextMonday.Day(), 9, 0, 0, 0, time.Local)

	created := 0
	for week := 0; week < 4; week++ {
		for i, ct := range courseList {
			venue := venueList[(week+i)%len(venueList)]
			startAt := start.AddDate(0, 0, week*7+i)
			days := (ct.DurationHours + 5) / 6
			endAt := startAt.AddDate(0, 0, days-1).Add(time.Duration(ct.DurationHours%6+6) * time.Hour)

			var existing models.ScheduledSession
			if err := models.DB.Where("course_type_id = ? AND venue_id = ? AND start_at = ?", ct.ID, venue.ID, startAt).First(&existing).Error; err == nil {
				continue
			}
			session := models.ScheduledSession{
				CourseTypeID:      ct.ID,
				VenueID:           venue.ID,
				StartAt:           startAt,
				EndAt:             endAt,
				MaxCapacity:       venue.Capacity,
				PricePerSeat:      ct.BasePrice,
				GroupDiscountRate: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
				MaxPerBooking:     6,
				IsActive:          true,
			}
			if err := models.DB.Create(&session).Error; err != nil {
				stdLog.Printf("Failed to create session %s@%s: %v", ct.Code, venue.Name, err)
				continue
			}
			created++
		}
	}
	stdLog.Printf("Created %d sessions", created)

	// 示例优惠券
	endOfYear := time.Date(time.Now().Year(), 12, 31, 23, 59, 59, 0, time.Local)
	coupons := []models.Coupon{
		{
			Code:      "SAVE10",
			Type:      "fixed",
			Value:     models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			MinAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
			EndsAt:    &endOfYear,
			IsActive:  true,
		},
		{
			Code:          "WELCOME15",
			Type:          "percentage",
			Value:         models.NewMoneyFromDecimal(decimal.NewFromInt(15)),
			MaxDiscount:   models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
			PerUserLimit:  1,
			FirstTimeOnly: true,
			EndsAt:        &endOfYear,
			IsActive:      true,
		},
	}
	for _, coupon := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&coupon).Error; err != nil {
				stdLog.Printf("Failed to create coupon %s: %v", coupon.Code, err)
			} else {
				stdLog.Printf("Created coupon: %s", coupon.Code)
			}
		} else {
			stdLog.Printf("Coupon already exists: %s", coupon.Code)
		}
	}

	stdLog.Printf("Seed completed")
}
