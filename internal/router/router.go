package router

import (
	"fmt"
	"strings"

	"github.com/coursebook/internal/cache"
	"github.com/coursebook/internal/config"
	adminhandlers "github.com/coursebook/internal/http/handlers/admin"
	publichandlers "github.com/coursebook/internal/http/handlers/public"
	"github.com/coursebook/internal/logger"
	"github.com/coursebook/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cb"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开目录接口
		public := apiV1.Group("/public")
		{
			public.GET("/course-types", publicHandler.ListCourseTypes)
			public.GET("/venues", publicHandler.ListVenues)
			public.GET("/sessions", publicHandler.ListSessions)
			public.GET("/sessions/:id", publicHandler.GetSession)
		}

		// 预订接口（登录用户与游客共用，游客无身份注入）
		bookings := apiV1.Group("/bookings")
		bookings.Use(OptionalUserJWTMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			bookings.POST("", publicHandler.CreateBooking)
			bookings.POST("/quote", publicHandler.QuoteBooking)
			bookings.GET("/confirmation/:code", publicHandler.GetBookingByCode)
			bookings.POST("/confirmation/:code/cancel", publicHandler.CancelBookingByCode)
			bookings.POST("/confirmation/:code/checkout", publicHandler.StartCheckoutByCode)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.Me)
			user.PUT("/me/profile", publicHandler.UpdateProfile)
			user.PUT("/me/password", publicHandler.ChangePassword)
			user.GET("/me/bookings", publicHandler.ListMyBookings)
			user.POST("/me/bookings/:id/cancel", publicHandler.CancelBooking)
			user.GET("/orders", publicHandler.ListMyOrders)
			user.GET("/orders/:id", publicHandler.GetMyOrder)
			user.POST("/orders/:id/checkout", publicHandler.StartCheckout)
		}

		apiV1.POST("/payments/webhook/stripe", publicHandler.StripeWebhook)

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.Login)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.GET("/me", adminHandler.Me)
				authorized.PUT("/password", adminHandler.ChangePassword)

				// 仪表盘
				authorized.GET("/dashboard/overview", adminHandler.DashboardOverview)
				authorized.GET("/dashboard/trends", adminHandler.DashboardTrend)
				authorized.GET("/dashboard/rankings", adminHandler.DashboardRankings)

				// 课程类型管理
				authorized.GET("/course-types", adminHandler.ListCourseTypes)
				authorized.GET("/course-types/:id", adminHandler.GetCourseType)
				authorized.POST("/course-types", adminHandler.CreateCourseType)
				authorized.PUT("/course-types/:id", adminHandler.UpdateCourseType)
				authorized.DELETE("/course-types/:id", adminHandler.DeleteCourseType)

				// 场地管理
				authorized.GET("/venues", adminHandler.ListVenues)
				authorized.GET("/venues/:id", adminHandler.GetVenue)
				authorized.POST("/venues", adminHandler.CreateVenue)
				authorized.PUT("/venues/:id", adminHandler.UpdateVenue)
				authorized.DELETE("/venues/:id", adminHandler.DeleteVenue)

				// 排期管理
				authorized.GET("/sessions", adminHandler.ListSessions)
				authorized.GET("/sessions/:id", adminHandler.GetSession)
				authorized.POST("/sessions", adminHandler.CreateSession)
				authorized.PUT("/sessions/:id", adminHandler.UpdateSession)
				authorized.POST("/sessions/:id/deactivate", adminHandler.DeactivateSession)
				authorized.POST("/sessions/:id/complete", adminHandler.CompleteSessionBookings)

				// 预订管理
				authorized.GET("/bookings", adminHandler.ListBookings)
				authorized.GET("/bookings/:id", adminHandler.GetBooking)
				authorized.POST("/bookings/:id/cancel", adminHandler.CancelBooking)

				// 优惠券管理
				authorized.GET("/coupons", adminHandler.ListCoupons)
				authorized.GET("/coupons/:id", adminHandler.GetCoupon)
				authorized.POST("/coupons", adminHandler.CreateCoupon)
				authorized.PUT("/coupons/:id", adminHandler.UpdateCoupon)
				authorized.DELETE("/coupons/:id", adminHandler.DeleteCoupon)
				authorized.GET("/coupons/:id/usages", adminHandler.ListCouponUsages)

				// 订单管理
				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.PATCH("/orders/:id", adminHandler.AdvanceOrder)

				// 支付与退款
				authorized.GET("/payments", adminHandler.ListPayments)
				authorized.GET("/payments/:id", adminHandler.GetPayment)
				authorized.GET("/payments/:id/refunds", adminHandler.ListRefunds)
				authorized.POST("/payments/:id/refund", adminHandler.RefundPayment)
				authorized.POST("/payments/:id/mark-succeeded", adminHandler.MarkPaymentSucceeded)
				authorized.POST("/payments/:id/mark-failed", adminHandler.MarkPaymentFailed)

				// 用户管理
				authorized.GET("/users", adminHandler.ListUsers)
				authorized.GET("/users/:id", adminHandler.GetUser)
				authorized.PUT("/users/batch-status", adminHandler.SetUsersStatus)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
