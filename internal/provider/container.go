package provider

import (
	"github.com/coursebook/internal/cache"
	"github.com/coursebook/internal/config"
	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/gateway"
	"github.com/coursebook/internal/logger"
	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/queue"
	"github.com/coursebook/internal/repository"
	"github.com/coursebook/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo       repository.AdminRepository
	UserRepo        repository.UserRepository
	CourseTypeRepo  repository.CourseTypeRepository
	VenueRepo       repository.VenueRepository
	SessionRepo     repository.SessionRepository
	BookingRepo     repository.BookingRepository
	CouponRepo      repository.CouponRepository
	CouponUsageRepo repository.CouponUsageRepository
	OrderRepo       repository.OrderRepository
	PaymentRepo     repository.PaymentRepository
	RefundRepo      repository.RefundRepository
	InvoiceSeqRepo  repository.InvoiceSequenceRepository
	DashboardRepo   repository.DashboardRepository

	// Services
	AuthService         *service.AuthService
	UserAuthService     *service.UserAuthService
	EmailService        *service.EmailService
	CourseTypeService   *service.CourseTypeService
	VenueService        *service.VenueService
	SessionService      *service.SessionService
	CouponService       *service.CouponService
	CouponAdminService  *service.CouponAdminService
	BookingService      *service.BookingService
	OrderService        *service.OrderService
	PaymentService      *service.PaymentService
	NotificationService *service.NotificationService
	DashboardService    *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.CourseTypeRepo = repository.NewCourseTypeRepository(db)
	c.VenueRepo = repository.NewVenueRepository(db)
	c.SessionRepo = repository.NewSessionRepository(db)
	c.BookingRepo = repository.NewBookingRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.CouponUsageRepo = repository.NewCouponUsageRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.RefundRepo = repository.NewRefundRepository(db)
	c.InvoiceSeqRepo = repository.NewInvoiceSequenceRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	c.EmailService = service.NewEmailService(&c.Config.Email, c.Config.Site.Name)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.CourseTypeService = service.NewCourseTypeService(c.CourseTypeRepo)
	c.VenueService = service.NewVenueService(c.VenueRepo)
	c.SessionService = service.NewSessionService(c.SessionRepo, c.CourseTypeRepo, c.VenueRepo)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.CouponUsageRepo, c.BookingRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo, c.CouponUsageRepo)
	c.PaymentService = service.NewPaymentService(
		c.PaymentRepo,
		c.RefundRepo,
		c.OrderRepo,
		c.BookingRepo,
		c.InvoiceSeqRepo,
		c.buildPaymentProviders(),
		c.QueueClient,
	)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.PaymentRepo)
	c.BookingService = service.NewBookingService(
		c.BookingRepo,
		c.SessionRepo,
		c.OrderRepo,
		c.PaymentRepo,
		c.CouponRepo,
		c.CouponUsageRepo,
		c.CouponService,
		c.PaymentService,
		c.QueueClient,
		service.PolicyFromConfig(&c.Config.Booking),
		c.Config.Site.Currency,
		c.Config.Payment.Provider,
	)
	c.NotificationService = service.NewNotificationService(c.BookingRepo, c.EmailService)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo, c.Config.Site.Currency)
}

func (c *Container) buildPaymentProviders() map[string]gateway.Provider {
	providers := map[string]gateway.Provider{
		constants.PaymentProviderManual: gateway.NewManualProvider(),
	}
	if c.Config.Payment.Stripe.SecretKey != "" {
		stripeProvider, err := gateway.NewStripeProvider(&c.Config.Payment.Stripe)
		if err != nil {
			logger.Errorw("provider_init_stripe_failed", "error", err)
		} else {
			providers[constants.PaymentProviderStripe] = stripeProvider
		}
	}
	return providers
}
