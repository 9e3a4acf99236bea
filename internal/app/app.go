// Package app wires repositories, services and handlers into a Fiber app.
package app

import (
	"time"

	"bakehub/internal/handlers"
	"bakehub/internal/middleware"
	"bakehub/internal/notifications"
	"bakehub/internal/repositories"
	"bakehub/internal/services"
	"bakehub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Repositories groups the GORM-backed stores.
type Repositories struct {
	Users    repositories.UserRepository
	Products repositories.ProductRepository
	Options  repositories.CustomCakeOptionRepository
	Orders   repositories.OrderRepository
	Address  repositories.AddressRepository
	Coupons  repositories.CouponRepository
}

// NewRepositories builds every repository on db.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:    repositories.NewGORMUserRepository(db),
		Products: repositories.NewGORMProductRepository(db),
		Options:  repositories.NewGORMCustomCakeOptionRepository(db),
		Orders:   repositories.NewGORMOrderRepository(db),
		Address:  repositories.NewGORMAddressRepository(db),
		Coupons:  repositories.NewGORMCouponRepository(db),
	}
}

// Options configures New.
type Options struct {
	Repos     *Repositories
	Publisher notifications.Publisher
	Blacklist services.TokenBlacklist
	JWTSecret string
	TokenTTL  time.Duration
	Log       *logger.Logger
	// Now overrides the clock used for coupon windows and analytics.
	Now func() time.Time
	// AccessLog enables Fiber's request logger.
	AccessLog bool
	// Health reports dependency state on /health.
	Health func() fiber.Map
}

// Services exposes the business services built by New.
type Services struct {
	Auth      *services.AuthService
	Orders    *services.OrderService
	Products  *services.ProductService
	Pricing   *services.PricingService
	Coupons   *services.CouponService
	Addresses *services.AddressService
	Analytics *services.AnalyticsService
}

// App is the assembled HTTP application.
type App struct {
	Fiber    *fiber.App
	Services *Services
}

// New builds the services and registers every route under /api/v1.
func New(opts Options) *App {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	repos := opts.Repos

	pricing := services.NewPricingService(repos.Options)
	coupons := services.NewCouponService(repos.Coupons, now)
	svc := &Services{
		Auth:      services.NewAuthService(repos.Users, opts.Blacklist, opts.JWTSecret, opts.TokenTTL, log),
		Products:  services.NewProductService(repos.Products, repos.Options, pricing),
		Pricing:   pricing,
		Coupons:   coupons,
		Addresses: services.NewAddressService(repos.Address),
		Analytics: services.NewAnalyticsService(repos.Orders, now),
		Orders: services.NewOrderService(
			repos.Orders,
			repos.Products,
			repos.Address,
			coupons,
			pricing,
			opts.Publisher,
			log,
		),
	}

	app := fiber.New(fiber.Config{
		AppName: "bakehub",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := utils.StatusMessage(code)
			if fe, ok := err.(*fiber.Error); ok {
				code, message = fe.Code, fe.Message
			} else {
				log.Error(c.UserContext(), "unhandled request error", err)
			}
			return c.Status(code).JSON(fiber.Map{"message": message})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestContext(log))
	if opts.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(middleware.PrometheusMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		}
		if opts.Health != nil {
			for k, v := range opts.Health() {
				body[k] = v
			}
		}
		return c.JSON(body)
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authRequired := middleware.AuthRequired(svc.Auth)
	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(svc.Auth, log).RegisterRoutes(apiV1, authRequired)
	handlers.NewCatalogHandler(svc.Products, svc.Pricing, log).RegisterRoutes(apiV1)
	handlers.NewAddressHandler(svc.Addresses, log).RegisterRoutes(apiV1, authRequired)
	handlers.NewOrderHandler(svc.Orders, svc.Analytics, log).RegisterRoutes(apiV1, authRequired)
	handlers.NewCouponHandler(svc.Coupons, log).RegisterRoutes(apiV1, authRequired)

	return &App{Fiber: app, Services: svc}
}
