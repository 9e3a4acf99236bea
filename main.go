package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bakehub/internal/app"
	"bakehub/internal/config"
	"bakehub/internal/models"
	"bakehub/internal/notifications"
	"bakehub/internal/services"
	"bakehub/pkg/apperror"
	"bakehub/pkg/logger"
	"bakehub/pkg/rabbitmq"
	"bakehub/pkg/redis"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	appLog := logger.New(logger.Options{
		ServiceName: "bakehub",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})
	ctx := context.Background()

	// --- Database ---
	db, err := openDatabase(cfg)
	if err != nil {
		appLog.Fatal(ctx, "failed to connect to database", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		appLog.Fatal(ctx, "failed to migrate database", err)
	}
	repos := app.NewRepositories(db)

	if cfg.SeedCatalog {
		if err := seedCatalog(ctx, repos, time.Now()); err != nil {
			appLog.Error(ctx, "failed to seed catalog", err)
		}
	}

	var closers []func() error

	// --- Token blacklist ---
	var blacklist services.TokenBlacklist = services.NewMemoryTokenBlacklist()
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.New(ctx, redis.Config{URL: cfg.RedisURL, DialTimeout: 5 * time.Second})
		if err != nil {
			appLog.Fatal(ctx, "failed to connect to redis", err)
		}
		blacklist = redisClient
		closers = append(closers, redisClient.Close)
	} else {
		appLog.Warn(ctx, "REDIS_URL not set; revoked tokens are kept in memory")
	}

	// --- Notifications ---
	logSender := notifications.NewLogSender(appLog)
	var push notifications.PushSender = logSender
	if cfg.ExpoPushURL != "" {
		push = notifications.NewExpoPushSender(cfg.ExpoPushURL, 10*time.Second)
	}
	var mail notifications.Mailer = logSender
	if cfg.SMTPEnabled() {
		mail = notifications.NewSMTPMailer(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}
	dispatcher := notifications.NewDispatcher(repos.Orders, repos.Users, push, mail, cfg.ShopEmail, appLog)

	// Notification work must outlive any single request.
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	var publisher notifications.Publisher
	brokerState := "in-process"
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.NotificationQueue})
		if err != nil {
			appLog.Fatal(ctx, "failed to initialize RabbitMQ client", err)
		}
		closers = append(closers, mqClient.Close)
		queue := notifications.NewAMQPQueue(mqClient, appLog)
		publisher = queue
		brokerState = "rabbitmq:" + mqClient.Queue()

		go func() {
			appLog.Info(bgCtx, "starting notification consumer")
			if err := queue.Consume(bgCtx, dispatcher); err != nil {
				appLog.Error(bgCtx, "notification consumer stopped", err)
			}
		}()
	} else {
		queue := notifications.NewWorkerQueue(dispatcher, cfg.NotificationWorkers, cfg.NotificationBuffer, appLog)
		queue.Start(bgCtx)
		publisher = queue
		closers = append(closers, func() error { queue.Close(); return nil })
	}

	// --- HTTP ---
	application := app.New(app.Options{
		Repos:     repos,
		Publisher: publisher,
		Blacklist: blacklist,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		Log:       appLog,
		AccessLog: true,
		Health: func() fiber.Map {
			state := fiber.Map{"database": "up", "notifications": brokerState}
			if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
				state["database"] = "down"
			}
			if redisClient != nil {
				state["redis"] = "up"
				if err := redisClient.Ping(context.Background()); err != nil {
					state["redis"] = "down"
				}
			}
			return state
		},
	})

	if cfg.BakerEmail != "" {
		if err := bootstrapBaker(ctx, application.Services.Auth, cfg); err != nil {
			appLog.Error(ctx, "failed to bootstrap baker account", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		appLog.Info(ctx, "starting server on "+cfg.AppPort)
		if err := application.Fiber.Listen(cfg.AppPort); err != nil {
			appLog.Fatal(ctx, "server failed to start", err)
		}
	}()

	<-quit
	appLog.Info(ctx, "shutting down server")

	var shutdownErr error
	if err := application.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		shutdownErr = multierr.Append(shutdownErr, fmt.Errorf("fiber shutdown: %w", err))
	}
	// Drain queued notifications before cancelling the background context.
	for i := len(closers) - 1; i >= 0; i-- {
		shutdownErr = multierr.Append(shutdownErr, closers[i]())
	}
	stopBackground()
	if sqlDB, err := db.DB(); err == nil {
		shutdownErr = multierr.Append(shutdownErr, sqlDB.Close())
	}
	if shutdownErr != nil {
		appLog.Error(ctx, "errors during shutdown", shutdownErr)
	}
	appLog.Info(ctx, "server gracefully stopped")
}

// openDatabase connects to postgres or sqlite depending on DB_DRIVER.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if logger.ParseLevel(cfg.LogLevel) <= zerolog.DebugLevel {
		level = gormlogger.Info
	}
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(level)}

	switch cfg.DBDriver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DatabaseDSN), gormCfg)
	case "sqlite":
		dsn := cfg.DatabaseDSN
		if !strings.Contains(dsn, "_foreign_keys") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_foreign_keys=on"
		}
		db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
		if err != nil {
			return nil, err
		}
		// SQLite has a single writer; one connection keeps transactions
		// strictly serialized instead of failing with "database is locked".
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// bootstrapBaker creates the configured baker account once.
func bootstrapBaker(ctx context.Context, auth *services.AuthService, cfg *config.Config) error {
	_, err := auth.RegisterBaker(ctx, services.RegisterInput{
		Email:    cfg.BakerEmail,
		Password: cfg.BakerPassword,
		Name:     cfg.BakerName,
	})
	if apperror.Is(err, apperror.CodeConflict) {
		return nil
	}
	return err
}

// seedCatalog populates an empty catalog with sample products, custom cake
// options and a welcome coupon valid for a year from today.
func seedCatalog(ctx context.Context, repos *app.Repositories, today time.Time) error {
	existing, err := repos.Products.GetAll(ctx, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	price := decimal.RequireFromString
	products := []models.Product{
		{
			Name:           "Chocolate Truffle Cake",
			Description:    "Rich chocolate cake with truffle icing",
			Category:       "Cakes",
			IsCustomizable: true,
			IsActive:       true,
			Variants: []models.ProductVariant{
				{Label: "1 kg", Price: price("1200"), PreparationHours: price("24")},
				{Label: "500g", Price: price("650"), PreparationHours: price("24")},
			},
		},
		{
			Name:        "Vanilla Pastry",
			Description: "Classic vanilla pastry",
			Category:    "Pastries",
			IsActive:    true,
			Variants: []models.ProductVariant{
				{Label: "Single", Price: price("80")},
			},
		},
	}
	for i := range products {
		if err := repos.Products.Create(ctx, &products[i]); err != nil {
			return fmt.Errorf("seed product %s: %w", products[i].Name, err)
		}
	}

	options := []models.CustomCakeOption{
		{Type: models.OptionBase, Label: "Vanilla Sponge", ExtraPrice: price("0")},
		{Type: models.OptionBase, Label: "Chocolate Sponge", ExtraPrice: price("50")},
		{Type: models.OptionBase, Label: "Red Velvet", ExtraPrice: price("100")},
		{Type: models.OptionFlavour, Label: "Vanilla Cream", ExtraPrice: price("0")},
		{Type: models.OptionFlavour, Label: "Chocolate Ganache", ExtraPrice: price("50")},
		{Type: models.OptionFlavour, Label: "Strawberry", ExtraPrice: price("75")},
		{Type: models.OptionFlavour, Label: "Butterscotch", ExtraPrice: price("75")},
		{Type: models.OptionShape, Label: "Round", ExtraPrice: price("0")},
		{Type: models.OptionShape, Label: "Square", ExtraPrice: price("0")},
		{Type: models.OptionShape, Label: "Heart", ExtraPrice: price("100")},
		{Type: models.OptionShape, Label: "Custom Shape", ExtraPrice: price("200")},
		{Type: models.OptionWeight, Label: "500g", ExtraPrice: price("0")},
		{Type: models.OptionWeight, Label: "1kg", ExtraPrice: price("200")},
		{Type: models.OptionWeight, Label: "2kg", ExtraPrice: price("500")},
	}
	for i := range options {
		if err := repos.Options.Create(ctx, &options[i]); err != nil {
			return fmt.Errorf("seed custom cake option %s: %w", options[i].Label, err)
		}
	}

	maxUses := 100
	coupon := &models.Coupon{
		Code:           "WELCOME10",
		DiscountType:   models.DiscountPercentage,
		DiscountValue:  price("10"),
		MinOrderAmount: price("300"),
		StartDate:      today,
		EndDate:        today.AddDate(1, 0, 0),
		MaxUses:        &maxUses,
		MaxUsesPerUser: 1,
		IsActive:       true,
	}
	if err := repos.Coupons.Create(ctx, coupon); err != nil {
		return fmt.Errorf("seed coupon: %w", err)
	}
	return nil
}
