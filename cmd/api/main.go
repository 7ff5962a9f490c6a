package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-inventory-ledger/internal/cache"
	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/events"
	"go-inventory-ledger/internal/handler"
	"go-inventory-ledger/internal/logger"
	"go-inventory-ledger/internal/metrics"
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/observability"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry, version)
	if err != nil {
		log.Warn("Tracing disabled", zap.Error(err))
	}

	// 2. Setup Database
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatal("Database unavailable", zap.Error(err))
	}
	// AutoMigrate on start; production schemas should move to a migration tool.
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	// 3. Notification fan-out (after commit only)
	wsHub := ws.NewHub(log)
	go wsHub.Run(ctx)

	reportCache := newReportCache(cfg, log)
	publishers := events.Multi{wsHub, cache.InvalidateOnMovement(reportCache)}

	var kafkaPublisher *events.KafkaPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), log)
		publishers = append(publishers, kafkaPublisher)
		log.Info("Publishing movements to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	m := metrics.New()

	// 4. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)

	ledger := service.NewLedgerService(db, productRepo, categoryRepo, txRepo, log,
		service.WithPublisher(publishers),
		service.WithRecorder(m),
	)
	reports := service.NewReportService(productRepo, txRepo, reportCache)
	catalog := service.NewCatalogService(db, categoryRepo, productRepo, ledger, reportCache, log)
	authService := service.NewAuthService(userRepo, jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpirationHours, cfg.JWT.Issuer), log)

	if _, err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.FullName); err != nil {
		log.Warn("Failed to seed admin user", zap.Error(err))
	}

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name + " v" + version,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestContext())
	app.Use(middleware.AccessLog(log))
	app.Use(cors.New())
	if cfg.Metrics.Enabled {
		app.Use(m.Middleware())
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(m.Handler()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	handler.RegisterRoutes(app.Group("/api/v1"), handler.Handlers{
		Auth:     handler.NewAuthHandler(authService, log),
		Movement: handler.NewMovementHandler(ledger, log),
		Report:   handler.NewReportHandler(reports, log),
		Catalog:  handler.NewCatalogHandler(catalog, log),
	}, authService)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(wsHub.Handler()))

	// 6. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()
	log.Info("Server started", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))

	<-ctx.Done()
	log.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.Warn("Kafka writer close failed", zap.Error(err))
		}
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownTracing != nil {
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("Server exited")
}

func newReportCache(cfg *config.Config, log *zap.Logger) cache.ReportCache {
	if !cfg.Redis.Enabled {
		return cache.Nop{}
	}
	client, err := cache.NewRedisClient(cfg.Redis.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn("Report cache disabled", zap.Error(err))
		return cache.Nop{}
	}
	return cache.NewRedisReportCache(client, cfg.Redis.ReportTTL, log)
}
