package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/armvoice/internal/adapter/cache"
	"github.com/seu-repo/armvoice/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/armvoice/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/armvoice/internal/adapter/locale"
	"github.com/seu-repo/armvoice/internal/adapter/storage/postgres"
	"github.com/seu-repo/armvoice/internal/adapter/transport"
	"github.com/seu-repo/armvoice/internal/adapter/vault"
	wsAdapter "github.com/seu-repo/armvoice/internal/adapter/websocket"
	"github.com/seu-repo/armvoice/internal/observability/telemetry"
	"github.com/seu-repo/armvoice/internal/ports"
	"github.com/seu-repo/armvoice/internal/service/conversation"
	"github.com/seu-repo/armvoice/internal/service/device"
	"github.com/seu-repo/armvoice/internal/service/health"
	"github.com/seu-repo/armvoice/pkg/config"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting armvoice gateway",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("device_id", cfg.Device.ID),
		zap.String("transport", cfg.Transport.Kind),
	)

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(cfg.OpenTelemetry.ServiceName, cfg.App.Version, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Secrets
	var deviceKey []byte
	if cfg.Vault.Enabled {
		deviceKey = loadSecrets(cfg, logger)
	}

	// 5. Cache and device config registry
	configCache := cache.NewWithFallback(cfg.Redis, logger)
	defer configCache.Close()
	registry := device.NewRegistry(configCache, cfg.Device.ConfigTTL, logger)

	// 6. Device transport
	tr, err := transport.New(cfg, deviceKey, logger)
	if err != nil {
		logger.Fatal("Failed to create device transport", zap.Error(err))
	}
	defer tr.Close()

	deviceService := device.NewService(deviceOptions(cfg), tr, registry, logger)

	// 7. Live command feed
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	wsHub := wsAdapter.NewHub(logger)
	go wsHub.Run(ctx)
	if cfg.FeatureFlags.CommandFeed {
		deviceService.OnDelivered(wsHub.Publish)
	}

	// 8. Command audit log
	var (
		db    *gorm.DB
		audit ports.CommandLogRepository
	)
	if cfg.FeatureFlags.AuditLog {
		db, err = postgres.NewConnection(cfg.Database, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer postgres.Close(db)

		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(db); err != nil {
				logger.Fatal("Failed to run migrations", zap.Error(err))
			}
		}
		audit = postgres.NewCommandLogRepository(db, logger)
	}

	// 9. Conversation layer
	catalog, err := locale.NewCatalog(cfg.Locale.Default, cfg.Locale.Directory, logger)
	if err != nil {
		logger.Fatal("Failed to load locale catalogs", zap.Error(err))
	}
	router := conversation.NewRouter(deviceService, logger)

	// 10. Health checks
	healthService := health.NewService(cfg.App.Version, logger)
	healthService.RegisterPing("transport", false, tr.Connect)
	healthService.RegisterPing("cache", true, func(context.Context) error { return configCache.Ping() })
	if db != nil {
		healthService.RegisterPing("database", true, func(context.Context) error { return postgres.Ping(db) })
	}

	// 11. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}

	health.NewFiberHandler(healthService).RegisterRoutes(app)

	if cfg.Prometheus.Enabled {
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
			handler(c.Context())
			return nil
		})
	}

	var auth fiber.Handler
	if cfg.Webhook.AuthSecret != "" {
		auth = middleware.WebhookAuth(cfg.Webhook.AuthSecret, cfg.Webhook.Issuer)
	} else {
		logger.Warn("API authentication disabled")
	}

	// Fulfillment webhook
	webhook := []fiber.Handler{}
	if cfg.CircuitBreaker.Enabled {
		webhook = append(webhook, middleware.CircuitBreaker("fulfillment", cfg.CircuitBreaker, logger))
	}
	if auth != nil {
		webhook = append(webhook, auth)
	}
	fulfillment := handlers.NewFulfillmentHandler(router, catalog, audit, cfg.Device.ID, logger)
	app.Post(cfg.Webhook.Path, append(webhook, fulfillment.Handle)...)

	// API v1 Routes
	api := handlers.APIRoutes{
		Auth:   auth,
		Device: handlers.NewDeviceHandler(registry, audit, logger),
	}
	if cfg.FeatureFlags.DirectControl {
		api.Arm = handlers.NewArmHandler(deviceService, logger)
	}
	api.Register(app)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/commands", websocket.New(func(c *websocket.Conn) {
		wsHub.Serve(c, c.Query("deviceId"))
	}))

	// 12. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 13. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	stop()

	logger.Info("Server exited gracefully")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}
	return zc.Build()
}

// loadSecrets pulls the device key and the webhook secret from Vault. A
// missing field keeps whatever the config already provides.
func loadSecrets(cfg *config.Config, logger *zap.Logger) []byte {
	sm, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, cfg.Vault.Path)
	if err != nil {
		logger.Fatal("Failed to create Vault client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if secret, err := sm.GetWebhookSecret(ctx); err == nil {
		cfg.Webhook.AuthSecret = secret
	} else if !errors.Is(err, vault.ErrSecretNotFound) {
		logger.Fatal("Failed to read webhook secret", zap.Error(err))
	}

	key, err := sm.GetDevicePrivateKey(ctx)
	if err != nil {
		if !errors.Is(err, vault.ErrSecretNotFound) {
			logger.Fatal("Failed to read device key", zap.Error(err))
		}
		return nil
	}
	return key
}

func deviceOptions(cfg *config.Config) device.Options {
	opts := device.DefaultOptions()
	opts.DeviceID = cfg.Device.ID
	if cfg.Retry.MaxRetries > 0 {
		opts.MaxRetries = cfg.Retry.MaxRetries
	}
	if cfg.Retry.InitialInterval > 0 {
		opts.InitialInterval = cfg.Retry.InitialInterval
	}
	if cfg.Retry.MaxInterval > 0 {
		opts.MaxInterval = cfg.Retry.MaxInterval
	}
	if cfg.CircuitBreaker.MaxRequests > 0 {
		opts.BreakerMaxRequests = cfg.CircuitBreaker.MaxRequests
	}
	if cfg.CircuitBreaker.Interval > 0 {
		opts.BreakerInterval = cfg.CircuitBreaker.Interval
	}
	if cfg.CircuitBreaker.Timeout > 0 {
		opts.BreakerTimeout = cfg.CircuitBreaker.Timeout
	}
	if cfg.CircuitBreaker.FailureThreshold > 0 {
		opts.BreakerFailures = cfg.CircuitBreaker.FailureThreshold
	}
	return opts
}
