package main

import (
	"context"
	"fmt"
	"log"
	"net"
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

	"github.com/seu-repo/agrovoz/internal/adapter/ai/gemini"
	"github.com/seu-repo/agrovoz/internal/adapter/cache"
	"github.com/seu-repo/agrovoz/internal/adapter/grpc/server"
	"github.com/seu-repo/agrovoz/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/agrovoz/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/agrovoz/internal/adapter/queue"
	"github.com/seu-repo/agrovoz/internal/adapter/storage/postgres"
	"github.com/seu-repo/agrovoz/internal/adapter/vault"
	"github.com/seu-repo/agrovoz/internal/adapter/voiceapi"
	wsAdapter "github.com/seu-repo/agrovoz/internal/adapter/websocket"
	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/observability/telemetry"
	"github.com/seu-repo/agrovoz/internal/ports"
	"github.com/seu-repo/agrovoz/internal/service/auth"
	"github.com/seu-repo/agrovoz/internal/service/dashboard"
	"github.com/seu-repo/agrovoz/internal/service/email"
	"github.com/seu-repo/agrovoz/internal/service/livestock"
	"github.com/seu-repo/agrovoz/internal/service/notification"
	"github.com/seu-repo/agrovoz/internal/service/voice"
	"github.com/seu-repo/agrovoz/pkg/config"
)

const serviceName = "agrovoz"

func main() {
	// 1. Bootstrap Logger (replaced once configuration is loaded)
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// 3. Load Secrets from Vault
	if cfg.Vault.Enabled {
		secrets, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, logger)
		if err != nil {
			logger.Fatal("Failed to create Vault client", zap.Error(err))
		}
		if err := secrets.ApplySecrets(cfg); err != nil {
			logger.Fatal("Failed to load secrets from Vault", zap.Error(err))
		}
	}

	logger, err = telemetry.NewLogger(cfg.Logging, cfg.App.Environment)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting AgroVoz",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("voice_provider", cfg.Voice.Provider),
	)

	// 4. Initialize OpenTelemetry (Distributed Tracing)
	tracerProvider, err := telemetry.InitTracer(cfg.OpenTelemetry, cfg.App.Version)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// 5. Initialize PostgreSQL Connection Pool
	db, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer postgres.Close(db)

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// 6. Initialize Cache
	var appCache ports.Cache
	switch cfg.Cache.Driver {
	case "local":
		appCache = cache.NewLocalCache(cfg.Cache.CleanupInterval, logger)
	default:
		appCache, err = cache.NewRedisCache(cfg.Redis.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
	}
	defer appCache.Close()

	// 7. Initialize Message Queue and Event Bus
	messageQueue, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer messageQueue.Close()
	events := queue.NewEventBus(messageQueue, logger)

	// 8. Initialize Repositories
	animalRepo := postgres.NewAnimalRepository(db, logger)
	healthRepo := postgres.NewHealthRepository(db, logger)
	productionRepo := postgres.NewProductionRepository(db, logger)
	taskRepo := postgres.NewTaskRepository(db, logger)
	relationRepo := postgres.NewRelationRepository(db, logger)
	calendarRepo := postgres.NewCalendarRepository(db, logger)
	userRepo := postgres.NewUserRepository(db, logger)

	// 9. Initialize Services (Business Logic Layer)
	dashboardService := dashboard.NewService(dashboard.Repositories{
		Animals:    animalRepo,
		Health:     healthRepo,
		Production: productionRepo,
		Tasks:      taskRepo,
		Calendar:   calendarRepo,
	}, appCache, cfg.Dashboard, cfg.Cache.DashboardTTL, logger)

	deps := livestock.Deps{Events: events, Dashboard: dashboardService, Log: logger}
	services := voice.Services{
		Animals:    livestock.NewAnimalService(animalRepo, deps),
		Health:     livestock.NewHealthService(healthRepo, animalRepo, deps),
		Production: livestock.NewProductionService(productionRepo, animalRepo, deps),
		Tasks:      livestock.NewTaskService(taskRepo, animalRepo, deps),
		Relations:  livestock.NewRelationService(relationRepo, animalRepo, deps),
		Calendar:   livestock.NewCalendarService(calendarRepo, animalRepo, deps),
	}

	authService := auth.NewService(userRepo, appCache, cfg.JWT, logger)
	rbacService := auth.NewRBACService(logger)

	// 10. Initialize Voice Pipeline
	processor, err := newVoiceProcessor(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize voice processor", zap.Error(err))
	}
	executor := voice.NewExecutor(services, logger)
	assistant := voice.NewAssistant(processor, executor, logger)

	// 11. Initialize Notifications
	mailer, err := email.NewService(cfg.Notification.Email, logger)
	if err != nil {
		logger.Fatal("Failed to initialize email service", zap.Error(err))
	}
	if err := notification.NewTaskNotifier(mailer, logger).Start(events); err != nil {
		logger.Error("Failed to start task notifier", zap.Error(err))
	}

	// 12. Initialize WebSocket Hub (for real-time updates)
	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	wsHub := wsAdapter.NewHub(logger)
	go wsHub.Run(rootCtx)
	if err := events.Listen(wsHub.HandleEvent); err != nil {
		logger.Error("Failed to subscribe hub to farm events", zap.Error(err))
	}

	// 13. Initialize Voice Stream Handler
	voiceStreamHandler := wsAdapter.NewVoiceStreamHandler(processor, executor, voice.SessionConfig{
		Audio: ports.AudioConfig{
			SampleRate: cfg.Voice.SampleRate,
			Channels:   cfg.Voice.Channels,
		},
		AudioFormat:       cfg.Voice.AudioFormat,
		MaxRecordingTime:  cfg.Voice.MaxRecordingTime,
		ProcessingTimeout: cfg.Voice.ProcessingTimeout,
		AutoExecute:       cfg.Voice.AutoExecute,
	}, logger)

	// 14. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		BodyLimit:             cfg.HTTP.BodyLimit,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.NewCORS(cfg.CORS))
	app.Use(middleware.Metrics())
	app.Use(middleware.CircuitBreaker(cfg.CircuitBreaker, logger))

	// Health Check Endpoints
	ready := func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if err := appCache.Ping(); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		return nil
	}
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		if err := ready(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).SendString(err.Error())
		}
		return c.SendString("Ready")
	})

	// Metrics endpoint for Prometheus
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	// API v1 Routes
	v1 := app.Group("/api/v1")

	// Auth routes (public)
	authHandler := handlers.NewAuthHandler(authService, logger).WithMailer(mailer)
	v1.Post("/auth/login", authHandler.Login)
	v1.Post("/auth/register", authHandler.Register)
	v1.Post("/auth/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := v1.Group("", middleware.AuthRequired(authService))
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/users", middleware.RequirePermission(rbacService, auth.ResourceUsers, auth.ActionWrite), authHandler.AddMember)

	// Farm record routes
	handlers.NewRecordHandler[domain.Animal](services.Animals, logger).Register(protected, "/animals", rbacService)
	handlers.NewRecordHandler[domain.HealthRecord](services.Health, logger).Register(protected, "/health-records", rbacService)
	handlers.NewRecordHandler[domain.ProductionRecord](services.Production, logger).Register(protected, "/production-records", rbacService)
	handlers.NewRecordHandler[domain.Task](services.Tasks, logger).Register(protected, "/tasks", rbacService)
	handlers.NewRecordHandler[domain.Relation](services.Relations, logger).Register(protected, "/relations", rbacService)
	handlers.NewRecordHandler[domain.CalendarEvent](services.Calendar, logger).Register(protected, "/calendar-events", rbacService)

	// Voice routes
	voiceHandler := handlers.NewVoiceHandler(assistant, logger)
	voiceRoutes := protected.Group("/voice", middleware.RequirePermission(rbacService, auth.ResourceVoice, auth.ActionWrite))
	voiceRoutes.Post("/process", voiceHandler.Process)
	voiceRoutes.Post("/execute", voiceHandler.Execute)
	voiceRoutes.Post("/command", voiceHandler.Command)

	// Dashboard routes
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, logger)
	protected.Get("/dashboard",
		middleware.RequirePermission(rbacService, auth.ResourceDashboard, auth.ActionRead),
		dashboardHandler.Summary)

	// WebSocket routes
	app.Use("/ws", wsAdapter.RequireUpgrade, middleware.AuthRequired(authService))

	// Real-time updates WebSocket
	app.Get("/ws/updates", websocket.New(func(c *websocket.Conn) {
		farmID, _ := c.Locals(middleware.LocalFarmID).(string)
		wsHub.Serve(c, farmID)
	}))

	// Voice streaming WebSocket
	app.Get("/ws/voice",
		middleware.RequirePermission(rbacService, auth.ResourceVoice, auth.ActionWrite),
		websocket.New(voiceStreamHandler.Handle))

	// 15. Initialize gRPC Server (health for orchestrators and internal services)
	var grpcServer *server.GRPCServer
	if cfg.GRPC.Enabled {
		grpcServer = server.NewGRPCServer(authService, logger)
		go grpcServer.MonitorDependencies(rootCtx, 15*time.Second, ready)
		go func() {
			logger.Info("Starting gRPC Server", zap.Int("port", cfg.GRPC.Port))
			lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
			if err != nil {
				logger.Fatal("Failed to listen for gRPC", zap.Error(err))
			}
			if err := grpcServer.Serve(lis); err != nil {
				logger.Fatal("gRPC Server failed", zap.Error(err))
			}
		}()
	}

	// 16. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 17. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.Stop()
	}
	stop()

	logger.Info("Server exited gracefully")
}

// newVoiceProcessor picks the transcription and extraction backend.
func newVoiceProcessor(cfg *config.Config, logger *zap.Logger) (ports.VoiceProcessor, error) {
	switch cfg.Voice.Provider {
	case "http":
		return voiceapi.NewClient(cfg.Voice, cfg.CircuitBreaker, logger), nil
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		extractor, err := gemini.NewExtractor(ctx, cfg.Gemini, logger)
		if err != nil {
			return nil, err
		}
		return extractor, nil
	}
}
