package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/alfanzaky/queuehub/config"
	"github.com/alfanzaky/queuehub/internal/adapter/broker"
	"github.com/alfanzaky/queuehub/internal/domain"
	apihandler "github.com/alfanzaky/queuehub/internal/handler/api"
	"github.com/alfanzaky/queuehub/internal/repository/memory"
	"github.com/alfanzaky/queuehub/internal/repository/postgres"
	redisrepo "github.com/alfanzaky/queuehub/internal/repository/redis"
	"github.com/alfanzaky/queuehub/internal/usecase"
	"github.com/alfanzaky/queuehub/internal/worker"
	"github.com/alfanzaky/queuehub/pkg/auth"
	"github.com/alfanzaky/queuehub/pkg/logger"
	"github.com/alfanzaky/queuehub/pkg/observability"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Initialize logger
	logger.InitWithOptions(logger.Options{
		Environment: cfg.App.Environment,
		Level:       cfg.App.LogLevel,
		Service:     cfg.App.Name,
	})
	defer logger.Close()

	// Print configuration in development mode
	if cfg.App.IsDevelopment() {
		cfg.Print()
	}

	metricsHandler := observability.NewMetricsHandler(cfg.App.Name)

	// Initialize queue store
	var queueRepo domain.QueueRepository
	switch cfg.Database.Driver {
	case config.StoreDriverPostgres:
		db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
		if err != nil {
			logger.Fatal("Failed to connect to database", logger.ErrorField(err))
		}
		defer db.Close()

		db.SetMaxIdleConns(cfg.Database.MaxIdle)
		db.SetMaxOpenConns(cfg.Database.MaxOpen)
		db.SetConnMaxLifetime(cfg.Database.MaxLife)

		schemaCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = postgres.EnsureSchema(schemaCtx, db)
		cancel()
		if err != nil {
			logger.Fatal("Failed to apply database schema", logger.ErrorField(err))
		}

		queueRepo = postgres.NewQueueRepository(db)
		metricsHandler.AddReadinessCheck("database", db.PingContext)
		logger.Info("Database connection established")
	default:
		queueRepo = memory.NewQueueRepository()
		logger.Warn("Using in-memory queue store, data is lost on restart")
	}

	// Initialize Redis connection
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetRedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})

		if err := redisrepo.Ping(context.Background(), rdb); err != nil {
			logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
		}
		defer rdb.Close()

		queueRepo = redisrepo.NewCachedQueueRepository(queueRepo, rdb, cfg.Registry.NameCacheTTL)
		metricsHandler.AddReadinessCheck("redis", func(ctx context.Context) error {
			return redisrepo.Ping(ctx, rdb)
		})
		logger.Info("Redis connection established")
	}

	// Initialize lifecycle event publishing
	publisher, err := broker.NewPublisher(cfg.Broker)
	if err != nil {
		logger.Fatal("Failed to initialize event publisher", logger.ErrorField(err))
	}
	defer publisher.Close()

	var eventRepo domain.QueueEventRepository
	if cfg.Broker.Driver != config.BrokerDriverNone {
		if rdb != nil {
			eventRepo = redisrepo.NewEventRepository(rdb)
		} else {
			eventRepo = memory.NewEventRepository(cfg.Registry.EventBufferCapacity)
		}
	}

	// Initialize use cases
	queueUC := usecase.NewQueueUsecase(queueRepo, eventRepo, usecase.NewServiceTypeRouter(), usecase.NewAccessGate())

	// Start background event relay
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if eventRepo != nil {
		eventWorker := worker.NewQueueEventWorker(eventRepo, publisher, worker.QueueEventWorkerConfig{
			PollingInterval: cfg.Registry.EventPollInterval,
		})
		go eventWorker.Start(workerCtx)
	}

	// Set Gin mode
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize auth service
	authService := auth.NewJWTAuthService(cfg.Auth)

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(observability.ObservabilityMiddleware())
	router.Use(apihandler.RecoveryMiddleware())
	router.Use(apihandler.CORSMiddleware(cfg.API.AllowedOrigins))

	// Setup metrics and health endpoints
	router.GET("/metrics", metricsHandler.MetricsEndpoint())
	router.GET("/health", metricsHandler.HealthEndpoint())
	router.GET("/ready", metricsHandler.ReadinessEndpoint())
	router.GET("/live", metricsHandler.LivenessEndpoint())

	// Setup API routes
	queueHandler := apihandler.NewQueueHandler(queueUC)
	apihandler.SetupRoutes(router, queueHandler, authService, apihandler.NewRateLimiter(cfg.API.RateLimitPerMinute))

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      http.MaxBytesHandler(router, cfg.API.MaxRequestSize),
		ReadTimeout:  time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server",
			logger.String("port", cfg.App.Port),
			logger.String("environment", cfg.App.Environment),
			logger.String("store", cfg.Database.Driver),
			logger.String("broker", broker.Name(publisher)),
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	workerCancel()

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server exited")
}
