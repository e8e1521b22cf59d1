package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/code/app-dub-agpl/internal/assets"
	"github.com/code/app-dub-agpl/internal/flags"
	"github.com/code/app-dub-agpl/internal/handler"
	"github.com/code/app-dub-agpl/internal/middleware"
	"github.com/code/app-dub-agpl/internal/slug"
	"github.com/code/app-dub-agpl/pkg/config"
	"github.com/code/app-dub-agpl/pkg/database"
	"github.com/code/app-dub-agpl/pkg/jwtutil"
	"github.com/code/app-dub-agpl/pkg/logger"
	"github.com/code/app-dub-agpl/pkg/mq"
	"github.com/code/app-dub-agpl/pkg/redis"
	"github.com/code/app-dub-agpl/pkg/storage"
	"github.com/code/app-dub-agpl/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting workspace service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.DB.Host), zap.String("db_name", cfg.DB.DBName))

	// Initialize Redis - backs the reserved-slug set and flag overrides
	if err := redis.InitRedis(cfg); err != nil {
		log.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	log.Info("Redis connection established", zap.String("addr", cfg.Redis.Addr))

	// Kafka writer and reader for the asset cleanup queue
	writer := mq.NewWriter(&cfg.Kafka, cfg.Kafka.CleanupTopic)
	defer writer.Close()
	reader := mq.NewReader(&cfg.Kafka, cfg.Kafka.CleanupTopic)

	// Asset store client for workspace logos
	store := storage.NewClient(cfg.Storage.BaseURL, cfg.Storage.Token)

	// Wire handler collaborators
	handler.Init(
		store,
		assets.NewKafkaQueue(writer),
		&flags.RedisStore{Client: redis.GetClient()},
		&slug.RedisReserved{Client: redis.GetClient()},
	)

	// Start the asset cleanup worker
	worker := assets.NewWorker(reader, store, log)
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	worker.Start(workerCtx)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover()) // Add recovery middleware
	e.Use(echomiddleware.CORS())    // Add CORS middleware
	e.Use(middleware.RequestIDMiddleware)
	e.Use(middleware.MetricsMiddleware)

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Process request
			err := next(c)

			// Log request details
			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Float64("duration_s", time.Since(start).Seconds()),
				zap.String("ip", c.RealIP()),
			)

			return err
		}
	})

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Partner directory - platform-wide, not scoped to a workspace
	partners := api.Group("/partners")
	partners.GET("", handler.SearchPartners)
	partners.POST("", handler.CreatePartner)

	// Workspace management - doesn't require workspace context
	workspaces := api.Group("/workspaces")
	workspaces.POST("", handler.CreateWorkspace)
	workspaces.GET("", handler.ListWorkspaces)

	// Workspace-scoped operations - resolve the workspace and membership
	scoped := api.Group("/workspaces/:idOrSlug")
	scoped.Use(middleware.WorkspaceMiddleware)
	scoped.GET("", handler.GetWorkspace)
	scoped.PATCH("", handler.UpdateWorkspace, middleware.RequireOwner)
	scoped.PUT("", handler.UpdateWorkspace, middleware.RequireOwner)
	scoped.DELETE("", handler.DeleteWorkspace, middleware.RequireOwner)

	// Membership management - owner only
	scoped.POST("/users", handler.AddWorkspaceUser, middleware.RequireOwner)
	scoped.DELETE("/users/:userId", handler.RemoveWorkspaceUser, middleware.RequireOwner)

	// Discount eligibility
	scoped.GET("/discounts/:discountId", handler.GetDiscount)
	scoped.PUT("/discounts/:discountId/partners", handler.UpdateDiscountPartners, middleware.RequireOwner)

	// Partner program application forms
	scoped.GET("/programs/:programId/application-form", handler.GetProgramApplicationForm)

	// Start server
	port := cfg.Server.Port
	go func() {
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	// Stop the cleanup worker after in-flight requests have drained so that
	// late enqueues still get consumed on the next boot
	cancelWorker()
	worker.Stop()

	log.Info("Shutdown complete")
}
