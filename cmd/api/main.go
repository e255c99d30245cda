package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"workspace-state-engine/internal/client"
	"workspace-state-engine/internal/config"
	"workspace-state-engine/internal/controller"
	"workspace-state-engine/internal/database"
	"workspace-state-engine/internal/job"
	"workspace-state-engine/internal/metrics"
	"workspace-state-engine/internal/repository"
	"workspace-state-engine/internal/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting Workspace State Engine",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("base_path", cfg.Server.BasePath),
	)

	// Initialize metrics
	m := metrics.New()

	// Initialize local snapshot store
	dbConfig := database.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	db, err := database.New(dbConfig)
	if err != nil {
		logger.Warn("Failed to connect to database on startup, will retry in background",
			zap.Error(err))
		database.NewAsync(dbConfig, 5*time.Second)
	} else {
		database.SetDB(db)
		logger.Info("Database connected successfully")

		if err := database.AutoMigrate(db); err != nil {
			logger.Warn("Failed to run database migrations", zap.Error(err))
		} else {
			logger.Info("Database migrations completed")
		}
		database.RegisterMetricsCallbacks(db, m)
	}

	// Initialize remote sync store. Missing redis is not fatal; controllers
	// persist locally and report sync as unavailable.
	if err := database.InitRedis(cfg, logger); err != nil {
		logger.Warn("Remote sync store unavailable, operating locally only", zap.Error(err))
	}

	var remote client.RemoteStateClient
	if rdb := database.GetRedis(); rdb != nil {
		remote = client.NewRemoteStateClient(rdb, 5*time.Second, logger, m)
		logger.Info("Remote sync store connected")
	}

	// One controller per signed-in user, created on first touch
	registry := controller.NewRegistry(func(userID string) *controller.Controller {
		return controller.New(controller.Config{
			UserID:         userID,
			Snapshots:      repository.NewSnapshotRepository(database.GetDB()),
			Remote:         remote,
			Logger:         logger,
			Metrics:        m,
			Debounce:       cfg.Sync.Debounce,
			HistoryDepth:   cfg.History.Depth,
			CoalesceWindow: cfg.History.CoalesceWindow,
		})
	})

	// Schedule sync retry job
	cronScheduler := cron.New()
	retryJob := job.NewSyncRetryJob(registry, logger)
	if _, err := cronScheduler.AddJob(cfg.Sync.RetryCron, retryJob); err != nil {
		logger.Warn("Failed to schedule sync retry job", zap.Error(err))
	} else {
		cronScheduler.Start()
		logger.Info("Sync retry job scheduled", zap.String("cadence", cfg.Sync.RetryCron))
	}

	// Setup router with all dependencies
	r := router.Setup(router.Config{
		Registry:       registry,
		Logger:         logger,
		JWTSecret:      cfg.Auth.JWTSecret,
		BasePath:       cfg.Server.BasePath,
		Metrics:        m,
		AllowedOrigins: []string{"*"},
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Workspace State Engine started successfully",
			zap.String("address", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	cronScheduler.Stop()

	// Flush every pending state before exit
	registry.CloseAll(ctx)

	if db := database.GetDB(); db != nil {
		if err := database.Close(db); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
