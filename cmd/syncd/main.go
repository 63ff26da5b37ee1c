package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/japanesestudent/offline-service/internal/config"
	"github.com/japanesestudent/offline-service/internal/connectivity"
	"github.com/japanesestudent/offline-service/internal/gateway"
	"github.com/japanesestudent/offline-service/internal/handlers"
	"github.com/japanesestudent/offline-service/internal/logger"
	"github.com/japanesestudent/offline-service/internal/middlewares"
	"github.com/japanesestudent/offline-service/internal/repositories"
	"github.com/japanesestudent/offline-service/internal/services"
	"github.com/japanesestudent/offline-service/internal/store"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting JapaneseStudent Offline Sync Service")

	// Open the local store. Failure here is fatal: nothing in the
	// offline subsystem can run without it.
	localStore, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Logger.Fatal("Failed to open local store", zap.Error(err))
	}
	defer localStore.Close()

	db := localStore.DB()

	// Initialize repositories
	lessonRepo := repositories.NewLessonRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	progressRepo := repositories.NewProgressRepository(db)
	queueRepo := repositories.NewQueueRepository(db)
	cacheRepo := repositories.NewCacheRepository(db)

	// Initialize services
	progressTracker := services.NewProgressTracker(progressRepo, logger.Logger)
	syncQueue := services.NewSyncQueue(queueRepo, logger.Logger)
	contentCache := services.NewContentCache(lessonRepo, courseRepo, cacheRepo, logger.Logger)

	// Initialize connectivity monitoring
	monitor := connectivity.NewMonitor(false, logger.Logger)
	watcher, err := connectivity.NewWatcher(monitor, cfg.Remote.BaseURL, cfg.Sync.ConnectivityCheckInterval, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to create connectivity watcher", zap.Error(err))
	}

	// Initialize the remote gateway and sync manager
	remoteGateway := gateway.NewHTTPGateway(cfg.Remote.BaseURL, cfg.Remote.APIKey)
	syncManager := services.NewSyncManager(
		progressTracker,
		syncQueue,
		remoteGateway,
		monitor,
		logger.Logger,
		cfg.Sync.UserID,
		cfg.Sync.Interval,
	)

	watcher.Start()
	syncManager.Start()

	// Prune stale response cache entries on startup
	if _, err := contentCache.PruneResponses(context.Background(), cfg.Cache.MaxAge); err != nil {
		logger.Logger.Warn("Failed to prune response cache", zap.Error(err))
	}

	// Initialize handlers
	syncHandler := handlers.NewSyncHandler(syncManager, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(middlewares.LoggingMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(httprate.LimitByIP(100, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		syncHandler.RegisterRoutes(r)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Control surface starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Control surface failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down...")

	// Stop scheduling further passes; a running pass completes on its own
	syncManager.Stop()
	watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Control surface forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Offline sync service exited")
}
