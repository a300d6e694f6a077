package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/verdict/internal/adapters/http/api"
	"github.com/okian/verdict/internal/adapters/http/swagger"
	"github.com/okian/verdict/internal/adapters/judge"
	"github.com/okian/verdict/internal/adapters/leaderboard"
	"github.com/okian/verdict/internal/adapters/realtime"
	"github.com/okian/verdict/internal/adapters/repository"
	"github.com/okian/verdict/internal/adapters/storage"
	service "github.com/okian/verdict/internal/app"
	"github.com/okian/verdict/internal/config"
	"github.com/okian/verdict/pkg/logger"
	"github.com/okian/verdict/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Artifact storage backend
	blobs, err := newBlobStore(cfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to initialize artifact storage", logger.Error(err))
		return
	}

	// Realtime fan-out and leaderboard
	hub := realtime.NewHub(realtime.WithBufferSize(cfg.StreamBufferSize))
	defer hub.Close()
	board := leaderboard.New(leaderboard.WithBroadcaster(hub))

	// Judge engine client
	judgeClient := judge.NewClient(
		judge.WithBaseURL(cfg.JudgeURL),
		judge.WithTimeout(time.Duration(cfg.JudgeTimeoutMS)*time.Millisecond),
	)

	store := repository.NewMemoryStore()
	if cfg.SeedDemo {
		if err := seedDemoCatalog(ctx, store); err != nil {
			loggerInstance.Error(ctx, "failed to seed demo catalog", logger.Error(err))
			return
		}
		loggerInstance.Info(ctx, "demo catalog seeded", logger.String("contestID", demoContestID))
	}

	svc := service.New(
		service.WithLogger(loggerInstance),
		service.WithStore(store),
		service.WithJudge(judgeClient),
		service.WithStorage(blobs),
		service.WithBoard(board),
		service.WithMaxUploadBytes(cfg.MaxUploadBytes),
		service.WithAllowedFileTypes(cfg.AllowedFileTypes),
	)

	loggerInstance.Info(ctx, "evaluation service wired",
		logger.String("judgeURL", cfg.JudgeURL),
		logger.String("storageBackend", cfg.StorageBackend),
		logger.Int("judgeTimeoutMS", cfg.JudgeTimeoutMS),
	)

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register API docs
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, hub, cfg.MaxLeaderboardLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newBlobStore selects the artifact storage backend from config.
func newBlobStore(cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == "s3" {
		return storage.NewS3Store(cfg.S3Bucket, storage.WithRegion(cfg.S3Region))
	}
	return storage.NewMemoryStore(), nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that refreshes
// service-level gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics refreshes service-level gauges.
func updateServiceMetrics(svc *service.Service) {
	// GetStats updates the submission gauge as a side effect.
	_ = svc.GetStats()
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	// Update memory usage
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	// Update goroutine count
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	// Update GC pause time
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
