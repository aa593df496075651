package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/dtt-git/stash-battle/internal/adapters/cache"
	"github.com/dtt-git/stash-battle/internal/adapters/http/api"
	"github.com/dtt-git/stash-battle/internal/adapters/session"
	"github.com/dtt-git/stash-battle/internal/adapters/stash"
	"github.com/dtt-git/stash-battle/internal/adapters/storage/bolt"
	service "github.com/dtt-git/stash-battle/internal/app"
	"github.com/dtt-git/stash-battle/internal/config"
	"github.com/dtt-git/stash-battle/pkg/logger"
	"github.com/dtt-git/stash-battle/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("logger sync failed: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

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
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Durable tier shared by the cache and the session store.
	db, err := bolt.Open(cfg.DBPath)
	if err != nil {
		log.Error(ctx, "failed to open state store", logger.String("path", cfg.DBPath), logger.Error(err))
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error(ctx, "state store close failed", logger.Error(err))
		}
	}()

	// Media-server gateway behind a circuit breaker.
	client := stash.NewClient(cfg.StashURL,
		stash.WithAPIKey(cfg.StashAPIKey),
		stash.WithTimeout(cfg.StashTimeout()),
	)
	breaker := stash.NewBreaker(client,
		stash.WithBreakerMinRequests(uint32(cfg.BreakerMinRequests)),
		stash.WithBreakerFailureRatio(cfg.BreakerFailureRatio),
		stash.WithBreakerOpenTimeout(cfg.BreakerOpenTimeout()),
	)

	scenes := cache.New(stash.NewSource(breaker),
		cache.WithPersister(db),
		cache.WithMaxAge(cfg.CacheMaxAge()),
	)

	// Create and start the battle engine with configuration options
	svc := service.New(breaker, scenes, session.NewStore(db),
		service.WithLogger(log),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDrainTimeout(cfg.DrainTimeout()),
		service.WithWriteTimeout(cfg.WriteTimeout()),
		service.WithBreakerProbe(breaker.State),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start engine", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Start background metrics updaters
	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(mux)

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
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
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
// engine gauges between requests.
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

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges from the engine's stats snapshot.
// GetStats itself pushes the pool and pending-write gauges; the queue and
// library gauges are refreshed here.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if total, ok := stats["total_count"].(int); ok {
		metrics.UpdateScenesTotal(total)
	}
	if writer, ok := stats["writer"].(map[string]interface{}); ok {
		if queued, ok := writer["queued"].(int); ok {
			metrics.UpdateWriterQueueSize(queued)
		}
	}
}
