package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"shopstream.app/sync/common/id"
	"shopstream.app/sync/common/logger"
	"shopstream.app/sync/common/otel"
	"shopstream.app/sync/core/config"
	"shopstream.app/sync/core/db"
	"shopstream.app/sync/internal/runlock"
	"shopstream.app/sync/internal/segment"
	"shopstream.app/sync/internal/service"
	"shopstream.app/sync/internal/store"
	"shopstream.app/sync/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "sync worker starting",
		"env", cfg.Env,
		"interval", cfg.Sync.Interval)

	// Initialize snowflake ID generator (use different node ID than server)
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected")

	stores := store.NewStores(database.Pool())
	sender := segment.NewClient(cfg.Segment)
	if cfg.Segment.DryRun() {
		slog.WarnContext(ctx, "no segment write key configured, running in dry-run mode")
	}

	hostname, _ := os.Hostname()
	locks := runlock.New(redisClient, cfg.Redis.RunLockTTL, fmt.Sprintf("%s:%d", hostname, os.Getpid()))

	services := service.NewServices(service.ServicesConfig{
		Stores: stores,
		Sender: sender,
		Locks:  locks,
		Sync:   cfg.Sync,
	})

	scheduler := worker.NewScheduler(services.Sync(), services.Failures(), worker.SchedulerConfig{
		Interval:  cfg.Sync.Interval,
		Retention: cfg.Sync.FailedEventRetention,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go scheduler.Run(runCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")
	scheduler.Stop()

	if telemetry != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
		defer shutdownCancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "shutdown complete")
}
