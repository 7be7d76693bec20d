// Command server runs the company surveillance API and its background sweep.
// main only wires dependencies; business logic lives in the internal
// services.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vigie/internal/activity"
	activitykafka "vigie/internal/activity/kafka"
	"vigie/internal/company"
	"vigie/internal/email"
	httpapi "vigie/internal/http"
	"vigie/internal/platform/config"
	"vigie/internal/platform/httpserver"
	"vigie/internal/platform/logger"
	"vigie/internal/platform/middleware"
	"vigie/internal/platform/postgres"
	platformredis "vigie/internal/platform/redis"
	"vigie/internal/quota"
	"vigie/internal/surveillance/dispatch"
	"vigie/internal/surveillance/handler"
	"vigie/internal/surveillance/metrics"
	"vigie/internal/surveillance/ports"
	"vigie/internal/surveillance/service"
	changeStore "vigie/internal/surveillance/store/change"
	claimStore "vigie/internal/surveillance/store/claim"
	snapshotStore "vigie/internal/surveillance/store/snapshot"
	surveillanceStore "vigie/internal/surveillance/store/surveillance"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	var (
		surveillances ports.SurveillanceStore
		snapshots     ports.SnapshotStore
		changes       ports.ChangeStore
		projections   ports.ProjectionSource
	)
	if db != nil {
		surveillances = surveillanceStore.NewPostgres(db)
		snapshots = snapshotStore.NewPostgres(db)
		changes = changeStore.NewPostgres(db)
		projections = company.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		surveillances = surveillanceStore.NewMemory()
		snapshots = snapshotStore.NewMemory()
		changes = changeStore.NewMemory()
		projections = company.NewMemory()
	}

	m := metrics.New()
	dispatcher := dispatch.New(email.NewLogSender(log),
		dispatch.WithLogger(log),
		dispatch.WithMetrics(m),
	)

	quotaService, err := quota.New(quota.NewMemoryStore(), quota.WithLogger(log))
	if err != nil {
		log.Error("quota service init failed", "error", err)
		os.Exit(1)
	}

	serviceOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithSweepWorkers(cfg.SweepWorkers),
	}

	redisClient, err := platformredis.New(config.RedisFromEnv(cfg.RedisURL))
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		serviceOpts = append(serviceOpts, service.WithClaimer(claimStore.NewRedis(redisClient.Client)))
	} else {
		log.Warn("REDIS_URL not set, sweep claims disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher ports.ActivityPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := activitykafka.NewPublisher(ctx, cfg.KafkaBrokers)
		if err != nil {
			log.Error("kafka publisher init failed", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	} else {
		log.Warn("KAFKA_BROKERS not set, keeping activity in memory")
		inbox := make(chan activity.Event, 256)
		publisher = activity.NewChannelPublisher(inbox)
		go func() {
			if err := activity.NewWorker(activity.NewMemoryStore(), inbox).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("activity worker stopped", "error", err)
			}
		}()
	}
	serviceOpts = append(serviceOpts, service.WithActivityPublisher(publisher))

	surveillanceService, err := service.New(
		surveillances, snapshots, changes, projections, quotaService, dispatcher,
		serviceOpts...,
	)
	if err != nil {
		log.Error("surveillance service init failed", "error", err)
		os.Exit(1)
	}

	validator := middleware.NewJWTValidator(cfg.JWTSigningKey)
	router := httpapi.New(handler.New(surveillanceService, log), validator, log)
	srv := httpserver.New(cfg.Addr, router)

	go runSweeper(ctx, log, surveillanceService, cfg.SweepInterval)

	go func() {
		log.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// runSweeper drives the scheduled checks until the context is cancelled.
func runSweeper(ctx context.Context, log *slog.Logger, svc *service.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := svc.Sweep(ctx)
			if err != nil {
				log.Error("sweep failed", "error", err)
				continue
			}
			log.Info("sweep completed",
				"checked", result.Checked,
				"changes_detected", result.ChangesDetected,
				"alerts_sent", result.AlertsSent,
				"errors", result.Errors,
			)
		}
	}
}
