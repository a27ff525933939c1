package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/clubswap/clubswap-backend/internal/cron"
	"github.com/clubswap/clubswap-backend/internal/orders"
	"github.com/clubswap/clubswap-backend/internal/payouts"
	"github.com/clubswap/clubswap-backend/internal/users"
	"github.com/clubswap/clubswap-backend/internal/wanted"
	"github.com/clubswap/clubswap-backend/pkg/config"
	"github.com/clubswap/clubswap-backend/pkg/db"
	"github.com/clubswap/clubswap-backend/pkg/instance"
	"github.com/clubswap/clubswap-backend/pkg/logger"
	"github.com/clubswap/clubswap-backend/pkg/metrics"
	"github.com/clubswap/clubswap-backend/pkg/migrate"
	"github.com/clubswap/clubswap-backend/pkg/redis"
	"github.com/clubswap/clubswap-backend/pkg/stripe"
)

const lockKey = "cron-worker:leader"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	payoutRepo := payouts.NewRepository(gormDB)

	payoutService, err := payouts.NewService(payouts.ServiceParams{
		Transactions: ordersRepo,
		Users:        userRepo,
		Payouts:      payoutRepo,
		Client:       payouts.NewStripeClient(stripeClient),
		Metrics:      metrics.NewPayoutMetrics(nil),
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create payout service", err)
		os.Exit(1)
	}

	wantedService, err := wanted.NewService(wanted.NewRepository(gormDB))
	if err != nil {
		logg.Error(ctx, "failed to create wanted service", err)
		os.Exit(1)
	}

	payoutJob, err := cron.NewPayoutJob(logg, payoutService)
	if err != nil {
		logg.Error(ctx, "failed to create payout job", err)
		os.Exit(1)
	}
	cleanupJob, err := cron.NewWantedCleanupJob(logg, wantedService, 0)
	if err != nil {
		logg.Error(ctx, "failed to create wanted cleanup job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey, cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(ctx, "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(payoutJob, cleanupJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(nil),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runCtx = logg.WithField(runCtx, "instance", instance.GetID())
	logg.Info(runCtx, "starting cron worker")
	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker stopped")
}
