package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/clubswap/clubswap-backend/api/routes"
	"github.com/clubswap/clubswap-backend/internal/auth"
	checkoutsvc "github.com/clubswap/clubswap-backend/internal/checkout"
	"github.com/clubswap/clubswap-backend/internal/discounts"
	"github.com/clubswap/clubswap-backend/internal/messaging"
	"github.com/clubswap/clubswap-backend/internal/orders"
	"github.com/clubswap/clubswap-backend/internal/payments/connect"
	"github.com/clubswap/clubswap-backend/internal/payments/paypalorders"
	"github.com/clubswap/clubswap-backend/internal/payments/stripecheckout"
	"github.com/clubswap/clubswap-backend/internal/payouts"
	"github.com/clubswap/clubswap-backend/internal/products"
	"github.com/clubswap/clubswap-backend/internal/pros"
	"github.com/clubswap/clubswap-backend/internal/reviews"
	"github.com/clubswap/clubswap-backend/internal/shipping"
	"github.com/clubswap/clubswap-backend/internal/users"
	"github.com/clubswap/clubswap-backend/internal/wanted"
	stripewebhook "github.com/clubswap/clubswap-backend/internal/webhooks/stripe"
	"github.com/clubswap/clubswap-backend/pkg/auth/session"
	"github.com/clubswap/clubswap-backend/pkg/config"
	"github.com/clubswap/clubswap-backend/pkg/db"
	"github.com/clubswap/clubswap-backend/pkg/logger"
	"github.com/clubswap/clubswap-backend/pkg/metrics"
	"github.com/clubswap/clubswap-backend/pkg/migrate"
	"github.com/clubswap/clubswap-backend/pkg/paypal"
	"github.com/clubswap/clubswap-backend/pkg/redis"
	"github.com/clubswap/clubswap-backend/pkg/stripe"
)

const webhookIdempotencyTTL = 72 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})
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
		ServiceName: "api",
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
	paypalClient, err := paypal.NewClient(ctx, cfg.PayPal, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap paypal", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	payoutRepo := payouts.NewRepository(gormDB)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "failed to create register service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productRepo)
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}

	var quoter shipping.Quoter
	if strings.TrimSpace(cfg.Shipping.BaseURL) == "" {
		logg.Warn(ctx, "shipping base URL not configured, checkout intents carry zero shipping")
	} else {
		shippingClient, err := shipping.NewClient(cfg.Shipping)
		if err != nil {
			logg.Error(ctx, "failed to create shipping client", err)
			os.Exit(1)
		}
		quoter = shippingClient
	}

	discountService, err := discounts.NewService(userRepo)
	if err != nil {
		logg.Error(ctx, "failed to create discounts service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Products:  productRepo,
		Users:     userRepo,
		Quoter:    quoter,
		Discounts: discountService,
		Config:    cfg.Checkout,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	stripeCheckout, err := stripecheckout.NewService(stripecheckout.ServiceParams{
		Client: stripecheckout.NewStripeClient(stripeClient),
		App:    cfg.App,
		Stripe: cfg.Stripe,
	})
	if err != nil {
		logg.Error(ctx, "failed to create stripe checkout service", err)
		os.Exit(1)
	}

	paypalOrders, err := paypalorders.NewService(paypalorders.ServiceParams{
		Client:    paypalorders.NewPayPalClient(paypalClient),
		App:       cfg.App,
		BrandName: paypalClient.BrandName(),
	})
	if err != nil {
		logg.Error(ctx, "failed to create paypal order service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	settlement, err := orders.NewSettlement(orders.SettlementParams{
		Orders:            ordersRepo,
		Products:          productRepo,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create settlement", err)
		os.Exit(1)
	}

	messagingService, err := messaging.NewService(messaging.NewRepository(gormDB))
	if err != nil {
		logg.Error(ctx, "failed to create messaging service", err)
		os.Exit(1)
	}

	reviewService, err := reviews.NewService(reviews.NewRepository(gormDB), gormDB)
	if err != nil {
		logg.Error(ctx, "failed to create review service", err)
		os.Exit(1)
	}

	wantedService, err := wanted.NewService(wanted.NewRepository(gormDB))
	if err != nil {
		logg.Error(ctx, "failed to create wanted service", err)
		os.Exit(1)
	}

	prosService, err := pros.NewService(pros.ServiceParams{
		Users:    userRepo,
		Products: productRepo,
		Sales:    ordersRepo,
		Reviews:  reviews.NewRepository(gormDB),
	})
	if err != nil {
		logg.Error(ctx, "failed to create pros service", err)
		os.Exit(1)
	}

	connectService, err := connect.NewService(connect.ServiceParams{
		Client: connect.NewStripeClient(stripeClient),
		Users:  userRepo,
		App:    cfg.App,
	})
	if err != nil {
		logg.Error(ctx, "failed to create connect service", err)
		os.Exit(1)
	}

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

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Settlement: settlement,
	})
	if err != nil {
		logg.Error(ctx, "failed to create webhook service", err)
		os.Exit(1)
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookIdempotencyTTL, "stripe-webhook")
	if err != nil {
		logg.Error(ctx, "failed to create webhook guard", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(routes.RouterParams{
		Config:             cfg,
		Logger:             logg,
		DBPinger:           dbClient,
		RedisClient:        redisClient,
		SessionChecker:     sessionManager,
		AuthService:        authService,
		RegisterService:    registerService,
		ProductService:     productService,
		CheckoutService:    checkoutService,
		StripeCheckout:     stripeCheckout,
		PayPalOrders:       paypalOrders,
		OrdersService:      ordersService,
		Settlement:         settlement,
		ShippingQuoter:     quoter,
		MessagingService:   messagingService,
		ReviewService:      reviewService,
		WantedService:      wantedService,
		ProsService:        prosService,
		DiscountService:    discountService,
		ConnectService:     connectService,
		PayoutService:      payoutService,
		StripeClient:       stripeClient,
		StripeWebhookSvc:   webhookService,
		StripeWebhookGuard: webhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(startCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(startCtx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(startCtx, "graceful shutdown failed", err)
		}
	}
}
