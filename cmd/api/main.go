package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/cbieks/authentix/api/routes"
	"github.com/cbieks/authentix/internal/addresses"
	"github.com/cbieks/authentix/internal/auth"
	"github.com/cbieks/authentix/internal/categories"
	"github.com/cbieks/authentix/internal/listings"
	"github.com/cbieks/authentix/internal/messages"
	"github.com/cbieks/authentix/internal/orders"
	"github.com/cbieks/authentix/internal/payments"
	"github.com/cbieks/authentix/internal/recommendations"
	"github.com/cbieks/authentix/internal/users"
	"github.com/cbieks/authentix/internal/watchlist"
	stripewebhook "github.com/cbieks/authentix/internal/webhooks/stripe"
	"github.com/cbieks/authentix/pkg/auth/session"
	"github.com/cbieks/authentix/pkg/config"
	"github.com/cbieks/authentix/pkg/db"
	"github.com/cbieks/authentix/pkg/logger"
	"github.com/cbieks/authentix/pkg/migrate"
	"github.com/cbieks/authentix/pkg/redis"
	pkgstripe "github.com/cbieks/authentix/pkg/stripe"
	"github.com/joho/godotenv"
)

const webhookDedupeTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	listingRepo := listings.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	addressRepo := addresses.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	requireService(logg, "auth", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	requireService(logg, "register", err)

	userService, err := users.NewService(users.ServiceParams{Repo: userRepo})
	requireService(logg, "users", err)

	categoryService, err := categories.NewService(categories.ServiceParams{
		Repo: categories.NewRepository(dbClient.DB()),
	})
	requireService(logg, "categories", err)

	listingService, err := listings.NewService(listings.ServiceParams{Repo: listingRepo})
	requireService(logg, "listings", err)

	addressService, err := addresses.NewService(addresses.ServiceParams{Repo: addressRepo})
	requireService(logg, "addresses", err)

	watchlistRepo := watchlist.NewRepository(dbClient.DB())
	watchlistService, err := watchlist.NewService(watchlist.ServiceParams{
		WatchlistRepo: watchlistRepo,
		ListingRepo:   listingRepo,
	})
	requireService(logg, "watchlist", err)

	recommendationService, err := recommendations.NewService(recommendations.ServiceParams{
		Listings: listingRepo,
		Watches:  watchlistRepo,
	})
	requireService(logg, "recommendations", err)

	messageService, err := messages.NewService(messages.ServiceParams{
		Repo:        messages.NewRepository(dbClient.DB()),
		ListingRepo: listingRepo,
	})
	requireService(logg, "messages", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:              orderRepo,
		ListingRepo:       listingRepo,
		TransactionRunner: dbClient,
	})
	requireService(logg, "orders", err)

	var stripeClient *pkgstripe.Client
	if cfg.Stripe.Configured() {
		stripeClient, err = pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe is not configured, payment endpoints disabled")
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Users:        userRepo,
		Listings:     listingRepo,
		Addresses:    addressService,
		Orders:       orderService,
		StripeClient: payments.NewStripeClient(stripeClient),
		StripeConfig: cfg.Stripe,
		Payments:     cfg.Payments,
		Logger:       logg,
	})
	requireService(logg, "payments", err)

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{Orders: orderService})
	requireService(logg, "stripe webhook", err)

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookDedupeTTL, "stripe-webhook")
	requireService(logg, "webhook idempotency guard", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			registerService,
			userService,
			categoryService,
			listingService,
			addressService,
			watchlistService,
			messageService,
			orderService,
			paymentService,
			recommendationService,
			stripeClient,
			webhookService,
			webhookGuard,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name+" service", err)
	os.Exit(1)
}
