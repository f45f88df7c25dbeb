package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cbieks/authentix/api/controllers"
	webhookcontrollers "github.com/cbieks/authentix/api/controllers/webhooks"
	"github.com/cbieks/authentix/api/middleware"
	addresssvc "github.com/cbieks/authentix/internal/addresses"
	"github.com/cbieks/authentix/internal/auth"
	categorysvc "github.com/cbieks/authentix/internal/categories"
	listingsvc "github.com/cbieks/authentix/internal/listings"
	messagesvc "github.com/cbieks/authentix/internal/messages"
	ordersvc "github.com/cbieks/authentix/internal/orders"
	paymentsvc "github.com/cbieks/authentix/internal/payments"
	recommendsvc "github.com/cbieks/authentix/internal/recommendations"
	usersvc "github.com/cbieks/authentix/internal/users"
	watchsvc "github.com/cbieks/authentix/internal/watchlist"
	stripewebhook "github.com/cbieks/authentix/internal/webhooks/stripe"
	"github.com/cbieks/authentix/pkg/auth/session"
	"github.com/cbieks/authentix/pkg/config"
	"github.com/cbieks/authentix/pkg/db"
	"github.com/cbieks/authentix/pkg/enums"
	"github.com/cbieks/authentix/pkg/logger"
	"github.com/cbieks/authentix/pkg/redis"
	"github.com/cbieks/authentix/pkg/stripe"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database *db.Client,
	redisClient *redis.Client,
	sessions sessionManager,
	authService auth.Service,
	registerService auth.RegisterService,
	userService usersvc.Service,
	categoryService categorysvc.Service,
	listingService listingsvc.Service,
	addressService addresssvc.Service,
	watchlistService watchsvc.Service,
	messageService messagesvc.Service,
	orderService ordersvc.Service,
	paymentService paymentsvc.Service,
	recommendationService recommendsvc.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, database, redisClient, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(registerService, authService, logg))
		r.Post("/logout", controllers.AuthLogout(sessions, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessions, cfg.JWT, logg))
	})

	// Public marketplace surface, no auth required. The recommended feed
	// personalizes when a valid bearer token happens to be present.
	r.Route("/api/v1/public", func(r chi.Router) {
		r.Get("/listings", controllers.BrowseListings(listingService, logg))
		r.With(middleware.OptionalAuth(cfg.JWT, sessions, logg)).
			Get("/listings/recommended", controllers.RecommendedListings(recommendationService, logg))
		r.Get("/listings/{listingID}", controllers.GetListing(listingService, logg))
		r.Get("/categories", controllers.ListCategories(categoryService, logg))
		r.Get("/categories/{slug}", controllers.GetCategory(categoryService, logg))
		r.Get("/users/{userID}", controllers.PublicProfile(userService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.Me(userService, logg))
			r.Patch("/", controllers.UpdateProfile(userService, logg))
			r.Get("/listings", controllers.MyListings(listingService, logg))
			r.Get("/orders", controllers.BuyerOrders(orderService, logg))
			r.Get("/discovery-location", controllers.DiscoveryLocation(userService, logg))
			r.Put("/discovery-location", controllers.UpdateDiscoveryLocation(userService, logg))
		})

		r.Route("/listings", func(r chi.Router) {
			r.Post("/", controllers.CreateListing(listingService, logg))
			r.Patch("/{listingID}", controllers.UpdateListing(listingService, logg))
			r.Post("/{listingID}/status", controllers.SetListingStatus(listingService, logg))
			r.Post("/{listingID}/verification", controllers.RequestListingVerification(listingService, logg))
			r.Put("/{listingID}/watch", controllers.WatchListing(watchlistService, logg))
			r.Delete("/{listingID}/watch", controllers.UnwatchListing(watchlistService, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(addressService, logg))
			r.Post("/", controllers.CreateAddress(addressService, logg))
			r.Put("/{addressID}", controllers.UpdateAddress(addressService, logg))
			r.Delete("/{addressID}", controllers.DeleteAddress(addressService, logg))
		})

		r.Get("/watchlist", controllers.Watchlist(watchlistService, logg))

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", controllers.MessageInbox(messageService, logg))
			r.Post("/", controllers.SendMessage(messageService, logg))
			r.Get("/unread", controllers.MessageUnreadCount(messageService, logg))
			r.Get("/{listingID}/{userID}", controllers.MessageThread(messageService, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/connect/onboard", controllers.ConnectOnboard(paymentService, logg))
			r.Post("/purchase-intent", controllers.CreatePurchaseIntent(paymentService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Get("/listings", controllers.AdminListings(listingService, logg))
			r.Patch("/listings/{listingID}/verification", controllers.AdminSetListingVerification(listingService, logg))
		})
	})

	return r
}
