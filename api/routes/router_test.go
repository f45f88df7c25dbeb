package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	addresssvc "github.com/cbieks/authentix/internal/addresses"
	"github.com/cbieks/authentix/internal/auth"
	listingsvc "github.com/cbieks/authentix/internal/listings"
	messagesvc "github.com/cbieks/authentix/internal/messages"
	ordersvc "github.com/cbieks/authentix/internal/orders"
	paymentsvc "github.com/cbieks/authentix/internal/payments"
	usersvc "github.com/cbieks/authentix/internal/users"
	stripewebhook "github.com/cbieks/authentix/internal/webhooks/stripe"
	pkgAuth "github.com/cbieks/authentix/pkg/auth"
	"github.com/cbieks/authentix/pkg/auth/session"
	"github.com/cbieks/authentix/pkg/config"
	"github.com/cbieks/authentix/pkg/db/models"
	"github.com/cbieks/authentix/pkg/enums"
	"github.com/cbieks/authentix/pkg/logger"
	"github.com/cbieks/authentix/pkg/redis"
)

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubUserService struct{}

func (stubUserService) Me(ctx context.Context, userID uuid.UUID) (*usersvc.UserDTO, error) {
	return &usersvc.UserDTO{ID: userID}, nil
}

func (stubUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input usersvc.UpdateProfileInput) (*usersvc.UserDTO, error) {
	return &usersvc.UserDTO{ID: userID}, nil
}

func (stubUserService) PublicProfile(ctx context.Context, userID uuid.UUID) (*usersvc.PublicProfileDTO, error) {
	return &usersvc.PublicProfileDTO{ID: userID}, nil
}

func (stubUserService) DiscoveryLocation(ctx context.Context, userID uuid.UUID) (*usersvc.DiscoveryLocationDTO, error) {
	return &usersvc.DiscoveryLocationDTO{}, nil
}

func (stubUserService) UpdateDiscoveryLocation(ctx context.Context, userID uuid.UUID, zipCode, country string) (*usersvc.DiscoveryLocationDTO, error) {
	return &usersvc.DiscoveryLocationDTO{}, nil
}

type stubCategoryService struct{}

func (stubCategoryService) List(ctx context.Context) ([]models.Category, error) {
	return []models.Category{}, nil
}

func (stubCategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return &models.Category{Slug: slug}, nil
}

type stubListingService struct{}

func (stubListingService) Create(ctx context.Context, sellerID uuid.UUID, input listingsvc.CreateInput) (*models.Listing, error) {
	return &models.Listing{SellerID: sellerID}, nil
}

func (stubListingService) Update(ctx context.Context, sellerID, listingID uuid.UUID, input listingsvc.UpdateInput) (*models.Listing, error) {
	return &models.Listing{ID: listingID}, nil
}

func (stubListingService) SetStatus(ctx context.Context, sellerID, listingID uuid.UUID, status enums.ListingStatus) (*models.Listing, error) {
	return &models.Listing{ID: listingID, Status: status}, nil
}

func (stubListingService) Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	return &models.Listing{ID: listingID}, nil
}

func (stubListingService) Browse(ctx context.Context, filters listingsvc.BrowseFilters) ([]models.Listing, error) {
	return []models.Listing{}, nil
}

func (stubListingService) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Listing, error) {
	return []models.Listing{}, nil
}

func (stubListingService) RequestVerification(ctx context.Context, sellerID, listingID uuid.UUID) (*models.Listing, error) {
	return &models.Listing{ID: listingID, Verification: enums.VerificationStatusPending}, nil
}

func (stubListingService) ListPendingVerification(ctx context.Context, limit, offset int) ([]models.Listing, error) {
	return []models.Listing{}, nil
}

func (stubListingService) SetVerification(ctx context.Context, listingID uuid.UUID, status enums.VerificationStatus) (*models.Listing, error) {
	return &models.Listing{ID: listingID, Verification: status}, nil
}

type stubRecommendationService struct{}

func (stubRecommendationService) ForViewer(ctx context.Context, viewerID uuid.UUID, seedListingID *uuid.UUID) ([]models.Listing, error) {
	return []models.Listing{}, nil
}

type stubAddressService struct{}

func (stubAddressService) Create(ctx context.Context, userID uuid.UUID, input addresssvc.Input) (*models.Address, error) {
	return &models.Address{UserID: userID}, nil
}

func (stubAddressService) Update(ctx context.Context, userID, addressID uuid.UUID, input addresssvc.Input) (*models.Address, error) {
	return &models.Address{ID: addressID}, nil
}

func (stubAddressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return nil
}

func (stubAddressService) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return []models.Address{}, nil
}

func (stubAddressService) GetOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	return &models.Address{ID: addressID, UserID: userID}, nil
}

type stubWatchlistService struct{}

func (stubWatchlistService) AddItem(ctx context.Context, userID, listingID uuid.UUID) error {
	return nil
}

func (stubWatchlistService) RemoveItem(ctx context.Context, userID, listingID uuid.UUID) error {
	return nil
}

func (stubWatchlistService) ListListings(ctx context.Context, userID uuid.UUID) ([]models.Listing, error) {
	return []models.Listing{}, nil
}

type stubMessageService struct{}

func (stubMessageService) Send(ctx context.Context, senderID uuid.UUID, input messagesvc.SendInput) (*models.Message, error) {
	return &models.Message{SenderID: senderID}, nil
}

func (stubMessageService) Thread(ctx context.Context, userID, listingID, otherID uuid.UUID) ([]models.Message, error) {
	return []models.Message{}, nil
}

func (stubMessageService) Inbox(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	return []models.Message{}, nil
}

func (stubMessageService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubOrderService struct{}

func (stubOrderService) CreatePendingOrder(ctx context.Context, input ordersvc.CreatePendingOrderInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrderService) MarkPaidByPaymentIntentID(ctx context.Context, paymentIntentID string) error {
	return nil
}

func (stubOrderService) MarkFailedByPaymentIntentID(ctx context.Context, paymentIntentID string) error {
	return nil
}

func (stubOrderService) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	return []models.Order{}, nil
}

type stubPaymentService struct{}

func (stubPaymentService) EnsurePayoutAccount(ctx context.Context, userID uuid.UUID) (string, error) {
	return "acct_stub", nil
}

func (stubPaymentService) CreateOnboardingLink(ctx context.Context, userID uuid.UUID) (string, error) {
	return "https://connect.example/onboard", nil
}

func (stubPaymentService) CreatePurchaseIntent(ctx context.Context, buyerID, listingID, addressID uuid.UUID) (*paymentsvc.PurchaseIntentResult, error) {
	return &paymentsvc.PurchaseIntentResult{ClientSecret: "pi_secret"}, nil
}

type stubGuardStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (s *stubGuardStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *stubGuardStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = map[string]string{}
	}
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *stubGuardStore) IdempotencyKey(scope, id string) string {
	return "ax:idempotency:" + scope + ":" + id
}

func (s *stubGuardStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{Orders: stubOrderService{}})
	if err != nil {
		t.Fatalf("webhook service: %v", err)
	}
	guard, err := stripewebhook.NewIdempotencyGuard(&stubGuardStore{}, time.Minute, "stripe-webhook")
	if err != nil {
		t.Fatalf("webhook guard: %v", err)
	}
	return NewRouter(
		cfg,
		logg,
		nil,
		(*redis.Client)(nil),
		stubSessionManager{},
		stubAuthService{},
		stubRegisterService{},
		stubUserService{},
		stubCategoryService{},
		stubListingService{},
		stubAddressService{},
		stubWatchlistService{},
		stubMessageService{},
		stubOrderService{},
		stubPaymentService{},
		stubRecommendationService{},
		nil,
		webhookService,
		guard,
	)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	return buildRoleToken(t, cfg, enums.UserRoleUser)
}

func buildRoleToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestProtectedGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for authed profile got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestPublicBrowseNeedsNoAuth(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/listings?q=vintage", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public browse got %d", resp.Code)
	}
}

func TestPublicListingDetailNeedsNoAuth(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/listings/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public listing detail got %d", resp.Code)
	}
}

func TestWebhookRouteRejectsWhenStripeUnconfigured(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without stripe secret got %d", resp.Code)
	}
}

func TestPurchaseIntentRequiresAuth(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/purchase-intent", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestRecommendedFeedNeedsNoAuth(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/listings/recommended", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous recommendations got %d", resp.Code)
	}
}

func TestAdminGroupRejectsPlainUsers(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/listings?verification=pending", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}
}

func TestAdminGroupAllowsAdmins(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/listings?verification=pending", nil)
	req.Header.Set("Authorization", "Bearer "+buildRoleToken(t, cfg, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestAdminListingsRejectsOtherQueues(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/listings?verification=verified", nil)
	req.Header.Set("Authorization", "Bearer "+buildRoleToken(t, cfg, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-pending filter got %d", resp.Code)
	}
}
