package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/cbieks/authentix/internal/orders"
	"github.com/cbieks/authentix/pkg/config"
	"github.com/cbieks/authentix/pkg/db/models"
	"github.com/cbieks/authentix/pkg/enums"
	pkgerrors "github.com/cbieks/authentix/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

type stubUserStore struct {
	users    map[uuid.UUID]*models.User
	accounts map[uuid.UUID]string
}

func (s *stubUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserStore) SetStripeConnectAccountID(ctx context.Context, id uuid.UUID, accountID string) error {
	if s.accounts == nil {
		s.accounts = map[uuid.UUID]string{}
	}
	s.accounts[id] = accountID
	return nil
}

type stubListingStore struct {
	listings map[uuid.UUID]*models.Listing
}

func (s *stubListingStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, ok := s.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return listing, nil
}

type stubAddressStore struct {
	addresses map[uuid.UUID]*models.Address
}

func (s *stubAddressStore) GetOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, ok := s.addresses[addressID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address does not belong to user")
	}
	return address, nil
}

type stubOrderCreator struct {
	created []orders.CreatePendingOrderInput
	err     error
}

func (s *stubOrderCreator) CreatePendingOrder(ctx context.Context, input orders.CreatePendingOrderInput) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, input)
	return &models.Order{
		ID:                    uuid.New(),
		StripePaymentIntentID: input.PaymentIntentID,
		Status:                enums.OrderStatusPending,
	}, nil
}

type stubStripeClient struct {
	intentParams  *stripe.PaymentIntentParams
	intentErr     error
	canceledIDs   []string
	cancelErr     error
	accountParams *stripe.AccountParams
	accountErr    error
	linkParams    *stripe.AccountLinkParams
	linkErr       error
	fetched       *stripe.PaymentIntent
	fetchErr      error
}

func (s *stubStripeClient) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if s.intentErr != nil {
		return nil, s.intentErr
	}
	s.intentParams = params
	return &stripe.PaymentIntent{ID: "pi_test_123", ClientSecret: "pi_test_123_secret"}, nil
}

func (s *stubStripeClient) CancelPaymentIntent(ctx context.Context, id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error) {
	s.canceledIDs = append(s.canceledIDs, id)
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	return &stripe.PaymentIntent{ID: id}, nil
}

func (s *stubStripeClient) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if s.fetched != nil {
		return s.fetched, nil
	}
	return &stripe.PaymentIntent{ID: id}, nil
}

func (s *stubStripeClient) CreateAccount(ctx context.Context, params *stripe.AccountParams) (*stripe.Account, error) {
	if s.accountErr != nil {
		return nil, s.accountErr
	}
	s.accountParams = params
	return &stripe.Account{ID: "acct_test_1"}, nil
}

func (s *stubStripeClient) CreateAccountLink(ctx context.Context, params *stripe.AccountLinkParams) (*stripe.AccountLink, error) {
	if s.linkErr != nil {
		return nil, s.linkErr
	}
	s.linkParams = params
	return &stripe.AccountLink{URL: "https://connect.stripe.com/setup/test"}, nil
}

type fixture struct {
	service  Service
	users    *stubUserStore
	listings *stubListingStore
	orders   *stubOrderCreator
	stripe   *stubStripeClient

	buyerID   uuid.UUID
	sellerID  uuid.UUID
	listingID uuid.UUID
	addressID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	buyerID := uuid.New()
	sellerID := uuid.New()
	listingID := uuid.New()
	addressID := uuid.New()
	account := "acct_seller"

	users := &stubUserStore{users: map[uuid.UUID]*models.User{
		buyerID:  {ID: buyerID, Email: "buyer@test.dev"},
		sellerID: {ID: sellerID, Email: "seller@test.dev", StripeConnectAccountID: &account},
	}}
	listings := &stubListingStore{listings: map[uuid.UUID]*models.Listing{
		listingID: {
			ID:       listingID,
			SellerID: sellerID,
			Title:    "Air Max 97",
			Price:    decimal.RequireFromString("19.99"),
			Status:   enums.ListingStatusActive,
		},
	}}
	addresses := &stubAddressStore{addresses: map[uuid.UUID]*models.Address{
		addressID: {
			ID:         addressID,
			UserID:     buyerID,
			Name:       "Buyer",
			Line1:      "1 Main St",
			City:       "Austin",
			State:      "TX",
			PostalCode: "78701",
			Country:    "US",
		},
	}}
	orderCreator := &stubOrderCreator{}
	stripeClient := &stubStripeClient{}

	svc, err := NewService(ServiceParams{
		Users:        users,
		Listings:     listings,
		Addresses:    addresses,
		Orders:       orderCreator,
		StripeClient: stripeClient,
		StripeConfig: config.StripeConfig{
			APIKey:            "sk_test_abc",
			ConnectReturnURL:  "https://app.test/return",
			ConnectRefreshURL: "https://app.test/refresh",
		},
		Payments: config.PaymentsConfig{PlatformFeePercent: 6, Currency: "usd"},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &fixture{
		service:   svc,
		users:     users,
		listings:  listings,
		orders:    orderCreator,
		stripe:    stripeClient,
		buyerID:   buyerID,
		sellerID:  sellerID,
		listingID: listingID,
		addressID: addressID,
	}
}

func TestCreatePurchaseIntent_Success(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.CreatePurchaseIntent(context.Background(), f.buyerID, f.listingID, f.addressID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ClientSecret != "pi_test_123_secret" {
		t.Fatalf("unexpected client secret %q", result.ClientSecret)
	}
	if result.OrderID == uuid.Nil {
		t.Fatal("expected order id")
	}

	params := f.stripe.intentParams
	if params == nil {
		t.Fatal("expected payment intent params captured")
	}
	if got := *params.Amount; got != 1999 {
		t.Fatalf("expected amount 1999, got %d", got)
	}
	if got := *params.ApplicationFeeAmount; got != 119 {
		t.Fatalf("expected application fee 119, got %d", got)
	}
	if got := *params.TransferData.Destination; got != "acct_seller" {
		t.Fatalf("expected destination acct_seller, got %q", got)
	}

	if len(f.orders.created) != 1 {
		t.Fatalf("expected one order created, got %d", len(f.orders.created))
	}
	created := f.orders.created[0]
	if created.PaymentIntentID != "pi_test_123" {
		t.Fatalf("unexpected payment intent id %q", created.PaymentIntentID)
	}
	if created.Amount.String() != "19.99" {
		t.Fatalf("unexpected amount %s", created.Amount)
	}
	if created.PlatformFee.String() != "1.19" {
		t.Fatalf("unexpected fee %s", created.PlatformFee)
	}
	if created.SellerPayout.String() != "18.8" {
		t.Fatalf("unexpected payout %s", created.SellerPayout)
	}
	if len(f.stripe.canceledIDs) != 0 {
		t.Fatalf("no cancellation expected, got %v", f.stripe.canceledIDs)
	}
}

func TestCreatePurchaseIntent_ListingNotActive(t *testing.T) {
	f := newFixture(t)
	f.listings.listings[f.listingID].Status = enums.ListingStatusSold

	_, err := f.service.CreatePurchaseIntent(context.Background(), f.buyerID, f.listingID, f.addressID)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if coded.Message() != "Listing is not available for purchase" {
		t.Fatalf("unexpected message %q", coded.Message())
	}
	if f.stripe.intentParams != nil {
		t.Fatal("processor must not be called for inactive listings")
	}
}

func TestCreatePurchaseIntent_SelfPurchase(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreatePurchaseIntent(context.Background(), f.sellerID, f.listingID, f.addressID)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if coded.Message() != "Cannot buy your own listing" {
		t.Fatalf("unexpected message %q", coded.Message())
	}
}

func TestCreatePurchaseIntent_SellerMissingPayouts(t *testing.T) {
	f := newFixture(t)
	f.users.users[f.sellerID].StripeConnectAccountID = nil

	_, err := f.service.CreatePurchaseIntent(context.Background(), f.buyerID, f.listingID, f.addressID)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if coded.Message() != "Seller has not set up payouts" {
		t.Fatalf("unexpected message %q", coded.Message())
	}
}

func TestCreatePurchaseIntent_ForeignAddressRejected(t *testing.T) {
	f := newFixture(t)
	f.addressID = uuid.New()
	other := uuid.New()
	_, err := f.service.CreatePurchaseIntent(context.Background(), f.buyerID, f.listingID, other)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCreatePurchaseIntent_CancelsIntentWhenOrderFails(t *testing.T) {
	f := newFixture(t)
	f.orders.err = pkgerrors.New(pkgerrors.CodeConflict, "Listing is not available for purchase")

	_, err := f.service.CreatePurchaseIntent(context.Background(), f.buyerID, f.listingID, f.addressID)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if len(f.stripe.canceledIDs) != 1 || f.stripe.canceledIDs[0] != "pi_test_123" {
		t.Fatalf("expected orphaned intent canceled, got %v", f.stripe.canceledIDs)
	}
}

func TestCreatePurchaseIntent_CancelFailureDoesNotMaskError(t *testing.T) {
	f := newFixture(t)
	f.orders.err = pkgerrors.New(pkgerrors.CodeConflict, "Listing is not available for purchase")
	f.stripe.cancelErr = errors.New("stripe down")

	_, err := f.service.CreatePurchaseIntent(context.Background(), f.buyerID, f.listingID, f.addressID)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected original conflict error, got %v", err)
	}
}

func TestCreatePurchaseIntent_StripeUnconfigured(t *testing.T) {
	f := newFixture(t)
	svc, err := NewService(ServiceParams{
		Users:        f.users,
		Listings:     f.listings,
		Addresses:    &stubAddressStore{},
		Orders:       f.orders,
		StripeClient: nil,
		StripeConfig: config.StripeConfig{},
		Payments:     config.PaymentsConfig{PlatformFeePercent: 6, Currency: "usd"},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.CreatePurchaseIntent(context.Background(), f.buyerID, f.listingID, f.addressID)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestEnsurePayoutAccount(t *testing.T) {
	f := newFixture(t)

	// existing account is reused without touching the processor
	got, err := f.service.EnsurePayoutAccount(context.Background(), f.sellerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "acct_seller" {
		t.Fatalf("expected existing account, got %q", got)
	}
	if f.stripe.accountParams != nil {
		t.Fatal("account creation should be skipped")
	}

	// first-time sellers get a fresh Express account
	got, err = f.service.EnsurePayoutAccount(context.Background(), f.buyerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "acct_test_1" {
		t.Fatalf("expected new account, got %q", got)
	}
	if f.users.accounts[f.buyerID] != "acct_test_1" {
		t.Fatalf("expected account persisted, got %q", f.users.accounts[f.buyerID])
	}
}

func TestCreateOnboardingLink(t *testing.T) {
	f := newFixture(t)

	url, err := f.service.CreateOnboardingLink(context.Background(), f.sellerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url == "" {
		t.Fatal("expected onboarding url")
	}
	if got := *f.stripe.linkParams.Account; got != "acct_seller" {
		t.Fatalf("unexpected account %q", got)
	}
	if got := *f.stripe.linkParams.Type; got != "account_onboarding" {
		t.Fatalf("unexpected link type %q", got)
	}
}

func TestProcessorFailuresSurfaceAsExternalErrors(t *testing.T) {
	f := newFixture(t)
	f.stripe.linkErr = errors.New("stripe rejected the link request")

	_, err := f.service.CreateOnboardingLink(context.Background(), f.sellerID)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeExternal {
		t.Fatalf("expected external service error, got %v", err)
	}

	f = newFixture(t)
	f.stripe.intentErr = errors.New("stripe rejected the intent")

	_, err = f.service.CreatePurchaseIntent(context.Background(), f.buyerID, f.listingID, f.addressID)
	coded = pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeExternal {
		t.Fatalf("expected external service error, got %v", err)
	}
	if meta := pkgerrors.MetadataFor(coded.Code()); meta.HTTPStatus != 400 {
		t.Fatalf("expected 400 for a failed processor call, got %d", meta.HTTPStatus)
	}
}
