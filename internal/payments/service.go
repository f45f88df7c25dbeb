package payments

import (
	"context"
	"errors"

	"github.com/cbieks/authentix/internal/orders"
	"github.com/cbieks/authentix/pkg/config"
	"github.com/cbieks/authentix/pkg/db/models"
	"github.com/cbieks/authentix/pkg/enums"
	pkgerrors "github.com/cbieks/authentix/pkg/errors"
	"github.com/cbieks/authentix/pkg/logger"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetStripeConnectAccountID(ctx context.Context, id uuid.UUID, accountID string) error
}

type listingStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

type addressOwnership interface {
	GetOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type orderCreator interface {
	CreatePendingOrder(ctx context.Context, input orders.CreatePendingOrderInput) (*models.Order, error)
}

// PurchaseIntentResult is what the purchase endpoint returns to the client.
type PurchaseIntentResult struct {
	ClientSecret string    `json:"client_secret"`
	OrderID      uuid.UUID `json:"order_id"`
}

// Service exposes payout-account management plus the purchase flow.
type Service interface {
	EnsurePayoutAccount(ctx context.Context, userID uuid.UUID) (string, error)
	CreateOnboardingLink(ctx context.Context, userID uuid.UUID) (string, error)
	CreatePurchaseIntent(ctx context.Context, buyerID, listingID, addressID uuid.UUID) (*PurchaseIntentResult, error)
}

// ServiceParams groups dependencies for the payment service. StripeClient may
// be nil when Stripe is not configured; the service then reports dependency
// errors on every payment operation.
type ServiceParams struct {
	Users        userStore
	Listings     listingStore
	Addresses    addressOwnership
	Orders       orderCreator
	StripeClient StripePaymentClient
	StripeConfig config.StripeConfig
	Payments     config.PaymentsConfig
	Logger       *logger.Logger
}

type service struct {
	users     userStore
	listings  listingStore
	addresses addressOwnership
	orders    orderCreator
	stripe    StripePaymentClient
	stripeCfg config.StripeConfig
	payments  config.PaymentsConfig
	logg      *logger.Logger
}

// NewService builds a payment service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users store required")
	}
	if params.Listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "listings store required")
	}
	if params.Addresses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "addresses store required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order creator required")
	}
	if params.Payments.PlatformFeePercent < 0 || params.Payments.PlatformFeePercent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "platform fee percent out of range")
	}
	return &service{
		users:     params.Users,
		listings:  params.Listings,
		addresses: params.Addresses,
		orders:    params.Orders,
		stripe:    params.StripeClient,
		stripeCfg: params.StripeConfig,
		payments:  params.Payments,
		logg:      params.Logger,
	}, nil
}

// EnsurePayoutAccount returns the seller's Connect account id, creating an
// Express account on first use.
func (s *service) EnsurePayoutAccount(ctx context.Context, userID uuid.UUID) (string, error) {
	if err := s.requireStripe(); err != nil {
		return "", err
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeConnectAccountID != nil && *user.StripeConnectAccountID != "" {
		return *user.StripeConnectAccountID, nil
	}

	account, err := s.stripe.CreateAccount(ctx, &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(user.Email),
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeExternal, err, "create connect account")
	}

	if err := s.users.SetStripeConnectAccountID(ctx, user.ID, account.ID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store connect account id")
	}
	return account.ID, nil
}

// CreateOnboardingLink mints a fresh Connect onboarding URL for the seller.
func (s *service) CreateOnboardingLink(ctx context.Context, userID uuid.UUID) (string, error) {
	accountID, err := s.EnsurePayoutAccount(ctx, userID)
	if err != nil {
		return "", err
	}

	link, err := s.stripe.CreateAccountLink(ctx, &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		ReturnURL:  stripe.String(s.stripeCfg.ConnectReturnURL),
		RefreshURL: stripe.String(s.stripeCfg.ConnectRefreshURL),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeExternal, err, "create onboarding link")
	}
	return link.URL, nil
}

// CreatePurchaseIntent validates the purchase, authorizes the charge with the
// processor, then persists the provisional order. The processor call happens
// outside any database transaction.
func (s *service) CreatePurchaseIntent(ctx context.Context, buyerID, listingID, addressID uuid.UUID) (*PurchaseIntentResult, error) {
	if err := s.requireStripe(); err != nil {
		return nil, err
	}
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	listing, err := s.loadListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != enums.ListingStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Listing is not available for purchase")
	}
	if listing.SellerID == buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cannot buy your own listing")
	}

	seller, err := s.loadUser(ctx, listing.SellerID)
	if err != nil {
		return nil, err
	}
	if seller.StripeConnectAccountID == nil || *seller.StripeConnectAccountID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Seller has not set up payouts")
	}

	address, err := s.addresses.GetOwned(ctx, buyerID, addressID)
	if err != nil {
		return nil, err
	}

	fees := ComputeFees(listing.Price, int64(s.payments.PlatformFeePercent))
	if fees.AmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing price must be positive")
	}

	intentParams := &stripe.PaymentIntentParams{
		Amount:               stripe.Int64(fees.AmountMinor),
		Currency:             stripe.String(s.payments.Currency),
		ApplicationFeeAmount: stripe.Int64(fees.FeeMinor),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(*seller.StripeConnectAccountID),
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	intentParams.AddMetadata("listing_id", listing.ID.String())
	intentParams.AddMetadata("buyer_id", buyerID.String())

	intent, err := s.stripe.CreatePaymentIntent(ctx, intentParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeExternal, err, "create payment intent")
	}

	order, err := s.orders.CreatePendingOrder(ctx, orders.CreatePendingOrderInput{
		BuyerID:         buyerID,
		SellerID:        listing.SellerID,
		ListingID:       listing.ID,
		PaymentIntentID: intent.ID,
		Amount:          MinorToDecimal(fees.AmountMinor),
		PlatformFee:     MinorToDecimal(fees.FeeMinor),
		SellerPayout:    MinorToDecimal(fees.PayoutMinor),
		ShipTo:          address,
	})
	if err != nil {
		s.cancelOrphanedIntent(ctx, intent.ID)
		return nil, err
	}

	return &PurchaseIntentResult{
		ClientSecret: intent.ClientSecret,
		OrderID:      order.ID,
	}, nil
}

// cancelOrphanedIntent voids an authorization whose order never persisted.
// Failures here are logged and swallowed; the caller's error wins.
func (s *service) cancelOrphanedIntent(ctx context.Context, intentID string) {
	if _, err := s.stripe.CancelPaymentIntent(ctx, intentID, &stripe.PaymentIntentCancelParams{}); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "payment_intent_id", intentID), "failed to cancel orphaned payment intent: "+err.Error())
		}
	}
}

func (s *service) requireStripe() error {
	if s.stripe == nil || !s.stripeCfg.Configured() {
		return pkgerrors.New(pkgerrors.CodeDependency, "payment processor is not configured")
	}
	return nil
}

func (s *service) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) loadListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	return listing, nil
}
