package orders

import (
	"context"
	"errors"
	"time"

	"github.com/cbieks/authentix/internal/listings"
	"github.com/cbieks/authentix/pkg/db"
	"github.com/cbieks/authentix/pkg/db/models"
	"github.com/cbieks/authentix/pkg/enums"
	pkgerrors "github.com/cbieks/authentix/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreatePendingOrderInput carries everything needed to persist a provisional order.
type CreatePendingOrderInput struct {
	BuyerID         uuid.UUID
	SellerID        uuid.UUID
	ListingID       uuid.UUID
	PaymentIntentID string
	Amount          decimal.Decimal
	PlatformFee     decimal.Decimal
	SellerPayout    decimal.Decimal
	ShipTo          *models.Address
}

// Service exposes order ledger operations.
type Service interface {
	CreatePendingOrder(ctx context.Context, input CreatePendingOrderInput) (*models.Order, error)
	MarkPaidByPaymentIntentID(ctx context.Context, paymentIntentID string) error
	MarkFailedByPaymentIntentID(ctx context.Context, paymentIntentID string) error
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error)
}

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	Repo              Repository
	ListingRepo       listings.Repository
	TransactionRunner txRunner
}

type service struct {
	repo     Repository
	listings listings.Repository
	tx       txRunner
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.ListingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "listings repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{
		repo:     params.Repo,
		listings: params.ListingRepo,
		tx:       params.TransactionRunner,
	}, nil
}

// CreatePendingOrder re-validates the listing under a row lock and inserts the
// provisional order. The payment authorization already exists by the time this
// runs, so a listing that went inactive in between is reported as a conflict.
func (s *service) CreatePendingOrder(ctx context.Context, input CreatePendingOrderInput) (*models.Order, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	if input.PaymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	if input.ShipTo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		listingRepo := s.listings.WithTx(tx)
		listing, err := listingRepo.FindByIDForUpdate(ctx, input.ListingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeConflict, "Listing is not available for purchase")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock listing")
		}
		if listing.Status != enums.ListingStatusActive {
			return pkgerrors.New(pkgerrors.CodeConflict, "Listing is not available for purchase")
		}

		ship := input.ShipTo
		created, err := s.repo.WithTx(tx).Create(ctx, &models.Order{
			BuyerID:               input.BuyerID,
			SellerID:              input.SellerID,
			ListingID:             input.ListingID,
			StripePaymentIntentID: input.PaymentIntentID,
			Status:                enums.OrderStatusPending,
			Amount:                input.Amount,
			PlatformFee:           input.PlatformFee,
			SellerPayout:          input.SellerPayout,
			ShipName:              ship.Name,
			ShipLine1:             ship.Line1,
			ShipLine2:             ship.Line2,
			ShipCity:              ship.City,
			ShipState:             ship.State,
			ShipPostalCode:        ship.PostalCode,
			ShipCountry:           ship.Country,
			ShipPhone:             ship.Phone,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "orders_stripe_payment_intent_id_key") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already exists for payment intent")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// MarkPaidByPaymentIntentID settles the order and flips the listing to SOLD in
// one transaction. Unknown payment intents and already-settled orders are
// no-ops so webhook redelivery stays safe.
func (s *service) MarkPaidByPaymentIntentID(ctx context.Context, paymentIntentID string) error {
	if paymentIntentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByPaymentIntentIDForUpdate(ctx, paymentIntentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusPending {
			return nil
		}

		now := time.Now().UTC()
		if err := repo.Update(ctx, order.ID, map[string]any{
			"status":     enums.OrderStatusPaid,
			"paid_at":    now,
			"updated_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}

		if err := s.listings.WithTx(tx).UpdateStatus(ctx, order.ListingID, enums.ListingStatusSold); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark listing sold")
		}
		return nil
	})
}

// MarkFailedByPaymentIntentID moves a pending order to FAILED. The listing
// stays ACTIVE so it can be purchased again.
func (s *service) MarkFailedByPaymentIntentID(ctx context.Context, paymentIntentID string) error {
	if paymentIntentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByPaymentIntentIDForUpdate(ctx, paymentIntentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusPending {
			return nil
		}

		if err := repo.Update(ctx, order.ID, map[string]any{
			"status":     enums.OrderStatusFailed,
			"updated_at": time.Now().UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order failed")
		}
		return nil
	})
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	results, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return results, nil
}
