package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/cbieks/authentix/pkg/db/models"
	"github.com/cbieks/authentix/pkg/logger"
	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"
)

const defaultPendingTTL = 72 * time.Hour

type pendingOrderReader interface {
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type orderSettler interface {
	MarkFailedByPaymentIntentID(ctx context.Context, paymentIntentID string) error
}

type intentCanceler interface {
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

// OrderSweepJobParams configure the stale pending order sweeper.
type OrderSweepJobParams struct {
	Logger        *logger.Logger
	PendingReader pendingOrderReader
	Settler       orderSettler
	Stripe        intentCanceler
	PendingTTL    time.Duration
}

// NewOrderSweepJob builds the cron job that fails abandoned pending orders.
func NewOrderSweepJob(params OrderSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.PendingReader == nil {
		return nil, fmt.Errorf("pending orders reader required")
	}
	if params.Settler == nil {
		return nil, fmt.Errorf("order settler required")
	}
	ttl := params.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &orderSweepJob{
		logg:          params.Logger,
		pendingReader: params.PendingReader,
		settler:       params.Settler,
		stripe:        params.Stripe,
		ttl:           ttl,
		now:           time.Now,
	}, nil
}

type orderSweepJob struct {
	logg          *logger.Logger
	pendingReader pendingOrderReader
	settler       orderSettler
	stripe        intentCanceler
	ttl           time.Duration
	now           func() time.Time
}

func (j *orderSweepJob) Name() string { return "order-sweep" }

// Run fails every pending order older than the TTL. The webhook normally
// settles orders; this sweep only catches authorizations the buyer abandoned
// before Stripe reported an outcome.
func (j *orderSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.pendingReader.FindPendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var errs []error
	swept := 0
	for _, order := range stale {
		if err := j.sweepOrder(ctx, order); err != nil {
			errs = append(errs, err)
			continue
		}
		swept++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": swept, "stale": len(stale)})
	j.logg.Info(logCtx, "order sweep loop complete")
	return multierr.Combine(errs...)
}

// sweepOrder cancels the intent first so a payment that actually succeeded
// is never clobbered: if Stripe reports the intent as succeeded, the order is
// left PENDING for the reconciler instead of being marked FAILED.
func (j *orderSweepJob) sweepOrder(ctx context.Context, order models.Order) error {
	intentID := order.StripePaymentIntentID

	if j.stripe != nil {
		if _, err := j.stripe.CancelPaymentIntent(ctx, intentID, nil); err != nil {
			intent, getErr := j.stripe.GetPaymentIntent(ctx, intentID)
			if getErr != nil {
				return fmt.Errorf("inspect uncancelable intent %s: %w", intentID, getErr)
			}
			if intent.Status == stripe.PaymentIntentStatusSucceeded {
				infoCtx := j.logg.WithField(ctx, "payment_intent_id", intentID)
				j.logg.Info(infoCtx, "intent succeeded after ttl, leaving order for reconciliation")
				return nil
			}
			warnCtx := j.logg.WithField(ctx, "payment_intent_id", intentID)
			j.logg.Warn(warnCtx, "failed to cancel swept payment intent: "+err.Error())
		}
	}

	if err := j.settler.MarkFailedByPaymentIntentID(ctx, intentID); err != nil {
		return fmt.Errorf("fail order %s: %w", order.ID, err)
	}
	return nil
}
