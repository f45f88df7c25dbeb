package stripewebhook

import (
	"context"
	"encoding/json"

	pkgerrors "github.com/cbieks/authentix/pkg/errors"
	"github.com/stripe/stripe-go/v84"
)

type orderSettler interface {
	MarkPaidByPaymentIntentID(ctx context.Context, paymentIntentID string) error
	MarkFailedByPaymentIntentID(ctx context.Context, paymentIntentID string) error
}

type ServiceParams struct {
	Orders orderSettler
}

type Service struct {
	orders orderSettler
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order settler required")
	}
	return &Service{orders: params.Orders}, nil
}

// HandleEvent reconciles payment intent outcomes into the order ledger.
// Event types we do not act on are acknowledged without work so Stripe
// stops redelivering them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intentID, err := paymentIntentID(event)
		if err != nil {
			return err
		}
		return s.orders.MarkPaidByPaymentIntentID(ctx, intentID)
	case stripe.EventTypePaymentIntentPaymentFailed, stripe.EventTypePaymentIntentCanceled:
		intentID, err := paymentIntentID(event)
		if err != nil {
			return err
		}
		return s.orders.MarkFailedByPaymentIntentID(ctx, intentID)
	default:
		return nil
	}
}

func paymentIntentID(event *stripe.Event) (string, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}
	if intent.ID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	return intent.ID, nil
}
