package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
)

type saleSettler interface {
	Settle(ctx context.Context, providerRef string) (int64, error)
	Fail(ctx context.Context, providerRef string) (int64, error)
}

// ServiceParams bundles the webhook handler dependencies.
type ServiceParams struct {
	Settlement saleSettler
}

// Service settles checkout sessions reported by Stripe.
type Service struct {
	settlement saleSettler
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Settlement == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement required")
	}
	return &Service{settlement: params.Settlement}, nil
}

// HandleEvent routes checkout session lifecycle events. Unrecognized
// event types are acknowledged without action.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		_, err = s.settlement.Settle(ctx, session.ID)
		return err
	case stripe.EventTypeCheckoutSessionExpired,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		_, err = s.settlement.Fail(ctx, session.ID)
		return err
	default:
		return nil
	}
}

func decodeSession(event *stripe.Event) (*stripe.CheckoutSession, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
	}
	if session.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}
	return &session, nil
}
