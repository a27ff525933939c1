package connect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/account"
	"github.com/stripe/stripe-go/v84/accountlink"
	"gorm.io/gorm"

	"github.com/clubswap/clubswap-backend/pkg/commission"
	"github.com/clubswap/clubswap-backend/pkg/config"
	"github.com/clubswap/clubswap-backend/pkg/db/models"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	pkgstripe "github.com/clubswap/clubswap-backend/pkg/stripe"
)

// StripeConnectClient exposes the subset of Stripe operations required
// by the onboarding service.
type StripeConnectClient interface {
	CreateAccount(ctx context.Context, params *stripe.AccountParams) (*stripe.Account, error)
	CreateAccountLink(ctx context.Context, params *stripe.AccountLinkParams) (*stripe.AccountLink, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the configured Stripe client so the onboarding
// service can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeConnectClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreateAccount(ctx context.Context, params *stripe.AccountParams) (*stripe.Account, error) {
	if params != nil {
		params.Context = ctx
	}
	return account.New(params)
}

func (w *stripeClientWrapper) CreateAccountLink(ctx context.Context, params *stripe.AccountLinkParams) (*stripe.AccountLink, error) {
	if params != nil {
		params.Context = ctx
	}
	return accountlink.New(params)
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetStripeAccountID(ctx context.Context, id uuid.UUID, accountID string) error
}

// OnboardResult carries the created account and the hosted onboarding
// link the seller is redirected to.
type OnboardResult struct {
	AccountID     string `json:"account_id"`
	OnboardingURL string `json:"onboarding_url"`
}

// PayoutEstimate is the commission preview shown to sellers before
// they list.
type PayoutEstimate struct {
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	SellerReceives   decimal.Decimal `json:"seller_receives"`
}

// Service manages seller Connect accounts.
type Service interface {
	Onboard(ctx context.Context, userID uuid.UUID) (*OnboardResult, error)
	EstimatePayout(ctx context.Context, userID uuid.UUID, amount string) (*PayoutEstimate, error)
}

// ServiceParams lists the collaborators needed by the connect service.
type ServiceParams struct {
	Client StripeConnectClient
	Users  userRepository
	App    config.AppConfig
}

type service struct {
	client StripeConnectClient
	users  userRepository
	app    config.AppConfig
}

// NewService constructs a connect service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("stripe connect client required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{
		client: params.Client,
		users:  params.Users,
		app:    params.App,
	}, nil
}

// Onboard creates an Express account for the seller and returns the
// hosted onboarding link. A seller gets one account, ever.
func (s *service) Onboard(ctx context.Context, userID uuid.UUID) (*OnboardResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if user.StripeAccountID != nil && *user.StripeAccountID != "" {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "connect account already exists")
	}

	created, err := s.client.CreateAccount(ctx, &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(user.Email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create connect account")
	}

	if err := s.users.SetStripeAccountID(ctx, userID, created.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store connect account id")
	}

	link, err := s.client.CreateAccountLink(ctx, &stripe.AccountLinkParams{
		Account:    stripe.String(created.ID),
		RefreshURL: stripe.String(s.redirectURL("/connect/refresh")),
		ReturnURL:  stripe.String(s.redirectURL("/connect/return")),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create onboarding link")
	}

	return &OnboardResult{AccountID: created.ID, OnboardingURL: link.URL}, nil
}

// EstimatePayout previews the commission split for the seller's current
// tier.
func (s *service) EstimatePayout(ctx context.Context, userID uuid.UUID, amount string) (*PayoutEstimate, error) {
	gross, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || !gross.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive number")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	split := commission.Calculate(gross, user.Tier)
	return &PayoutEstimate{
		GrossAmount:      gross,
		CommissionRate:   split.Rate,
		CommissionAmount: split.CommissionAmount,
		SellerReceives:   split.SellerReceives,
	}, nil
}

func (s *service) redirectURL(path string) string {
	return strings.TrimRight(s.app.BaseURL, "/") + path
}
