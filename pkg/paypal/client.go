package paypal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	paypallib "github.com/plutov/paypal/v4"

	"github.com/clubswap/clubswap-backend/pkg/config"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

var (
	errClientIDRequired = errors.New("paypal client id is required")
	errSecretRequired   = errors.New("paypal secret is required")
)

// Client wraps the PayPal REST client with the configured environment.
type Client struct {
	api       *paypallib.Client
	live      bool
	brandName string
}

// NewClient initializes the PayPal client and fetches an initial access token.
func NewClient(ctx context.Context, cfg config.PayPalConfig, logg *logger.Logger) (*Client, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errSecretRequired
	}

	base := paypallib.APIBaseSandBox
	if cfg.IsLive() {
		base = paypallib.APIBaseLive
	}

	api, err := paypallib.NewClient(clientID, secret, base)
	if err != nil {
		return nil, fmt.Errorf("creating paypal client: %w", err)
	}
	if _, err := api.GetAccessToken(ctx); err != nil {
		return nil, fmt.Errorf("fetching paypal access token: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("paypal client initialized (live=%t)", cfg.IsLive()))
	}

	return &Client{
		api:       api,
		live:      cfg.IsLive(),
		brandName: strings.TrimSpace(cfg.BrandName),
	}, nil
}

// API returns the underlying PayPal REST client.
func (c *Client) API() *paypallib.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// IsLive reports whether the client targets the live environment.
func (c *Client) IsLive() bool {
	if c == nil {
		return false
	}
	return c.live
}

// BrandName returns the merchant display name for order approval pages.
func (c *Client) BrandName() string {
	if c == nil {
		return ""
	}
	return c.brandName
}
