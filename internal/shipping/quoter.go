package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/pkg/config"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
)

const (
	defaultTimeout              = 5 * time.Second
	responseBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("shipping base URL is required")

// UK postcode shape, outward plus inward code, case-insensitive.
var postcodePattern = regexp.MustCompile(`^(?i)[A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}$`)

// ValidatePostcode reports whether the value looks like a UK postcode.
// It checks shape only, not whether the postcode exists.
func ValidatePostcode(postcode string) bool {
	return postcodePattern.MatchString(strings.TrimSpace(postcode))
}

// NormalizePostcode upper-cases and squeezes the space out of a postcode
// so quotes for "sw1a 1aa" and "SW1A1AA" hit the same courier rate.
func NormalizePostcode(postcode string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(postcode), " ", ""))
}

// Dimensions describes the parcel for courier rating.
type Dimensions struct {
	LengthCM int     `json:"length_cm"`
	WidthCM  int     `json:"width_cm"`
	HeightCM int     `json:"height_cm"`
	WeightKG float64 `json:"weight_kg"`
}

// QuoteRequest is the rating request sent to the courier aggregator.
type QuoteRequest struct {
	From       string                `json:"from"`
	To         string                `json:"to"`
	Dimensions Dimensions            `json:"dimensions"`
	Value      decimal.Decimal       `json:"value"`
	Category   enums.ProductCategory `json:"category"`
}

// QuoteOption is a single courier service offered for the parcel.
type QuoteOption struct {
	ID      string          `json:"id"`
	Carrier string          `json:"carrier"`
	Service string          `json:"service"`
	Price   decimal.Decimal `json:"price"`
}

// QuoteResult holds the rated options for a request.
type QuoteResult struct {
	Options []QuoteOption `json:"options"`
}

// Option returns the quote option with the given id, if present.
func (r *QuoteResult) Option(id string) (*QuoteOption, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.Options {
		if r.Options[i].ID == id {
			return &r.Options[i], true
		}
	}
	return nil, false
}

// Quoter rates a parcel against the courier aggregator.
type Quoter interface {
	CalculateShipping(ctx context.Context, req QuoteRequest) (*QuoteResult, error)
}

// Client is the HTTP implementation of Quoter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// ClientOption configures optional client behavior.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a quoter client from the shipping configuration.
func NewClient(cfg config.ShippingConfig, opts ...ClientOption) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// CalculateShipping rates the parcel and returns the courier options.
func (c *Client) CalculateShipping(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shipping client not configured")
	}
	if !ValidatePostcode(req.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid origin postcode")
	}
	if !ValidatePostcode(req.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid destination postcode")
	}

	body := req
	body.From = NormalizePostcode(req.From)
	body.To = NormalizePostcode(req.To)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal shipping quote request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rates", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build shipping quote request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute shipping quote request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "shipping quote request failed")
	}

	var apiResp struct {
		Success bool          `json:"success"`
		Error   string        `json:"error"`
		Options []QuoteOption `json:"options"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode shipping quote response")
	}
	if !apiResp.Success {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New(apiResp.Error), "shipping quote rejected")
	}

	return &QuoteResult{Options: apiResp.Options}, nil
}
