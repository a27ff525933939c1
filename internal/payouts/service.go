package payouts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/transfer"

	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	"github.com/clubswap/clubswap-backend/pkg/logger"
	"github.com/clubswap/clubswap-backend/pkg/metrics"
	pkgstripe "github.com/clubswap/clubswap-backend/pkg/stripe"
)

const defaultBatchSize = 100

// StripeTransferClient exposes the subset of Stripe operations required
// by the payout processor.
type StripeTransferClient interface {
	CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the configured Stripe client so the payout
// processor can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeTransferClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
	if params != nil {
		params.Context = ctx
	}
	return transfer.New(params)
}

type transactionSource interface {
	ListCompletedWithoutPayout(ctx context.Context, limit int) ([]models.SaleTransaction, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type payoutStore interface {
	RecordPaid(ctx context.Context, payout *models.Payout) error
	RecordFailed(ctx context.Context, payout *models.Payout) error
}

// Failure describes one sale the processor could not pay out.
type Failure struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Reason        string    `json:"reason"`
}

// Summary is the result of one processing run.
type Summary struct {
	ProcessedCount int             `json:"processed_count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Failures       []Failure       `json:"failures"`
}

// Service transfers settled sale proceeds to sellers' connected
// accounts.
type Service interface {
	ProcessScheduledPayouts(ctx context.Context) (*Summary, error)
}

// ServiceParams lists the collaborators needed by the payout processor.
type ServiceParams struct {
	Transactions transactionSource
	Users        userFinder
	Payouts      payoutStore
	Client       StripeTransferClient
	Metrics      *metrics.PayoutMetrics
	Logger       *logger.Logger
	BatchSize    int
}

type service struct {
	transactions transactionSource
	users        userFinder
	payouts      payoutStore
	client       StripeTransferClient
	metrics      *metrics.PayoutMetrics
	logg         *logger.Logger
	batchSize    int
}

// NewService constructs a payout processor instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Transactions == nil {
		return nil, fmt.Errorf("transaction source required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payout store required")
	}
	if params.Client == nil {
		return nil, fmt.Errorf("stripe transfer client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &service{
		transactions: params.Transactions,
		users:        params.Users,
		payouts:      params.Payouts,
		client:       params.Client,
		metrics:      params.Metrics,
		logg:         params.Logger,
		batchSize:    batch,
	}, nil
}

// ProcessScheduledPayouts scans settled sales not yet paid out and
// transfers each seller share once. Sales whose last attempt failed are
// retried on the next run. The transfer carries an idempotency key
// derived from the transaction id and the payout row's unique
// transaction index stops a concurrent or replayed run from paying the
// same sale twice, so the worst case of a crash between transfer and
// insert is a retried transfer Stripe deduplicates.
func (s *service) ProcessScheduledPayouts(ctx context.Context) (*Summary, error) {
	rows, err := s.transactions.ListCompletedWithoutPayout(ctx, s.batchSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payable transactions")
	}

	summary := &Summary{TotalAmount: decimal.Zero, Failures: []Failure{}}
	for i := range rows {
		tx := rows[i]
		if err := s.payOne(ctx, &tx); err != nil {
			reason := err.Error()
			summary.Failures = append(summary.Failures, Failure{TransactionID: tx.ID, Reason: reason})
			s.recordFailure(ctx, &tx, reason)
			continue
		}
		summary.ProcessedCount++
		summary.TotalAmount = summary.TotalAmount.Add(tx.SellerReceives)
		if s.metrics != nil {
			s.metrics.IncProcessed(string(enums.PayoutStatusPaid))
			amount, _ := tx.SellerReceives.Float64()
			s.metrics.AddAmount(tx.Currency.String(), amount)
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"processed": summary.ProcessedCount,
		"failed":    len(summary.Failures),
		"total":     summary.TotalAmount.StringFixed(2),
	}), "payout run complete")

	return summary, nil
}

func (s *service) payOne(ctx context.Context, tx *models.SaleTransaction) error {
	seller, err := s.users.FindByID(ctx, tx.SellerID)
	if err != nil {
		return fmt.Errorf("load seller: %w", err)
	}
	if seller.StripeAccountID == nil || *seller.StripeAccountID == "" {
		return fmt.Errorf("seller has no connected account")
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(tx.SellerReceives.Mul(decimal.NewFromInt(100)).Round(0).IntPart()),
		Currency:    stripe.String(string(stripe.CurrencyGBP)),
		Destination: stripe.String(*seller.StripeAccountID),
	}
	params.SetIdempotencyKey(fmt.Sprintf("payout-%s", tx.ID))
	params.AddMetadata("transaction_id", tx.ID.String())

	created, err := s.client.CreateTransfer(ctx, params)
	if err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}

	payout := &models.Payout{
		TransactionID:    tx.ID,
		SellerID:         tx.SellerID,
		Amount:           tx.SellerReceives,
		Currency:         tx.Currency,
		StripeTransferID: &created.ID,
		Status:           enums.PayoutStatusPaid,
	}
	if err := s.payouts.RecordPaid(ctx, payout); err != nil {
		return fmt.Errorf("record payout: %w", err)
	}
	return nil
}

// recordFailure writes a failed payout row so the failure is visible in
// the seller's history. Failed rows do not take the sale out of the
// payable scan, so the next run retries the transfer; the Stripe
// idempotency key keeps the retry from paying twice.
func (s *service) recordFailure(ctx context.Context, tx *models.SaleTransaction, reason string) {
	s.logg.Error(s.logg.WithField(ctx, "transaction_id", tx.ID.String()), "payout failed", fmt.Errorf("%s", reason))
	if s.metrics != nil {
		s.metrics.IncProcessed(string(enums.PayoutStatusFailed))
	}

	payout := &models.Payout{
		TransactionID: tx.ID,
		SellerID:      tx.SellerID,
		Amount:        tx.SellerReceives,
		Currency:      tx.Currency,
		Status:        enums.PayoutStatusFailed,
		FailureReason: &reason,
	}
	if err := s.payouts.RecordFailed(ctx, payout); err != nil {
		s.logg.Error(ctx, "record failed payout", err)
	}
}
