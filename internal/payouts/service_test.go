package payouts

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	"github.com/clubswap/clubswap-backend/pkg/logger"
)

type fakeTransactionSource struct {
	rows []models.SaleTransaction
}

func (f *fakeTransactionSource) ListCompletedWithoutPayout(ctx context.Context, limit int) ([]models.SaleTransaction, error) {
	if limit < len(f.rows) {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

type fakeUserFinder struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type fakePayoutStore struct {
	rows   map[uuid.UUID]*models.Payout
	order  []uuid.UUID
	errFor map[uuid.UUID]error
}

func (f *fakePayoutStore) upsert(payout *models.Payout) {
	if _, ok := f.rows[payout.TransactionID]; !ok {
		f.order = append(f.order, payout.TransactionID)
	}
	f.rows[payout.TransactionID] = payout
}

func (f *fakePayoutStore) RecordPaid(ctx context.Context, payout *models.Payout) error {
	if err, ok := f.errFor[payout.TransactionID]; ok {
		return err
	}
	payout.Status = enums.PayoutStatusPaid
	payout.FailureReason = nil
	f.upsert(payout)
	return nil
}

func (f *fakePayoutStore) RecordFailed(ctx context.Context, payout *models.Payout) error {
	if err, ok := f.errFor[payout.TransactionID]; ok {
		return err
	}
	if existing, ok := f.rows[payout.TransactionID]; ok && existing.Status == enums.PayoutStatusPaid {
		return nil
	}
	payout.Status = enums.PayoutStatusFailed
	f.upsert(payout)
	return nil
}

func (f *fakePayoutStore) all() []*models.Payout {
	out := make([]*models.Payout, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.rows[id])
	}
	return out
}

type fakeTransferClient struct {
	params []*stripe.TransferParams
	errFor map[string]error
}

func (f *fakeTransferClient) CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
	f.params = append(f.params, params)
	if err, ok := f.errFor[stripe.StringValue(params.Destination)]; ok {
		return nil, err
	}
	return &stripe.Transfer{ID: "tr_" + uuid.NewString()[:8]}, nil
}

type harness struct {
	svc       Service
	users     *fakeUserFinder
	store     *fakePayoutStore
	transfers *fakeTransferClient
	source    *fakeTransactionSource
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		users:     &fakeUserFinder{users: map[uuid.UUID]*models.User{}},
		store:     &fakePayoutStore{rows: map[uuid.UUID]*models.Payout{}, errFor: map[uuid.UUID]error{}},
		transfers: &fakeTransferClient{errFor: map[string]error{}},
		source:    &fakeTransactionSource{},
	}

	svc, err := NewService(ServiceParams{
		Transactions: h.source,
		Users:        h.users,
		Payouts:      h.store,
		Client:       h.transfers,
		Logger:       logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	h.svc = svc
	return h
}

func (h *harness) addSeller(accountID string) uuid.UUID {
	id := uuid.New()
	user := &models.User{ID: id}
	if accountID != "" {
		user.StripeAccountID = &accountID
	}
	h.users.users[id] = user
	return id
}

func (h *harness) addTransaction(sellerID uuid.UUID, sellerReceives string) uuid.UUID {
	tx := models.SaleTransaction{
		ID:             uuid.New(),
		ProductID:      uuid.New(),
		SellerID:       sellerID,
		BuyerID:        uuid.New(),
		Provider:       enums.PaymentProviderStripe,
		ProviderRef:    "cs_" + uuid.NewString()[:8],
		Currency:       enums.CurrencyGBP,
		GrossAmount:    decimal.RequireFromString(sellerReceives).Div(decimal.RequireFromString("0.95")).Round(2),
		SellerReceives: decimal.RequireFromString(sellerReceives),
		Status:         enums.TransactionStatusCompleted,
	}
	h.source.rows = append(h.source.rows, tx)
	return tx.ID
}

func TestProcessScheduledPayouts(t *testing.T) {
	h := newHarness(t)
	sellerID := h.addSeller("acct_abc")
	txID := h.addTransaction(sellerID, "95.00")
	h.addTransaction(sellerID, "47.50")

	summary, err := h.svc.ProcessScheduledPayouts(context.Background())
	if err != nil {
		t.Fatalf("process payouts: %v", err)
	}

	if summary.ProcessedCount != 2 {
		t.Fatalf("expected 2 processed, got %d", summary.ProcessedCount)
	}
	if !summary.TotalAmount.Equal(decimal.RequireFromString("142.50")) {
		t.Fatalf("unexpected total %s", summary.TotalAmount)
	}
	if len(summary.Failures) != 0 {
		t.Fatalf("unexpected failures %+v", summary.Failures)
	}

	if len(h.transfers.params) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(h.transfers.params))
	}
	first := h.transfers.params[0]
	if got := stripe.Int64Value(first.Amount); got != 9500 {
		t.Fatalf("unexpected transfer amount %d", got)
	}
	if got := stripe.StringValue(first.Destination); got != "acct_abc" {
		t.Fatalf("unexpected destination %q", got)
	}
	if first.IdempotencyKey == nil || *first.IdempotencyKey != "payout-"+txID.String() {
		t.Fatalf("unexpected idempotency key %v", first.IdempotencyKey)
	}

	recorded := h.store.all()
	if len(recorded) != 2 {
		t.Fatalf("expected 2 payout rows, got %d", len(recorded))
	}
	if recorded[0].Status != enums.PayoutStatusPaid || recorded[0].StripeTransferID == nil {
		t.Fatalf("unexpected payout row %+v", recorded[0])
	}
}

func TestProcessScheduledPayoutsNoConnectedAccount(t *testing.T) {
	h := newHarness(t)
	sellerID := h.addSeller("")
	txID := h.addTransaction(sellerID, "95.00")

	summary, err := h.svc.ProcessScheduledPayouts(context.Background())
	if err != nil {
		t.Fatalf("process payouts: %v", err)
	}

	if summary.ProcessedCount != 0 {
		t.Fatalf("expected 0 processed, got %d", summary.ProcessedCount)
	}
	if len(summary.Failures) != 1 || summary.Failures[0].TransactionID != txID {
		t.Fatalf("unexpected failures %+v", summary.Failures)
	}
	if len(h.transfers.params) != 0 {
		t.Fatalf("expected no transfers")
	}

	// The failure is recorded so the run leaves a trace.
	recorded := h.store.all()
	if len(recorded) != 1 || recorded[0].Status != enums.PayoutStatusFailed {
		t.Fatalf("expected a failed payout row, got %+v", recorded)
	}
	if recorded[0].FailureReason == nil {
		t.Fatalf("expected failure reason")
	}
}

func TestProcessScheduledPayoutsTransferFailureIsolated(t *testing.T) {
	h := newHarness(t)
	goodSeller := h.addSeller("acct_good")
	badSeller := h.addSeller("acct_bad")
	h.transfers.errFor["acct_bad"] = errors.New("account restricted")

	h.addTransaction(badSeller, "50.00")
	h.addTransaction(goodSeller, "95.00")

	summary, err := h.svc.ProcessScheduledPayouts(context.Background())
	if err != nil {
		t.Fatalf("process payouts: %v", err)
	}

	// One failure does not stop the rest of the batch.
	if summary.ProcessedCount != 1 {
		t.Fatalf("expected 1 processed, got %d", summary.ProcessedCount)
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %+v", summary.Failures)
	}
	if !summary.TotalAmount.Equal(decimal.RequireFromString("95.00")) {
		t.Fatalf("unexpected total %s", summary.TotalAmount)
	}
}

func TestProcessScheduledPayoutsRetriesFailedTransfer(t *testing.T) {
	h := newHarness(t)
	sellerID := h.addSeller("acct_flaky")
	txID := h.addTransaction(sellerID, "95.00")

	h.transfers.errFor["acct_flaky"] = errors.New("connection reset")
	summary, err := h.svc.ProcessScheduledPayouts(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("expected first run to fail, got %+v", summary)
	}
	if h.store.rows[txID].Status != enums.PayoutStatusFailed {
		t.Fatalf("expected failed row after first run, got %+v", h.store.rows[txID])
	}

	// The transient error clears; the sale is still payable.
	delete(h.transfers.errFor, "acct_flaky")
	summary, err = h.svc.ProcessScheduledPayouts(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.ProcessedCount != 1 || len(summary.Failures) != 0 {
		t.Fatalf("expected retry to pay, got %+v", summary)
	}

	row := h.store.rows[txID]
	if row.Status != enums.PayoutStatusPaid || row.StripeTransferID == nil || row.FailureReason != nil {
		t.Fatalf("expected row flipped to paid, got %+v", row)
	}
	if len(h.store.all()) != 1 {
		t.Fatalf("expected a single payout row, got %d", len(h.store.all()))
	}

	// Both attempts reuse the transaction-derived idempotency key.
	if len(h.transfers.params) != 2 {
		t.Fatalf("expected 2 transfer attempts, got %d", len(h.transfers.params))
	}
	for _, params := range h.transfers.params {
		if params.IdempotencyKey == nil || *params.IdempotencyKey != "payout-"+txID.String() {
			t.Fatalf("unexpected idempotency key %v", params.IdempotencyKey)
		}
	}
}

func TestProcessScheduledPayoutsEmptyRun(t *testing.T) {
	h := newHarness(t)

	summary, err := h.svc.ProcessScheduledPayouts(context.Background())
	if err != nil {
		t.Fatalf("process payouts: %v", err)
	}
	if summary.ProcessedCount != 0 || len(summary.Failures) != 0 || !summary.TotalAmount.IsZero() {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
