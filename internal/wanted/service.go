package wanted

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
)

// CreateWantedRequest is the payload for posting a wanted listing.
type CreateWantedRequest struct {
	Title     string  `json:"title" validate:"required,max=140"`
	Brand     *string `json:"brand,omitempty"`
	Category  string  `json:"category" validate:"required"`
	BudgetMax *string `json:"budget_max,omitempty"`
}

// WantedDTO is the wanted-listing shape returned to clients.
type WantedDTO struct {
	ID        uuid.UUID             `json:"id"`
	BuyerID   uuid.UUID             `json:"buyer_id"`
	Title     string                `json:"title"`
	Brand     *string               `json:"brand,omitempty"`
	Category  enums.ProductCategory `json:"category"`
	BudgetMax *decimal.Decimal      `json:"budget_max,omitempty"`
	Status    enums.WantedStatus    `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
}

func fromModel(w *models.WantedListing) *WantedDTO {
	return &WantedDTO{
		ID:        w.ID,
		BuyerID:   w.BuyerID,
		Title:     w.Title,
		Brand:     w.Brand,
		Category:  w.Category,
		BudgetMax: w.BudgetMax,
		Status:    w.Status,
		CreatedAt: w.CreatedAt,
	}
}

// Repository wires together wanted-listing persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a wanted listing row.
func (r *Repository) Create(ctx context.Context, listing *models.WantedListing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(listing).Error
}

// FindByID loads a wanted listing.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.WantedListing, error) {
	var listing models.WantedListing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListOpen returns open wanted listings, newest first, optionally
// narrowed by category.
func (r *Repository) ListOpen(ctx context.Context, category string) ([]models.WantedListing, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.WantedStatusOpen)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var rows []models.WantedListing
	err := query.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// UpdateStatus moves an open listing to the given terminal status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.WantedStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.WantedListing{}).
		Where("id = ? AND status = ?", id, enums.WantedStatusOpen).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CloseStale closes open listings older than the cutoff and reports how
// many were touched.
func (r *Repository) CloseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.WantedListing{}).
		Where("status = ? AND created_at < ?", enums.WantedStatusOpen, cutoff).
		Update("status", enums.WantedStatusClosed)
	return res.RowsAffected, res.Error
}

// Service exposes wanted-listing operations.
type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, req CreateWantedRequest) (*WantedDTO, error)
	ListOpen(ctx context.Context, category string) ([]WantedDTO, error)
	Fulfill(ctx context.Context, buyerID, listingID uuid.UUID) error
	Close(ctx context.Context, buyerID, listingID uuid.UUID) error
	CloseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type service struct {
	repo *Repository
}

// NewService constructs a wanted-listing service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wanted repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, buyerID uuid.UUID, req CreateWantedRequest) (*WantedDTO, error) {
	category, err := enums.ParseProductCategory(strings.TrimSpace(req.Category))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}

	var budget *decimal.Decimal
	if req.BudgetMax != nil {
		parsed, err := decimal.NewFromString(strings.TrimSpace(*req.BudgetMax))
		if err != nil || !parsed.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget must be a positive number")
		}
		budget = &parsed
	}

	listing := &models.WantedListing{
		BuyerID:   buyerID,
		Title:     strings.TrimSpace(req.Title),
		Brand:     req.Brand,
		Category:  category,
		BudgetMax: budget,
		Status:    enums.WantedStatusOpen,
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create wanted listing")
	}
	return fromModel(listing), nil
}

func (s *service) ListOpen(ctx context.Context, category string) ([]WantedDTO, error) {
	rows, err := s.repo.ListOpen(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wanted listings")
	}
	out := make([]WantedDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Fulfill(ctx context.Context, buyerID, listingID uuid.UUID) error {
	return s.transition(ctx, buyerID, listingID, enums.WantedStatusFulfilled)
}

func (s *service) Close(ctx context.Context, buyerID, listingID uuid.UUID) error {
	return s.transition(ctx, buyerID, listingID, enums.WantedStatusClosed)
}

func (s *service) transition(ctx context.Context, buyerID, listingID uuid.UUID, status enums.WantedStatus) error {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "wanted listing not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wanted listing")
	}
	if listing.BuyerID != buyerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not your listing")
	}

	ok, err := s.repo.UpdateStatus(ctx, listingID, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update wanted listing")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "listing is no longer open")
	}
	return nil
}

func (s *service) CloseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	closed, err := s.repo.CloseStale(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close stale wanted listings")
	}
	return closed, nil
}
