package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
)

// CreateReviewRequest is the payload for leaving seller feedback.
type CreateReviewRequest struct {
	SellerID      uuid.UUID  `json:"seller_id" validate:"required"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	Rating        int        `json:"rating" validate:"required,min=1,max=5"`
	Body          *string    `json:"body,omitempty"`
}

// ReviewDTO is the review shape returned to clients.
type ReviewDTO struct {
	ID            uuid.UUID  `json:"id"`
	SellerID      uuid.UUID  `json:"seller_id"`
	ReviewerID    uuid.UUID  `json:"reviewer_id"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	Rating        int        `json:"rating"`
	Body          *string    `json:"body,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SellerRating aggregates a seller's review scores.
type SellerRating struct {
	SellerID      uuid.UUID `json:"seller_id"`
	AverageRating float64   `json:"average_rating"`
	ReviewCount   int64     `json:"review_count"`
}

func fromModel(r *models.Review) *ReviewDTO {
	return &ReviewDTO{
		ID:            r.ID,
		SellerID:      r.SellerID,
		ReviewerID:    r.ReviewerID,
		TransactionID: r.TransactionID,
		Rating:        r.Rating,
		Body:          r.Body,
		CreatedAt:     r.CreatedAt,
	}
}

// Repository wires together review persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a review row. The partial unique transaction index
// enforces one review per sale.
func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(review).Error
}

// ListBySeller returns a seller's reviews, newest first.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// RateSeller averages the seller's review scores.
func (r *Repository) RateSeller(ctx context.Context, sellerID uuid.UUID) (*SellerRating, error) {
	var row struct {
		AverageRating *float64
		ReviewCount   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("AVG(rating) AS average_rating, COUNT(*) AS review_count").
		Where("seller_id = ?", sellerID).
		Scan(&row).
		Error
	if err != nil {
		return nil, err
	}

	rating := &SellerRating{SellerID: sellerID, ReviewCount: row.ReviewCount}
	if row.AverageRating != nil {
		rating.AverageRating = *row.AverageRating
	}
	return rating, nil
}

// FindByTransactionID loads the review left for a sale, if any.
func (r *Repository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "transaction_id = ?", transactionID).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// Service exposes seller review operations.
type Service interface {
	Create(ctx context.Context, reviewerID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]ReviewDTO, error)
	SellerRating(ctx context.Context, sellerID uuid.UUID) (*SellerRating, error)
}

type service struct {
	repo *Repository
	db   *gorm.DB
}

// NewService constructs a reviews service instance.
func NewService(repo *Repository, db *gorm.DB) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &service{repo: repo, db: db}, nil
}

func (s *service) Create(ctx context.Context, reviewerID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if req.SellerID == reviewerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot review yourself")
	}

	if req.TransactionID != nil {
		if err := s.checkTransaction(ctx, reviewerID, req); err != nil {
			return nil, err
		}
	}

	review := &models.Review{
		SellerID:      req.SellerID,
		ReviewerID:    reviewerID,
		TransactionID: req.TransactionID,
		Rating:        req.Rating,
		Body:          req.Body,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sale already reviewed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	return fromModel(review), nil
}

// checkTransaction verifies the reviewer actually bought from the
// seller in the referenced sale, and that the sale settled.
func (s *service) checkTransaction(ctx context.Context, reviewerID uuid.UUID, req CreateReviewRequest) error {
	var tx models.SaleTransaction
	err := s.db.WithContext(ctx).First(&tx, "id = ?", *req.TransactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load sale")
	}
	if tx.BuyerID != reviewerID || tx.SellerID != req.SellerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not your purchase")
	}
	if tx.Status != enums.TransactionStatusCompleted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "sale has not completed")
	}
	return nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) SellerRating(ctx context.Context, sellerID uuid.UUID) (*SellerRating, error) {
	rating, err := s.repo.RateSeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate seller")
	}
	return rating, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
