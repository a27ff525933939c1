package pros

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/internal/orders"
	"github.com/clubswap/clubswap-backend/internal/reviews"
	"github.com/clubswap/clubswap-backend/pkg/commission"
	"github.com/clubswap/clubswap-backend/pkg/db/models"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
)

type productLister interface {
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error)
}

type salesSummarizer interface {
	SummarizeSeller(ctx context.Context, sellerID uuid.UUID) (*orders.SellerSalesSummary, error)
}

type sellerRater interface {
	RateSeller(ctx context.Context, sellerID uuid.UUID) (*reviews.SellerRating, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Dashboard aggregates a professional seller's marketplace activity.
type Dashboard struct {
	SellerID       uuid.UUID        `json:"seller_id"`
	Tier           enums.SellerTier `json:"tier"`
	CommissionRate decimal.Decimal  `json:"commission_rate"`

	ActiveListings int   `json:"active_listings"`
	SoldListings   int   `json:"sold_listings"`
	TotalListings  int   `json:"total_listings"`
	CompletedSales int64 `json:"completed_sales"`

	GrossSales   decimal.Decimal `json:"gross_sales"`
	NetEarnings  decimal.Decimal `json:"net_earnings"`
	AverageOrder decimal.Decimal `json:"average_order"`

	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

// ServiceParams bundles the dashboard's data sources.
type ServiceParams struct {
	Users    userFinder
	Products productLister
	Sales    salesSummarizer
	Reviews  sellerRater
}

// Service serves the professional seller dashboard.
type Service interface {
	Dashboard(ctx context.Context, sellerID uuid.UUID) (*Dashboard, error)
}

type service struct {
	users    userFinder
	products productLister
	sales    salesSummarizer
	reviews  sellerRater
}

// NewService constructs a pros service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lister required")
	}
	if params.Sales == nil {
		return nil, fmt.Errorf("sales summarizer required")
	}
	if params.Reviews == nil {
		return nil, fmt.Errorf("seller rater required")
	}
	return &service{
		users:    params.Users,
		products: params.Products,
		sales:    params.Sales,
		reviews:  params.Reviews,
	}, nil
}

// Dashboard assembles listing counts, sales totals and the review
// rating for the seller. Only verified professional tiers may use it.
func (s *service) Dashboard(ctx context.Context, sellerID uuid.UUID) (*Dashboard, error) {
	user, err := s.users.FindByID(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller")
	}
	if user.Tier != enums.SellerTierPGAPro && user.Tier != enums.SellerTierBusiness {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "dashboard is limited to professional sellers")
	}

	listings, err := s.products.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller products")
	}

	summary, err := s.sales.SummarizeSeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summarize seller sales")
	}

	rating, err := s.reviews.RateSeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate seller")
	}

	dashboard := &Dashboard{
		SellerID:       sellerID,
		Tier:           user.Tier,
		CommissionRate: commission.RateForTier(user.Tier),
		TotalListings:  len(listings),
		CompletedSales: summary.CompletedCount,
		GrossSales:     decimal.NewFromFloat(summary.GrossTotal).Round(2),
		NetEarnings:    decimal.NewFromFloat(summary.NetTotal).Round(2),
		AverageRating:  rating.AverageRating,
		ReviewCount:    rating.ReviewCount,
	}
	for _, listing := range listings {
		switch listing.Status {
		case enums.ProductStatusActive:
			dashboard.ActiveListings++
		case enums.ProductStatusSold:
			dashboard.SoldListings++
		}
	}
	if summary.CompletedCount > 0 {
		dashboard.AverageOrder = dashboard.GrossSales.
			Div(decimal.NewFromInt(summary.CompletedCount)).Round(2)
	}
	return dashboard, nil
}
