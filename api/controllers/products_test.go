package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/api/middleware"
	"github.com/clubswap/clubswap-backend/internal/products"
	"github.com/clubswap/clubswap-backend/pkg/enums"
	pkgerrors "github.com/clubswap/clubswap-backend/pkg/errors"
	"github.com/clubswap/clubswap-backend/pkg/pagination"
)

type stubProductService struct {
	listing     *products.ProductDTO
	listResult  *products.ListResult
	lastFilters products.ListFilters
	lastPage    pagination.Params
	err         error
}

func (s *stubProductService) Create(ctx context.Context, sellerID uuid.UUID, req products.CreateProductRequest) (*products.ProductDTO, error) {
	return s.listing, s.err
}

func (s *stubProductService) Update(ctx context.Context, sellerID, productID uuid.UUID, req products.UpdateProductRequest) (*products.ProductDTO, error) {
	return s.listing, s.err
}

func (s *stubProductService) Remove(ctx context.Context, sellerID, productID uuid.UUID) error {
	return s.err
}

func (s *stubProductService) Get(ctx context.Context, productID uuid.UUID) (*products.ProductDTO, error) {
	return s.listing, s.err
}

func (s *stubProductService) List(ctx context.Context, filters products.ListFilters, page pagination.Params) (*products.ListResult, error) {
	s.lastFilters = filters
	s.lastPage = page
	return s.listResult, s.err
}

func (s *stubProductService) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]products.ProductDTO, error) {
	if s.listing == nil {
		return nil, s.err
	}
	return []products.ProductDTO{*s.listing}, s.err
}

func (s *stubProductService) MarkSold(ctx context.Context, productID uuid.UUID, at time.Time) error {
	return pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func testListing(sellerID uuid.UUID) *products.ProductDTO {
	return &products.ProductDTO{
		ID:       uuid.New(),
		SellerID: sellerID,
		Title:    "TaylorMade Stealth 2 Driver",
		Brand:    "TaylorMade",
		Category: enums.ProductCategoryDrivers,
		Price:    decimal.RequireFromString("249.99"),
		Status:   enums.ProductStatusActive,
	}
}

func TestProductCreateSuccess(t *testing.T) {
	t.Parallel()

	sellerID := uuid.New()
	handler := ProductCreate(&stubProductService{listing: testListing(sellerID)}, nil)

	body := `{"title":"TaylorMade Stealth 2 Driver","brand":"TaylorMade","category":"drivers","condition":"excellent","price":"249.99"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), sellerID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data products.ProductDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Title != "TaylorMade Stealth 2 Driver" {
		t.Fatalf("unexpected title: %s", envelope.Data.Title)
	}
	if envelope.Data.SellerID != sellerID {
		t.Fatalf("unexpected seller id: %s", envelope.Data.SellerID)
	}
}

func TestProductCreateMissingFields(t *testing.T) {
	t.Parallel()

	handler := ProductCreate(&stubProductService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"title":"Putter"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProductGetInvalidID(t *testing.T) {
	t.Parallel()

	handler := ProductGet(&stubProductService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("productId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProductListParsesFilters(t *testing.T) {
	t.Parallel()

	svc := &stubProductService{listResult: &products.ListResult{Items: []products.ProductDTO{}, NextCursor: "abc"}}
	handler := ProductList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=putters&brand=Scotty+Cameron&min_price=100&max_price=500&limit=10&cursor=prev", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastFilters.Category != "putters" || svc.lastFilters.Brand != "Scotty Cameron" {
		t.Fatalf("unexpected filters: %+v", svc.lastFilters)
	}
	if svc.lastFilters.MinPrice == nil || svc.lastFilters.MinPrice.StringFixed(2) != "100.00" {
		t.Fatalf("min price not parsed: %+v", svc.lastFilters.MinPrice)
	}
	if svc.lastPage.Limit != 10 || svc.lastPage.Cursor != "prev" {
		t.Fatalf("unexpected page params: %+v", svc.lastPage)
	}
}

func TestProductListRejectsBadPrice(t *testing.T) {
	t.Parallel()

	handler := ProductList(&stubProductService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?min_price=cheap", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProductRemoveNotOwner(t *testing.T) {
	t.Parallel()

	handler := ProductRemove(&stubProductService{err: pkgerrors.New(pkgerrors.CodeForbidden, "not your listing")}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+uuid.NewString(), nil)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("productId", uuid.NewString())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestMyListings(t *testing.T) {
	t.Parallel()

	sellerID := uuid.New()
	handler := MyListings(&stubProductService{listing: testListing(sellerID)}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/my/products", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), sellerID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data []products.ProductDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(envelope.Data))
	}
}
