package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clubswap/clubswap-backend/pkg/enums"
)

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	t.Parallel()

	next, called := okHandler()
	handler := RequireRole("admin", nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(WithRole(req.Context(), "admin"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || !*called {
		t.Fatalf("expected handler to run, got %d called=%v", resp.Code, *called)
	}
}

func TestRequireRoleRejectsOtherRoles(t *testing.T) {
	t.Parallel()

	next, called := okHandler()
	handler := RequireRole("admin", nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(WithRole(req.Context(), "user"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden || *called {
		t.Fatalf("expected 403 without handler run, got %d called=%v", resp.Code, *called)
	}
}

func TestRequireTierAllowsListedTiers(t *testing.T) {
	t.Parallel()

	next, called := okHandler()
	handler := RequireTier(nil, enums.SellerTierPGAPro, enums.SellerTierBusiness)(next)

	req := httptest.NewRequest(http.MethodGet, "/pros/dashboard", nil)
	req = req.WithContext(WithTier(req.Context(), enums.SellerTierBusiness.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || !*called {
		t.Fatalf("expected handler to run, got %d called=%v", resp.Code, *called)
	}
}

func TestRequireTierRejectsFreeTier(t *testing.T) {
	t.Parallel()

	next, called := okHandler()
	handler := RequireTier(nil, enums.SellerTierPGAPro, enums.SellerTierBusiness)(next)

	req := httptest.NewRequest(http.MethodGet, "/pros/dashboard", nil)
	req = req.WithContext(WithTier(req.Context(), enums.SellerTierFree.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden || *called {
		t.Fatalf("expected 403 without handler run, got %d called=%v", resp.Code, *called)
	}
}
