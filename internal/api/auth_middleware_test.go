package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/auth"
	"storefront/internal/entity"

	"github.com/gin-gonic/gin"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc", want: "abc", ok: true},
		{header: "bearer   abc  ", want: "abc", ok: true},
		{header: "Basic abc", ok: false},
		{header: "Bearer", ok: false},
		{header: "Bearer    ", ok: false},
		{header: "", ok: false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if ok != tt.ok || got != tt.want {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAuthMiddlewareRejectsMissingAndInvalidTokens(t *testing.T) {
	s := newTestServer(t, nil)

	if w := s.do(http.MethodGet, "/auth/me", nil, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/auth/me", nil, "not-a-token"); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", w.Code)
	}

	pair := s.verifiedLogin("Ann Lee", "ann", "ann@x.com", "secret1")
	// A refresh token is signed with a different secret and is not an access token.
	if w := s.do(http.MethodGet, "/auth/me", nil, pair.RefreshToken); w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token as access token: expected 401, got %d", w.Code)
	}
}

func TestAuthMiddlewareRejectsDeletedAndBannedUsers(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	pair := s.verifiedLogin("Ann Lee", "ann", "ann@x.com", "secret1")
	user := s.storedUser("ann@x.com")

	banned := entity.UserStatusBanned
	if err := s.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{Status: &banned}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if w := s.do(http.MethodGet, "/auth/me", nil, pair.Token); w.Code != http.StatusForbidden {
		t.Fatalf("banned user: expected 403, got %d", w.Code)
	}

	deleted := true
	if err := s.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{IsDeleted: &deleted}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if w := s.do(http.MethodGet, "/auth/me", nil, pair.Token); w.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user: expected 401, got %d", w.Code)
	}
}

func TestRequirePermissions(t *testing.T) {
	s := newTestServer(t, nil)
	// Registered accounts get the customer role, which holds product:read.
	pair := s.verifiedLogin("Ann Lee", "ann", "ann@x.com", "secret1")

	router := gin.New()
	guarded := router.Group("/products", s.handler.AuthMiddleware())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	guarded.GET("", s.handler.RequirePermissions(auth.PermProductRead), ok)
	guarded.POST("", s.handler.RequirePermissions(auth.PermProductCreate), ok)
	guarded.PUT("", s.handler.RequirePermissions(auth.PermProductRead, auth.PermProductUpdate), ok)

	call := func(method string) int {
		req := httptest.NewRequest(method, "/products", nil)
		req.Header.Set("Authorization", "Bearer "+pair.Token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if got := call(http.MethodGet); got != http.StatusOK {
		t.Fatalf("product:read route: expected 200, got %d", got)
	}
	if got := call(http.MethodPost); got != http.StatusForbidden {
		t.Fatalf("product:create route: expected 403, got %d", got)
	}
	if got := call(http.MethodPut); got != http.StatusForbidden {
		t.Fatalf("partial permission match: expected 403, got %d", got)
	}

	// An inactive role grants nothing.
	user := s.storedUser("ann@x.com")
	inactive := false
	if err := s.repo.UpdateRole(context.Background(), *user.RoleID, entity.RoleUpdates{IsActive: &inactive}); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if got := call(http.MethodGet); got != http.StatusForbidden {
		t.Fatalf("inactive role: expected 403, got %d", got)
	}
}

func TestRequirePermissionsWithoutRole(t *testing.T) {
	s := newTestServer(t, nil)
	pair := s.verifiedLogin("Ann Lee", "ann", "ann@x.com", "secret1")
	user := s.storedUser("ann@x.com")
	if err := s.repo.UpdateUser(context.Background(), user.ID, entity.UserUpdates{ClearRole: true}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	router := gin.New()
	router.GET("/p", s.handler.AuthMiddleware(), s.handler.RequirePermissions(auth.PermProductRead), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("user without role: expected 403, got %d", w.Code)
	}
}
