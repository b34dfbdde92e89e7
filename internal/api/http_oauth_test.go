package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/entity"
	"storefront/internal/oauth"
)

func (s *testServer) startGoogleLogin() *http.Cookie {
	s.t.Helper()
	w := s.do(http.MethodGet, "/auth/google", nil, "")
	if w.Code != http.StatusFound {
		s.t.Fatalf("google login: expected 302, got %d", w.Code)
	}
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == oauthStateCookie {
			if !cookie.HttpOnly {
				s.t.Fatalf("state cookie must be HttpOnly")
			}
			if !strings.Contains(w.Header().Get("Location"), "state="+cookie.Value) {
				s.t.Fatalf("redirect %q does not carry the state", w.Header().Get("Location"))
			}
			return cookie
		}
	}
	s.t.Fatalf("state cookie not set")
	return nil
}

func (s *testServer) callback(cookie *http.Cookie, query string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+query, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestGoogleCallbackCreatesOnce(t *testing.T) {
	provider := &fakeProvider{profile: oauth.Profile{
		Provider:    oauth.ProviderGoogle,
		DisplayName: "Ann Lee",
		Email:       "ann@gmail.com",
		PhotoURL:    "https://example.com/ann.png",
	}}
	s := newTestServer(t, provider)

	cookie := s.startGoogleLogin()
	w := s.callback(cookie, "code=abc&state="+cookie.Value)
	if w.Code != http.StatusOK {
		t.Fatalf("callback: expected 200, got %d %s", w.Code, w.Body.String())
	}
	var first entity.AuthFederatedResponse
	decode(t, w, &first)
	if !first.Success || !first.Created || first.Data.Token == "" || first.Data.RefreshToken == "" {
		t.Fatalf("unexpected first response %+v", first)
	}
	if !s.storedUser("ann@gmail.com").VerifyEmail {
		t.Fatalf("federated account must be verified")
	}

	cookie = s.startGoogleLogin()
	w = s.callback(cookie, "code=abc&state="+cookie.Value)
	if w.Code != http.StatusOK {
		t.Fatalf("second callback: expected 200, got %d", w.Code)
	}
	var second entity.AuthFederatedResponse
	decode(t, w, &second)
	if second.Created || second.Message != "user already exists" {
		t.Fatalf("unexpected second response %+v", second)
	}

	// The issued access token works with the same middleware as password logins.
	if w := s.do(http.MethodGet, "/auth/me", nil, second.Data.Token); w.Code != http.StatusOK {
		t.Fatalf("me with federated token: expected 200, got %d", w.Code)
	}
}

func TestGoogleCallbackRejectsBadState(t *testing.T) {
	s := newTestServer(t, &fakeProvider{profile: oauth.Profile{Email: "ann@gmail.com"}})

	if w := s.callback(nil, "code=abc&state=anything"); w.Code != http.StatusForbidden {
		t.Fatalf("no cookie: expected 403, got %d", w.Code)
	}
	cookie := s.startGoogleLogin()
	if w := s.callback(cookie, "code=abc&state=other"); w.Code != http.StatusForbidden {
		t.Fatalf("mismatched state: expected 403, got %d", w.Code)
	}
	if w := s.callback(cookie, "state="+cookie.Value); w.Code != http.StatusBadRequest {
		t.Fatalf("missing code: expected 400, got %d", w.Code)
	}
}

func TestGoogleCallbackProviderFailure(t *testing.T) {
	s := newTestServer(t, &fakeProvider{err: errors.New("token validation failed")})
	cookie := s.startGoogleLogin()
	if w := s.callback(cookie, "code=abc&state="+cookie.Value); w.Code != http.StatusUnauthorized {
		t.Fatalf("provider failure: expected 401, got %d", w.Code)
	}
}

func TestGoogleRoutesWithoutProvider(t *testing.T) {
	s := newTestServer(t, nil)
	if w := s.do(http.MethodGet, "/auth/google", nil, ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("login: expected 503, got %d", w.Code)
	}
	if w := s.callback(nil, "code=abc"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("callback: expected 503, got %d", w.Code)
	}
}
