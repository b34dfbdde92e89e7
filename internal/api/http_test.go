package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/entity"
	"storefront/internal/mail"
	"storefront/internal/model"
	"storefront/internal/model/memory"
	"storefront/internal/oauth"
	"storefront/internal/storage"

	"github.com/gin-gonic/gin"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Dispatch(_ context.Context, msg mail.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
}

type fakeProvider struct {
	profile oauth.Profile
	err     error
}

func (p *fakeProvider) Name() string { return oauth.ProviderGoogle }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*oauth.Profile, error) {
	if code == "" {
		return nil, oauth.ErrMissingCode
	}
	if p.err != nil {
		return nil, p.err
	}
	profile := p.profile
	return &profile, nil
}

type testServer struct {
	t       *testing.T
	cfg     config.Config
	repo    *memory.Repository
	mailer  *recordingMailer
	handler *HTTPHandler
	router  *gin.Engine
	dir     string
}

func testConfig(dir string) config.Config {
	return config.Config{
		PublicURL:            "http://localhost:8080",
		JWTSecret:            "access-secret",
		JWTRefreshSecret:     "refresh-secret",
		JWTIssuer:            "storefront-test",
		JWTExpiration:        time.Hour,
		JWTRefreshExpiration: 24 * time.Hour,
		BcryptCost:           4,
		VerificationCodeTTL:  5 * time.Minute,
		DefaultRoleTitle:     "customer",
		StorageLocalDir:      dir,
		StoragePublicBaseURL: "/files",
		UploadMaxBytes:       1024,
	}
}

func newTestServer(t *testing.T, provider oauth.Provider) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := testConfig(dir)
	repo := memory.NewRepository()
	if err := model.SeedDefaultRoles(context.Background(), repo, cfg); err != nil {
		t.Fatalf("SeedDefaultRoles: %v", err)
	}
	store, err := storage.NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	mailer := &recordingMailer{}
	handler, err := NewHTTPHandler(cfg, Dependencies{Repo: repo, Storage: store, Mailer: mailer, OAuth: provider})
	if err != nil {
		t.Fatalf("NewHTTPHandler: %v", err)
	}

	router := gin.New()
	handler.RegisterRoutes(router)
	return &testServer{t: t, cfg: cfg, repo: repo, mailer: mailer, handler: handler, router: router, dir: dir}
}

func (s *testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) storedUser(email string) *entity.DbUser {
	s.t.Helper()
	user, err := s.repo.GetUserByEmail(context.Background(), email)
	if err != nil {
		s.t.Fatalf("GetUserByEmail(%s): %v", email, err)
	}
	return user
}

// verifiedLogin registers, verifies and logs in an account over HTTP.
func (s *testServer) verifiedLogin(fullname, username, email, password string) entity.AuthTokenPair {
	s.t.Helper()
	if w := s.do(http.MethodPost, "/auth/register", entity.AuthRegisterRequest{
		Fullname: fullname, Username: username, Email: email, Password: password,
	}, ""); w.Code != http.StatusCreated {
		s.t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	code := s.storedUser(email).CodeVerify
	if w := s.do(http.MethodPost, "/auth/verify-code", entity.AuthVerifyCodeRequest{Email: email, Code: code}, ""); w.Code != http.StatusOK {
		s.t.Fatalf("verify: %d %s", w.Code, w.Body.String())
	}
	return s.login(username, password)
}

func (s *testServer) login(identifier, password string) entity.AuthTokenPair {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/login", entity.AuthLoginRequest{EmailOrUsername: identifier, Password: password}, "")
	if w.Code != http.StatusOK {
		s.t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var resp entity.AuthLoginResponse
	decode(s.t, w, &resp)
	return resp.AuthTokenPair
}

func (s *testServer) adminToken() string {
	s.t.Helper()
	if err := s.handler.userService.EnsureAdmin(context.Background(), "root@x.com", "rootpass"); err != nil {
		s.t.Fatalf("EnsureAdmin: %v", err)
	}
	return s.login("root@x.com", "rootpass").Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}
