package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/entity"
	"storefront/internal/mail"
	"storefront/internal/model"
	"storefront/internal/model/memory"
	"storefront/internal/throttle"
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

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *recordingMailer) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("expected an email to be dispatched")
	}
	return m.sent[len(m.sent)-1]
}

type testEnv struct {
	cfg    config.Config
	repo   *memory.Repository
	tokens *auth.Manager
	mailer *recordingMailer
	auth   *AuthService
	roles  *RoleService
	users  *UserService
	now    time.Time
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:            "access-secret",
		JWTRefreshSecret:     "refresh-secret",
		JWTIssuer:            "storefront-test",
		JWTExpiration:        time.Hour,
		JWTRefreshExpiration: 24 * time.Hour,
		BcryptCost:           4,
		VerificationCodeTTL:  5 * time.Minute,
		DefaultRoleTitle:     "customer",
	}
}

func newTestEnv(t *testing.T, limiter throttle.Limiter) *testEnv {
	t.Helper()
	cfg := testConfig()
	env := &testEnv{
		cfg:    cfg,
		repo:   memory.NewRepository(),
		mailer: &recordingMailer{},
		now:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, cfg.JWTExpiration, cfg.JWTRefreshExpiration)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	tokens.SetClock(clock)
	env.tokens = tokens

	if err := model.SeedDefaultRoles(context.Background(), env.repo, cfg); err != nil {
		t.Fatalf("SeedDefaultRoles: %v", err)
	}

	env.auth = NewAuthService(env.repo, tokens, env.mailer, limiter, cfg)
	env.auth.SetClock(clock)
	env.roles = NewRoleService(env.repo)
	env.users = NewUserService(env.repo, cfg)
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEnv) register(t *testing.T, fullname, username, email, password string) *entity.AuthRegisterResponse {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), entity.AuthRegisterRequest{
		Fullname: fullname,
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return resp
}

func (e *testEnv) storedUser(t *testing.T, email string) *entity.DbUser {
	t.Helper()
	user, err := e.repo.GetUserByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("GetUserByEmail(%s): %v", email, err)
	}
	return user
}

// registerVerified registers and verifies an account.
func (e *testEnv) registerVerified(t *testing.T, fullname, username, email, password string) *entity.DbUser {
	t.Helper()
	e.register(t, fullname, username, email, password)
	code := e.storedUser(t, email).CodeVerify
	if err := e.auth.VerifyCode(context.Background(), entity.AuthVerifyCodeRequest{Email: email, Code: code}); err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	return e.storedUser(t, email)
}

func (e *testEnv) login(t *testing.T, identifier, password string) *entity.AuthTokenPair {
	t.Helper()
	pair, err := e.auth.Login(context.Background(), entity.AuthLoginRequest{EmailOrUsername: identifier, Password: password})
	if err != nil {
		t.Fatalf("Login(%s): %v", identifier, err)
	}
	return pair
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}
