package service

import (
	"context"
	"testing"

	"storefront/internal/auth"
	"storefront/internal/entity"
	"storefront/internal/oauth"
)

func TestFederatedLoginCreatesUserOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	profile := oauth.Profile{
		Provider:    oauth.ProviderGoogle,
		DisplayName: "Ann Lee",
		Email:       "Ann.Lee@gmail.com",
		PhotoURL:    "https://example.com/ann.png",
	}

	first, err := env.auth.FederatedLogin(context.Background(), profile)
	if err != nil {
		t.Fatalf("first FederatedLogin: %v", err)
	}
	if !first.Created {
		t.Fatalf("expected first login to create the user")
	}
	if first.Tokens.Token == "" || first.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens, got %+v", first.Tokens)
	}

	stored := env.storedUser(t, "ann.lee@gmail.com")
	if !stored.VerifyEmail {
		t.Fatalf("federated account must be verified")
	}
	if stored.Username != "ann.lee" {
		t.Fatalf("expected username from email local part, got %q", stored.Username)
	}
	if stored.Avatar != profile.PhotoURL {
		t.Fatalf("expected provider avatar, got %q", stored.Avatar)
	}
	if stored.RefreshTokenHash != auth.TokenFingerprint(first.Tokens.RefreshToken) {
		t.Fatalf("refresh token not persisted")
	}

	// The opaque password never authenticates.
	_, err = env.auth.Login(context.Background(), entity.AuthLoginRequest{Email: "ann.lee@gmail.com", Password: stored.PasswordHash})
	assertKind(t, err, KindAuth)

	profile.DisplayName = "Changed Name"
	profile.PhotoURL = "https://example.com/other.png"
	second, err := env.auth.FederatedLogin(context.Background(), profile)
	if err != nil {
		t.Fatalf("second FederatedLogin: %v", err)
	}
	if second.Created {
		t.Fatalf("second login must not create a user")
	}
	count, err := env.repo.CountUsers(context.Background())
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one user, got %d", count)
	}
	after := env.storedUser(t, "ann.lee@gmail.com")
	if after.Fullname != "Ann Lee" || after.Avatar != "https://example.com/ann.png" {
		t.Fatalf("existing user was mutated: %+v", after)
	}
	if after.Username != stored.Username || after.Slug != stored.Slug || after.PasswordHash != stored.PasswordHash {
		t.Fatalf("existing account fields changed: %+v", after)
	}

	// Only the stored refresh token rotates, so the returned one refreshes.
	if after.RefreshTokenHash != auth.TokenFingerprint(second.Tokens.RefreshToken) {
		t.Fatalf("second refresh token not persisted")
	}
	if _, err := env.auth.RefreshAccessToken(context.Background(), second.Tokens.RefreshToken); err != nil {
		t.Fatalf("RefreshAccessToken with current token: %v", err)
	}
	_, err = env.auth.RefreshAccessToken(context.Background(), first.Tokens.RefreshToken)
	assertKind(t, err, KindNotFound)

	// Claims match the password login shape.
	claims, err := env.tokens.VerifyAccessToken(second.Tokens.Token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.Identity().UserID != stored.ID || claims.Email != "ann.lee@gmail.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestFederatedLoginUsernameCollision(t *testing.T) {
	env := newTestEnv(t, nil)
	env.registerVerified(t, "Ann Local", "ann", "ann@x.com", "secret1")

	res, err := env.auth.FederatedLogin(context.Background(), oauth.Profile{Email: "ann@gmail.com"})
	if err != nil {
		t.Fatalf("FederatedLogin: %v", err)
	}
	if res.User.Username != "ann-1" {
		t.Fatalf("expected suffixed username, got %q", res.User.Username)
	}
	if res.User.Fullname != "ann-1" {
		t.Fatalf("expected username as fallback fullname, got %q", res.User.Fullname)
	}
}

func TestFederatedLoginExistingPasswordAccount(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.registerVerified(t, "Ann Lee", "ann", "ann@x.com", "secret1")

	res, err := env.auth.FederatedLogin(context.Background(), oauth.Profile{Email: "ann@x.com", DisplayName: "Someone"})
	if err != nil {
		t.Fatalf("FederatedLogin: %v", err)
	}
	if res.Created || res.User.ID != user.ID {
		t.Fatalf("expected existing account, got %+v", res)
	}
	if err := auth.VerifyPassword(env.storedUser(t, "ann@x.com").PasswordHash, "secret1"); err != nil {
		t.Fatalf("password must be untouched: %v", err)
	}
}

func TestFederatedLoginRejectsMissingEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.auth.FederatedLogin(context.Background(), oauth.Profile{DisplayName: "No Email"})
	assertKind(t, err, KindValidation)
}
