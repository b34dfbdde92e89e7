// Package oauth implements the Google authorization-code flow used for
// federated login.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// ProviderGoogle names the Google provider in logs and metrics.
const ProviderGoogle = "google"

var (
	ErrMissingCode    = errors.New("oauth: missing authorization code")
	ErrMissingIDToken = errors.New("oauth: token response has no id_token")
	ErrNoEmail        = errors.New("oauth: identity has no verified email")
)

// Profile is the identity an external provider vouches for.
type Profile struct {
	Provider    string
	Subject     string
	DisplayName string
	Email       string
	PhotoURL    string
}

// Provider runs an authorization-code flow and yields a verified profile.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// GoogleConfig holds the OAuth client registration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// GoogleProvider exchanges codes with Google and validates the returned ID token.
type GoogleProvider struct {
	clientID string
	config   *oauth2.Config
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewGoogleProvider builds the provider; all three settings are required.
func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.CallbackURL == "" {
		return nil, errors.New("oauth: google client id, secret and callback url are required")
	}
	return &GoogleProvider{
		clientID: cfg.ClientID,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		validate: idtoken.Validate,
	}, nil
}

func (p *GoogleProvider) Name() string { return ProviderGoogle }

// AuthCodeURL returns the consent page URL carrying state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for tokens and reads the profile from the
// validated ID token.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrMissingCode
	}
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth: exchange code: %w", err)
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, ErrMissingIDToken
	}
	return p.profileFromIDToken(ctx, raw)
}

func (p *GoogleProvider) profileFromIDToken(ctx context.Context, raw string) (*Profile, error) {
	payload, err := p.validate(ctx, raw, p.clientID)
	if err != nil {
		return nil, fmt.Errorf("oauth: validate id token: %w", err)
	}
	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return nil, fmt.Errorf("oauth: unexpected issuer: %s", payload.Issuer)
	}

	email := strings.ToLower(strings.TrimSpace(claimString(payload.Claims, "email")))
	if email == "" {
		return nil, ErrNoEmail
	}
	if v, ok := payload.Claims["email_verified"].(bool); ok && !v {
		return nil, ErrNoEmail
	}

	return &Profile{
		Provider:    ProviderGoogle,
		Subject:     payload.Subject,
		DisplayName: strings.TrimSpace(claimString(payload.Claims, "name")),
		Email:       email,
		PhotoURL:    claimString(payload.Claims, "picture"),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if raw, ok := claims[key]; ok {
		if v, ok := raw.(string); ok {
			return v
		}
	}
	return ""
}
