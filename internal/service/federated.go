package service

import (
	"context"
	"strconv"
	"strings"

	"storefront/internal/entity"
	"storefront/internal/metrics"
	"storefront/internal/oauth"

	"github.com/sirupsen/logrus"
)

// FederatedResult is the outcome of a login through an external provider.
type FederatedResult struct {
	Tokens  entity.AuthTokenPair
	User    entity.UserSummary
	Created bool
}

// FederatedLogin maps a provider-verified profile to a local account. A new
// account is created verified, with a synthesized username and an opaque
// password no password login can match. An existing account is never modified
// apart from the refresh token rotation every login performs.
func (s *AuthService) FederatedLogin(ctx context.Context, profile oauth.Profile) (*FederatedResult, error) {
	email := normalizeEmail(profile.Email)
	if email == "" || !validEmail(email) {
		return nil, ValidationError("provider profile has no usable email")
	}
	provider := profile.Provider
	if provider == "" {
		provider = "external"
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	created := false
	switch {
	case err == nil:
		if user.Status == entity.UserStatusBanned {
			return nil, ForbiddenError("account is banned")
		}
	case isNotFound(err):
		user, err = s.createFederatedUser(ctx, profile, email)
		if IsKind(err, KindConflict) {
			// A concurrent callback created the account first.
			user, err = s.repo.GetUserByEmail(ctx, email)
			if err != nil {
				return nil, lookupError(err, msgUserNotFound)
			}
			break
		}
		if err != nil {
			return nil, err
		}
		created = true
	default:
		return nil, InternalError("load user", err)
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.FederatedLogins.WithLabelValues(provider, strconv.FormatBool(created)).Inc()
	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"provider": provider,
		"created":  created,
	}).Info("federated login")

	return &FederatedResult{Tokens: *pair, User: user.Summary(), Created: created}, nil
}

func (s *AuthService) createFederatedUser(ctx context.Context, profile oauth.Profile, email string) (*entity.DbUser, error) {
	username, err := uniqueUsername(ctx, s.repo, email)
	if err != nil {
		return nil, err
	}
	fullname := strings.TrimSpace(profile.DisplayName)
	if fullname == "" {
		fullname = username
	}
	slug, err := uniqueSlug(ctx, s.repo, fullname, "")
	if err != nil {
		return nil, err
	}
	secret, err := s.tokens.IssueOpaqueSecret(email)
	if err != nil {
		return nil, InternalError("issue opaque password", err)
	}

	user := &entity.DbUser{
		Fullname:     fullname,
		Username:     username,
		Email:        email,
		PasswordHash: secret,
		Avatar:       strings.TrimSpace(profile.PhotoURL),
		Slug:         slug,
		RoleID:       s.defaultRoleID(ctx),
		VerifyEmail:  true,
		Status:       entity.UserStatusActive,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, writeError(err, "account already exists", msgUserNotFound)
	}
	return user, nil
}
