package api

import (
	"errors"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/mail"
	"storefront/internal/model"
	"storefront/internal/oauth"
	"storefront/internal/service"
	"storefront/internal/storage"
	"storefront/internal/throttle"

	"gorm.io/gorm"
)

// Dependencies are the collaborators built by the caller.
// Tokens is derived from the config when nil. OAuth may be nil, in which case
// the federated routes answer 503.
type Dependencies struct {
	Repo    model.Repository
	Storage storage.Storage
	Tokens  *auth.Manager
	Mailer  mail.Dispatcher
	Limiter throttle.Limiter
	OAuth   oauth.Provider
}

// HTTPHandler serves the account, role, user and upload routes.
type HTTPHandler struct {
	cfg               config.Config
	repo              model.Repository
	storage           storage.Storage
	storagePublicBase string
	tokens            *auth.Manager
	oauth             oauth.Provider

	authService *service.AuthService
	roleService *service.RoleService
	userService *service.UserService
}

// NewHTTPHandler creates the handler and the services behind it.
func NewHTTPHandler(cfg config.Config, deps Dependencies) (*HTTPHandler, error) {
	if deps.Repo == nil {
		return nil, errors.New("api: repository is required")
	}
	tokens := deps.Tokens
	if tokens == nil {
		var err error
		tokens, err = auth.NewManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, cfg.JWTExpiration, cfg.JWTRefreshExpiration)
		if err != nil {
			return nil, err
		}
	}

	return &HTTPHandler{
		cfg:               cfg,
		repo:              deps.Repo,
		storage:           deps.Storage,
		storagePublicBase: normalisePublicBase(cfg.StoragePublicBaseURL),
		tokens:            tokens,
		oauth:             deps.OAuth,
		authService:       service.NewAuthService(deps.Repo, tokens, deps.Mailer, deps.Limiter, cfg),
		roleService:       service.NewRoleService(deps.Repo),
		userService:       service.NewUserService(deps.Repo, cfg),
	}, nil
}

// AuthService exposes the account service for callers that need it outside HTTP.
func (h *HTTPHandler) AuthService() *service.AuthService {
	return h.authService
}

// normalisePublicBase turns the configured public base into either an
// absolute URL or a rooted path without a trailing slash.
func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/files"
	}
	if isAbsoluteURL(trimmed) {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

func isAbsoluteURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
