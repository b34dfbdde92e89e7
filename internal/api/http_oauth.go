package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/entity"
	"storefront/internal/oauth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 10 * time.Minute
	oauthTimeout     = 15 * time.Second
)

// GoogleLogin redirects to the provider consent page with a fresh state value.
func (h *HTTPHandler) GoogleLogin(c *gin.Context) {
	if h.oauth == nil {
		ServiceUnavailable(c, "google login is not configured")
		return
	}

	state := uuid.NewString()
	secure := strings.HasPrefix(h.cfg.PublicURL, "https://")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, int(oauthStateMaxAge.Seconds()), "/", "", secure, true)
	c.Redirect(http.StatusFound, h.oauth.AuthCodeURL(state))
}

// GoogleCallback completes the authorization code flow and signs the user in.
func (h *HTTPHandler) GoogleCallback(c *gin.Context) {
	if h.oauth == nil {
		ServiceUnavailable(c, "google login is not configured")
		return
	}

	expected, _ := c.Cookie(oauthStateCookie)
	// Clear the cookie whatever the outcome so a state value is never replayed.
	c.SetCookie(oauthStateCookie, "", -1, "/", "", false, true)

	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		ErrorResponse(c, http.StatusForbidden, ErrCodeInvalidState, "invalid oauth state")
		return
	}
	if providerErr := c.Query("error"); providerErr != "" {
		Unauthorized(c, "authorization was denied: "+providerErr)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), oauthTimeout)
	defer cancel()

	profile, err := h.oauth.Exchange(ctx, c.Query("code"))
	if err != nil {
		if errors.Is(err, oauth.ErrMissingCode) {
			MissingField(c, "code")
			return
		}
		logrus.WithError(err).WithField("provider", h.oauth.Name()).Warn("oauth exchange failed")
		Unauthorized(c, "could not verify the identity provider response")
		return
	}

	result, err := h.authService.FederatedLogin(ctx, *profile)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "user already exists"
	if result.Created {
		message = "user created"
	}
	c.JSON(http.StatusOK, entity.AuthFederatedResponse{
		Success: true,
		Message: message,
		Created: result.Created,
		Data:    result.Tokens,
	})
}
