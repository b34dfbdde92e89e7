package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	currentUserContextKey = "current-user"
	requestTimeout        = 5 * time.Second
)

// RequestUser is the authenticated caller attached to the request context.
type RequestUser struct {
	auth.Identity
	Status string
}

// AuthMiddleware requires a valid access token and a live account.
// Claims are refreshed from the stored record so renamed users see current values.
func (h *HTTPHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			Unauthorized(c, "missing or malformed authorization header")
			return
		}

		claims, err := h.tokens.VerifyAccessToken(tokenString)
		if err != nil {
			logrus.WithError(err).Debug("rejected access token")
			ErrorResponse(c, http.StatusUnauthorized, ErrCodeSessionExpired, "invalid or expired token")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		user, err := h.repo.GetUserByID(ctx, claims.UserID)
		if err != nil {
			if isRecordNotFound(err) {
				Unauthorized(c, "account no longer exists")
				return
			}
			logrus.WithError(err).WithField("user_id", claims.UserID).Error("failed to load user")
			InternalError(c)
			return
		}

		if user.Status == entity.UserStatusBanned {
			ErrorResponse(c, http.StatusForbidden, ErrCodeUserBanned, "account is banned")
			return
		}

		c.Set(currentUserContextKey, &RequestUser{
			Identity: auth.IdentityFromUser(user),
			Status:   user.Status,
		})
		c.Next()
	}
}

// RequirePermissions passes only callers whose role holds every listed
// permission. It must run after AuthMiddleware.
func (h *HTTPHandler) RequirePermissions(required ...auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			Unauthorized(c, "authentication required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		perms, err := h.roleService.PermissionsFor(ctx, user.RoleID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !perms.HasAll(required...) {
			logrus.WithFields(logrus.Fields{
				"user_id":  user.UserID,
				"required": required,
			}).Info("permission denied")
			Forbidden(c, "insufficient permissions")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller or nil.
func CurrentUser(c *gin.Context) *RequestUser {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*RequestUser)
	if !ok {
		return nil
	}
	return user
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
