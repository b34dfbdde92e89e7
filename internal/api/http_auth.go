package api

import (
	"context"
	"net/http"

	"storefront/internal/entity"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) Register(c *gin.Context) {
	var req entity.AuthRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	resp, err := h.authService.Register(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *HTTPHandler) Login(c *gin.Context) {
	var req entity.AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	pair, err := h.authService.Login(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.AuthLoginResponse{
		Message:       "login successful",
		AuthTokenPair: *pair,
	})
}

func (h *HTTPHandler) VerifyCode(c *gin.Context) {
	var req entity.AuthVerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.authService.VerifyCode(ctx, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.MessageResponse{Message: "email verified"})
}

func (h *HTTPHandler) ResendVerificationCode(c *gin.Context) {
	var req entity.AuthEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.authService.ResendVerificationCode(ctx, req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.MessageResponse{Message: "verification code sent"})
}

func (h *HTTPHandler) ForgotPassword(c *gin.Context) {
	var req entity.AuthEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.authService.ForgotPassword(ctx, req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.MessageResponse{Message: "password reset code sent"})
}

func (h *HTTPHandler) ResetPassword(c *gin.Context) {
	var req entity.AuthResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.authService.ResetPassword(ctx, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.MessageResponse{Message: "password has been reset"})
}

// ChangePassword is bound to the authenticated caller.
func (h *HTTPHandler) ChangePassword(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.AuthChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.authService.ChangePassword(ctx, user.Identity, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.MessageResponse{Message: "password changed"})
}

func (h *HTTPHandler) UpdateProfile(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.AuthUpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	summary, err := h.authService.UpdateProfile(ctx, user.Identity, c.Param("slug"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated", "user": summary})
}

func (h *HTTPHandler) RefreshToken(c *gin.Context) {
	var req entity.AuthRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	token, err := h.authService.RefreshAccessToken(ctx, req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token refreshed", "token": token})
}

func (h *HTTPHandler) Me(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	summary, err := h.authService.Me(ctx, user.Identity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
