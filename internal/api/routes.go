package api

import (
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts every route on r.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := h.AuthMiddleware()

	authGroup := r.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/verify-code", h.VerifyCode)
	authGroup.POST("/resend-verification-code", h.ResendVerificationCode)
	authGroup.POST("/forgot-password", h.ForgotPassword)
	authGroup.POST("/reset-password", h.ResetPassword)
	authGroup.POST("/refresh-token", h.RefreshToken)
	authGroup.POST("/change-password", authed, h.ChangePassword)
	authGroup.PATCH("/update-profile/:slug", authed, h.UpdateProfile)
	authGroup.GET("/me", authed, h.Me)
	authGroup.GET("/google", h.GoogleLogin)
	authGroup.GET("/google/callback", h.GoogleCallback)

	roles := r.Group("/roles", authed)
	roles.GET("", h.RequirePermissions(auth.PermRoleRead), h.ListRoles)
	roles.GET("/:id", h.RequirePermissions(auth.PermRoleRead), h.GetRole)
	roles.POST("", h.RequirePermissions(auth.PermRoleCreate), h.CreateRole)
	roles.PUT("/:id", h.RequirePermissions(auth.PermRoleUpdate), h.UpdateRole)
	roles.PATCH("/soft-delete/:id", h.RequirePermissions(auth.PermRoleUpdate), h.SoftDeleteRole)
	roles.DELETE("/hard-delete/:id", h.RequirePermissions(auth.PermRoleDelete), h.HardDeleteRole)

	users := r.Group("/users", authed)
	users.GET("", h.RequirePermissions(auth.PermUserRead), h.ListUsers)
	users.GET("/slug/:slug", h.RequirePermissions(auth.PermUserRead), h.GetUserBySlug)
	users.GET("/:id", h.RequirePermissions(auth.PermUserRead), h.GetUser)
	users.POST("", h.RequirePermissions(auth.PermUserCreate), h.CreateUser)
	users.PUT("/:id", h.RequirePermissions(auth.PermUserUpdate), h.UpdateUser)
	users.PATCH("/soft-delete/:id", h.RequirePermissions(auth.PermUserUpdate), h.SoftDeleteUser)
	users.DELETE("/hard-delete/:id", h.RequirePermissions(auth.PermUserDelete), h.HardDeleteUser)

	uploads := r.Group("/uploads", authed)
	uploads.POST("/image", h.UploadImage)
	uploads.DELETE("/*key", h.DeleteUpload)

	if local, ok := h.storage.(storage.LocalBaseDirProvider); ok && !isAbsoluteURL(h.storagePublicBase) {
		r.Static(h.storagePublicBase, local.LocalBaseDir())
	}
}
