package api

import (
	"context"
	"net/http"
	"strconv"

	"storefront/internal/entity"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) ListRoles(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	roles, err := h.roleService.List(ctx, includeInactive)
	if err != nil {
		respondError(c, err)
		return
	}
	if roles == nil {
		roles = []entity.DbRole{}
	}
	c.JSON(http.StatusOK, entity.RoleListResponse{Roles: roles})
}

func (h *HTTPHandler) GetRole(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	role, err := h.roleService.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

func (h *HTTPHandler) CreateRole(c *gin.Context) {
	var req entity.RoleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	role, err := h.roleService.Create(ctx, actorID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

func (h *HTTPHandler) UpdateRole(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req entity.RoleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	role, err := h.roleService.Update(ctx, actorID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

func (h *HTTPHandler) SoftDeleteRole(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.roleService.SoftDelete(ctx, actorID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.MessageResponse{Message: "role deactivated"})
}

func (h *HTTPHandler) HardDeleteRole(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.roleService.HardDelete(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.MessageResponse{Message: "role deleted"})
}

// parseIDParam reads the :id path parameter and answers 400 when it is not a
// positive integer.
func parseIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func actorID(c *gin.Context) uint {
	if user := CurrentUser(c); user != nil {
		return user.UserID
	}
	return 0
}
