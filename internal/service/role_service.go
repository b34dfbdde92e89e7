package service

import (
	"context"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/entity"
	"storefront/internal/model"

	"github.com/sirupsen/logrus"
)

// RoleService manages roles and their permission sets.
type RoleService struct {
	repo model.Repository
}

func NewRoleService(repo model.Repository) *RoleService {
	return &RoleService{repo: repo}
}

// Create stores a role. A "*" entry expands to every permission known now;
// later additions to the enumeration are not granted retroactively.
func (s *RoleService) Create(ctx context.Context, actor uint, req entity.RoleCreateRequest) (*entity.DbRole, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ValidationError("role title is required")
	}
	perms, err := auth.ExpandPermissions(req.Permissions)
	if err != nil {
		return nil, ValidationError(err.Error())
	}

	role := &entity.DbRole{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Permissions: perms,
		IsActive:    true,
	}
	if actor != 0 {
		role.CreatedBy = &actor
		role.UpdatedBy = &actor
	}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, writeError(err, msgTitleTaken, msgRoleNotFound)
	}
	logrus.WithFields(logrus.Fields{"role_id": role.ID, "title": role.Title}).Info("role created")
	return role, nil
}

func (s *RoleService) Get(ctx context.Context, id uint) (*entity.DbRole, error) {
	role, err := s.repo.GetRoleByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgRoleNotFound)
	}
	return role, nil
}

// PermissionsFor resolves the effective permission set of a role reference.
func (s *RoleService) PermissionsFor(ctx context.Context, roleID *uint) (auth.PermissionSet, error) {
	return permissionsOf(ctx, s.repo, roleID)
}

// List returns active roles, or every role when includeInactive is set.
func (s *RoleService) List(ctx context.Context, includeInactive bool) ([]entity.DbRole, error) {
	roles, err := s.repo.ListRoles(ctx, includeInactive)
	if err != nil {
		return nil, InternalError("list roles", err)
	}
	return roles, nil
}

// Update applies the provided fields. Permissions are validated and expanded
// the same way as on create.
func (s *RoleService) Update(ctx context.Context, actor uint, id uint, req entity.RoleUpdateRequest) (*entity.DbRole, error) {
	role, err := s.repo.GetRoleByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgRoleNotFound)
	}

	var updates entity.RoleUpdates
	if v, ok := trimmedChange(req.Title, role.Title); ok {
		updates.Title = &v
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if desc != role.Description {
			updates.Description = &desc
		}
	}
	if req.Permissions != nil {
		perms, err := auth.ExpandPermissions(*req.Permissions)
		if err != nil {
			return nil, ValidationError(err.Error())
		}
		arr := entity.StringArray(perms)
		updates.Permissions = &arr
	}
	if req.IsActive != nil && *req.IsActive != role.IsActive {
		updates.IsActive = req.IsActive
	}
	if updates.IsEmpty() {
		return role, nil
	}
	if actor != 0 {
		updates.UpdatedBy = &actor
	}

	if err := s.repo.UpdateRole(ctx, id, updates); err != nil {
		return nil, writeError(err, msgTitleTaken, msgRoleNotFound)
	}
	updates.Apply(role)
	return role, nil
}

// SoftDelete deactivates a role. Users keeping a reference lose its permissions.
func (s *RoleService) SoftDelete(ctx context.Context, actor uint, id uint) error {
	if _, err := s.repo.GetRoleByID(ctx, id); err != nil {
		return lookupError(err, msgRoleNotFound)
	}
	updates := entity.RoleUpdates{IsActive: boolPtr(false)}
	if actor != 0 {
		updates.UpdatedBy = &actor
	}
	if err := s.repo.UpdateRole(ctx, id, updates); err != nil {
		return writeError(err, msgTitleTaken, msgRoleNotFound)
	}
	return nil
}

func (s *RoleService) HardDelete(ctx context.Context, id uint) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return writeError(err, msgTitleTaken, msgRoleNotFound)
	}
	return nil
}
