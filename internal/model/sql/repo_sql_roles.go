package sql

import (
	"context"
	"fmt"
	"storefront/internal/entity"
	"strings"

	"gorm.io/gorm"
)

// CreateRole persists a new role.
func (r *GormRepository) CreateRole(ctx context.Context, role *entity.DbRole) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if role == nil {
		return fmt.Errorf("role is nil")
	}
	return r.db.WithContext(ctx).Create(role).Error
}

// UpdateRole applies a partial update to a role.
func (r *GormRepository) UpdateRole(ctx context.Context, id uint, updates entity.RoleUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid role id")
	}
	values := updates.ToMap()
	if len(values) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbRole{}).Where("id = ?", id).Updates(values).Error
}

// GetRoleByID loads a role regardless of its active flag.
func (r *GormRepository) GetRoleByID(ctx context.Context, id uint) (*entity.DbRole, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var role entity.DbRole
	if err := r.db.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// GetRoleByTitle loads a role by its unique title.
func (r *GormRepository) GetRoleByTitle(ctx context.Context, title string) (*entity.DbRole, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var role entity.DbRole
	if err := r.db.WithContext(ctx).Where("title = ?", trimmed).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// ListRoles returns roles ordered by id.
func (r *GormRepository) ListRoles(ctx context.Context, includeInactive bool) ([]entity.DbRole, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	query := r.db.WithContext(ctx).Model(&entity.DbRole{}).Where("is_deleted = ?", false)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var roles []entity.DbRole
	if err := query.Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// DeleteRole physically removes a role.
func (r *GormRepository) DeleteRole(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid role id")
	}
	result := r.db.WithContext(ctx).Delete(&entity.DbRole{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
