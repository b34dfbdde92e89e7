package sql

import (
	"context"
	"errors"
	"fmt"
	"storefront/internal/entity"
	"strings"

	"gorm.io/gorm"
)

var userSortColumns = map[string]string{
	"id":         "id",
	"fullname":   "fullname",
	"username":   "username",
	"email":      "email",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// CreateUser persists a new user record.
func (r *GormRepository) CreateUser(ctx context.Context, user *entity.DbUser) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return r.db.WithContext(ctx).Create(user).Error
}

// UpdateUser applies a partial update to an existing user.
func (r *GormRepository) UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid user")
	}
	if updates.Email != nil {
		normalised := strings.ToLower(strings.TrimSpace(*updates.Email))
		updates.Email = &normalised
	}
	values := updates.ToMap()
	if len(values) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbUser{}).Where("id = ?", id).Updates(values).Error
}

// GetUserByID loads a live user by ID.
func (r *GormRepository) GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	return r.firstLiveUser(ctx, "id = ?", id)
}

// GetUserByEmail loads a live user by email, case-insensitively.
func (r *GormRepository) GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return nil, fmt.Errorf("email is empty")
	}
	return r.firstLiveUser(ctx, "LOWER(email) = ?", strings.ToLower(trimmed))
}

// GetUserByUsername loads a live user by exact username.
func (r *GormRepository) GetUserByUsername(ctx context.Context, username string) (*entity.DbUser, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return nil, fmt.Errorf("username is empty")
	}
	return r.firstLiveUser(ctx, "username = ?", trimmed)
}

// GetUserByLogin matches the identifier against email first, then username.
func (r *GormRepository) GetUserByLogin(ctx context.Context, identifier string) (*entity.DbUser, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil, fmt.Errorf("identifier is empty")
	}
	if strings.Contains(trimmed, "@") {
		user, err := r.firstLiveUser(ctx, "LOWER(email) = ?", strings.ToLower(trimmed))
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return r.firstLiveUser(ctx, "username = ?", trimmed)
}

// GetUserBySlug loads a live user by slug.
func (r *GormRepository) GetUserBySlug(ctx context.Context, slug string) (*entity.DbUser, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, fmt.Errorf("slug is empty")
	}
	return r.firstLiveUser(ctx, "slug = ?", trimmed)
}

// GetUserByRefreshTokenHash loads the user whose active refresh token hashes to hash.
func (r *GormRepository) GetUserByRefreshTokenHash(ctx context.Context, hash string) (*entity.DbUser, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if hash == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return r.firstLiveUser(ctx, "refresh_token_hash = ?", hash)
}

// EmailExists includes soft-deleted rows since they still hold the unique index.
func (r *GormRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.userExists(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

// UsernameExists includes soft-deleted rows since they still hold the unique index.
func (r *GormRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.userExists(ctx, "username = ?", strings.TrimSpace(username))
}

// SlugExists includes soft-deleted rows since they still hold the unique index.
func (r *GormRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.userExists(ctx, "slug = ?", strings.TrimSpace(slug))
}

// ListUsers returns paginated users.
func (r *GormRepository) ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbUser{})
	order := "id DESC"
	if params == nil || !params.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	if params != nil {
		if status := strings.TrimSpace(params.Status); status != "" {
			query = query.Where("status = ?", status)
		}
		if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
			kw := "%" + strings.ToLower(keyword) + "%"
			query = query.Where("LOWER(email) LIKE ? OR LOWER(fullname) LIKE ? OR LOWER(username) LIKE ?", kw, kw, kw)
		}
		order = orderClause(params.SortBy, params.SortDesc, userSortColumns, order)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	window := entity.BaseParams{}
	if params != nil {
		window = params.BaseParams
	}
	var users []entity.DbUser
	if err := query.Order(order).Scopes(paginate(window)).Find(&users).Error; err != nil {
		return nil, nil, err
	}

	return users, window.MetaFor(total), nil
}

// DeleteUser physically removes a user by ID.
func (r *GormRepository) DeleteUser(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid user id")
	}
	result := r.db.WithContext(ctx).Delete(&entity.DbUser{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountUsers returns the number of live users.
func (r *GormRepository) CountUsers(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbUser{}).Where("is_deleted = ?", false).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormRepository) firstLiveUser(ctx context.Context, cond string, args ...interface{}) (*entity.DbUser, error) {
	var user entity.DbUser
	err := r.db.WithContext(ctx).
		Where(cond, args...).
		Where("is_deleted = ?", false).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepository) userExists(ctx context.Context, cond string, args ...interface{}) (bool, error) {
	if r == nil || r.db == nil {
		return false, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbUser{}).Where(cond, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
