package model

import (
	"context"
	"storefront/internal/entity"
)

// Repository is the credential store consumed by the services.
// Lookups return gorm.ErrRecordNotFound when nothing matches and skip soft-deleted users.
// Writes that violate a unique column return gorm.ErrDuplicatedKey.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, user *entity.DbUser) error
	UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.DbUser, error)
	GetUserByLogin(ctx context.Context, identifier string) (*entity.DbUser, error)
	GetUserBySlug(ctx context.Context, slug string) (*entity.DbUser, error)
	GetUserByRefreshTokenHash(ctx context.Context, hash string) (*entity.DbUser, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	DeleteUser(ctx context.Context, id uint) error
	CountUsers(ctx context.Context) (int64, error)

	// Roles
	CreateRole(ctx context.Context, role *entity.DbRole) error
	UpdateRole(ctx context.Context, id uint, updates entity.RoleUpdates) error
	GetRoleByID(ctx context.Context, id uint) (*entity.DbRole, error)
	GetRoleByTitle(ctx context.Context, title string) (*entity.DbRole, error)
	ListRoles(ctx context.Context, includeInactive bool) ([]entity.DbRole, error)
	DeleteRole(ctx context.Context, id uint) error
}
