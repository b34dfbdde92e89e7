package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/entity"
	"storefront/internal/model"
	"storefront/internal/utils"

	"gorm.io/gorm"
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
	maxSuffixAttempts = 1000
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(password) > maxPasswordLength {
		return ValidationError(fmt.Sprintf("password must be at most %d bytes", maxPasswordLength))
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// lookupError turns a repository read failure into a service error.
func lookupError(err error, notFound string) error {
	if isNotFound(err) {
		return NotFoundError(notFound)
	}
	return InternalError("load record", err)
}

// writeError turns a repository write failure into a service error. The unique
// indexes are the authoritative guard, so a lost race surfaces here as a conflict.
func writeError(err error, conflict, notFound string) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ConflictError(conflict)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFoundError(notFound)
	default:
		return InternalError("write record", err)
	}
}

// uniqueSlug derives a slug from name and appends -1, -2, ... until it is free.
// current is the caller's existing slug, which counts as free.
func uniqueSlug(ctx context.Context, repo model.Repository, name, current string) (string, error) {
	base := utils.Slugify(name)
	if base == "" {
		base = "user"
	}
	return firstFree(base, current, func(candidate string) (bool, error) {
		return repo.SlugExists(ctx, candidate)
	})
}

// uniqueUsername builds a username from an email local part.
func uniqueUsername(ctx context.Context, repo model.Repository, email string) (string, error) {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, local)
	if base == "" {
		base = "user"
	}
	return firstFree(base, "", func(candidate string) (bool, error) {
		return repo.UsernameExists(ctx, candidate)
	})
}

func firstFree(base, current string, taken func(string) (bool, error)) (string, error) {
	for i := 0; i < maxSuffixAttempts; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		if candidate == current {
			return candidate, nil
		}
		exists, err := taken(candidate)
		if err != nil {
			return "", InternalError("check uniqueness", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", InternalError("generate unique value", fmt.Errorf("no free value for %q", base))
}

// permissionsOf returns the permission set of an active role. A nil role id,
// a missing role or an inactive role yields an empty set.
func permissionsOf(ctx context.Context, repo model.Repository, roleID *uint) (auth.PermissionSet, error) {
	if roleID == nil {
		return auth.PermissionSet{}, nil
	}
	role, err := repo.GetRoleByID(ctx, *roleID)
	if err != nil {
		if isNotFound(err) {
			return auth.PermissionSet{}, nil
		}
		return nil, InternalError("load role", err)
	}
	if !role.IsActive || role.IsDeleted {
		return auth.PermissionSet{}, nil
	}
	return auth.NewPermissionSet(role.Permissions), nil
}

func stringPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

// trimmedChange returns the trimmed value when it is set, non-empty and
// different from current.
func trimmedChange(value *string, current string) (string, bool) {
	if value == nil {
		return "", false
	}
	v := strings.TrimSpace(*value)
	if v == "" || v == current {
		return "", false
	}
	return v, true
}

func summaries(users []entity.DbUser) []entity.UserSummary {
	out := make([]entity.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out
}
