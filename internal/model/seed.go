package model

import (
	"context"
	"errors"
	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/entity"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AdminRoleTitle names the seeded role holding every permission.
const AdminRoleTitle = "admin"

type roleSeed struct {
	Title       string
	Description string
	Permissions []string
}

// SeedDefaultRoles creates the admin and default customer roles when missing.
// Existing roles are left untouched so operator edits survive restarts.
func SeedDefaultRoles(ctx context.Context, repo Repository, cfg config.Config) error {
	if repo == nil {
		return nil
	}

	for _, seed := range buildDefaultRoleSeeds(cfg) {
		_, err := repo.GetRoleByTitle(ctx, seed.Title)
		switch {
		case err == nil:
			continue
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := createSeedRole(ctx, repo, seed); err != nil {
				return err
			}
		default:
			return err
		}
	}
	return nil
}

func createSeedRole(ctx context.Context, repo Repository, seed roleSeed) error {
	perms, err := auth.ExpandPermissions(seed.Permissions)
	if err != nil {
		return err
	}
	role := &entity.DbRole{
		Title:       seed.Title,
		Description: seed.Description,
		Permissions: perms,
		IsActive:    true,
	}
	if err := repo.CreateRole(ctx, role); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	logrus.WithFields(logrus.Fields{"role": role.Title, "permissions": len(perms)}).Info("seeded role")
	return nil
}

func buildDefaultRoleSeeds(cfg config.Config) []roleSeed {
	seeds := []roleSeed{
		{
			Title:       AdminRoleTitle,
			Description: "Full access to every resource",
			Permissions: []string{auth.Wildcard},
		},
	}

	customer := strings.TrimSpace(cfg.DefaultRoleTitle)
	if customer != "" && customer != AdminRoleTitle {
		seeds = append(seeds, roleSeed{
			Title:       customer,
			Description: "Default role assigned at registration",
			Permissions: []string{
				string(auth.PermProductRead),
				string(auth.PermCategoryRead),
				string(auth.PermOrderRead),
				string(auth.PermOrderCreate),
			},
		})
	}
	return seeds
}
