package model

import (
	"context"
	"testing"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/model/memory"
)

var _ Repository = (*memory.Repository)(nil)

func TestSeedDefaultRolesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	cfg := config.Config{DefaultRoleTitle: "customer"}

	for i := 0; i < 2; i++ {
		if err := SeedDefaultRoles(ctx, repo, cfg); err != nil {
			t.Fatalf("seed run %d failed: %v", i, err)
		}
	}

	roles, err := repo.ListRoles(ctx, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(roles))
	}

	admin, err := repo.GetRoleByTitle(ctx, AdminRoleTitle)
	if err != nil {
		t.Fatalf("admin role missing: %v", err)
	}
	if len(admin.Permissions) != len(auth.AllPermissions) {
		t.Fatalf("expected wildcard expansion to %d permissions, got %d", len(auth.AllPermissions), len(admin.Permissions))
	}
	if admin.Permissions.Contains(auth.Wildcard) {
		t.Fatal("stored permissions must not contain the wildcard")
	}

	customer, err := repo.GetRoleByTitle(ctx, "customer")
	if err != nil {
		t.Fatalf("customer role missing: %v", err)
	}
	if auth.NewPermissionSet(customer.Permissions).Has(auth.PermUserDelete) {
		t.Fatal("customer must not hold user:delete")
	}
}
