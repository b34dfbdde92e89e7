package auth

import "testing"

func TestExpandPermissionsWildcard(t *testing.T) {
	expanded, err := ExpandPermissions([]string{"*"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(expanded) != len(AllPermissions) {
		t.Fatalf("expected %d permissions, got %d", len(AllPermissions), len(expanded))
	}
	if len(AllPermissions) != 20 {
		t.Fatalf("expected 20 enumerated permissions, got %d", len(AllPermissions))
	}
}

func TestExpandPermissionsValidatesAndDedupes(t *testing.T) {
	expanded, err := ExpandPermissions([]string{"product:read", " PRODUCT:READ ", "user:create"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(expanded) != 2 || expanded[0] != "product:read" || expanded[1] != "user:create" {
		t.Fatalf("unexpected expansion %v", expanded)
	}

	if _, err := ExpandPermissions([]string{"product:fly"}); err == nil {
		t.Fatal("expected unknown permission to be rejected")
	}
}

func TestPermissionSetHasAll(t *testing.T) {
	set := NewPermissionSet([]string{"product:read"})

	tests := []struct {
		name     string
		required []Permission
		want     bool
	}{
		{name: "granted", required: []Permission{PermProductRead}, want: true},
		{name: "missing", required: []Permission{PermProductCreate}, want: false},
		{name: "partially granted", required: []Permission{PermProductRead, PermProductCreate}, want: false},
		{name: "nothing required", required: nil, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := set.HasAll(tt.required...); got != tt.want {
				t.Fatalf("HasAll(%v) = %v, want %v", tt.required, got, tt.want)
			}
		})
	}
}

func TestStoredWildcardIsNotReexpanded(t *testing.T) {
	set := NewPermissionSet([]string{"*"})
	if set.Has(PermUserRead) {
		t.Fatal("a stored wildcard must not grant permissions at check time")
	}
}
