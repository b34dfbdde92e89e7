package auth

import (
	"fmt"
	"sort"
	"strings"
)

// Permission is a "resource:action" capability.
type Permission string

// Wildcard expands to AllPermissions when a role is created.
const Wildcard = "*"

const (
	PermUserRead   Permission = "user:read"
	PermUserCreate Permission = "user:create"
	PermUserUpdate Permission = "user:update"
	PermUserDelete Permission = "user:delete"

	PermCategoryRead   Permission = "category:read"
	PermCategoryCreate Permission = "category:create"
	PermCategoryUpdate Permission = "category:update"
	PermCategoryDelete Permission = "category:delete"

	PermProductRead   Permission = "product:read"
	PermProductCreate Permission = "product:create"
	PermProductUpdate Permission = "product:update"
	PermProductDelete Permission = "product:delete"

	PermOrderRead   Permission = "order:read"
	PermOrderCreate Permission = "order:create"
	PermOrderUpdate Permission = "order:update"
	PermOrderDelete Permission = "order:delete"

	PermRoleRead   Permission = "role:read"
	PermRoleCreate Permission = "role:create"
	PermRoleUpdate Permission = "role:update"
	PermRoleDelete Permission = "role:delete"
)

// AllPermissions is the full enumeration at build time.
var AllPermissions = []Permission{
	PermUserRead, PermUserCreate, PermUserUpdate, PermUserDelete,
	PermCategoryRead, PermCategoryCreate, PermCategoryUpdate, PermCategoryDelete,
	PermProductRead, PermProductCreate, PermProductUpdate, PermProductDelete,
	PermOrderRead, PermOrderCreate, PermOrderUpdate, PermOrderDelete,
	PermRoleRead, PermRoleCreate, PermRoleUpdate, PermRoleDelete,
}

var knownPermissions = func() map[Permission]struct{} {
	known := make(map[Permission]struct{}, len(AllPermissions))
	for _, p := range AllPermissions {
		known[p] = struct{}{}
	}
	return known
}()

// ParsePermission validates a single permission string.
func ParsePermission(value string) (Permission, error) {
	p := Permission(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := knownPermissions[p]; !ok {
		return "", fmt.Errorf("unknown permission %q", value)
	}
	return p, nil
}

// ExpandPermissions validates raw permission strings, expanding the wildcard
// into the current enumeration. The result is deduplicated and sorted.
func ExpandPermissions(raw []string) ([]string, error) {
	set := make(PermissionSet, len(raw))
	for _, value := range raw {
		if strings.TrimSpace(value) == Wildcard {
			for _, p := range AllPermissions {
				set[p] = struct{}{}
			}
			continue
		}
		p, err := ParsePermission(value)
		if err != nil {
			return nil, err
		}
		set[p] = struct{}{}
	}
	return set.Strings(), nil
}

// PermissionSet is a lookup set of granted permissions.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from stored strings. A stored wildcard is not
// re-expanded; it only ever expands at role creation.
func NewPermissionSet(stored []string) PermissionSet {
	set := make(PermissionSet, len(stored))
	for _, value := range stored {
		set[Permission(strings.ToLower(strings.TrimSpace(value)))] = struct{}{}
	}
	return set
}

// Has reports whether p is granted.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// HasAll reports whether every permission in required is granted.
func (s PermissionSet) HasAll(required ...Permission) bool {
	for _, p := range required {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Strings returns the sorted permission strings.
func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}
