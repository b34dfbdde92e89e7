// Package memory keeps the credential store in process memory. It enforces the
// same unique columns as the SQL schema and reports the same GORM sentinel errors.
package memory

import (
	"context"
	"sort"
	"storefront/internal/entity"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Repository is a mutex guarded in-memory store.
type Repository struct {
	mu         sync.RWMutex
	users      map[uint]*entity.DbUser
	roles      map[uint]*entity.DbRole
	nextUserID uint
	nextRoleID uint
	now        func() time.Time
}

// NewRepository creates an empty store.
func NewRepository() *Repository {
	return &Repository{
		users:      make(map[uint]*entity.DbUser),
		roles:      make(map[uint]*entity.DbRole),
		nextUserID: 1,
		nextRoleID: 1,
		now:        time.Now,
	}
}

func (r *Repository) CreateUser(ctx context.Context, user *entity.DbUser) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	candidate := *user
	candidate.Email = strings.ToLower(strings.TrimSpace(candidate.Email))
	if r.userConflict(0, candidate.Email, candidate.Username, candidate.Slug) {
		return gorm.ErrDuplicatedKey
	}
	now := r.now()
	candidate.ID = r.nextUserID
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	r.nextUserID++
	stored := cloneUser(&candidate)
	r.users[candidate.ID] = &stored

	*user = candidate
	return nil
}

func (r *Repository) UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	next := *current
	if updates.Email != nil {
		normalised := strings.ToLower(strings.TrimSpace(*updates.Email))
		updates.Email = &normalised
	}
	updates.Apply(&next)
	if r.userConflict(id, next.Email, next.Username, next.Slug) {
		return gorm.ErrDuplicatedKey
	}
	if !updates.IsEmpty() {
		next.UpdatedAt = r.now()
	}
	r.users[id] = &next
	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error) {
	return r.findUser(ctx, func(u *entity.DbUser) bool { return u.ID == id })
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error) {
	normalised := strings.ToLower(strings.TrimSpace(email))
	return r.findUser(ctx, func(u *entity.DbUser) bool { return u.Email == normalised })
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*entity.DbUser, error) {
	trimmed := strings.TrimSpace(username)
	return r.findUser(ctx, func(u *entity.DbUser) bool { return u.Username == trimmed })
}

func (r *Repository) GetUserByLogin(ctx context.Context, identifier string) (*entity.DbUser, error) {
	trimmed := strings.TrimSpace(identifier)
	if strings.Contains(trimmed, "@") {
		if user, err := r.GetUserByEmail(ctx, trimmed); err == nil {
			return user, nil
		}
	}
	return r.GetUserByUsername(ctx, trimmed)
}

func (r *Repository) GetUserBySlug(ctx context.Context, slug string) (*entity.DbUser, error) {
	trimmed := strings.TrimSpace(slug)
	return r.findUser(ctx, func(u *entity.DbUser) bool { return u.Slug == trimmed })
}

func (r *Repository) GetUserByRefreshTokenHash(ctx context.Context, hash string) (*entity.DbUser, error) {
	if hash == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return r.findUser(ctx, func(u *entity.DbUser) bool { return u.RefreshTokenHash == hash })
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	normalised := strings.ToLower(strings.TrimSpace(email))
	return r.anyUser(ctx, func(u *entity.DbUser) bool { return u.Email == normalised })
}

func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	trimmed := strings.TrimSpace(username)
	return r.anyUser(ctx, func(u *entity.DbUser) bool { return u.Username == trimmed })
}

func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	trimmed := strings.TrimSpace(slug)
	return r.anyUser(ctx, func(u *entity.DbUser) bool { return u.Slug == trimmed })
}

func (r *Repository) ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := entity.UserQuery{}
	if params != nil {
		query = *params
	}
	keyword := strings.ToLower(strings.TrimSpace(query.Keyword))

	matched := make([]entity.DbUser, 0, len(r.users))
	for _, u := range r.users {
		if u.IsDeleted && !query.IncludeDeleted {
			continue
		}
		if query.Status != "" && u.Status != query.Status {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(u.Email), keyword) &&
			!strings.Contains(strings.ToLower(u.Fullname), keyword) &&
			!strings.Contains(strings.ToLower(u.Username), keyword) {
			continue
		}
		matched = append(matched, cloneUser(u))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	start := min(query.Offset(), total)
	_, size := query.Window()
	end := min(start+size, total)

	meta := query.MetaFor(int64(total))
	return matched[start:end], meta, nil
}

func (r *Repository) DeleteUser(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, u := range r.users {
		if !u.IsDeleted {
			count++
		}
	}
	return count, nil
}

func (r *Repository) CreateRole(ctx context.Context, role *entity.DbRole) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	candidate := *role
	candidate.Permissions = append(entity.StringArray(nil), role.Permissions...)
	if r.roleConflict(0, candidate.Title) {
		return gorm.ErrDuplicatedKey
	}
	now := r.now()
	candidate.ID = r.nextRoleID
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	r.nextRoleID++
	stored := cloneRole(&candidate)
	r.roles[candidate.ID] = &stored

	*role = candidate
	return nil
}

func (r *Repository) UpdateRole(ctx context.Context, id uint, updates entity.RoleUpdates) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.roles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	next := *current
	updates.Apply(&next)
	if r.roleConflict(id, next.Title) {
		return gorm.ErrDuplicatedKey
	}
	if !updates.IsEmpty() {
		next.UpdatedAt = r.now()
	}
	r.roles[id] = &next
	return nil
}

func (r *Repository) GetRoleByID(ctx context.Context, id uint) (*entity.DbRole, error) {
	return r.findRole(ctx, func(role *entity.DbRole) bool { return role.ID == id })
}

func (r *Repository) GetRoleByTitle(ctx context.Context, title string) (*entity.DbRole, error) {
	trimmed := strings.TrimSpace(title)
	return r.findRole(ctx, func(role *entity.DbRole) bool { return role.Title == trimmed })
}

func (r *Repository) ListRoles(ctx context.Context, includeInactive bool) ([]entity.DbRole, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]entity.DbRole, 0, len(r.roles))
	for _, role := range r.roles {
		if role.IsDeleted || (!includeInactive && !role.IsActive) {
			continue
		}
		roles = append(roles, cloneRole(role))
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

func (r *Repository) DeleteRole(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.roles, id)
	return nil
}

// userConflict must be called with the lock held.
func (r *Repository) userConflict(selfID uint, email, username, slug string) bool {
	for id, u := range r.users {
		if id == selfID {
			continue
		}
		if u.Email == email || u.Username == username || (slug != "" && u.Slug == slug) {
			return true
		}
	}
	return false
}

// roleConflict must be called with the lock held.
func (r *Repository) roleConflict(selfID uint, title string) bool {
	for id, role := range r.roles {
		if id != selfID && role.Title == title {
			return true
		}
	}
	return false
}

func (r *Repository) findUser(ctx context.Context, match func(*entity.DbUser) bool) (*entity.DbUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if !u.IsDeleted && match(u) {
			found := cloneUser(u)
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Repository) anyUser(ctx context.Context, match func(*entity.DbUser) bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) findRole(ctx context.Context, match func(*entity.DbRole) bool) (*entity.DbRole, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, role := range r.roles {
		if match(role) {
			found := cloneRole(role)
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func cloneUser(u *entity.DbUser) entity.DbUser {
	out := *u
	if u.RoleID != nil {
		id := *u.RoleID
		out.RoleID = &id
	}
	if u.TimeSendCode != nil {
		ts := *u.TimeSendCode
		out.TimeSendCode = &ts
	}
	return out
}

func cloneRole(role *entity.DbRole) entity.DbRole {
	out := *role
	out.Permissions = append(entity.StringArray(nil), role.Permissions...)
	return out
}
