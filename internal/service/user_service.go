package service

import (
	"context"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/entity"
	"storefront/internal/model"

	"github.com/sirupsen/logrus"
)

// UserService backs the user administration routes.
type UserService struct {
	repo       model.Repository
	bcryptCost int
}

func NewUserService(repo model.Repository, cfg config.Config) *UserService {
	return &UserService{repo: repo, bcryptCost: cfg.BcryptCost}
}

func (s *UserService) List(ctx context.Context, query *entity.UserQuery) (*entity.UserListResponse, error) {
	users, meta, err := s.repo.ListUsers(ctx, query)
	if err != nil {
		return nil, InternalError("list users", err)
	}
	return &entity.UserListResponse{Users: summaries(users), Meta: meta}, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*entity.UserSummary, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}
	summary := user.Summary()
	return &summary, nil
}

func (s *UserService) GetBySlug(ctx context.Context, slug string) (*entity.UserSummary, error) {
	user, err := s.repo.GetUserBySlug(ctx, slug)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}
	summary := user.Summary()
	return &summary, nil
}

// Create adds an account on behalf of an administrator. Such accounts are
// trusted, so the email counts as verified.
func (s *UserService) Create(ctx context.Context, actor uint, req entity.UserCreateRequest) (*entity.UserSummary, error) {
	fullname := strings.TrimSpace(req.Fullname)
	username := strings.TrimSpace(req.Username)
	email := normalizeEmail(req.Email)
	if fullname == "" || username == "" || email == "" || req.Password == "" {
		return nil, ValidationError("fullname, username, email and password are required")
	}
	if !validEmail(email) {
		return nil, ValidationError("invalid email address")
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	if err := s.checkRole(ctx, req.RoleID); err != nil {
		return nil, err
	}

	if exists, err := s.repo.EmailExists(ctx, email); err != nil {
		return nil, InternalError("check email", err)
	} else if exists {
		return nil, ConflictError(msgEmailTaken)
	}
	if exists, err := s.repo.UsernameExists(ctx, username); err != nil {
		return nil, InternalError("check username", err)
	} else if exists {
		return nil, ConflictError(msgUsernameTaken)
	}

	hash, err := auth.HashPasswordWithCost(req.Password, s.bcryptCost)
	if err != nil {
		return nil, InternalError("hash password", err)
	}
	slug, err := uniqueSlug(ctx, s.repo, fullname, "")
	if err != nil {
		return nil, err
	}

	user := &entity.DbUser{
		Fullname:     fullname,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		Avatar:       strings.TrimSpace(req.Avatar),
		Slug:         slug,
		RoleID:       req.RoleID,
		VerifyEmail:  true,
		Status:       status,
	}
	if actor != 0 {
		user.CreatedBy = &actor
		user.UpdatedBy = &actor
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, writeError(err, "email or username already exists", msgUserNotFound)
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "actor": actor}).Info("user created by administrator")
	summary := user.Summary()
	return &summary, nil
}

// Update changes any provided field, re-hashing a new password.
func (s *UserService) Update(ctx context.Context, actor uint, id uint, req entity.UserUpdateRequest) (*entity.UserSummary, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}

	var updates entity.UserUpdates
	if v, ok := trimmedChange(req.Fullname, user.Fullname); ok {
		newSlug, err := uniqueSlug(ctx, s.repo, v, user.Slug)
		if err != nil {
			return nil, err
		}
		updates.Fullname = &v
		if newSlug != user.Slug {
			updates.Slug = &newSlug
		}
	}
	if v, ok := trimmedChange(req.Username, user.Username); ok {
		if exists, err := s.repo.UsernameExists(ctx, v); err != nil {
			return nil, InternalError("check username", err)
		} else if exists {
			return nil, ConflictError(msgUsernameTaken)
		}
		updates.Username = &v
	}
	if req.Email != nil {
		if v, ok := trimmedChange(stringPtr(normalizeEmail(*req.Email)), user.Email); ok {
			if !validEmail(v) {
				return nil, ValidationError("invalid email address")
			}
			if exists, err := s.repo.EmailExists(ctx, v); err != nil {
				return nil, InternalError("check email", err)
			} else if exists {
				return nil, ConflictError(msgEmailTaken)
			}
			updates.Email = &v
		}
	}
	if req.Password != nil && *req.Password != "" {
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPasswordWithCost(*req.Password, s.bcryptCost)
		if err != nil {
			return nil, InternalError("hash password", err)
		}
		updates.PasswordHash = &hash
	}
	if v, ok := trimmedChange(req.Phone, user.Phone); ok {
		updates.Phone = &v
	}
	if v, ok := trimmedChange(req.Address, user.Address); ok {
		updates.Address = &v
	}
	if v, ok := trimmedChange(req.Avatar, user.Avatar); ok {
		updates.Avatar = &v
	}
	if req.RoleID != nil {
		if *req.RoleID == 0 {
			updates.ClearRole = true
		} else {
			if err := s.checkRole(ctx, req.RoleID); err != nil {
				return nil, err
			}
			updates.RoleID = req.RoleID
		}
	}
	if req.Status != nil {
		status, err := parseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		if status != user.Status {
			updates.Status = &status
		}
	}

	if !updates.IsEmpty() {
		if actor != 0 {
			updates.UpdatedBy = &actor
		}
		if err := s.repo.UpdateUser(ctx, id, updates); err != nil {
			return nil, writeError(err, "email, username or slug already exists", msgUserNotFound)
		}
		updates.Apply(user)
	}
	summary := user.Summary()
	return &summary, nil
}

// SoftDelete flags the user as deleted. The row keeps its unique values.
func (s *UserService) SoftDelete(ctx context.Context, actor uint, id uint) error {
	if _, err := s.repo.GetUserByID(ctx, id); err != nil {
		return lookupError(err, msgUserNotFound)
	}
	empty := ""
	updates := entity.UserUpdates{IsDeleted: boolPtr(true), RefreshTokenHash: &empty}
	if actor != 0 {
		updates.UpdatedBy = &actor
	}
	if err := s.repo.UpdateUser(ctx, id, updates); err != nil {
		return writeError(err, msgEmailTaken, msgUserNotFound)
	}
	return nil
}

func (s *UserService) HardDelete(ctx context.Context, id uint) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return writeError(err, msgEmailTaken, msgUserNotFound)
	}
	return nil
}

// EnsureAdmin creates the bootstrap administrator when email and password are
// configured and no account uses that email yet.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return InternalError("check admin email", err)
	}
	if exists {
		return nil
	}

	role, err := s.repo.GetRoleByTitle(ctx, model.AdminRoleTitle)
	if err != nil {
		return lookupError(err, msgRoleNotFound)
	}
	username, err := uniqueUsername(ctx, s.repo, email)
	if err != nil {
		return err
	}
	roleID := role.ID
	_, err = s.Create(ctx, 0, entity.UserCreateRequest{
		Fullname: "Administrator",
		Username: username,
		Email:    email,
		Password: password,
		RoleID:   &roleID,
	})
	if err != nil {
		return err
	}
	logrus.WithField("email", email).Info("bootstrap administrator created")
	return nil
}

func (s *UserService) checkRole(ctx context.Context, roleID *uint) error {
	if roleID == nil {
		return nil
	}
	role, err := s.repo.GetRoleByID(ctx, *roleID)
	if err != nil {
		if isNotFound(err) {
			return ValidationError("role does not exist")
		}
		return InternalError("load role", err)
	}
	if !role.IsActive {
		return ValidationError("role is inactive")
	}
	return nil
}

func parseStatus(value string) (string, error) {
	switch strings.TrimSpace(value) {
	case "", entity.UserStatusActive:
		return entity.UserStatusActive, nil
	case entity.UserStatusInactive:
		return entity.UserStatusInactive, nil
	case entity.UserStatusBanned:
		return entity.UserStatusBanned, nil
	default:
		return "", ValidationError("status must be active, inactive or banned")
	}
}
