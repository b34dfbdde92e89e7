package service

import (
	"context"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/entity"
	"storefront/internal/mail"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/throttle"

	"github.com/sirupsen/logrus"
)

const (
	purposeVerify = "verify"
	purposeReset  = "reset"
)

// AuthService runs the password based account flows.
type AuthService struct {
	repo    model.Repository
	tokens  *auth.Manager
	mailer  mail.Dispatcher
	limiter throttle.Limiter

	bcryptCost       int
	codeTTL          time.Duration
	defaultRoleTitle string

	now func() time.Time
}

// NewAuthService wires the account flows. limiter may be nil to disable throttling.
func NewAuthService(repo model.Repository, tokens *auth.Manager, mailer mail.Dispatcher, limiter throttle.Limiter, cfg config.Config) *AuthService {
	if limiter == nil {
		limiter = throttle.Unlimited{}
	}
	ttl := cfg.VerificationCodeTTL
	if ttl <= 0 {
		ttl = auth.DefaultCodeTTL
	}
	return &AuthService{
		repo:             repo,
		tokens:           tokens,
		mailer:           mailer,
		limiter:          limiter,
		bcryptCost:       cfg.BcryptCost,
		codeTTL:          ttl,
		defaultRoleTitle: strings.TrimSpace(cfg.DefaultRoleTitle),
		now:              time.Now,
	}
}

// SetClock replaces the time source used for code issuance and expiry.
func (s *AuthService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates an unverified account, mails a verification code and
// returns an access token.
func (s *AuthService) Register(ctx context.Context, req entity.AuthRegisterRequest) (*entity.AuthRegisterResponse, error) {
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
	code, err := auth.GenerateCode()
	if err != nil {
		return nil, InternalError("generate code", err)
	}
	sentAt := s.now().UTC()

	user := &entity.DbUser{
		Fullname:     fullname,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Slug:         slug,
		RoleID:       s.defaultRoleID(ctx),
		CodeVerify:   code,
		TimeSendCode: &sentAt,
		VerifyEmail:  false,
		Status:       entity.UserStatusActive,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, writeError(err, "email or username already exists", msgUserNotFound)
	}

	token, _, err := s.tokens.IssueAccessToken(auth.IdentityFromUser(user))
	if err != nil {
		return nil, InternalError("issue access token", err)
	}

	s.sendCode(ctx, user, code, purposeVerify)
	logrus.WithField("user_id", user.ID).Info("user registered")

	return &entity.AuthRegisterResponse{
		Message: "Registration successful, check your email for the verification code",
		Token:   token,
		User:    user.Summary(),
	}, nil
}

// Login checks credentials and rotates the user's refresh token. The
// verification check runs before the token write, so unverified logins
// leave the stored refresh token untouched.
func (s *AuthService) Login(ctx context.Context, req entity.AuthLoginRequest) (*entity.AuthTokenPair, error) {
	identifier := strings.TrimSpace(req.Identifier())
	if identifier == "" || req.Password == "" {
		return nil, ValidationError("email or username and password are required")
	}

	user, err := s.repo.GetUserByLogin(ctx, identifier)
	if err != nil {
		if isNotFound(err) {
			metrics.LoginTotal.WithLabelValues(metrics.LoginNotFound).Inc()
		} else {
			metrics.LoginTotal.WithLabelValues(metrics.LoginError).Inc()
		}
		return nil, lookupError(err, msgUserNotFound)
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		metrics.LoginTotal.WithLabelValues(metrics.LoginBadPassword).Inc()
		return nil, AuthError(msgWrongPassword)
	}
	if !user.VerifyEmail {
		metrics.LoginTotal.WithLabelValues(metrics.LoginUnverified).Inc()
		return nil, ForbiddenError(msgUnverified)
	}
	if user.Status == entity.UserStatusBanned {
		metrics.LoginTotal.WithLabelValues(metrics.LoginBanned).Inc()
		return nil, ForbiddenError("account is banned")
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		metrics.LoginTotal.WithLabelValues(metrics.LoginError).Inc()
		return nil, err
	}
	metrics.LoginTotal.WithLabelValues(metrics.LoginSuccess).Inc()
	return pair, nil
}

// VerifyCode consumes a pending verification code and marks the email verified.
func (s *AuthService) VerifyCode(ctx context.Context, req entity.AuthVerifyCodeRequest) error {
	email := normalizeEmail(req.Email)
	candidate := strings.TrimSpace(req.CandidateCode())
	if email == "" || candidate == "" {
		return ValidationError("email and code are required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return lookupError(err, msgUserNotFound)
	}
	if !auth.CodeValid(user.CodeVerify, user.TimeSendCode, candidate, s.now(), s.codeTTL) {
		return ValidationError(msgInvalidCode)
	}

	updates := entity.UserUpdates{VerifyEmail: boolPtr(true), ClearCode: true}
	if err := s.repo.UpdateUser(ctx, user.ID, updates); err != nil {
		return writeError(err, msgEmailTaken, msgUserNotFound)
	}
	logrus.WithField("user_id", user.ID).Info("email verified")
	return nil
}

// ResendVerificationCode replaces the pending code and mails it again.
func (s *AuthService) ResendVerificationCode(ctx context.Context, email string) error {
	return s.reissueCode(ctx, email, purposeVerify)
}

// ForgotPassword issues a code and mails the reset template.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.reissueCode(ctx, email, purposeReset)
}

// ResetPassword replaces the password when the code is valid and consumes the code.
func (s *AuthService) ResetPassword(ctx context.Context, req entity.AuthResetPasswordRequest) error {
	email := normalizeEmail(req.Email)
	candidate := strings.TrimSpace(req.CandidateCode())
	if email == "" || candidate == "" || req.NewPassword == "" {
		return ValidationError("email, code and new password are required")
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return lookupError(err, msgUserNotFound)
	}
	if !auth.CodeValid(user.CodeVerify, user.TimeSendCode, candidate, s.now(), s.codeTTL) {
		return ValidationError(msgInvalidCode)
	}

	hash, err := auth.HashPasswordWithCost(req.NewPassword, s.bcryptCost)
	if err != nil {
		return InternalError("hash password", err)
	}
	updates := entity.UserUpdates{PasswordHash: &hash, ClearCode: true}
	if err := s.repo.UpdateUser(ctx, user.ID, updates); err != nil {
		return writeError(err, msgEmailTaken, msgUserNotFound)
	}
	logrus.WithField("user_id", user.ID).Info("password reset")
	return nil
}

// ChangePassword replaces the caller's password after checking the old one.
// A body email, when given, must name the caller.
func (s *AuthService) ChangePassword(ctx context.Context, caller auth.Identity, req entity.AuthChangePasswordRequest) error {
	if req.OldPassword == "" || req.NewPassword == "" {
		return ValidationError("old password and new password are required")
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	user, err := s.repo.GetUserByID(ctx, caller.UserID)
	if err != nil {
		return lookupError(err, msgUserNotFound)
	}
	if email := normalizeEmail(req.Email); email != "" && email != user.Email {
		return ForbiddenError("cannot change another user's password")
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.OldPassword); err != nil {
		return AuthError(msgWrongPassword)
	}

	hash, err := auth.HashPasswordWithCost(req.NewPassword, s.bcryptCost)
	if err != nil {
		return InternalError("hash password", err)
	}
	if err := s.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{PasswordHash: &hash}); err != nil {
		return writeError(err, msgEmailTaken, msgUserNotFound)
	}
	logrus.WithField("user_id", user.ID).Info("password changed")
	return nil
}

// UpdateProfile applies the non-empty fields of req to the user owning slug.
// Callers may edit their own profile; editing someone else's needs user:update.
func (s *AuthService) UpdateProfile(ctx context.Context, caller auth.Identity, slug string, req entity.AuthUpdateProfileRequest) (*entity.UserSummary, error) {
	user, err := s.repo.GetUserBySlug(ctx, slug)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}
	if user.ID != caller.UserID {
		if err := s.requirePermission(ctx, caller.UserID, auth.PermUserUpdate); err != nil {
			return nil, err
		}
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
		exists, err := s.repo.UsernameExists(ctx, v)
		if err != nil {
			return nil, InternalError("check username", err)
		}
		if exists {
			return nil, ConflictError(msgUsernameTaken)
		}
		updates.Username = &v
	}
	if req.Email != nil {
		if v, ok := trimmedChange(stringPtr(normalizeEmail(*req.Email)), user.Email); ok {
			if !validEmail(v) {
				return nil, ValidationError("invalid email address")
			}
			exists, err := s.repo.EmailExists(ctx, v)
			if err != nil {
				return nil, InternalError("check email", err)
			}
			if exists {
				return nil, ConflictError(msgEmailTaken)
			}
			updates.Email = &v
		}
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

	if !updates.IsEmpty() {
		updates.UpdatedBy = &caller.UserID
		if err := s.repo.UpdateUser(ctx, user.ID, updates); err != nil {
			return nil, writeError(err, "email, username or slug already exists", msgUserNotFound)
		}
		updates.Apply(user)
	}
	summary := user.Summary()
	return &summary, nil
}

// RefreshAccessToken verifies the refresh token, requires that it is the one
// currently stored for a user and mints an access token from the user's
// current record.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", ValidationError("refresh token is required")
	}
	if _, err := s.tokens.VerifyRefreshToken(refreshToken); err != nil {
		return "", AuthError("invalid or expired refresh token")
	}

	user, err := s.repo.GetUserByRefreshTokenHash(ctx, auth.TokenFingerprint(refreshToken))
	if err != nil {
		return "", lookupError(err, msgUserNotFound)
	}
	token, _, err := s.tokens.IssueAccessToken(auth.IdentityFromUser(user))
	if err != nil {
		return "", InternalError("issue access token", err)
	}
	return token, nil
}

// Me returns the caller's current public record.
func (s *AuthService) Me(ctx context.Context, caller auth.Identity) (*entity.UserSummary, error) {
	user, err := s.repo.GetUserByID(ctx, caller.UserID)
	if err != nil {
		return nil, lookupError(err, msgUserNotFound)
	}
	summary := user.Summary()
	return &summary, nil
}

// issuePair mints both tokens and stores the refresh token fingerprint,
// replacing any prior one.
func (s *AuthService) issuePair(ctx context.Context, user *entity.DbUser) (*entity.AuthTokenPair, error) {
	id := auth.IdentityFromUser(user)
	refresh, _, err := s.tokens.IssueRefreshToken(id)
	if err != nil {
		return nil, InternalError("issue refresh token", err)
	}
	fingerprint := auth.TokenFingerprint(refresh)
	if err := s.repo.UpdateUser(ctx, user.ID, entity.UserUpdates{RefreshTokenHash: &fingerprint}); err != nil {
		return nil, writeError(err, msgEmailTaken, msgUserNotFound)
	}
	access, _, err := s.tokens.IssueAccessToken(id)
	if err != nil {
		return nil, InternalError("issue access token", err)
	}
	return &entity.AuthTokenPair{Token: access, RefreshToken: refresh}, nil
}

func (s *AuthService) reissueCode(ctx context.Context, rawEmail, purpose string) error {
	email := normalizeEmail(rawEmail)
	if email == "" {
		return ValidationError("email is required")
	}

	allowed, err := s.limiter.Allow(ctx, purpose+":"+email)
	if err != nil {
		// A limiter outage should not lock users out of their accounts.
		logrus.WithError(err).Warn("code throttle unavailable")
	} else if !allowed {
		metrics.ThrottledTotal.WithLabelValues(purpose).Inc()
		return RateLimitedError(msgTooManyRequests)
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return lookupError(err, msgUserNotFound)
	}
	code, err := auth.GenerateCode()
	if err != nil {
		return InternalError("generate code", err)
	}
	sentAt := s.now().UTC()
	updates := entity.UserUpdates{CodeVerify: &code, TimeSendCode: &sentAt}
	if err := s.repo.UpdateUser(ctx, user.ID, updates); err != nil {
		return writeError(err, msgEmailTaken, msgUserNotFound)
	}

	s.sendCode(ctx, user, code, purpose)
	return nil
}

// sendCode hands the code email to the dispatcher. Failures never undo the
// stored code.
func (s *AuthService) sendCode(ctx context.Context, user *entity.DbUser, code, purpose string) {
	metrics.VerificationCodesIssued.WithLabelValues(purpose).Inc()
	if s.mailer == nil {
		return
	}

	minutes := int(s.codeTTL / time.Minute)
	var (
		msg mail.Message
		err error
	)
	if purpose == purposeReset {
		msg, err = mail.ResetPasswordEmail(user.Email, user.Fullname, code, minutes)
	} else {
		msg, err = mail.VerificationEmail(user.Email, user.Fullname, code, minutes)
	}
	if err != nil {
		metrics.MailDispatchFailures.Inc()
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to render email")
		return
	}
	s.mailer.Dispatch(ctx, msg)
}

func (s *AuthService) defaultRoleID(ctx context.Context) *uint {
	if s.defaultRoleTitle == "" {
		return nil
	}
	role, err := s.repo.GetRoleByTitle(ctx, s.defaultRoleTitle)
	if err != nil {
		if !isNotFound(err) {
			logrus.WithError(err).Warn("failed to load default role")
		}
		return nil
	}
	if !role.IsActive || role.IsDeleted {
		return nil
	}
	id := role.ID
	return &id
}

func (s *AuthService) requirePermission(ctx context.Context, userID uint, perm auth.Permission) error {
	caller, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ForbiddenError("insufficient permissions")
		}
		return InternalError("load caller", err)
	}
	perms, err := permissionsOf(ctx, s.repo, caller.RoleID)
	if err != nil {
		return err
	}
	if !perms.Has(perm) {
		return ForbiddenError("insufficient permissions")
	}
	return nil
}
