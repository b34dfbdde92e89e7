package auth

import (
	"errors"
	"fmt"
	"storefront/internal/entity"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers bad signatures, wrong algorithms, malformed input and expiry.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the claim payload shared by access and refresh tokens.
type Identity struct {
	UserID   uint
	Fullname string
	Username string
	Email    string
	RoleID   *uint
}

// IdentityFromUser snapshots the claim fields of a stored user.
func IdentityFromUser(user *entity.DbUser) Identity {
	if user == nil {
		return Identity{}
	}
	var roleID *uint
	if user.RoleID != nil {
		id := *user.RoleID
		roleID = &id
	}
	return Identity{
		UserID:   user.ID,
		Fullname: user.Fullname,
		Username: user.Username,
		Email:    user.Email,
		RoleID:   roleID,
	}
}

// Claims represents JWT claims for authenticated requests.
type Claims struct {
	UserID   uint   `json:"userId"`
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Email    string `json:"email"`
	RoleID   *uint  `json:"roleId,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the identity fields of the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:   c.UserID,
		Fullname: c.Fullname,
		Username: c.Username,
		Email:    c.Email,
		RoleID:   c.RoleID,
	}
}

type opaqueClaims struct {
	Note string `json:"note"`
	jwt.RegisteredClaims
}

// Manager signs and validates access and refresh tokens with separate secrets.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewManager creates a token manager. Both secrets are required and must differ.
func NewManager(accessSecret, refreshSecret, issuer string, accessExpiry, refreshExpiry time.Duration) (*Manager, error) {
	access := strings.TrimSpace(accessSecret)
	refresh := strings.TrimSpace(refreshSecret)
	if access == "" || refresh == "" {
		return nil, errors.New("jwt secrets must not be empty")
	}
	if access == refresh {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if accessExpiry <= 0 {
		accessExpiry = time.Hour
	}
	if refreshExpiry <= 0 {
		refreshExpiry = 7 * 24 * time.Hour
	}
	if strings.TrimSpace(issuer) == "" {
		issuer = "storefront"
	}
	return &Manager{
		accessSecret:  []byte(access),
		refreshSecret: []byte(refresh),
		issuer:        issuer,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}, nil
}

// SetClock replaces the time source used for issuing and validating tokens.
func (m *Manager) SetClock(now func() time.Time) {
	if m != nil && now != nil {
		m.now = now
	}
}

// IssueAccessToken signs a short-lived token with the access secret.
func (m *Manager) IssueAccessToken(id Identity) (string, time.Time, error) {
	if m == nil {
		return "", time.Time{}, errors.New("jwt manager is nil")
	}
	return m.sign(id, m.accessSecret, m.accessExpiry)
}

// IssueRefreshToken signs a long-lived token with the refresh secret.
func (m *Manager) IssueRefreshToken(id Identity) (string, time.Time, error) {
	if m == nil {
		return "", time.Time{}, errors.New("jwt manager is nil")
	}
	return m.sign(id, m.refreshSecret, m.refreshExpiry)
}

// VerifyAccessToken validates a token signed with the access secret.
func (m *Manager) VerifyAccessToken(tokenString string) (*Claims, error) {
	if m == nil {
		return nil, errors.New("jwt manager is nil")
	}
	return m.verify(tokenString, m.accessSecret)
}

// VerifyRefreshToken validates a token signed with the refresh secret.
func (m *Manager) VerifyRefreshToken(tokenString string) (*Claims, error) {
	if m == nil {
		return nil, errors.New("jwt manager is nil")
	}
	return m.verify(tokenString, m.refreshSecret)
}

// IssueOpaqueSecret returns a signed random value used as the stored password of
// federated accounts. It is not a bcrypt hash, so no password ever matches it.
func (m *Manager) IssueOpaqueSecret(subject string) (string, error) {
	if m == nil {
		return "", errors.New("jwt manager is nil")
	}
	now := m.now().UTC()
	claims := opaqueClaims{
		Note: "federated account, password login disabled",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Subject:  subject,
			Issuer:   m.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
}

func (m *Manager) sign(id Identity, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if id.UserID == 0 {
		return "", time.Time{}, errors.New("invalid user for token generation")
	}
	now := m.now().UTC()
	expiry := now.Add(ttl)

	claims := Claims{
		UserID:   id.UserID,
		Fullname: id.Fullname,
		Username: id.Username,
		Email:    id.Email,
		RoleID:   id.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", id.UserID),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

func (m *Manager) verify(tokenString string, secret []byte) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
