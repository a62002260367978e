package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sweet-shop/apperror"
	models "sweet-shop/model"
)

const (
	msgNoToken      = "No token provided"
	msgInvalidToken = "Invalid token"
	msgAdminOnly    = "Admin access required"
)

// Claims is the signed payload of a bearer token.
type Claims struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *TokenManager) Issue(id models.Identity) (string, error) {
	now := m.now()
	claims := &Claims{
		ID:    id.ID,
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks signature and expiry. The identity is taken from the claims
// as-is; a role change after issuance is not seen until a new token is issued.
func (m *TokenManager) Verify(token string) (models.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("token not valid")
		}
		return models.Identity{}, &apperror.Error{Kind: apperror.KindUnauthenticated, Op: "auth.Verify", Message: msgInvalidToken, Err: err}
	}
	if !claims.Role.Valid() {
		return models.Identity{}, apperror.Unauthenticated(msgInvalidToken)
	}
	return models.Identity{ID: claims.ID, Email: claims.Email, Role: claims.Role}, nil
}

// Authenticate resolves an Authorization header value into an identity.
func (m *TokenManager) Authenticate(header string) (models.Identity, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) || strings.TrimSpace(header[len(prefix):]) == "" {
		return models.Identity{}, apperror.Unauthenticated(msgNoToken)
	}
	return m.Verify(strings.TrimSpace(header[len(prefix):]))
}

func RequireAdmin(id models.Identity) error {
	if !id.IsAdmin() {
		return apperror.Forbidden(msgAdminOnly)
	}
	return nil
}
