package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenExpiry = 24 * time.Hour

// ErrNotAdmin is returned by admin-gated operations when the principal lacks
// the admin capability.
var ErrNotAdmin = errors.New("admin capability required")

// Principal identifies the authenticated caller of admin-gated operations.
// Tokens are issued by the external auth service; this package only verifies
// them and carries the principal explicitly through the call chain.
type Principal struct {
	ID      uuid.UUID
	Email   string
	IsAdmin bool
}

// Claims represents the JWT token claims for an access token.
type Claims struct {
	UserID  uuid.UUID `json:"sub"`
	Email   string    `json:"email,omitempty"`
	IsAdmin bool      `json:"is_admin"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token operations
type JWTService struct {
	secret []byte
	expiry time.Duration
}

// NewJWTService creates a new JWT service. A non-positive expiry falls back
// to the 24h default.
func NewJWTService(secret string, expiry time.Duration) *JWTService {
	if expiry <= 0 {
		expiry = defaultTokenExpiry
	}
	return &JWTService{secret: []byte(secret), expiry: expiry}
}

// Sign creates a new access token for the principal.
func (s *JWTService) Sign(p Principal) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  p.ID,
		Email:   p.Email,
		IsAdmin: p.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify parses and validates a token and returns the principal it carries.
func (s *JWTService) Verify(tokenString string) (Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Principal{}, fmt.Errorf("invalid token")
	}

	return Principal{ID: claims.UserID, Email: claims.Email, IsAdmin: claims.IsAdmin}, nil
}
