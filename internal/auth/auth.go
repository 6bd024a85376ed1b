// Package auth issues and validates bearer tokens for the producer API.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "taskbase"

var ErrInvalidToken = errors.New("invalid token")

// Service signs and validates HS256 tokens
type Service struct {
	jwtSecret   []byte
	tokenExpiry time.Duration
}

// Claims carries the caller identity. An empty Namespaces list grants access
// to every namespace the server is configured with.
type Claims struct {
	Namespaces []string `json:"namespaces,omitempty"`
	jwt.RegisteredClaims
}

// Allows reports whether the token grants access to namespace.
func (c *Claims) Allows(namespace string) bool {
	return len(c.Namespaces) == 0 || slices.Contains(c.Namespaces, namespace)
}

// TokenResponse is returned when a token is issued
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewService creates a new authentication service
func NewService(jwtSecret string, tokenExpiry time.Duration) (*Service, error) {
	if len(jwtSecret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 characters")
	}
	if tokenExpiry <= 0 {
		return nil, errors.New("token expiry must be positive")
	}

	return &Service{
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: tokenExpiry,
	}, nil
}

// IssueToken signs a token for subject, optionally limited to namespaces.
func (s *Service) IssueToken(subject string, namespaces []string) (*TokenResponse, error) {
	if subject == "" {
		return nil, errors.New("token subject is required")
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenExpiry)
	claims := &Claims{
		Namespaces: namespaces,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenResponse{
		Token:     tokenString,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
