// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/loglens/internal/config"
	"github.com/tomtom215/loglens/internal/models"
)

// ErrInvalidRole is returned for tokens whose role claim is unknown.
var ErrInvalidRole = errors.New("invalid role claim")

// Claims are the token claims Loglens reads. Teams feed team-scoped
// index options.
type Claims struct {
	Username string   `json:"username"`
	Role     string   `json:"role"`
	Teams    []string `json:"teams,omitempty"`
	jwt.RegisteredClaims
}

// Caller converts the claims into a request identity.
func (c *Claims) Caller() *models.Caller {
	teams := c.Teams
	if teams == nil {
		teams = []string{}
	}
	return &models.Caller{
		ID:       c.Subject,
		Username: c.Username,
		Role:     c.Role,
		Teams:    teams,
	}
}

// JWTManager verifies HS256 bearer tokens issued by the identity provider
// in front of Loglens.
type JWTManager struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTManager fails when the secret is empty; config validation has
// already enforced its length.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required but was empty")
	}
	return &JWTManager{
		secret: []byte(cfg.JWTSecret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}, nil
}

// GenerateToken signs a token for caller that expires after ttl. Clients
// get tokens elsewhere; operator tooling and tests use this.
func (m *JWTManager) GenerateToken(caller models.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Username: caller.Username,
		Role:     caller.Role,
		Teams:    caller.Teams,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken returns the claims of a token signed with HS256 by this
// secret, unexpired, and carrying a known role. A missing username falls
// back to the subject.
func (m *JWTManager) ValidateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, err := m.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !models.IsValidRole(claims.Role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, claims.Role)
	}
	if claims.Username == "" {
		claims.Username = claims.Subject
	}
	return claims, nil
}
