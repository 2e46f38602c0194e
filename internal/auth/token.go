package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/yakoovad/perftest-admin/internal/model"
)

type TokenType string

const (
	TokenTypeUndefined TokenType = ""
	TokenTypeAccess    TokenType = "access"
	TokenTypeRefresh   TokenType = "refresh"
	TokenTypeReset     TokenType = "reset"
)

type TokenClaims struct {
	Type TokenType  `json:"type"`
	Role model.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
}

// Manager signs and verifies HS256 tokens. Refresh tokens use their own secret.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	ttl           map[TokenType]time.Duration
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		ttl: map[TokenType]time.Duration{
			TokenTypeAccess:  cfg.AccessTTL,
			TokenTypeRefresh: cfg.RefreshTTL,
			TokenTypeReset:   cfg.ResetTTL,
		},
	}
}

func (m *Manager) TTL(tokenType TokenType) time.Duration {
	return m.ttl[tokenType]
}

// Issue generates a token of the given type with its configured lifetime.
func (m *Manager) Issue(tokenType TokenType, subject string, role model.Role) (string, error) {
	return m.GenerateToken(tokenType, subject, role, m.ttl[tokenType])
}

func (m *Manager) GenerateToken(tokenType TokenType, subject string, role model.Role, dur time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Type: tokenType,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(dur)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret(tokenType))
}

func (m *Manager) VerifyToken(tokenString string, tokenType TokenType) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			alg, _ := token.Header["alg"].(string)
			return nil, errors.Wrap(ErrInvalidSigningMethod, alg)
		}
		return m.secret(tokenType), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != tokenType {
		return nil, ErrInvalidTokenType
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (m *Manager) IsValidToken(tokenString string, tokenType TokenType) (*TokenClaims, bool) {
	claims, err := m.VerifyToken(tokenString, tokenType)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func (m *Manager) secret(tokenType TokenType) []byte {
	if tokenType == TokenTypeRefresh {
		return m.refreshSecret
	}
	return m.accessSecret
}
