package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/naira-vault/naira_vault/internal/config"
	"github.com/naira-vault/naira_vault/internal/identity"
)

// ErrInvalidToken covers malformed, expired, and badly-signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Principal is the authenticated caller extracted from a verified token.
type Principal struct {
	UserID string
	Email  string
}

// Service issues and verifies HS256 access tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService builds the token service from injected configuration.
func NewService(cfg config.Config) *Service {
	return &Service{secret: []byte(cfg.JWTSecret), ttl: cfg.AccessTokenTTL}
}

// IssueToken signs an access token for the user.
func (s *Service) IssueToken(user identity.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// TokenTTL reports the configured access token lifetime in seconds.
func (s *Service) TokenTTL() int64 {
	return int64(s.ttl.Seconds())
}

// Verify parses and validates a token, returning the principal it names.
func (s *Service) Verify(tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Principal{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	return Principal{UserID: sub, Email: email}, nil
}
