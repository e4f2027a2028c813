package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aarongarrett/quorum/config"
	quorum_errors "github.com/aarongarrett/quorum/pkg/errors"
)

// AdminService authenticates the meeting administrator and mints admin
// session tokens. The configured password must be an argon2id hash; a
// plaintext value is rejected at startup so the two-format ambiguity cannot
// exist in a running server.
type AdminService struct {
	passwordHash string
	jwtSecret    []byte
	tokenTTL     time.Duration
}

type AdminClaims struct {
	Admin bool `json:"adm"`
	jwt.RegisteredClaims
}

func NewAdminService(cfg *config.Config) (*AdminService, error) {
	if cfg.AdminPasswordHash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is not set")
	}
	if !IsEncodedHash(cfg.AdminPasswordHash) {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH must be an argon2id hash; generate one with cmd/hashpw")
	}
	return &AdminService{
		passwordHash: cfg.AdminPasswordHash,
		jwtSecret:    []byte(cfg.JWTSecret),
		tokenTTL:     time.Duration(cfg.JWTExpiryHours) * time.Hour,
	}, nil
}

// Login verifies the admin password and returns a signed session token.
func (s *AdminService) Login(password string) (string, time.Time, error) {
	if !VerifySecret(password, s.passwordHash) {
		return "", time.Time{}, quorum_errors.ErrUnauthorized
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	claims := AdminClaims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseToken validates an admin session token.
func (s *AdminService) ParseToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, quorum_errors.ErrUnauthorized
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || !claims.Admin {
		return nil, quorum_errors.ErrUnauthorized
	}
	return claims, nil
}
