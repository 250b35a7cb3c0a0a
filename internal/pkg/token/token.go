package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ManuelReschke/PixelShop/app/models"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is only returned for tokens whose signature checked out.
	ErrExpiredToken = errors.New("token expired")
)

// Claims are carried by both token kinds. Email and Role are only set on access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string      `json:"email,omitempty"`
	Role  models.Role `json:"role,omitempty"`
	Type  string      `json:"typ"`
}

// UserID returns the subject as a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewService(secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (s *Service) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccess signs a short-lived token carrying the user's id, email and role.
func (s *Service) IssueAccess(user *models.User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.accessTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: user.Email,
		Role:  user.Role,
		Type:  TypeAccess,
	}
	signed, err := s.sign(claims)
	return signed, exp, err
}

// IssueRefresh signs a long-lived token that only identifies the user. The random
// jti keeps two tokens issued in the same second distinct.
func (s *Service) IssueRefresh(userID uuid.UUID) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.refreshTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Type: TypeRefresh,
	}
	signed, err := s.sign(claims)
	return signed, exp, err
}

func (s *Service) sign(claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, algorithm and expiry. A well-signed but expired token
// yields ErrExpiredToken, every other failure ErrInvalidToken.
func (s *Service) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseAccess accepts only access tokens.
func (s *Service) ParseAccess(raw string) (*Claims, error) {
	claims, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != TypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseRefresh accepts only refresh tokens.
func (s *Service) ParseRefresh(raw string) (*Claims, error) {
	claims, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != TypeRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) Valid(raw string) bool {
	_, err := s.Parse(raw)
	return err == nil
}

// HashRefresh is the lookup key under which a refresh token is persisted.
func HashRefresh(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
