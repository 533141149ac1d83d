package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"contract-platform/contract-portal-backend/internal/apperr"
)

type Service struct {
	repo          Repository
	jwtSecret     []byte
	tokenLifetime time.Duration
	logger        *zap.Logger
}

func NewService(repo Repository, jwtSecret string, tokenLifetime time.Duration, logger *zap.Logger) *Service {
	return &Service{
		repo:          repo,
		jwtSecret:     []byte(jwtSecret),
		tokenLifetime: tokenLifetime,
		logger:        logger,
	}
}

type claims struct {
	Role    Role    `json:"role"`
	Level   *Level  `json:"level,omitempty"`
	Company *string `json:"company,omitempty"`
	jwt.RegisteredClaims
}

// Login verifies credentials and issues a signed bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Identity, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !user.IsActive {
		return "", nil, apperr.Validationf("incorrect username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return "", nil, apperr.Validationf("incorrect username or password")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role:    user.Role,
		Level:   user.Level,
		Company: user.Company,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenLifetime)),
		},
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	identity := &Identity{
		Username: user.Username,
		Role:     user.Role,
		Level:    user.Level,
		Company:  user.Company,
	}
	return signed, identity, nil
}

// ParseToken validates a bearer token and returns the caller identity.
// The user record is re-checked so deactivated accounts lose access
// before their token expires.
func (s *Service) ParseToken(ctx context.Context, tokenStr string) (*Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Forbiddenf("invalid token")
	}

	user, err := s.repo.GetByUsername(ctx, c.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, apperr.Forbiddenf("inactive user")
	}

	return &Identity{
		Username: user.Username,
		Role:     user.Role,
		Level:    user.Level,
		Company:  user.Company,
	}, nil
}

// VerifyPassword re-checks the caller's password, used for seal confirmation
// on progress records.
func (s *Service) VerifyPassword(ctx context.Context, username, password string) error {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return apperr.NotFoundf("user %s not found", username)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return apperr.Validationf("incorrect seal password")
	}
	return nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
