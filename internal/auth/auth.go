// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ukydev/fueltrack/internal/config"
	"github.com/ukydev/fueltrack/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = models.Unauthorized("invalid token")
	ErrExpiredToken       = models.Unauthorized("token expired")
	ErrInvalidCredentials = models.Unauthorized("invalid credentials")
	ErrUserInactive       = models.Unauthorized("user is inactive")
)

const (
	minPasswordLength = 8
	minUsernameLength = 3
	maxUsernameLength = 50
)

// Service handles authentication operations
type Service struct {
	jwtSecret []byte
	tokenExp  time.Duration
	admins    *config.AuthConfig
}

// tokenClaims is the JWT payload issued by GenerateToken.
type tokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewService creates an authentication service from the auth configuration.
func NewService(cfg config.AuthConfig) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	exp := cfg.TokenExpiry
	if exp <= 0 {
		exp = 24 * time.Hour
	}
	return &Service{
		jwtSecret: []byte(cfg.JWTSecret),
		tokenExp:  exp,
		admins:    &cfg,
	}, nil
}

// RoleFor returns the role a newly registered account with email receives.
func (s *Service) RoleFor(email string) models.Role {
	if s.admins != nil && s.admins.IsAdminEmail(email) {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks if a password matches a hash
func (s *Service) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken signs an HS256 token for user.
func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExp)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ValidateToken validates a raw JWT and returns the claims
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	return &models.Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     models.Role(claims.Role),
		Exp:      claims.ExpiresAt.Unix(),
	}, nil
}

// ExtractTokenFromHeader returns the token of a "Bearer <token>" Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}

// ValidatePassword validates password strength
func (s *Service) ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return models.NewValidationError("password", "password must be at least 8 characters long")
	}
	return nil
}

// ValidateEmail validates email format
func (s *Service) ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return models.NewValidationError("email", "invalid email format")
	}
	return nil
}

// ValidateUsername validates username format
func (s *Service) ValidateUsername(username string) error {
	if len(username) < minUsernameLength {
		return models.NewValidationError("username", "username must be at least 3 characters long")
	}
	if len(username) > maxUsernameLength {
		return models.NewValidationError("username", "username must be less than 50 characters")
	}
	return nil
}
