// Package core - Core Business Logic
// Protocol-agnostic services over the repositories. Handlers and the CLI
// talk to these interfaces, never to the repositories directly.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"manganime/internal/repository"
	"manganime/pkg/models"
	"manganime/pkg/utils"
)

// AuthService defines authentication operations
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.Profile, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*models.Profile, error)
	GetProfileByID(ctx context.Context, userID string) (*models.Profile, error)
	// IsAdmin backs the admin-check endpoint: a role read, never an error
	// for non-admins.
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type authService struct {
	profileRepo repository.ProfileRepository
	jwtSecret   []byte
	jwtIssuer   string
	jwtExpiry   time.Duration
}

// JWT claims structure
type jwtClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new authentication service
func NewAuthService(profileRepo repository.ProfileRepository, jwtSecret, jwtIssuer string, jwtExpiry time.Duration) AuthService {
	return &authService{
		profileRepo: profileRepo,
		jwtSecret:   []byte(jwtSecret),
		jwtIssuer:   jwtIssuer,
		jwtExpiry:   jwtExpiry,
	}
}

// Register creates a new profile
func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.Profile, error) {
	if err := models.ValidateRegisterRequest(&req); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidInput, err.Error())
	}

	exists, err := s.profileRepo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, models.ErrUsernameExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	profile := &models.Profile{
		ID:           utils.NewID(),
		Username:     req.Username,
		DisplayName:  displayName,
		Role:         models.UserRoleUser,
		PasswordHash: string(hashedPassword),
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Login verifies credentials and issues a JWT
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	profile, err := s.profileRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.issueToken(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &models.LoginResponse{
		Token:     token,
		User:      profile.Public(),
		ExpiresIn: int(s.jwtExpiry.Seconds()),
	}, nil
}

func (s *authService) issueToken(profile *models.Profile) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		UserID:   profile.ID,
		Username: profile.Username,
		Role:     string(profile.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtIssuer,
			Subject:   profile.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses a JWT and loads the profile it names
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*models.Profile, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, models.ErrInvalidToken
	}

	profile, err := s.profileRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return profile, nil
}

// GetProfileByID loads a profile
func (s *authService) GetProfileByID(ctx context.Context, userID string) (*models.Profile, error) {
	return s.profileRepo.GetByID(ctx, userID)
}

// IsAdmin reports whether the user carries the admin role
func (s *authService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return profile.IsAdmin(), nil
}
