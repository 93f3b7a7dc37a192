package models

import (
	"errors"
	"time"
)

// UserRole represents valid profile roles
type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleModerator UserRole = "moderator"
	UserRoleAdmin     UserRole = "admin"
)

// Profile represents a user profile - the canonical user record. All foreign
// keys (comments, likes, watchlist) reference the canonical profile ID.
type Profile struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	AvatarURL    string    `json:"avatar_url" db:"avatar_url"`
	IsVIP        bool      `json:"is_vip" db:"is_vip"`
	Role         UserRole  `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// PlaceholderProfile is the neutral snapshot attached to comments whose
// author profile is missing. A missing profile is never a fetch error.
func PlaceholderProfile(id string) Profile {
	return Profile{
		ID:          id,
		Username:    "deleted",
		DisplayName: "Deleted User",
	}
}

// RegisterRequest
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	DisplayName string `json:"display_name"`
}

// LoginRequest
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// PublicProfile - outward-facing snapshot, no sensitive data
type PublicProfile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	IsVIP       bool      `json:"is_vip"`
	CreatedAt   time.Time `json:"created_at"`
}

// Public strips the profile down to its display snapshot.
func (p *Profile) Public() PublicProfile {
	return PublicProfile{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		IsVIP:       p.IsVIP,
		CreatedAt:   p.CreatedAt,
	}
}

// LoginResponse
type LoginResponse struct {
	Token     string        `json:"token"`
	User      PublicProfile `json:"user"`
	ExpiresIn int           `json:"expires_in"` // seconds
}

// AdminCheckResponse is the JSON contract of the admin-check endpoint.
type AdminCheckResponse struct {
	IsAdmin bool `json:"isAdmin"`
}

// ValidateRegisterRequest adds validation beyond struct tags
func ValidateRegisterRequest(req *RegisterRequest) error {
	if len(req.Username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	if len(req.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}
