package dto

import (
	"time"

	"github.com/spec-kit/marketplace-api/internal/domain"
)

// SignupRequest payload for new accounts. Moderators are provisioned out of band.
type SignupRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	DisplayName string `json:"display_name" validate:"required,notblank,max=80"`
	Password    string `json:"password" validate:"required,min=8,maxbytes=72"`
	Role        string `json:"role" validate:"required,oneof=artist shop_owner customer"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest payload for password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,maxbytes=72,nefield=CurrentPassword"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          int64             `json:"id"`
	Email       string            `json:"email"`
	DisplayName string            `json:"display_name"`
	Role        domain.Role       `json:"role"`
	Status      domain.UserStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewUserResponse maps a domain user to its public view.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Status:      user.Status,
		CreatedAt:   user.CreatedAt,
	}
}

// SessionResponse is returned by signup and login.
type SessionResponse struct {
	User UserResponse `json:"user"`
	Auth AuthResponse `json:"auth"`
}

// PrincipalResponse describes the caller as seen by the auth middleware.
type PrincipalResponse struct {
	UserID         int64       `json:"user_id"`
	Email          string      `json:"email"`
	Role           domain.Role `json:"role"`
	TokenExpiresAt time.Time   `json:"token_expires_at"`
}

// DashboardResponse lists the sections available to the caller's role.
type DashboardResponse struct {
	UserID   int64       `json:"user_id"`
	Role     domain.Role `json:"role"`
	Sections []string    `json:"sections"`
}
