package api

import (
	"time"

	domain "github.com/example/jobboard-auth/domain/user"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	Contact     string `json:"contact"`
	Designation string `json:"designation"`
	InviteCode  string `json:"inviteCode"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgetPasswordRequest sets a new password for an email.
type ForgetPasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RequestPasswordResetRequest asks for a reset link.
type RequestPasswordResetRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest carries the new password for a reset token.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// ChangePasswordRequest replaces the password of the signed-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// GenerateInviteRequest asks for an invite code.
type GenerateInviteRequest struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// RedeemInviteRequest consumes an invite code.
type RedeemInviteRequest struct {
	Code string `json:"code"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginUser is the identity summary returned at login.
type LoginUser struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	Message string    `json:"message"`
	User    LoginUser `json:"user"`
}

// RegisterResponse represents a successful registration.
type RegisterResponse struct {
	Message string           `json:"message"`
	User    *domain.Identity `json:"user"`
}

// RefreshResponse carries the new access token.
type RefreshResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
}

// UserResponse wraps a public identity.
type UserResponse struct {
	User *domain.Identity `json:"user"`
}

// InviteResponse carries a newly issued invite code.
type InviteResponse struct {
	Message    string      `json:"message"`
	InviteCode string      `json:"inviteCode"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	ExpiresAt  time.Time   `json:"expiresAt"`
}

// RedeemInviteResponse carries the role granted by an invite.
type RedeemInviteResponse struct {
	Message string      `json:"message"`
	Role    domain.Role `json:"role"`
}

// HealthResponse aggregates module health.
type HealthResponse struct {
	Status  string                  `json:"status"`
	Modules map[string]ModuleHealth `json:"modules"`
}

// ModuleHealth is the health of a single module.
type ModuleHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}
