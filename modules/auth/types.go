package auth

import (
	"time"

	"github.com/example/jobboard-auth/domain/apperr"
	domain "github.com/example/jobboard-auth/domain/user"
)

// Failure carries a business error across the request-reply bus.
// Transport errors are reserved for infrastructure failures.
type Failure struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

// Err converts the failure back into an *apperr.Error. A nil failure is nil.
func (f *Failure) Err() error {
	if f == nil {
		return nil
	}
	return apperr.New(f.Kind, f.Message)
}

// failureOf converts a service error into its wire form. Internal details
// stay in the auth module logs.
func failureOf(err error) *Failure {
	if err == nil {
		return nil
	}
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind == apperr.KindInternal {
		return &Failure{Kind: apperr.KindInternal, Message: "Internal Server Error"}
	}
	return &Failure{Kind: appErr.Kind, Message: appErr.Message}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name,omitempty"`
	Contact     string `json:"contact,omitempty"`
	Designation string `json:"designation,omitempty"`
	InviteCode  string `json:"invite_code,omitempty"`
}

// UserResponse carries a public identity.
type UserResponse struct {
	User    *domain.Identity `json:"user,omitempty"`
	Failure *Failure         `json:"failure,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse carries an identity with a freshly issued token pair.
type SessionResponse struct {
	User         *domain.Identity `json:"user,omitempty"`
	AccessToken  string           `json:"access_token,omitempty"`
	RefreshToken string           `json:"refresh_token,omitempty"`
	Failure      *Failure         `json:"failure,omitempty"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Outcome string      `json:"outcome"`
	UserID  string      `json:"user_id,omitempty"`
	Email   string      `json:"email,omitempty"`
	Role    domain.Role `json:"role,omitempty"`
}

// UserIDRequest addresses a single user.
type UserIDRequest struct {
	UserID string `json:"user_id"`
}

// AckResponse acknowledges an operation without a payload.
type AckResponse struct {
	Failure *Failure `json:"failure,omitempty"`
}

// ForgetPasswordRequest sets a new password for an email.
type ForgetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

// PasswordResetRequest asks for a reset token to be issued.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest consumes a reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// VerifyEmailRequest consumes a verification token.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// ChangePasswordRequest replaces the password of a signed-in user.
type ChangePasswordRequest struct {
	UserID          string `json:"user_id"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// GenerateInviteRequest asks for an invite code.
type GenerateInviteRequest struct {
	AdminID string      `json:"admin_id"`
	Email   string      `json:"email"`
	Role    domain.Role `json:"role"`
}

// InviteResponse carries a newly issued invite code.
type InviteResponse struct {
	Code      string      `json:"code,omitempty"`
	Email     string      `json:"email,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
	ExpiresAt time.Time   `json:"expires_at,omitempty"`
	Failure   *Failure    `json:"failure,omitempty"`
}

// RedeemInviteRequest consumes an invite for a signed-in user.
type RedeemInviteRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

// RedeemInviteResponse carries the role granted by an invite.
type RedeemInviteResponse struct {
	Role    domain.Role `json:"role,omitempty"`
	Failure *Failure    `json:"failure,omitempty"`
}
