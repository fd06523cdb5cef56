package auth

import (
	"context"
	"encoding/json"

	"github.com/example/jobboard-auth/domain/apperr"
	domain "github.com/example/jobboard-auth/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
// Returned errors are *apperr.Error values; transport failures are Internal.
type AuthPort interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Identity, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	LogoutAll(ctx context.Context, userID string) error
	ValidateToken(ctx context.Context, token string) (*domain.Claims, Outcome, error)
	GetUser(ctx context.Context, userID string) (*domain.Identity, error)
	ForgetPassword(ctx context.Context, email, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	DeleteAccount(ctx context.Context, userID string) error
	GenerateInvite(ctx context.Context, adminID, email string, role domain.Role) (*domain.InviteCode, error)
	RedeemInvite(ctx context.Context, userID, code string) (domain.Role, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// call invokes a request-reply service of the auth module.
func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return apperr.Internal(err, "%s request failed", service)
	}
	return nil
}

// Register creates a new account.
func (a *AuthAdapter) Register(ctx context.Context, req RegisterRequest) (*domain.Identity, error) {
	var resp UserResponse
	if err := call(ctx, a.container, ServiceRegister, &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Failure.Err(); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Login authenticates a user.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*Session, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp SessionResponse
	if err := call(ctx, a.container, ServiceLogin, &req, &resp); err != nil {
		return nil, err
	}
	return resp.session()
}

// Refresh exchanges a refresh token for a new pair.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp SessionResponse
	if err := call(ctx, a.container, ServiceRefreshToken, &req, &resp); err != nil {
		return nil, err
	}
	return resp.session()
}

func (r *SessionResponse) session() (*Session, error) {
	if err := r.Failure.Err(); err != nil {
		return nil, err
	}
	return &Session{
		Identity: r.User,
		Tokens: &domain.TokenPair{
			AccessToken:  r.AccessToken,
			RefreshToken: r.RefreshToken,
		},
	}, nil
}

// LogoutAll revokes every refresh token of a user.
func (a *AuthAdapter) LogoutAll(ctx context.Context, userID string) error {
	return ack(ctx, a.container, ServiceLogoutAll, &UserIDRequest{UserID: userID})
}

// ValidateToken validates an access token and returns claims when valid.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, Outcome, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := call(ctx, a.container, ServiceValidateToken, &req, &resp); err != nil {
		return nil, TokenInvalid, err
	}

	outcome := ParseOutcome(resp.Outcome)
	if outcome != TokenValid {
		return nil, outcome, nil
	}
	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
		Role:   resp.Role,
	}, TokenValid, nil
}

// GetUser retrieves a user identity by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.Identity, error) {
	req := UserIDRequest{UserID: userID}
	var resp UserResponse
	if err := call(ctx, a.container, ServiceGetUser, &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Failure.Err(); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// ForgetPassword sets a new password for an email.
func (a *AuthAdapter) ForgetPassword(ctx context.Context, email, newPassword string) error {
	return ack(ctx, a.container, ServiceForgetPassword, &ForgetPasswordRequest{Email: email, NewPassword: newPassword})
}

// RequestPasswordReset issues a reset token.
func (a *AuthAdapter) RequestPasswordReset(ctx context.Context, email string) error {
	return ack(ctx, a.container, ServiceRequestPasswordReset, &PasswordResetRequest{Email: email})
}

// ResetPassword consumes a reset token.
func (a *AuthAdapter) ResetPassword(ctx context.Context, token, newPassword string) error {
	return ack(ctx, a.container, ServiceResetPassword, &ResetPasswordRequest{Token: token, NewPassword: newPassword})
}

// VerifyEmail consumes a verification token.
func (a *AuthAdapter) VerifyEmail(ctx context.Context, token string) error {
	return ack(ctx, a.container, ServiceVerifyEmail, &VerifyEmailRequest{Token: token})
}

// ChangePassword replaces the password of a signed-in user.
func (a *AuthAdapter) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	return ack(ctx, a.container, ServiceChangePassword, &ChangePasswordRequest{
		UserID:          userID,
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	})
}

// DeleteAccount removes a user.
func (a *AuthAdapter) DeleteAccount(ctx context.Context, userID string) error {
	return ack(ctx, a.container, ServiceDeleteAccount, &UserIDRequest{UserID: userID})
}

// GenerateInvite issues an invite code.
func (a *AuthAdapter) GenerateInvite(ctx context.Context, adminID, email string, role domain.Role) (*domain.InviteCode, error) {
	req := GenerateInviteRequest{AdminID: adminID, Email: email, Role: role}
	var resp InviteResponse
	if err := call(ctx, a.container, ServiceGenerateInvite, &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Failure.Err(); err != nil {
		return nil, err
	}
	return &domain.InviteCode{
		Code:      resp.Code,
		Email:     resp.Email,
		Role:      resp.Role,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// RedeemInvite consumes an invite for a signed-in user.
func (a *AuthAdapter) RedeemInvite(ctx context.Context, userID, code string) (domain.Role, error) {
	req := RedeemInviteRequest{UserID: userID, Code: code}
	var resp RedeemInviteResponse
	if err := call(ctx, a.container, ServiceRedeemInvite, &req, &resp); err != nil {
		return "", err
	}
	if err := resp.Failure.Err(); err != nil {
		return "", err
	}
	return resp.Role, nil
}

// ack invokes a service that answers with an AckResponse.
func ack[Req any](ctx context.Context, container mono.ServiceContainer, service string, req *Req) error {
	var resp AckResponse
	if err := call(ctx, container, service, req, &resp); err != nil {
		return err
	}
	return resp.Failure.Err()
}
