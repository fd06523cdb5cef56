package api

import (
	"context"
	"errors"

	domain "github.com/example/jobboard-auth/domain/user"
	"github.com/example/jobboard-auth/modules/auth"
)

var errNotImplemented = errors.New("not implemented")

// mockAuthPort implements auth.AuthPort for testing.
type mockAuthPort struct {
	registerFunc             func(ctx context.Context, req auth.RegisterRequest) (*domain.Identity, error)
	loginFunc                func(ctx context.Context, email, password string) (*auth.Session, error)
	refreshFunc              func(ctx context.Context, refreshToken string) (*auth.Session, error)
	logoutAllFunc            func(ctx context.Context, userID string) error
	validateTokenFunc        func(ctx context.Context, token string) (*domain.Claims, auth.Outcome, error)
	getUserFunc              func(ctx context.Context, userID string) (*domain.Identity, error)
	forgetPasswordFunc       func(ctx context.Context, email, newPassword string) error
	requestPasswordResetFunc func(ctx context.Context, email string) error
	resetPasswordFunc        func(ctx context.Context, token, newPassword string) error
	verifyEmailFunc          func(ctx context.Context, token string) error
	changePasswordFunc       func(ctx context.Context, userID, currentPassword, newPassword string) error
	deleteAccountFunc        func(ctx context.Context, userID string) error
	generateInviteFunc       func(ctx context.Context, adminID, email string, role domain.Role) (*domain.InviteCode, error)
	redeemInviteFunc         func(ctx context.Context, userID, code string) (domain.Role, error)
}

var _ auth.AuthPort = (*mockAuthPort)(nil)

func (m *mockAuthPort) Register(ctx context.Context, req auth.RegisterRequest) (*domain.Identity, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, email, password)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, refreshToken)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) LogoutAll(ctx context.Context, userID string) error {
	if m.logoutAllFunc != nil {
		return m.logoutAllFunc(ctx, userID)
	}
	return errNotImplemented
}

func (m *mockAuthPort) ValidateToken(ctx context.Context, token string) (*domain.Claims, auth.Outcome, error) {
	if m.validateTokenFunc != nil {
		return m.validateTokenFunc(ctx, token)
	}
	return nil, auth.TokenInvalid, errNotImplemented
}

func (m *mockAuthPort) GetUser(ctx context.Context, userID string) (*domain.Identity, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) ForgetPassword(ctx context.Context, email, newPassword string) error {
	if m.forgetPasswordFunc != nil {
		return m.forgetPasswordFunc(ctx, email, newPassword)
	}
	return errNotImplemented
}

func (m *mockAuthPort) RequestPasswordReset(ctx context.Context, email string) error {
	if m.requestPasswordResetFunc != nil {
		return m.requestPasswordResetFunc(ctx, email)
	}
	return errNotImplemented
}

func (m *mockAuthPort) ResetPassword(ctx context.Context, token, newPassword string) error {
	if m.resetPasswordFunc != nil {
		return m.resetPasswordFunc(ctx, token, newPassword)
	}
	return errNotImplemented
}

func (m *mockAuthPort) VerifyEmail(ctx context.Context, token string) error {
	if m.verifyEmailFunc != nil {
		return m.verifyEmailFunc(ctx, token)
	}
	return errNotImplemented
}

func (m *mockAuthPort) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if m.changePasswordFunc != nil {
		return m.changePasswordFunc(ctx, userID, currentPassword, newPassword)
	}
	return errNotImplemented
}

func (m *mockAuthPort) DeleteAccount(ctx context.Context, userID string) error {
	if m.deleteAccountFunc != nil {
		return m.deleteAccountFunc(ctx, userID)
	}
	return errNotImplemented
}

func (m *mockAuthPort) GenerateInvite(ctx context.Context, adminID, email string, role domain.Role) (*domain.InviteCode, error) {
	if m.generateInviteFunc != nil {
		return m.generateInviteFunc(ctx, adminID, email, role)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) RedeemInvite(ctx context.Context, userID, code string) (domain.Role, error) {
	if m.redeemInviteFunc != nil {
		return m.redeemInviteFunc(ctx, userID, code)
	}
	return "", errNotImplemented
}

// signedIn configures the mock so that token authenticates as identity.
func (m *mockAuthPort) signedIn(token string, identity *domain.Identity) *mockAuthPort {
	m.validateTokenFunc = func(_ context.Context, got string) (*domain.Claims, auth.Outcome, error) {
		if got != token {
			return nil, auth.TokenInvalid, nil
		}
		return &domain.Claims{UserID: identity.ID, Email: identity.Email, Role: identity.Role}, auth.TokenValid, nil
	}
	m.getUserFunc = func(_ context.Context, userID string) (*domain.Identity, error) {
		if userID != identity.ID {
			return nil, errNotImplemented
		}
		return identity, nil
	}
	return m
}
