package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/jobboard-auth/config"
	"github.com/example/jobboard-auth/domain/apperr"
	domain "github.com/example/jobboard-auth/domain/user"
	"github.com/example/jobboard-auth/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Service names exposed by the auth module.
const (
	ServiceRegister             = "register"
	ServiceLogin                = "login"
	ServiceRefreshToken         = "refresh-token"
	ServiceLogoutAll            = "logout-all"
	ServiceValidateToken        = "validate-token"
	ServiceGetUser              = "get-user"
	ServiceForgetPassword       = "forget-password"
	ServiceRequestPasswordReset = "request-password-reset"
	ServiceResetPassword        = "reset-password"
	ServiceVerifyEmail          = "verify-email"
	ServiceChangePassword       = "change-password"
	ServiceDeleteAccount        = "delete-account"
	ServiceGenerateInvite       = "generate-invite"
	ServiceRedeemInvite         = "redeem-invite"
)

// AuthModule provides authentication services.
type AuthModule struct {
	cfg      *config.Config
	db       *gorm.DB
	service  *AuthService
	cache    IdentityCache
	eventBus mono.EventBus
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)
var _ mono.EventEmitterModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(cfg *config.Config) *AuthModule {
	return &AuthModule{
		cfg: cfg,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// SetIdentityCache installs the identity cache. Must be called before Start.
func (m *AuthModule) SetIdentityCache(cache IdentityCache) {
	m.cache = cache
}

// SetEventBus receives the EventBus from the framework.
func (m *AuthModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *AuthModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.UserRegisteredV1.ToBase(),
		events.PasswordResetRequestedV1.ToBase(),
		events.PasswordChangedV1.ToBase(),
		events.InviteCreatedV1.ToBase(),
	}
}

// Start opens the database and builds the auth service. A missing token
// secret fails the start.
func (m *AuthModule) Start(_ context.Context) error {
	tokens, err := NewTokenIssuer(TokenConfig{
		AccessSecret:  m.cfg.JWT.AccessSecret,
		RefreshSecret: m.cfg.JWT.RefreshSecret,
		AccessTTL:     m.cfg.JWT.AccessTTL,
		RefreshTTL:    m.cfg.JWT.RefreshTTL,
		Issuer:        m.cfg.JWT.Issuer,
	})
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	inviteCodes, err := NewInviteCodeGenerator()
	if err != nil {
		return err
	}

	db, err := OpenDatabase(m.cfg.Database.Path)
	if err != nil {
		return err
	}
	m.db = db

	var publisher EventPublisher
	if m.eventBus != nil {
		publisher = &busPublisher{bus: m.eventBus}
	}

	m.service = NewAuthService(
		NewUserRepository(db),
		NewInviteRepository(db),
		NewPasswordHasher(m.cfg.Auth.BcryptCost),
		tokens,
		inviteCodes,
		m.cache,
		publisher,
		ServiceConfig{
			RequireVerifiedEmail: m.cfg.Auth.RequireVerifiedEmail,
			ResetTokenTTL:        m.cfg.Auth.ResetTokenTTL,
			InviteTTL:            m.cfg.Auth.InviteTTL,
		},
	)

	log.Printf("[auth] Module started (database: %s, cache: %t, verified email required: %t)",
		m.cfg.Database.Path, m.cache != nil, m.cfg.Auth.RequireVerifiedEmail)
	return nil
}

// OpenDatabase opens the SQLite database and migrates the auth schema.
// Constraint violations are translated into gorm errors.
func OpenDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.User{}, &domain.InviteCode{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.cfg.Database.Path,
			"cache":    m.cache != nil,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := register(container, ServiceRegister, m.handleRegister); err != nil {
		return err
	}
	if err := register(container, ServiceLogin, m.handleLogin); err != nil {
		return err
	}
	if err := register(container, ServiceRefreshToken, m.handleRefresh); err != nil {
		return err
	}
	if err := register(container, ServiceLogoutAll, m.handleLogoutAll); err != nil {
		return err
	}
	if err := register(container, ServiceValidateToken, m.handleValidateToken); err != nil {
		return err
	}
	if err := register(container, ServiceGetUser, m.handleGetUser); err != nil {
		return err
	}
	if err := register(container, ServiceForgetPassword, m.handleForgetPassword); err != nil {
		return err
	}
	if err := register(container, ServiceRequestPasswordReset, m.handleRequestPasswordReset); err != nil {
		return err
	}
	if err := register(container, ServiceResetPassword, m.handleResetPassword); err != nil {
		return err
	}
	if err := register(container, ServiceVerifyEmail, m.handleVerifyEmail); err != nil {
		return err
	}
	if err := register(container, ServiceChangePassword, m.handleChangePassword); err != nil {
		return err
	}
	if err := register(container, ServiceDeleteAccount, m.handleDeleteAccount); err != nil {
		return err
	}
	if err := register(container, ServiceGenerateInvite, m.handleGenerateInvite); err != nil {
		return err
	}
	if err := register(container, ServiceRedeemInvite, m.handleRedeemInvite); err != nil {
		return err
	}

	log.Printf("[auth] Registered 14 request-reply services")
	return nil
}

func register[Req, Resp any](
	container mono.ServiceContainer,
	name string,
	handler func(context.Context, Req, *mono.Msg) (Resp, error),
) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		name,
		json.Unmarshal,
		json.Marshal,
		handler,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", name, err)
	}
	return nil
}

// failure logs internal errors and converts err for the wire.
func (m *AuthModule) failure(op string, err error) *Failure {
	if apperr.KindOf(err) == apperr.KindInternal {
		log.Printf("[auth] Error in %s: %v", op, err)
	}
	return failureOf(err)
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (UserResponse, error) {
	identity, err := m.service.Register(ctx, RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Profile: domain.Profile{
			FullName:    req.FullName,
			Contact:     req.Contact,
			Designation: req.Designation,
		},
		InviteCode: req.InviteCode,
	})
	if err != nil {
		return UserResponse{Failure: m.failure(ServiceRegister, err)}, nil
	}
	return UserResponse{User: identity}, nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (SessionResponse, error) {
	session, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return SessionResponse{Failure: m.failure(ServiceLogin, err)}, nil
	}
	return sessionResponse(session), nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (SessionResponse, error) {
	session, err := m.service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return SessionResponse{Failure: m.failure(ServiceRefreshToken, err)}, nil
	}
	return sessionResponse(session), nil
}

func sessionResponse(session *Session) SessionResponse {
	return SessionResponse{
		User:         session.Identity,
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
	}
}

func (m *AuthModule) handleLogoutAll(ctx context.Context, req UserIDRequest, _ *mono.Msg) (AckResponse, error) {
	if err := m.service.LogoutAll(ctx, req.UserID); err != nil {
		return AckResponse{Failure: m.failure(ServiceLogoutAll, err)}, nil
	}
	return AckResponse{}, nil
}

// handleValidateToken reports the verification outcome in the response;
// an invalid token is not a transport error.
func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, outcome := m.service.ValidateToken(ctx, req.Token)
	if outcome != TokenValid {
		return ValidateTokenResponse{Outcome: outcome.String()}, nil
	}
	return ValidateTokenResponse{
		Outcome: outcome.String(),
		UserID:  claims.UserID,
		Email:   claims.Email,
		Role:    claims.Role,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req UserIDRequest, _ *mono.Msg) (UserResponse, error) {
	identity, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return UserResponse{Failure: m.failure(ServiceGetUser, err)}, nil
	}
	return UserResponse{User: identity}, nil
}

func (m *AuthModule) handleForgetPassword(ctx context.Context, req ForgetPasswordRequest, _ *mono.Msg) (AckResponse, error) {
	if err := m.service.ForgetPassword(ctx, req.Email, req.NewPassword); err != nil {
		return AckResponse{Failure: m.failure(ServiceForgetPassword, err)}, nil
	}
	return AckResponse{}, nil
}

func (m *AuthModule) handleRequestPasswordReset(ctx context.Context, req PasswordResetRequest, _ *mono.Msg) (AckResponse, error) {
	if err := m.service.RequestPasswordReset(ctx, req.Email); err != nil {
		return AckResponse{Failure: m.failure(ServiceRequestPasswordReset, err)}, nil
	}
	return AckResponse{}, nil
}

func (m *AuthModule) handleResetPassword(ctx context.Context, req ResetPasswordRequest, _ *mono.Msg) (AckResponse, error) {
	if err := m.service.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		return AckResponse{Failure: m.failure(ServiceResetPassword, err)}, nil
	}
	return AckResponse{}, nil
}

func (m *AuthModule) handleVerifyEmail(ctx context.Context, req VerifyEmailRequest, _ *mono.Msg) (AckResponse, error) {
	if err := m.service.VerifyEmail(ctx, req.Token); err != nil {
		return AckResponse{Failure: m.failure(ServiceVerifyEmail, err)}, nil
	}
	return AckResponse{}, nil
}

func (m *AuthModule) handleChangePassword(ctx context.Context, req ChangePasswordRequest, _ *mono.Msg) (AckResponse, error) {
	if err := m.service.ChangePassword(ctx, req.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return AckResponse{Failure: m.failure(ServiceChangePassword, err)}, nil
	}
	return AckResponse{}, nil
}

func (m *AuthModule) handleDeleteAccount(ctx context.Context, req UserIDRequest, _ *mono.Msg) (AckResponse, error) {
	if err := m.service.DeleteAccount(ctx, req.UserID); err != nil {
		return AckResponse{Failure: m.failure(ServiceDeleteAccount, err)}, nil
	}
	return AckResponse{}, nil
}

func (m *AuthModule) handleGenerateInvite(ctx context.Context, req GenerateInviteRequest, _ *mono.Msg) (InviteResponse, error) {
	invite, err := m.service.GenerateInvite(ctx, req.AdminID, req.Email, req.Role)
	if err != nil {
		return InviteResponse{Failure: m.failure(ServiceGenerateInvite, err)}, nil
	}
	return InviteResponse{
		Code:      invite.Code,
		Email:     invite.Email,
		Role:      invite.Role,
		ExpiresAt: invite.ExpiresAt,
	}, nil
}

func (m *AuthModule) handleRedeemInvite(ctx context.Context, req RedeemInviteRequest, _ *mono.Msg) (RedeemInviteResponse, error) {
	role, err := m.service.RedeemInvite(ctx, req.UserID, req.Code)
	if err != nil {
		return RedeemInviteResponse{Failure: m.failure(ServiceRedeemInvite, err)}, nil
	}
	return RedeemInviteResponse{Role: role}, nil
}
