package auth

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/example/jobboard-auth/domain/apperr"
	domain "github.com/example/jobboard-auth/domain/user"
	"github.com/example/jobboard-auth/events"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	msgInvalidEmail        = "Invalid email format"
	msgEmailInUse          = "Email is already in use."
	msgInvalidCredentials  = "Invalid credentials"
	msgUnverifiedEmail     = "Please verify your email before logging in"
	msgRefreshNotFound     = "Refresh token not found"
	msgRefreshExpired      = "Refresh token expired"
	msgRefreshInvalid      = "Invalid refresh token"
	msgUserNotFound        = "User not found"
	msgInvalidResetToken   = "Invalid or expired password reset token"
	msgInvalidVerification = "Invalid or expired verification token"
	msgAlreadyVerified     = "Email already verified"
	msgWrongPassword       = "Current password is incorrect"
	msgInvalidInvite       = "Invalid or expired invite code."
	msgExpiredInvite       = "Invite code has expired."
	msgInviteEmailMismatch = "Invite code was issued for a different email."
	msgInviteExists        = "An invite code for this email already exists."
	msgInvalidRole         = "Invalid role"
)

// IdentityCache stores hydrated identities between requests.
type IdentityCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher receives auth domain events. Publishing is best-effort.
type EventPublisher interface {
	UserRegistered(event events.UserRegisteredEvent)
	PasswordResetRequested(event events.PasswordResetRequestedEvent)
	PasswordChanged(event events.PasswordChangedEvent)
	InviteCreated(event events.InviteCreatedEvent)
}

// ServiceConfig holds account policy settings.
type ServiceConfig struct {
	RequireVerifiedEmail bool
	ResetTokenTTL        time.Duration
	InviteTTL            time.Duration
}

// DefaultServiceConfig returns the default account policy.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		RequireVerifiedEmail: false,
		ResetTokenTTL:        10 * time.Minute,
		InviteTTL:            7 * 24 * time.Hour,
	}
}

// RegisterInput is the data accepted at registration.
type RegisterInput struct {
	Email      string
	Password   string
	Profile    domain.Profile
	InviteCode string
}

// Session is an authenticated identity with a freshly issued token pair.
type Session struct {
	Identity *domain.Identity
	Tokens   *domain.TokenPair
}

// AuthService handles authentication business logic. Every error it returns
// is an *apperr.Error.
type AuthService struct {
	users       *UserRepository
	invites     *InviteRepository
	hasher      *PasswordHasher
	tokens      *TokenIssuer
	inviteCodes InviteCodeGenerator
	cache       IdentityCache
	publisher   EventPublisher
	config      ServiceConfig
	sfGroup     singleflight.Group
	now         func() time.Time
}

// NewAuthService creates a new AuthService. cache and publisher may be nil.
func NewAuthService(
	users *UserRepository,
	invites *InviteRepository,
	hasher *PasswordHasher,
	tokens *TokenIssuer,
	inviteCodes InviteCodeGenerator,
	cache IdentityCache,
	publisher EventPublisher,
	config ServiceConfig,
) *AuthService {
	return &AuthService{
		users:       users,
		invites:     invites,
		hasher:      hasher,
		tokens:      tokens,
		inviteCodes: inviteCodes,
		cache:       cache,
		publisher:   publisher,
		config:      config,
		now:         time.Now,
	}
}

// Register creates a new, unverified account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Identity, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	role := domain.RoleJobSeeker
	var invite *domain.InviteCode
	if code := strings.TrimSpace(in.InviteCode); code != "" {
		invite, err = s.lookupInvite(ctx, code, email)
		if err != nil {
			return nil, err
		}
		role = invite.Role
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err, "failed to check email existence")
	}
	if exists {
		return nil, apperr.Conflict(msgEmailInUse)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}

	verificationToken, err := newOpaqueToken()
	if err != nil {
		return nil, apperr.Internal(err, "failed to generate verification token")
	}

	now := s.now()
	user := &domain.User{
		ID:                uuid.New().String(),
		Email:             email,
		PasswordHash:      passwordHash,
		Role:              role,
		IsVerified:        false,
		VerificationToken: &verificationToken,
		TokenVersion:      0,
		FullName:          strings.TrimSpace(in.Profile.FullName),
		Contact:           strings.TrimSpace(in.Profile.Contact),
		Designation:       strings.TrimSpace(in.Profile.Designation),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if invite != nil {
		user.InviteCodeUsed = &invite.ID
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, apperr.Conflict(msgEmailInUse)
		}
		return nil, apperr.Internal(err, "failed to create user")
	}

	if invite != nil {
		if err := s.invites.Consume(ctx, invite.ID); err != nil {
			s.compensate(ctx, user)
			if errors.Is(err, ErrStaleUpdate) {
				return nil, apperr.BadRequest(msgInvalidInvite)
			}
			return nil, apperr.Internal(err, "failed to consume invite code")
		}
	}

	if s.publisher != nil {
		s.publisher.UserRegistered(events.UserRegisteredEvent{
			UserID:            user.ID,
			Email:             user.Email,
			Role:              string(user.Role),
			VerificationToken: verificationToken,
			RegisteredAt:      now,
		})
	}

	log.Printf("[auth] Registered user %s (role: %s)", user.ID, user.Role)
	return user.Identity(), nil
}

// compensate deletes a user whose registration could not be completed.
func (s *AuthService) compensate(ctx context.Context, user *domain.User) {
	if err := s.users.Delete(context.WithoutCancel(ctx), user.ID); err != nil {
		log.Printf("[auth] Error: failed to delete partially registered user %s: %v", user.ID, err)
		return
	}
	log.Printf("[auth] Deleted partially registered user %s", user.ID)
}

// Login authenticates a user and issues a token pair. Unknown emails and
// wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.VerifyNothing(password)
			return nil, apperr.Unauthorized(msgInvalidCredentials)
		}
		return nil, apperr.Internal(err, "failed to find user")
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	if s.config.RequireVerifiedEmail && !user.IsVerified {
		return nil, apperr.Unauthorized(msgUnverifiedEmail)
	}

	return s.newSession(user)
}

// Refresh exchanges a refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperr.Unauthorized(msgRefreshNotFound)
	}

	result := s.tokens.VerifyRefresh(refreshToken)
	switch result.Outcome {
	case TokenExpired:
		return nil, apperr.Unauthorized(msgRefreshExpired)
	case TokenInvalid:
		return nil, apperr.Unauthorized(msgRefreshInvalid)
	}

	user, err := s.users.FindByID(ctx, result.Claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.Unauthorized(msgUserNotFound)
		}
		return nil, apperr.Internal(err, "failed to find user")
	}

	if result.Claims.Version != user.TokenVersion {
		return nil, apperr.Unauthorized(msgRefreshInvalid)
	}

	return s.newSession(user)
}

// LogoutAll revokes every refresh token issued to the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.users.BumpTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return apperr.Internal(err, "failed to bump token version")
	}
	log.Printf("[auth] Revoked refresh tokens for user %s", userID)
	return nil
}

// ValidateToken verifies an access token.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, Outcome) {
	result := s.tokens.VerifyAccess(token)
	if result.Outcome != TokenValid {
		return nil, result.Outcome
	}
	return &domain.Claims{
		UserID: result.Claims.UserID,
		Email:  result.Claims.Email,
		Role:   result.Claims.Role,
	}, TokenValid
}

// GetUser returns the identity of a user, without the password hash.
// Lookups go through the identity cache; concurrent misses share one query.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.Identity, error) {
	if s.cache != nil {
		var cached domain.Identity
		found, err := s.cache.Get(ctx, userID, &cached)
		if err != nil {
			log.Printf("[auth] Cache error for user %s: %v", userID, err)
		}
		if found {
			return &cached, nil
		}
	}

	val, err, _ := s.sfGroup.Do(userID, func() (any, error) {
		return s.users.FindByID(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, apperr.Internal(err, "failed to find user")
	}

	identity := val.(*domain.User).Identity()
	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, identity); err != nil {
			log.Printf("[auth] Warning: failed to cache user %s: %v", userID, err)
		}
	}
	return identity, nil
}

// ForgetPassword sets a new password for the account registered to email.
func (s *AuthService) ForgetPassword(ctx context.Context, email, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	// Hash before the lookup so a missing account costs the same time.
	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err, "failed to hash password")
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return apperr.Internal(err, "failed to find user")
	}

	return s.replacePassword(ctx, user, passwordHash, "forget-password")
}

// RequestPasswordReset issues a reset token for the account registered to
// email. Unknown emails succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return apperr.Internal(err, "failed to find user")
	}

	raw, err := newOpaqueToken()
	if err != nil {
		return apperr.Internal(err, "failed to generate reset token")
	}

	now := s.now()
	expiresAt := now.Add(s.config.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, hashResetToken(raw), expiresAt); err != nil {
		return apperr.Internal(err, "failed to store reset token")
	}

	if s.publisher != nil {
		s.publisher.PasswordResetRequested(events.PasswordResetRequestedEvent{
			UserID:      user.ID,
			Email:       user.Email,
			ResetToken:  raw,
			ExpiresAt:   expiresAt,
			RequestedAt: now,
		})
	}

	log.Printf("[auth] Issued password reset token for user %s", user.ID)
	return nil
}

// ResetPassword sets a new password using a reset token within its window.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" {
		return apperr.BadRequest(msgInvalidResetToken)
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.FindByResetToken(ctx, hashResetToken(rawToken), s.now())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.BadRequest(msgInvalidResetToken)
		}
		return apperr.Internal(err, "failed to find user")
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err, "failed to hash password")
	}

	return s.replacePassword(ctx, user, passwordHash, "reset-password")
}

// ChangePassword replaces the password of a signed-in user.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return apperr.Internal(err, "failed to find user")
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return apperr.BadRequest(msgWrongPassword)
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err, "failed to hash password")
	}

	return s.replacePassword(ctx, user, passwordHash, "change-password")
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperr.BadRequest(msgInvalidVerification)
	}

	user, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.BadRequest(msgInvalidVerification)
		}
		return apperr.Internal(err, "failed to find user")
	}
	if user.IsVerified {
		return apperr.BadRequest(msgAlreadyVerified)
	}

	if err := s.users.MarkVerified(ctx, token); err != nil {
		if errors.Is(err, ErrStaleUpdate) {
			return apperr.BadRequest(msgAlreadyVerified)
		}
		return apperr.Internal(err, "failed to verify email")
	}

	s.invalidate(ctx, user.ID)
	log.Printf("[auth] Verified email for user %s", user.ID)
	return nil
}

// DeleteAccount permanently removes a user.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return apperr.Internal(err, "failed to delete user")
	}
	s.invalidate(ctx, userID)
	log.Printf("[auth] Deleted user %s", userID)
	return nil
}

// GenerateInvite issues an invite code for email with the given role.
func (s *AuthService) GenerateInvite(ctx context.Context, adminID, email string, role domain.Role) (*domain.InviteCode, error) {
	admin, err := s.GetUser(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if admin.Role != domain.RoleAdmin {
		return nil, apperr.Forbidden("Only admins can generate invite codes")
	}

	email, err = normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.BadRequest(msgInvalidRole)
	}

	if _, err := s.invites.FindUnusedByEmail(ctx, email); err == nil {
		return nil, apperr.BadRequest(msgInviteExists)
	} else if !errors.Is(err, ErrInviteNotFound) {
		return nil, apperr.Internal(err, "failed to look up invite codes")
	}

	now := s.now()
	invite := &domain.InviteCode{
		ID:        uuid.New().String(),
		Role:      role,
		Email:     email,
		ExpiresAt: now.Add(s.config.InviteTTL),
		CreatedBy: admin.ID,
		CreatedAt: now,
	}

	const attempts = 3
	for i := 0; ; i++ {
		invite.Code = s.inviteCodes()
		err = s.invites.Create(ctx, invite)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrInviteExists) || i == attempts-1 {
			return nil, apperr.Internal(err, "failed to create invite code")
		}
	}

	if s.publisher != nil {
		s.publisher.InviteCreated(events.InviteCreatedEvent{
			Code:      invite.Code,
			Email:     invite.Email,
			Role:      string(invite.Role),
			ExpiresAt: invite.ExpiresAt,
		})
	}

	log.Printf("[auth] Admin %s created %s invite %s", admin.ID, invite.Role, invite.ID)
	return invite, nil
}

// RedeemInvite consumes an invite for a signed-in user and grants its role.
func (s *AuthService) RedeemInvite(ctx context.Context, userID, code string) (domain.Role, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", apperr.NotFound(msgUserNotFound)
		}
		return "", apperr.Internal(err, "failed to find user")
	}

	invite, err := s.lookupInvite(ctx, strings.TrimSpace(code), user.Email)
	if err != nil {
		return "", err
	}

	if err := s.invites.Redeem(ctx, invite.ID, user.ID, invite.Role); err != nil {
		switch {
		case errors.Is(err, ErrStaleUpdate):
			return "", apperr.BadRequest(msgInvalidInvite)
		case errors.Is(err, ErrUserNotFound):
			return "", apperr.NotFound(msgUserNotFound)
		}
		return "", apperr.Internal(err, "failed to redeem invite code")
	}

	s.invalidate(ctx, user.ID)
	log.Printf("[auth] User %s redeemed invite %s (role: %s)", user.ID, invite.ID, invite.Role)
	return invite.Role, nil
}

// lookupInvite finds an unused, unexpired invite addressed to email.
func (s *AuthService) lookupInvite(ctx context.Context, code, email string) (*domain.InviteCode, error) {
	if code == "" {
		return nil, apperr.BadRequest(msgInvalidInvite)
	}

	invite, err := s.invites.FindUnusedByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInviteNotFound) {
			return nil, apperr.BadRequest(msgInvalidInvite)
		}
		return nil, apperr.Internal(err, "failed to find invite code")
	}
	if invite.Expired(s.now()) {
		return nil, apperr.BadRequest(msgExpiredInvite)
	}
	if invite.Email != email {
		return nil, apperr.BadRequest(msgInviteEmailMismatch)
	}
	return invite, nil
}

func (s *AuthService) replacePassword(ctx context.Context, user *domain.User, passwordHash, reason string) error {
	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return apperr.Internal(err, "failed to update password")
	}

	s.invalidate(ctx, user.ID)
	if s.publisher != nil {
		s.publisher.PasswordChanged(events.PasswordChangedEvent{
			UserID:    user.ID,
			Email:     user.Email,
			Reason:    reason,
			ChangedAt: s.now(),
		})
	}

	log.Printf("[auth] Password updated for user %s (%s)", user.ID, reason)
	return nil
}

func (s *AuthService) newSession(user *domain.User) (*Session, error) {
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, apperr.Internal(err, "failed to sign tokens")
	}
	return &Session{
		Identity: user.Identity(),
		Tokens:   pair,
	}, nil
}

func (s *AuthService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(context.WithoutCancel(ctx), userID); err != nil {
		log.Printf("[auth] Warning: failed to invalidate cached user %s: %v", userID, err)
	}
}

// normalizeEmail lower-cases and validates an email address.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.BadRequest(msgInvalidEmail)
	}
	return email, nil
}

// checkPassword maps the password policy onto client messages.
func checkPassword(password string) error {
	switch ValidatePassword(password) {
	case ErrWeakPassword:
		return apperr.BadRequest("Password must be at least 8 characters")
	case ErrPasswordTooLong:
		return apperr.BadRequest("Password must be at most 72 characters")
	}
	return nil
}
