package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// UserRegisteredEvent is emitted after an account is created.
// VerificationToken is the raw single-use token for the verify-email link.
type UserRegisteredEvent struct {
	UserID            string    `json:"user_id"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	VerificationToken string    `json:"verification_token"`
	RegisteredAt      time.Time `json:"registered_at"`
}

// UserRegisteredV1 is the typed event definition for registration.
// Subject: events.auth.v1.user-registered
var UserRegisteredV1 = helper.EventDefinition[UserRegisteredEvent](
	"auth", "UserRegistered", "v1",
)

// PasswordResetRequestedEvent is emitted when a reset link is issued.
// ResetToken is the raw token; only its sha256 digest is stored.
type PasswordResetRequestedEvent struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	ResetToken  string    `json:"reset_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	RequestedAt time.Time `json:"requested_at"`
}

// PasswordResetRequestedV1 is the typed event definition for reset requests.
// Subject: events.auth.v1.password-reset-requested
var PasswordResetRequestedV1 = helper.EventDefinition[PasswordResetRequestedEvent](
	"auth", "PasswordResetRequested", "v1",
)

// PasswordChangedEvent is emitted whenever a password hash is replaced.
type PasswordChangedEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Reason    string    `json:"reason"`
	ChangedAt time.Time `json:"changed_at"`
}

// PasswordChangedV1 is the typed event definition for password changes.
// Subject: events.auth.v1.password-changed
var PasswordChangedV1 = helper.EventDefinition[PasswordChangedEvent](
	"auth", "PasswordChanged", "v1",
)

// InviteCreatedEvent is emitted when an admin issues an invite code.
type InviteCreatedEvent struct {
	Code      string    `json:"code"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InviteCreatedV1 is the typed event definition for invite creation.
// Subject: events.auth.v1.invite-created
var InviteCreatedV1 = helper.EventDefinition[InviteCreatedEvent](
	"auth", "InviteCreated", "v1",
)
