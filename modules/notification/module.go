// Package notification records outgoing account messages (verification
// links, password reset links, invites) in an in-memory outbox. Delivery is
// left to whatever drains the outbox.
package notification

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/example/jobboard-auth/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
)

// Message types.
const (
	TypeVerifyEmail     = "verify_email"
	TypePasswordReset   = "password_reset"
	TypePasswordChanged = "password_changed"
	TypeInvite          = "invite"
)

// Message is an account message waiting for delivery.
type Message struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationModule turns auth events into outbox messages.
type NotificationModule struct {
	frontendURL string
	outbox      []Message
	mu          sync.RWMutex
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)

// NewModule creates a notification module whose links point at frontendURL.
func NewModule(frontendURL string) *NotificationModule {
	return &NotificationModule{
		frontendURL: strings.TrimRight(frontendURL, "/"),
		outbox:      make([]Message, 0),
	}
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.UserRegisteredV1, m.handleUserRegistered, m); err != nil {
		return fmt.Errorf("failed to register UserRegistered consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.PasswordResetRequestedV1, m.handlePasswordResetRequested, m); err != nil {
		return fmt.Errorf("failed to register PasswordResetRequested consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.PasswordChangedV1, m.handlePasswordChanged, m); err != nil {
		return fmt.Errorf("failed to register PasswordChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.InviteCreatedV1, m.handleInviteCreated, m); err != nil {
		return fmt.Errorf("failed to register InviteCreated consumer: %w", err)
	}

	log.Printf("[notification] Registered event consumers: UserRegistered, PasswordResetRequested, PasswordChanged, InviteCreated")
	return nil
}

func (m *NotificationModule) handleUserRegistered(_ context.Context, event events.UserRegisteredEvent, _ *mono.Msg) error {
	m.enqueue(TypeVerifyEmail, event.Email, "Verify your email address",
		m.link("verify-email", event.VerificationToken))
	return nil
}

func (m *NotificationModule) handlePasswordResetRequested(_ context.Context, event events.PasswordResetRequestedEvent, _ *mono.Msg) error {
	m.enqueue(TypePasswordReset, event.Email, "Reset your password",
		m.link("reset-password", event.ResetToken))
	return nil
}

func (m *NotificationModule) handlePasswordChanged(_ context.Context, event events.PasswordChangedEvent, _ *mono.Msg) error {
	m.enqueue(TypePasswordChanged, event.Email, "Your password was changed", "")
	return nil
}

func (m *NotificationModule) handleInviteCreated(_ context.Context, event events.InviteCreatedEvent, _ *mono.Msg) error {
	m.enqueue(TypeInvite, event.Email, fmt.Sprintf("You are invited to join as %s", event.Role),
		m.link("register", "")+"?invite="+url.QueryEscape(event.Code))
	return nil
}

// link builds a frontend URL. The token is a path segment.
func (m *NotificationModule) link(page, token string) string {
	if token == "" {
		return m.frontendURL + "/" + page
	}
	return m.frontendURL + "/" + page + "/" + url.PathEscape(token)
}

func (m *NotificationModule) enqueue(messageType, to, subject, link string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outbox = append(m.outbox, Message{
		ID:        uuid.New().String(),
		Type:      messageType,
		To:        to,
		Subject:   subject,
		Link:      link,
		CreatedAt: time.Now(),
	})
	// Links carry single-use tokens and stay out of the log.
	log.Printf("[notification] Queued %s message for %s", messageType, to)
}

// Messages returns a copy of the outbox.
func (m *NotificationModule) Messages() []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Message, len(m.outbox))
	copy(result, m.outbox)
	return result
}

// Drain returns and clears the outbox.
func (m *NotificationModule) Drain() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := m.outbox
	m.outbox = make([]Message, 0)
	return result
}

func (m *NotificationModule) Start(_ context.Context) error {
	log.Println("[notification] Module started - listening for auth events")
	return nil
}

func (m *NotificationModule) Stop(_ context.Context) error {
	log.Printf("[notification] Module stopped (%d undelivered messages)", len(m.Messages()))
	return nil
}
