package notification

import (
	"context"
	"testing"
	"time"

	"github.com/example/jobboard-auth/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationModule_Links(t *testing.T) {
	m := NewModule("http://localhost:5173/")
	ctx := context.Background()

	require.NoError(t, m.handleUserRegistered(ctx, events.UserRegisteredEvent{
		UserID:            "u1",
		Email:             "a@x.io",
		VerificationToken: "verify-token",
		RegisteredAt:      time.Now(),
	}, nil))
	require.NoError(t, m.handlePasswordResetRequested(ctx, events.PasswordResetRequestedEvent{
		UserID:     "u1",
		Email:      "a@x.io",
		ResetToken: "reset-token",
	}, nil))
	require.NoError(t, m.handleInviteCreated(ctx, events.InviteCreatedEvent{
		Code:  "ABCD1234",
		Email: "r@x.io",
		Role:  "recruiter",
	}, nil))
	require.NoError(t, m.handlePasswordChanged(ctx, events.PasswordChangedEvent{
		UserID: "u1",
		Email:  "a@x.io",
		Reason: "change-password",
	}, nil))

	messages := m.Messages()
	require.Len(t, messages, 4)

	assert.Equal(t, TypeVerifyEmail, messages[0].Type)
	assert.Equal(t, "a@x.io", messages[0].To)
	assert.Equal(t, "http://localhost:5173/verify-email/verify-token", messages[0].Link)

	assert.Equal(t, TypePasswordReset, messages[1].Type)
	assert.Equal(t, "http://localhost:5173/reset-password/reset-token", messages[1].Link)

	assert.Equal(t, TypeInvite, messages[2].Type)
	assert.Equal(t, "r@x.io", messages[2].To)
	assert.Equal(t, "http://localhost:5173/register?invite=ABCD1234", messages[2].Link)

	assert.Equal(t, TypePasswordChanged, messages[3].Type)
	assert.Empty(t, messages[3].Link)
}

func TestNotificationModule_Drain(t *testing.T) {
	m := NewModule("http://app")
	ctx := context.Background()

	require.NoError(t, m.handlePasswordChanged(ctx, events.PasswordChangedEvent{Email: "a@x.io"}, nil))

	drained := m.Drain()
	assert.Len(t, drained, 1)
	assert.Empty(t, m.Messages())

	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Stop(ctx))
}
