package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/jobboard-auth/config"
	"github.com/example/jobboard-auth/domain/apperr"
	domain "github.com/example/jobboard-auth/domain/user"
	"github.com/go-monolith/mono"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// clientModule depends on auth and reaches it only through the adapter.
type clientModule struct {
	port AuthPort
}

func (m *clientModule) Name() string { return "auth-client" }
func (m *clientModule) Start(_ context.Context) error { return nil }
func (m *clientModule) Stop(_ context.Context) error { return nil }
func (m *clientModule) Dependencies() []string { return []string{"auth"} }

func (m *clientModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.port = NewAuthAdapter(container)
	}
}

// startAuthApp runs the auth module inside a mono application and returns
// the adapter a dependent module would use.
func startAuthApp(t *testing.T) AuthPort {
	t.Helper()

	cfg := &config.Config{
		Database: config.Database{Path: filepath.Join(t.TempDir(), "auth.db")},
		JWT: config.JWT{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     30 * time.Minute,
			RefreshTTL:    14 * 24 * time.Hour,
			Issuer:        "test",
		},
		Auth: config.Auth{
			BcryptCost:    bcrypt.MinCost,
			ResetTokenTTL: 10 * time.Minute,
			InviteTTL:     7 * 24 * time.Hour,
		},
	}

	app, err := mono.NewMonoApplication(
		mono.WithLogLevel(mono.LogLevelError),
	)
	require.NoError(t, err)

	client := &clientModule{}
	require.NoError(t, app.Register(NewModule(cfg)))
	require.NoError(t, app.Register(client))

	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() {
		_ = app.Stop(context.Background())
	})

	require.NotNil(t, client.port, "auth container was not injected")
	return client.port
}

func TestAuthAdapter_OverBus(t *testing.T) {
	port := startAuthApp(t)
	ctx := context.Background()

	identity, err := port.Register(ctx, RegisterRequest{Email: "Bus@X.io", Password: "secret123", FullName: "Bus User"})
	require.NoError(t, err)
	assert.NotEmpty(t, identity.ID)
	assert.Equal(t, "bus@x.io", identity.Email)
	assert.Equal(t, domain.RoleJobSeeker, identity.Role)

	_, err = port.Register(ctx, RegisterRequest{Email: "bus@x.io", Password: "different1"})
	assertKind(t, err, apperr.KindConflict, "Email is already in use.")

	session, err := port.Login(ctx, "bus@x.io", "secret123")
	require.NoError(t, err)
	require.NotNil(t, session.Tokens)
	assert.Equal(t, identity.ID, session.Identity.ID)

	claims, outcome, err := port.ValidateToken(ctx, session.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, TokenValid, outcome)
	assert.Equal(t, identity.ID, claims.UserID)
	assert.Equal(t, "bus@x.io", claims.Email)
	assert.Equal(t, domain.RoleJobSeeker, claims.Role)

	claims, outcome, err = port.ValidateToken(ctx, "not-a-jwt")
	require.NoError(t, err)
	assert.Equal(t, TokenInvalid, outcome)
	assert.Nil(t, claims)

	_, err = port.Refresh(ctx, "")
	assertKind(t, err, apperr.KindUnauthorized, "Refresh token not found")

	refreshed, err := port.Refresh(ctx, session.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Tokens.AccessToken)

	got, err := port.GetUser(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "bus@x.io", got.Email)

	_, err = port.Login(ctx, "bus@x.io", "wrong-password")
	require.Error(t, err)
	_, ok := apperr.As(err)
	assert.True(t, ok, "bus errors must keep their kind, got %v", err)
}
