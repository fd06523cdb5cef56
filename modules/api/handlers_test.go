package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/jobboard-auth/config"
	"github.com/example/jobboard-auth/domain/apperr"
	domain "github.com/example/jobboard-auth/domain/user"
	"github.com/example/jobboard-auth/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "development",
		HTTP: config.HTTP{
			Addr:         ":0",
			AllowOrigins: "http://localhost:5173",
		},
		JWT: config.JWT{
			AccessTTL:  30 * time.Minute,
			RefreshTTL: 14 * 24 * time.Hour,
		},
	}
}

func newTestApp(port *mockAuthPort) (*APIModule, *fiber.App) {
	m := NewModule(testConfig())
	m.authPort = port
	return m, m.newApp()
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string, mutate ...func(*http.Request)) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, fn := range mutate {
		fn(req)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func withBearer(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookie(name, value string) func(*http.Request) {
	return func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

func testSession() *auth.Session {
	return &auth.Session{
		Identity: testIdentity,
		Tokens: &domain.TokenPair{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
		},
	}
}

func TestRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		var got auth.RegisterRequest
		_, app := newTestApp(&mockAuthPort{
			registerFunc: func(_ context.Context, req auth.RegisterRequest) (*domain.Identity, error) {
				got = req
				return testIdentity, nil
			},
		})

		resp, body := doRequest(t, app, "POST", "/api/auth/register",
			`{"email":"test@example.com","password":"password123","fullName":"Test User","inviteCode":"ABC"}`)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "test@example.com", got.Email)
		assert.Equal(t, "Test User", got.FullName)
		assert.Equal(t, "ABC", got.InviteCode)
		user := body["user"].(map[string]any)
		assert.Equal(t, "user-123", user["id"])
		assert.NotContains(t, user, "passwordHash")
		assert.NotContains(t, user, "PasswordHash")
	})

	t.Run("missing fields", func(t *testing.T) {
		_, app := newTestApp(&mockAuthPort{})

		resp, body := doRequest(t, app, "POST", "/api/auth/register", `{"email":""}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Email and password are required", body["message"])
		assert.EqualValues(t, http.StatusBadRequest, body["status"])
	})

	t.Run("email in use", func(t *testing.T) {
		_, app := newTestApp(&mockAuthPort{
			registerFunc: func(context.Context, auth.RegisterRequest) (*domain.Identity, error) {
				return nil, apperr.Conflict("Email is already in use.")
			},
		})

		resp, body := doRequest(t, app, "POST", "/api/auth/register",
			`{"email":"test@example.com","password":"password123"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Email is already in use.", body["message"])
	})

	t.Run("internal error is hidden", func(t *testing.T) {
		_, app := newTestApp(&mockAuthPort{
			registerFunc: func(context.Context, auth.RegisterRequest) (*domain.Identity, error) {
				return nil, apperr.Internal(errors.New("disk full"), "create user")
			},
		})

		resp, body := doRequest(t, app, "POST", "/api/auth/register",
			`{"email":"test@example.com","password":"password123"}`)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Internal Server Error", body["message"])
		assert.EqualValues(t, http.StatusInternalServerError, body["status"])
	})
}

func TestLogin(t *testing.T) {
	t.Run("sets both session cookies", func(t *testing.T) {
		_, app := newTestApp(&mockAuthPort{
			loginFunc: func(_ context.Context, email, password string) (*auth.Session, error) {
				return testSession(), nil
			},
		})

		resp, body := doRequest(t, app, "POST", "/api/auth/login",
			`{"email":"test@example.com","password":"password123"}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Login successful", body["message"])

		cookies := resp.Cookies()
		require.Len(t, cookies, 2)
		values := map[string]string{}
		for _, c := range cookies {
			assert.True(t, c.HttpOnly, c.Name)
			values[c.Name] = c.Value
		}
		assert.Equal(t, "access-1", values[AccessCookieName])
		assert.Equal(t, "refresh-1", values[RefreshCookieName])

		user := body["user"].(map[string]any)
		assert.Equal(t, "user-123", user["id"])
		assert.Equal(t, "jobSeeker", user["role"])
	})

	t.Run("invalid credentials set no cookies", func(t *testing.T) {
		_, app := newTestApp(&mockAuthPort{
			loginFunc: func(context.Context, string, string) (*auth.Session, error) {
				return nil, apperr.Unauthorized("Invalid credentials")
			},
		})

		resp, body := doRequest(t, app, "POST", "/api/auth/login",
			`{"email":"test@example.com","password":"wrong"}`)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid credentials", body["message"])
		assert.Empty(t, resp.Header.Values("Set-Cookie"))
	})

	t.Run("throttled", func(t *testing.T) {
		m := NewModule(testConfig())
		m.authPort = &mockAuthPort{}
		m.SetRateLimits(stubLimits{})
		app := m.newApp()

		resp, body := doRequest(t, app, "POST", "/api/auth/login",
			`{"email":"test@example.com","password":"password123"}`)

		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "Too many requests", body["message"])
	})
}

func TestLogout(t *testing.T) {
	_, app := newTestApp(&mockAuthPort{})

	for range 2 {
		resp, body := doRequest(t, app, "POST", "/api/auth/logout", "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Logged out successfully", body["message"])
		assert.Len(t, resp.Header.Values("Set-Cookie"), 2)
	}
}

func TestRefresh(t *testing.T) {
	port := &mockAuthPort{
		refreshFunc: func(_ context.Context, token string) (*auth.Session, error) {
			switch token {
			case "":
				return nil, apperr.Unauthorized("Refresh token not found")
			case "expired":
				return nil, apperr.Unauthorized("Refresh token expired")
			case "refresh-1":
				s := testSession()
				s.Tokens = &domain.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}
				return s, nil
			default:
				return nil, apperr.Unauthorized("Invalid refresh token")
			}
		},
	}
	_, app := newTestApp(port)

	tests := []struct {
		name    string
		cookie  string
		status  int
		message string
	}{
		{name: "no cookie", status: http.StatusUnauthorized, message: "Refresh token not found"},
		{name: "expired", cookie: "expired", status: http.StatusUnauthorized, message: "Refresh token expired"},
		{name: "garbage", cookie: "garbage", status: http.StatusUnauthorized, message: "Invalid refresh token"},
		{name: "valid", cookie: "refresh-1", status: http.StatusOK, message: "Token refreshed successfully"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mutate []func(*http.Request)
			if tt.cookie != "" {
				mutate = append(mutate, withCookie(RefreshCookieName, tt.cookie))
			}

			resp, body := doRequest(t, app, "POST", "/api/auth/refresh-token", "", mutate...)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.message, body["message"])
			if tt.status == http.StatusOK {
				assert.Equal(t, "access-2", body["accessToken"])
				assert.Len(t, resp.Cookies(), 2)
			} else {
				assert.Empty(t, resp.Header.Values("Set-Cookie"))
			}
		})
	}
}

func TestPasswordEndpoints(t *testing.T) {
	t.Run("forget password for unknown email", func(t *testing.T) {
		_, app := newTestApp(&mockAuthPort{
			forgetPasswordFunc: func(context.Context, string, string) error {
				return apperr.NotFound("User not found")
			},
		})

		resp, body := doRequest(t, app, "POST", "/api/auth/forget-password",
			`{"email":"nobody@example.com","password":"newpassword1"}`)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "User not found", body["message"])
	})

	t.Run("forget password sets the submitted password", func(t *testing.T) {
		var gotEmail, gotPassword string
		_, app := newTestApp(&mockAuthPort{
			forgetPasswordFunc: func(_ context.Context, email, password string) error {
				gotEmail, gotPassword = email, password
				return nil
			},
		})

		resp, body := doRequest(t, app, "POST", "/api/auth/forget-password",
			`{"email":"a@gmail.com","password":"Passw0rd!"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Password updated successfully", body["message"])
		assert.Equal(t, "a@gmail.com", gotEmail)
		assert.Equal(t, "Passw0rd!", gotPassword)
	})

	t.Run("forget password requires a password", func(t *testing.T) {
		_, app := newTestApp(&mockAuthPort{})

		resp, body := doRequest(t, app, "POST", "/api/auth/forget-password",
			`{"email":"a@gmail.com","newPassword":"Passw0rd!"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Email and password are required", body["message"])
	})

	t.Run("reset password passes the path token", func(t *testing.T) {
		var gotToken, gotPassword string
		_, app := newTestApp(&mockAuthPort{
			resetPasswordFunc: func(_ context.Context, token, password string) error {
				gotToken, gotPassword = token, password
				return nil
			},
		})

		resp, body := doRequest(t, app, "PUT", "/api/auth/reset-password/abc123",
			`{"password":"newpassword1"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Password reset successful", body["message"])
		assert.Equal(t, "abc123", gotToken)
		assert.Equal(t, "newpassword1", gotPassword)
	})

	t.Run("reset password with bad token", func(t *testing.T) {
		_, app := newTestApp(&mockAuthPort{
			resetPasswordFunc: func(context.Context, string, string) error {
				return apperr.BadRequest("Invalid or expired password reset token")
			},
		})

		resp, body := doRequest(t, app, "PUT", "/api/auth/reset-password/nope",
			`{"password":"newpassword1"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid or expired password reset token", body["message"])
	})

	t.Run("change password clears cookies", func(t *testing.T) {
		port := (&mockAuthPort{}).signedIn("tok", testIdentity)
		port.changePasswordFunc = func(_ context.Context, userID, current, next string) error {
			assert.Equal(t, testIdentity.ID, userID)
			return nil
		}
		_, app := newTestApp(port)

		resp, _ := doRequest(t, app, "PUT", "/api/user/change-password",
			`{"currentPassword":"password123","newPassword":"newpassword1"}`, withBearer("tok"))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, resp.Header.Values("Set-Cookie"), 2)
	})
}

func TestVerifyEmail(t *testing.T) {
	used := map[string]bool{}
	_, app := newTestApp(&mockAuthPort{
		verifyEmailFunc: func(_ context.Context, token string) error {
			if used[token] {
				return apperr.BadRequest("Invalid or expired verification token")
			}
			used[token] = true
			return nil
		},
	})

	resp, body := doRequest(t, app, "GET", "/api/auth/verify-email/tok-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Email verified successfully", body["message"])

	resp, body = doRequest(t, app, "GET", "/api/auth/verify-email/tok-1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid or expired verification token", body["message"])
}

func TestUserRoutes(t *testing.T) {
	recruiter := &domain.Identity{ID: "rec-1", Email: "rec@example.com", Role: domain.RoleRecruiter}

	t.Run("current user", func(t *testing.T) {
		_, app := newTestApp((&mockAuthPort{}).signedIn("tok", testIdentity))

		resp, body := doRequest(t, app, "GET", "/api/user/current-user", "", withCookie(AccessCookieName, "tok"))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "test@example.com", body["user"].(map[string]any)["email"])
	})

	t.Run("current user without token", func(t *testing.T) {
		_, app := newTestApp(&mockAuthPort{})

		resp, body := doRequest(t, app, "GET", "/api/user/current-user", "")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Not authorized, no token", body["message"])
	})

	t.Run("job seeker cannot look up users", func(t *testing.T) {
		_, app := newTestApp((&mockAuthPort{}).signedIn("tok", testIdentity))

		resp, body := doRequest(t, app, "GET", "/api/user/someone", "", withBearer("tok"))

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "User role jobSeeker is not authorized to access this route", body["message"])
	})

	t.Run("recruiter looks up a user", func(t *testing.T) {
		port := (&mockAuthPort{}).signedIn("tok", recruiter)
		hydrate := port.getUserFunc
		port.getUserFunc = func(ctx context.Context, userID string) (*domain.Identity, error) {
			if userID == testIdentity.ID {
				return testIdentity, nil
			}
			return hydrate(ctx, userID)
		}
		_, app := newTestApp(port)

		resp, body := doRequest(t, app, "GET", "/api/user/"+testIdentity.ID, "", withBearer("tok"))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, testIdentity.ID, body["user"].(map[string]any)["id"])
	})

	t.Run("admin looks up a user", func(t *testing.T) {
		admin := &domain.Identity{ID: "admin-1", Email: "admin@x.io", Role: domain.RoleAdmin}
		port := (&mockAuthPort{}).signedIn("tok", admin)
		hydrate := port.getUserFunc
		port.getUserFunc = func(ctx context.Context, userID string) (*domain.Identity, error) {
			if userID == testIdentity.ID {
				return testIdentity, nil
			}
			return hydrate(ctx, userID)
		}
		_, app := newTestApp(port)

		resp, body := doRequest(t, app, "GET", "/api/user/"+testIdentity.ID, "", withBearer("tok"))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, testIdentity.ID, body["user"].(map[string]any)["id"])
	})

	t.Run("delete account", func(t *testing.T) {
		var deleted string
		port := (&mockAuthPort{}).signedIn("tok", testIdentity)
		port.deleteAccountFunc = func(_ context.Context, userID string) error {
			deleted = userID
			return nil
		}
		_, app := newTestApp(port)

		resp, _ := doRequest(t, app, "DELETE", "/api/user/delete", "", withBearer("tok"))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, testIdentity.ID, deleted)
	})
}

func TestInviteRoutes(t *testing.T) {
	admin := &domain.Identity{ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin}
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("admin generates an invite", func(t *testing.T) {
		port := (&mockAuthPort{}).signedIn("tok", admin)
		port.generateInviteFunc = func(_ context.Context, adminID, email string, role domain.Role) (*domain.InviteCode, error) {
			assert.Equal(t, admin.ID, adminID)
			assert.Equal(t, domain.RoleRecruiter, role)
			return &domain.InviteCode{Code: "INV123", Email: email, Role: role, ExpiresAt: expires}, nil
		}
		_, app := newTestApp(port)

		resp, body := doRequest(t, app, "POST", "/api/invitecode/generate",
			`{"email":"new@example.com"}`, withBearer("tok"))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "INV123", body["inviteCode"])
		assert.Equal(t, "recruiter", body["role"])
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		_, app := newTestApp((&mockAuthPort{}).signedIn("tok", testIdentity))

		resp, _ := doRequest(t, app, "POST", "/api/invitecode/generate",
			`{"email":"new@example.com"}`, withBearer("tok"))

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("redeem", func(t *testing.T) {
		port := (&mockAuthPort{}).signedIn("tok", testIdentity)
		port.redeemInviteFunc = func(_ context.Context, userID, code string) (domain.Role, error) {
			if code != "INV123" {
				return "", apperr.BadRequest("Invalid or expired invite code.")
			}
			return domain.RoleRecruiter, nil
		}
		_, app := newTestApp(port)

		resp, body := doRequest(t, app, "POST", "/api/invitecode/verify", `{"code":"INV123"}`, withBearer("tok"))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "recruiter", body["role"])

		resp, body = doRequest(t, app, "POST", "/api/invitecode/verify", `{"code":"BAD"}`, withBearer("tok"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid or expired invite code.", body["message"])
	})
}

func TestHealth(t *testing.T) {
	m, _ := newTestApp(&mockAuthPort{})
	m.AddHealthCheck("auth", &stubModule{name: "auth", healthy: true})
	cacheCheck := &stubModule{name: "cache", healthy: true}
	m.AddHealthCheck("cache", cacheCheck)
	app := m.newApp()

	resp, body := doRequest(t, app, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	cacheCheck.healthy = false
	resp, body = doRequest(t, app, "GET", "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unhealthy", body["status"])
	modules := body["modules"].(map[string]any)
	assert.Equal(t, false, modules["cache"].(map[string]any)["healthy"])
	assert.Equal(t, true, modules["auth"].(map[string]any)["healthy"])
}

func TestUnknownRoute(t *testing.T) {
	_, app := newTestApp(&mockAuthPort{})

	resp, body := doRequest(t, app, "GET", "/api/nope", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.EqualValues(t, http.StatusNotFound, body["status"])
}

type stubLimits struct{}

func (stubLimits) Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return sendMessage(c, fiber.StatusTooManyRequests, "Too many requests")
	}
}

func (stubLimits) PasswordReset() fiber.Handler {
	return func(c *fiber.Ctx) error { return c.Next() }
}

type stubModule struct {
	name    string
	healthy bool
}

func (s *stubModule) Name() string                { return s.name }
func (s *stubModule) Start(context.Context) error { return nil }
func (s *stubModule) Stop(context.Context) error  { return nil }
func (s *stubModule) Health(context.Context) mono.HealthStatus {
	return mono.HealthStatus{Healthy: s.healthy, Message: s.name}
}
