package api

import (
	"context"
	"fmt"
	"log"

	"github.com/example/jobboard-auth/config"
	domain "github.com/example/jobboard-auth/domain/user"
	"github.com/example/jobboard-auth/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// RateLimits supplies throttling middleware for the credential endpoints.
type RateLimits interface {
	Login() fiber.Handler
	PasswordReset() fiber.Handler
}

// APIModule is the HTTP API module.
type APIModule struct {
	cfg      *config.Config
	app      *fiber.App
	authPort auth.AuthPort
	limits   RateLimits
	checks   map[string]mono.HealthCheckableModule
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(cfg *config.Config) *APIModule {
	return &APIModule{
		cfg:    cfg,
		checks: make(map[string]mono.HealthCheckableModule),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authPort = auth.NewAuthAdapter(container)
	}
}

// SetRateLimits installs throttling for the credential endpoints. Must be
// called before Start; without it the endpoints are not throttled.
func (m *APIModule) SetRateLimits(limits RateLimits) {
	m.limits = limits
}

// AddHealthCheck includes a module in the /health report under name.
func (m *APIModule) AddHealthCheck(name string, module mono.HealthCheckableModule) {
	m.checks[name] = module
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authPort == nil {
		return fmt.Errorf("auth dependency not set")
	}

	m.app = m.newApp()

	go func() {
		if err := m.app.Listen(m.cfg.HTTP.Addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", m.cfg.HTTP.Addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.cfg.HTTP.Addr,
		},
	}
}

// newApp builds the Fiber application with middleware and routes.
func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     m.cfg.HTTP.AllowOrigins,
		AllowCredentials: true,
	}))

	m.setupRoutes(app)
	return app
}

// setupRoutes configures all API routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	handlers := NewHandlers(m.authPort, NewCookieManager(CookieConfig{
		Production:    m.cfg.IsProduction(),
		AccessMaxAge:  m.cfg.JWT.AccessTTL,
		RefreshMaxAge: m.cfg.JWT.RefreshTTL,
	}))
	protect := Protect(m.authPort)
	loginLimit, resetLimit := m.throttles()

	app.Get("/health", m.health)

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", handlers.Register)
	authRoutes.Post("/login", loginLimit, handlers.Login)
	authRoutes.Post("/logout", handlers.Logout)
	authRoutes.Post("/logout-all", protect, handlers.LogoutAll)
	authRoutes.Post("/refresh-token", handlers.Refresh)
	authRoutes.Get("/verify-email/:token", handlers.VerifyEmail)
	authRoutes.Post("/forget-password", resetLimit, handlers.ForgetPassword)
	authRoutes.Post("/request-password-reset", resetLimit, handlers.RequestPasswordReset)
	authRoutes.Put("/reset-password/:token", resetLimit, handlers.ResetPassword)

	userRoutes := api.Group("/user", protect)
	userRoutes.Get("/current-user", handlers.CurrentUser)
	userRoutes.Put("/change-password", handlers.ChangePassword)
	userRoutes.Delete("/delete", handlers.DeleteAccount)
	userRoutes.Get("/:userId", Authorize(domain.RoleRecruiter, domain.RoleAdmin), handlers.GetUser)

	inviteRoutes := api.Group("/invitecode", protect)
	inviteRoutes.Post("/generate", Authorize(domain.RoleAdmin), handlers.GenerateInvite)
	inviteRoutes.Post("/verify", handlers.RedeemInvite)
}

// throttles returns the login and password reset limiters, or pass-through
// handlers when rate limiting is disabled.
func (m *APIModule) throttles() (fiber.Handler, fiber.Handler) {
	if m.limits == nil {
		next := func(c *fiber.Ctx) error { return c.Next() }
		return next, next
	}
	return m.limits.Login(), m.limits.PasswordReset()
}

// health reports every registered module; any unhealthy module turns the
// response into 503.
func (m *APIModule) health(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status:  "healthy",
		Modules: make(map[string]ModuleHealth, len(m.checks)),
	}
	status := fiber.StatusOK
	for name, check := range m.checks {
		h := check.Health(c.UserContext())
		resp.Modules[name] = ModuleHealth{Healthy: h.Healthy, Message: h.Message}
		if !h.Healthy {
			resp.Status = "unhealthy"
			status = fiber.StatusServiceUnavailable
		}
	}
	return c.Status(status).JSON(resp)
}
