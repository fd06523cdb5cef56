package ratelimit

import (
	"context"
	"fmt"
	"log"

	"github.com/example/jobboard-auth/config"
	"github.com/example/jobboard-auth/domain/ratelimit"
	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module provides rate limiting services as a mono module.
type Module struct {
	client     *redis.Client
	middleware *Middleware
	redisAddr  string
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the Redis client and the middleware. No connection is
// made until Start.
func NewModule(redisCfg config.Redis, limits config.RateLimit) *Module {
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	return &Module{
		client: client,
		middleware: NewMiddleware(client, MiddlewareConfig{
			Login: ratelimit.Config{
				RequestsPerWindow: limits.LoginRequests,
				WindowSize:        limits.LoginWindow,
			},
			Reset: ratelimit.Config{
				RequestsPerWindow: limits.ResetRequests,
				WindowSize:        limits.ResetWindow,
			},
			KeyPrefix: "ratelimit:",
		}),
		redisAddr: redisCfg.Addr,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "rate-limiter"
}

// Start verifies the Redis connection.
func (m *Module) Start(ctx context.Context) error {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Printf("[rate-limiter] Connected to Redis at %s", m.redisAddr)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if err := m.client.Close(); err != nil {
		log.Printf("[rate-limiter] Error closing Redis connection: %v", err)
	}
	log.Println("[rate-limiter] Module stopped")
	return nil
}

// Middleware returns the rate limiting middleware.
func (m *Module) Middleware() *Middleware {
	return m.middleware
}

// Health verifies the Redis connection is healthy.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis": m.redisAddr,
		},
	}
}
