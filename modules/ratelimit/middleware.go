package ratelimit

import (
	"fmt"
	"log"
	"strconv"

	"github.com/example/jobboard-auth/domain/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// MiddlewareConfig configures the per-IP limits of the credential endpoints.
type MiddlewareConfig struct {
	Login     ratelimit.Config
	Reset     ratelimit.Config
	KeyPrefix string
}

// Middleware provides rate limiting middleware for Fiber.
type Middleware struct {
	loginLimiter *SlidingWindowLimiter
	resetLimiter *SlidingWindowLimiter
}

// NewMiddleware creates a new rate limiting middleware.
func NewMiddleware(client *redis.Client, config MiddlewareConfig) *Middleware {
	return &Middleware{
		loginLimiter: NewSlidingWindowLimiter(client, config.Login, config.KeyPrefix+"login:"),
		resetLimiter: NewSlidingWindowLimiter(client, config.Reset, config.KeyPrefix+"reset:"),
	}
}

// Login limits login attempts per client IP.
func (m *Middleware) Login() fiber.Handler {
	return ipLimit(m.loginLimiter)
}

// PasswordReset limits password reset and forget-password requests per client IP.
func (m *Middleware) PasswordReset() fiber.Handler {
	return ipLimit(m.resetLimiter)
}

// ipLimit throttles by client IP. Redis errors let the request through.
func ipLimit(limiter *SlidingWindowLimiter) fiber.Handler {
	config := limiter.Config()
	if !config.Enabled() {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Unable to determine client IP address",
				"status":  fiber.StatusForbidden,
			})
		}

		result, err := limiter.Allow(c.UserContext(), ip)
		if err != nil {
			log.Printf("[rate-limiter] Warning: limiter unavailable, allowing request: %v", err)
			return c.Next()
		}

		setRateLimitHeaders(c, result, config.RequestsPerWindow)
		if !result.Allowed {
			return sendRateLimitExceeded(c, result)
		}
		return c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(c *fiber.Ctx, result *ratelimit.Result, limit int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// sendRateLimitExceeded sends a 429 Too Many Requests response.
func sendRateLimitExceeded(c *fiber.Ctx, result *ratelimit.Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	c.Set("Retry-After", strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"message": fmt.Sprintf("Too many requests. Please retry after %d seconds.", retryAfter),
		"status":  fiber.StatusTooManyRequests,
	})
}
