package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	// AccessCookieName holds the access token.
	AccessCookieName = "token"
	// RefreshCookieName holds the refresh token.
	RefreshCookieName = "refreshToken"
)

// CookieConfig controls the security attributes and lifetimes of the
// session cookies. Lifetimes must match the token TTLs.
type CookieConfig struct {
	Production    bool
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

// CookieManager sets and clears the session cookies.
type CookieManager struct {
	config CookieConfig
}

// NewCookieManager creates a new CookieManager.
func NewCookieManager(config CookieConfig) *CookieManager {
	return &CookieManager{
		config: config,
	}
}

// SetSessionCookies attaches both tokens to the response.
func (m *CookieManager) SetSessionCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(m.cookie(AccessCookieName, accessToken, m.config.AccessMaxAge))
	c.Cookie(m.cookie(RefreshCookieName, refreshToken, m.config.RefreshMaxAge))
}

// ClearSessionCookies expires both cookies. It never fails.
func (m *CookieManager) ClearSessionCookies(c *fiber.Ctx) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		cookie := m.cookie(name, "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		c.Cookie(cookie)
	}
}

func (m *CookieManager) cookie(name, value string, maxAge time.Duration) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if m.config.Production {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   m.config.Production,
		HTTPOnly: true,
		SameSite: sameSite,
	}
}
