package api

import (
	"strings"

	domain "github.com/example/jobboard-auth/domain/user"
	"github.com/example/jobboard-auth/modules/auth"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	authPort auth.AuthPort
	cookies  *CookieManager
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, cookies *CookieManager) *Handlers {
	return &Handlers{
		authPort: authPort,
		cookies:  cookies,
	}
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return sendMessage(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return sendMessage(c, fiber.StatusBadRequest, "Email and password are required")
	}

	identity, err := h.authPort.Register(c.UserContext(), auth.RegisterRequest{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		Contact:     req.Contact,
		Designation: req.Designation,
		InviteCode:  req.InviteCode,
	})
	if err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(RegisterResponse{
		Message: "User registered successfully. Please verify your email.",
		User:    identity,
	})
}

// Login handles user login and sets the session cookies.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return sendMessage(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return sendMessage(c, fiber.StatusBadRequest, "Email and password are required")
	}

	session, err := h.authPort.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return sendError(c, err)
	}

	h.cookies.SetSessionCookies(c, session.Tokens.AccessToken, session.Tokens.RefreshToken)
	return c.JSON(LoginResponse{
		Message: "Login successful",
		User: LoginUser{
			ID:    session.Identity.ID,
			Email: session.Identity.Email,
			Role:  session.Identity.Role,
		},
	})
}

// Logout clears the session cookies. It always succeeds.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	h.cookies.ClearSessionCookies(c)
	return c.JSON(MessageResponse{Message: "Logged out successfully"})
}

// LogoutAll revokes every refresh token of the signed-in user.
func (h *Handlers) LogoutAll(c *fiber.Ctx) error {
	identity, _ := CurrentUser(c)
	if err := h.authPort.LogoutAll(c.UserContext(), identity.ID); err != nil {
		return sendError(c, err)
	}

	h.cookies.ClearSessionCookies(c)
	return c.JSON(MessageResponse{Message: "Logged out from all sessions"})
}

// Refresh issues a new token pair from the refresh token cookie.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	session, err := h.authPort.Refresh(c.UserContext(), c.Cookies(RefreshCookieName))
	if err != nil {
		return sendError(c, err)
	}

	h.cookies.SetSessionCookies(c, session.Tokens.AccessToken, session.Tokens.RefreshToken)
	return c.JSON(RefreshResponse{
		Message:     "Token refreshed successfully",
		AccessToken: session.Tokens.AccessToken,
	})
}

// ForgetPassword sets a new password for an email.
func (h *Handlers) ForgetPassword(c *fiber.Ctx) error {
	var req ForgetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return sendMessage(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return sendMessage(c, fiber.StatusBadRequest, "Email and password are required")
	}

	if err := h.authPort.ForgetPassword(c.UserContext(), req.Email, req.Password); err != nil {
		return sendError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Password updated successfully"})
}

// RequestPasswordReset issues a reset link. Unknown emails get the same answer.
func (h *Handlers) RequestPasswordReset(c *fiber.Ctx) error {
	var req RequestPasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return sendMessage(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return sendMessage(c, fiber.StatusBadRequest, "Email is required")
	}

	if err := h.authPort.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return sendError(c, err)
	}
	return c.JSON(MessageResponse{Message: "If an account exists for that email, a reset link has been sent."})
}

// ResetPassword consumes a reset token.
func (h *Handlers) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return sendMessage(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Password == "" {
		return sendMessage(c, fiber.StatusBadRequest, "Password is required")
	}

	if err := h.authPort.ResetPassword(c.UserContext(), c.Params("token"), req.Password); err != nil {
		return sendError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Password reset successful"})
}

// VerifyEmail consumes a verification token.
func (h *Handlers) VerifyEmail(c *fiber.Ctx) error {
	if err := h.authPort.VerifyEmail(c.UserContext(), c.Params("token")); err != nil {
		return sendError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Email verified successfully"})
}

// CurrentUser returns the signed-in identity.
func (h *Handlers) CurrentUser(c *fiber.Ctx) error {
	identity, _ := CurrentUser(c)
	return c.JSON(UserResponse{User: identity})
}

// GetUser returns any user by ID.
func (h *Handlers) GetUser(c *fiber.Ctx) error {
	identity, err := h.authPort.GetUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(UserResponse{User: identity})
}

// ChangePassword replaces the password of the signed-in user and ends the
// session, since the change revokes outstanding refresh tokens.
func (h *Handlers) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return sendMessage(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return sendMessage(c, fiber.StatusBadRequest, "Current and new password are required")
	}

	identity, _ := CurrentUser(c)
	if err := h.authPort.ChangePassword(c.UserContext(), identity.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return sendError(c, err)
	}

	h.cookies.ClearSessionCookies(c)
	return c.JSON(MessageResponse{Message: "Password changed successfully. Please log in again."})
}

// DeleteAccount removes the signed-in user.
func (h *Handlers) DeleteAccount(c *fiber.Ctx) error {
	identity, _ := CurrentUser(c)
	if err := h.authPort.DeleteAccount(c.UserContext(), identity.ID); err != nil {
		return sendError(c, err)
	}

	h.cookies.ClearSessionCookies(c)
	return c.JSON(MessageResponse{Message: "Account deleted successfully"})
}

// GenerateInvite issues an invite code for an email.
func (h *Handlers) GenerateInvite(c *fiber.Ctx) error {
	var req GenerateInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return sendMessage(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return sendMessage(c, fiber.StatusBadRequest, "Email is required")
	}
	if req.Role == "" {
		req.Role = domain.RoleRecruiter
	}

	identity, _ := CurrentUser(c)
	invite, err := h.authPort.GenerateInvite(c.UserContext(), identity.ID, req.Email, req.Role)
	if err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(InviteResponse{
		Message:    "Invite code generated successfully",
		InviteCode: invite.Code,
		Email:      invite.Email,
		Role:       invite.Role,
		ExpiresAt:  invite.ExpiresAt,
	})
}

// RedeemInvite consumes an invite code for the signed-in user.
func (h *Handlers) RedeemInvite(c *fiber.Ctx) error {
	var req RedeemInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return sendMessage(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Code) == "" {
		return sendMessage(c, fiber.StatusBadRequest, "Invite code is required")
	}

	identity, _ := CurrentUser(c)
	role, err := h.authPort.RedeemInvite(c.UserContext(), identity.ID, req.Code)
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(RedeemInviteResponse{
		Message: "Invite code verified successfully",
		Role:    role,
	})
}
