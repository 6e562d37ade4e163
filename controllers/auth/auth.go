package auth

import (
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"quicker-admin/logger"
	"quicker-admin/metrics"
	"quicker-admin/middleware"
	model "quicker-admin/models/notification"
	"quicker-admin/services/credential"
	"quicker-admin/services/lockout"
	"quicker-admin/services/notification"
	"quicker-admin/services/session"
	"quicker-admin/types"
	authTypes "quicker-admin/types/auth"
	"quicker-admin/utils"
)

type AuthController struct {
	guard         *lockout.Guard
	store         *credential.Store
	sessions      *session.Manager
	notifier      *notification.Service
	adminUsername string
	production    bool
}

func NewAuthController(guard *lockout.Guard, store *credential.Store, sessions *session.Manager, notifier *notification.Service, adminUsername string, production bool) *AuthController {
	return &AuthController{
		guard:         guard,
		store:         store,
		sessions:      sessions,
		notifier:      notifier,
		adminUsername: adminUsername,
		production:    production,
	}
}

// Helper function to set secure cookies based on environment
func (h *AuthController) setSecureCookie(c *fiber.Ctx, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		HTTPOnly: true,
		Secure:   h.production,
		SameSite: "Strict",
		Expires:  expires,
		Path:     "/",
	})
}

func (h *AuthController) Login(c *fiber.Ctx) error {
	var req authTypes.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error:  "Invalid request body",
			Status: fiber.StatusBadRequest,
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, err)
	}

	username := req.Username
	if username == "" {
		username = h.adminUsername
	}

	now := time.Now().UTC()
	meta := lockout.ClientMeta{IPAddress: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
	outcome, err := h.guard.AttemptLogin(c.UserContext(), username, req.Password, meta, now)
	if err != nil {
		return utils.RespondError(c, err)
	}
	metrics.LoginAttempts.WithLabelValues(outcome.Status.String()).Inc()

	switch outcome.Status {
	case lockout.Authenticated:
		token, expires, err := h.sessions.Issue(outcome.Admin.ID, outcome.Admin.Username, now)
		if err != nil {
			return utils.RespondError(c, err)
		}
		h.setSecureCookie(c, token, expires)
		logger.Success("Admin " + outcome.Admin.Username + " logged in from " + meta.IPAddress)

		resp := authTypes.LoginResponse{
			Message:   "Logged in successfully",
			Token:     token,
			ExpiresAt: expires.Format(time.RFC3339),
			Admin: authTypes.AdminResponse{
				ID:       outcome.Admin.ID,
				Username: outcome.Admin.Username,
			},
		}
		if outcome.Admin.LastLogin != nil {
			resp.Admin.LastLogin = outcome.Admin.LastLogin.Format(time.RFC3339)
		}
		return c.Status(fiber.StatusOK).JSON(resp)

	case lockout.LockedOut:
		seconds := int(math.Ceil(outcome.Remaining.Seconds()))
		if outcome.JustLocked {
			logger.Warning(fmt.Sprintf("Account %s locked after %d failed attempts from %s", username, h.guard.Policy().MaxAttempts, meta.IPAddress))
			err := h.notifier.Notify(c.UserContext(), notification.Input{
				Type:     model.TypeSecurity,
				Title:    "Admin account locked",
				Message:  fmt.Sprintf("Account %s was locked after %d failed login attempts.", username, h.guard.Policy().MaxAttempts),
				Priority: model.PriorityHigh,
				Data:     map[string]interface{}{"username": username, "ip_address": meta.IPAddress},
			})
			if err != nil {
				logger.Error("Failed to raise lockout notification", err)
			}
		}
		minutes := int(math.Ceil(outcome.Remaining.Minutes()))
		return c.Status(fiber.StatusLocked).JSON(authTypes.LoginFailure{
			Error:            fmt.Sprintf("Account is locked. Try again in %d minutes.", minutes),
			Status:           fiber.StatusLocked,
			RemainingSeconds: &seconds,
		})

	default:
		remaining := outcome.RemainingAttempts
		return c.Status(fiber.StatusUnauthorized).JSON(authTypes.LoginFailure{
			Error:             fmt.Sprintf("Invalid credentials. %d attempts remaining.", remaining),
			Status:            fiber.StatusUnauthorized,
			RemainingAttempts: &remaining,
		})
	}
}

func (h *AuthController) Logout(c *fiber.Ctx) error {
	if identity, ok := middleware.CurrentAdmin(c); ok {
		h.sessions.Revoke(identity)
	}
	h.setSecureCookie(c, "", time.Unix(0, 0))
	return c.JSON(types.ApiResponse{Message: "Logged out", Status: fiber.StatusOK})
}

func (h *AuthController) ChangePassword(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentAdmin(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
			Error:  "Authentication required",
			Status: fiber.StatusUnauthorized,
		})
	}

	var req authTypes.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
			Error:  "Invalid request body",
			Status: fiber.StatusBadRequest,
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, err)
	}

	err := h.store.ChangePassword(c.UserContext(), identity.AdminID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		return utils.RespondError(c, err)
	}
	// Every session issued under the old password ends here, this one included.
	h.sessions.RevokeAll(identity.AdminID)
	h.setSecureCookie(c, "", time.Unix(0, 0))
	logger.Success("Password changed for admin " + identity.Username)
	return c.JSON(types.ApiResponse{Message: "Password changed successfully. Please log in again.", Status: fiber.StatusOK})
}

// LoginHistory lists the most recent login attempts.
func (h *AuthController) LoginHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	logs, err := h.guard.RecentAttempts(c.UserContext(), limit)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return c.JSON(types.ApiResponse{Message: "Login history fetched", Status: fiber.StatusOK, Data: logs})
}
