package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	accountIDHeader   = "X-Account-ID"
	accountRoleHeader = "X-Account-Role"

	// RoleAdmin unlocks the administrative surface (freeze, reconcile, logs).
	RoleAdmin = "admin"
)

// AuthContext propagates the already-authenticated caller identity set by the
// gateway. Token verification happens upstream; this layer only requires the
// identity headers to be present and stashes them for handlers.
func AuthContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Header values alias fasthttp's reusable request buffer; copy them
		// before they outlive the request (Locals, repositories).
		accountID := utils.CopyString(strings.TrimSpace(c.Get(accountIDHeader)))
		if accountID == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing account identity")
		}
		role := utils.CopyString(strings.ToLower(strings.TrimSpace(c.Get(accountRoleHeader))))
		if role == "" {
			role = "customer"
		}

		c.Locals("account_id", accountID)
		c.Locals("account_role", role)
		return c.Next()
	}
}

// RequireAdmin gates administrative endpoints on the caller role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("account_role").(string)
		if role != RoleAdmin {
			return fiber.NewError(http.StatusForbidden, "admin role required")
		}
		return c.Next()
	}
}
