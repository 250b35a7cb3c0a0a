package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelShop/internal/pkg/response"
	"github.com/ManuelReschke/PixelShop/internal/pkg/usercontext"
)

const (
	MsgAuthRequired  = "Authentication required"
	MsgAdminRequired = "Admin access required"
)

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return response.Fail(c, fiber.StatusUnauthorized, MsgAuthRequired, nil)
	}
	return c.Next()
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn {
		return response.Fail(c, fiber.StatusUnauthorized, MsgAuthRequired, nil)
	}
	if !uc.IsAdmin {
		return response.Fail(c, fiber.StatusForbidden, MsgAdminRequired, nil)
	}
	return c.Next()
}
