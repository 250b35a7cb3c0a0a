package usercontext

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ManuelReschke/PixelShop/app/models"
)

// UserContext represents the authenticated caller of a request
type UserContext struct {
	UserID     uuid.UUID   `json:"user_id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	IsLoggedIn bool        `json:"is_logged_in"`
	IsAdmin    bool        `json:"is_admin"`
}

// FromUser builds the context of a logged-in user.
func FromUser(u *models.User) UserContext {
	return UserContext{
		UserID:     u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		IsLoggedIn: true,
		IsAdmin:    u.IsAdmin(),
	}
}

// Set stores uc on the request together with the flat compatibility locals.
func Set(c *fiber.Ctx, uc UserContext) {
	c.Locals(LocalsKey, uc)
	c.Locals(KeyUserID, uc.UserID)
	c.Locals(KeyUsername, uc.Username)
	c.Locals(KeyIsAdmin, uc.IsAdmin)
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if uc, ok := c.Locals(LocalsKey).(UserContext); ok {
		return uc
	}
	return UserContext{}
}

func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

// GetUserID returns the current user's ID, or uuid.Nil if not logged in
func GetUserID(c *fiber.Ctx) uuid.UUID {
	return GetUserContext(c).UserID
}
