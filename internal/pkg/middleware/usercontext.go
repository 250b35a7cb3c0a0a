package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/app/repository"
	"github.com/ManuelReschke/PixelShop/internal/pkg/token"
	"github.com/ManuelReschke/PixelShop/internal/pkg/usercontext"
)

// Authenticate resolves the caller from a bearer token or the access_token cookie
// and stores the user context. Requests without a usable token, or whose user is
// gone or disabled, continue anonymously; RequireAuth rejects them where needed.
func Authenticate(tokens *token.Service, tx repository.Transactor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := extractAccessToken(c)
		if raw == "" {
			return c.Next()
		}

		claims, err := tokens.ParseAccess(raw)
		if err != nil {
			return c.Next()
		}
		userID, err := claims.UserID()
		if err != nil {
			return c.Next()
		}

		var user *models.User
		err = tx.ReadOnly(c.UserContext(), func(repos *repository.Repositories) error {
			user, err = repos.User.GetByID(userID)
			return err
		})
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Errorf("[Auth] Failed to load user %s: %v", userID, err)
			}
			return c.Next()
		}
		if !user.Active {
			return c.Next()
		}

		usercontext.Set(c, usercontext.FromUser(user))
		return c.Next()
	}
}

func extractAccessToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(c.Cookies(usercontext.AccessCookie))
}
