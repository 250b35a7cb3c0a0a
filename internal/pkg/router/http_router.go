package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelShop/internal/pkg/middleware"
	"github.com/ManuelReschke/PixelShop/internal/pkg/response"
)

type HttpRouter struct {
	deps Deps
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Resolve the caller once for every request
	app.Use(middleware.Authenticate(h.deps.Tokens, h.deps.Tx))

	app.Get("/health", func(c *fiber.Ctx) error {
		return response.OK(c, "ok", nil)
	})

	if h.deps.UploadsDir != "" {
		app.Static("/uploads", h.deps.UploadsDir, fiber.Static{
			CacheDuration: 10 * time.Second,
			MaxAge:        604800, // 7 days
		})
	}
}

func NewHttpRouter(deps Deps) *HttpRouter {
	return &HttpRouter{deps: deps}
}
