package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelShop/app/controllers"
	"github.com/ManuelReschke/PixelShop/app/repository"
	"github.com/ManuelReschke/PixelShop/internal/pkg/token"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Handlers bundles the controllers mounted by the routers.
type Handlers struct {
	Auth       *controllers.AuthController
	OAuth      *controllers.OAuthController
	Sprites    *controllers.SpriteController
	AssetPacks *controllers.AssetPackController
	Categories *controllers.CategoryController
	Users      *controllers.UserController
	Admin      *controllers.AdminController
}

type Deps struct {
	Handlers Handlers
	Tokens   *token.Service
	Tx       repository.Transactor
	// LimiterStorage keeps rate limit counters, in memory when nil.
	LimiterStorage fiber.Storage
	// UploadsDir is served under /uploads when files are stored locally.
	UploadsDir string
}

func InstallRouter(app *fiber.App, deps Deps) {
	// HttpRouter installs the authentication middleware the API routes rely on.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}

