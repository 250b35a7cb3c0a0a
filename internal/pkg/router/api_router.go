package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/PixelShop/internal/pkg/middleware"
	"github.com/ManuelReschke/PixelShop/internal/pkg/response"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

type ApiRouter struct {
	deps Deps
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/", func(c *fiber.Ctx) error {
		return response.OK(c, "Hello from api", nil)
	})

	v1 := api.Group("/v1")
	hs := h.deps.Handlers

	// AUTH
	limited := limiter.New(limiter.Config{
		Max:        authRateLimit,
		Expiration: authRateWindow,
		Storage:    h.deps.LimiterStorage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "auth:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Fail(c, fiber.StatusTooManyRequests, "Too many requests, please try again later.", nil)
		},
	})
	authGroup := v1.Group("/auth")
	authGroup.Post("/register/send-otp", limited, hs.Auth.HandleSendRegisterOTP)
	authGroup.Post("/register", limited, hs.Auth.HandleRegister)
	authGroup.Post("/reset-password/send-otp", limited, hs.Auth.HandleSendResetOTP)
	authGroup.Post("/reset-password", limited, hs.Auth.HandleResetPassword)
	authGroup.Post("/login", limited, hs.Auth.HandleLogin)
	authGroup.Post("/refresh", hs.Auth.HandleRefresh)
	authGroup.Post("/logout", hs.Auth.HandleLogout)
	authGroup.Get("/me", middleware.RequireAuth, hs.Auth.HandleMe)
	authGroup.Post("/setup-password", middleware.RequireAuth, hs.Auth.HandleSetupPassword)
	if hs.OAuth != nil {
		authGroup.Get("/oauth/:provider", hs.OAuth.HandleBegin)
		authGroup.Get("/oauth/:provider/callback", hs.OAuth.HandleCallback)
	}

	// SPRITES
	sprites := v1.Group("/sprites")
	sprites.Get("/", hs.Sprites.HandleList)
	sprites.Get("/me", middleware.RequireAuth, hs.Sprites.HandleListMine)
	sprites.Get("/trash", middleware.RequireAuth, hs.Sprites.HandleTrash)
	sprites.Get("/user/:userId", middleware.RequireAdmin, hs.Sprites.HandleListByUser)
	sprites.Get("/:id", hs.Sprites.HandleGet)
	sprites.Post("/", middleware.RequireAuth, hs.Sprites.HandleCreate)
	sprites.Put("/:id", middleware.RequireAuth, hs.Sprites.HandleUpdate)
	sprites.Delete("/:id", middleware.RequireAuth, hs.Sprites.HandleDelete)
	sprites.Patch("/:id/restore", middleware.RequireAuth, hs.Sprites.HandleRestore)
	sprites.Delete("/:id/permanent", middleware.RequireAuth, hs.Sprites.HandlePermanentDelete)

	// ASSET PACKS
	packs := v1.Group("/asset-packs")
	packs.Get("/", hs.AssetPacks.HandleList)
	packs.Get("/me", middleware.RequireAuth, hs.AssetPacks.HandleListMine)
	packs.Get("/trash", middleware.RequireAuth, hs.AssetPacks.HandleTrash)
	packs.Get("/user/:userId", middleware.RequireAdmin, hs.AssetPacks.HandleListByUser)
	packs.Get("/:id", hs.AssetPacks.HandleGet)
	packs.Post("/", middleware.RequireAuth, hs.AssetPacks.HandleCreate)
	packs.Put("/:id", middleware.RequireAuth, hs.AssetPacks.HandleUpdate)
	packs.Delete("/:id", middleware.RequireAuth, hs.AssetPacks.HandleDelete)
	packs.Patch("/:id/restore", middleware.RequireAuth, hs.AssetPacks.HandleRestore)
	packs.Delete("/:id/permanent", middleware.RequireAuth, hs.AssetPacks.HandlePermanentDelete)

	// CATEGORIES
	categories := v1.Group("/categories")
	categories.Get("/", hs.Categories.HandleList)
	categories.Get("/:id", hs.Categories.HandleGet)
	categories.Post("/", middleware.RequireAdmin, hs.Categories.HandleCreate)
	categories.Put("/:id", middleware.RequireAdmin, hs.Categories.HandleUpdate)
	categories.Delete("/:id", middleware.RequireAdmin, hs.Categories.HandleDelete)

	// USERS
	users := v1.Group("/users")
	users.Get("/", middleware.RequireAdmin, hs.Users.HandleList)
	users.Put("/me", middleware.RequireAuth, hs.Users.HandleUpdateMe)
	users.Post("/me/avatar", middleware.RequireAuth, hs.Users.HandleUpdateAvatar)

	// ADMIN
	admin := v1.Group("/admin", middleware.RequireAdmin)
	admin.Post("/cleanup", hs.Admin.HandleCleanup)
}

func NewApiRouter(deps Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}
