package cache

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/PixelShop/internal/pkg/config"
)

// Redis databases used by Fiber middlewares. The application client stays on DB 0.
const (
	LimiterDB      = 1
	OAuthSessionDB = 2
)

// NewFiberStorage returns a fiber.Storage on the given Redis database of the cache server.
func NewFiberStorage(cfg config.Cache, database int) fiber.Storage {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		port = 6379
	}
	return redisstorage.New(redisstorage.Config{
		Host:     cfg.Host,
		Port:     port,
		Password: cfg.Password,
		Database: database,
		Reset:    false,
	})
}
