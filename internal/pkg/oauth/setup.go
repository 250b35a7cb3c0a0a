package oauth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/internal/pkg/cache"
	"github.com/ManuelReschke/PixelShop/internal/pkg/config"
)

// CallbackPath is where providers redirect back to, relative to PUBLIC_DOMAIN.
func CallbackPath(p models.Provider) string {
	return "/api/v1/auth/oauth/" + p.GothName() + "/callback"
}

// Setup registers the providers that have credentials configured and points the
// goth state session at Redis. It returns the enabled providers.
func Setup(cfg *config.Config) []models.Provider {
	base := strings.TrimRight(cfg.PublicDomain, "/")

	var (
		providers []goth.Provider
		enabled   []models.Provider
	)
	if cfg.OAuth.GoogleClientID != "" {
		providers = append(providers, google.New(
			cfg.OAuth.GoogleClientID,
			cfg.OAuth.GoogleClientSecret,
			base+CallbackPath(models.ProviderGoogle),
			"email", "profile",
		))
		enabled = append(enabled, models.ProviderGoogle)
	}
	if cfg.OAuth.GitHubClientID != "" {
		providers = append(providers, github.New(
			cfg.OAuth.GitHubClientID,
			cfg.OAuth.GitHubClientSecret,
			base+CallbackPath(models.ProviderGitHub),
			"read:user", "user:email",
		))
		enabled = append(enabled, models.ProviderGitHub)
	}
	goth.UseProviders(providers...)

	gothfiber.SessionStore = session.New(session.Config{
		Storage:        cache.NewFiberStorage(cfg.Cache, cache.OAuthSessionDB),
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		Expiration:     10 * time.Minute,
	})

	if len(enabled) == 0 {
		log.Warn("[OAuth] No providers configured")
	} else {
		log.Infof("[OAuth] Enabled providers: %v", enabled)
	}
	return enabled
}
