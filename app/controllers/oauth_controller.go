package controllers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/auth"
	"github.com/ManuelReschke/PixelShop/internal/pkg/oauth"
)

const MsgProviderUnavailable = "OAuth provider is not available"

type OAuthController struct {
	auth        *auth.Service
	cookies     CookieConfig
	frontendURL string
	enabled     map[models.Provider]bool
}

func NewOAuthController(svc *auth.Service, cookies CookieConfig, frontendURL string, enabled []models.Provider) *OAuthController {
	m := make(map[models.Provider]bool, len(enabled))
	for _, p := range enabled {
		m[p] = true
	}
	return &OAuthController{
		auth:        svc,
		cookies:     cookies,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		enabled:     m,
	}
}

func (h *OAuthController) provider(c *fiber.Ctx) (models.Provider, error) {
	p, err := models.ParseOAuthProvider(c.Params("provider"))
	if err != nil || !h.enabled[p] {
		return "", apperr.NotFound(MsgProviderUnavailable)
	}
	return p, nil
}

// HandleBegin redirects to the provider's consent page.
func (h *OAuthController) HandleBegin(c *fiber.Ctx) error {
	if _, err := h.provider(c); err != nil {
		return err
	}
	return gothfiber.BeginAuthHandler(c)
}

// HandleCallback finishes the provider flow, sets the auth cookies and sends the
// browser back to the frontend.
func (h *OAuthController) HandleCallback(c *fiber.Ctx) error {
	provider, err := h.provider(c)
	if err != nil {
		return h.fail(c, err.Error())
	}

	gu, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		log.Warnf("[OAuth] %s callback failed: %v", provider, err)
		return h.fail(c, "Authentication failed")
	}

	result, err := h.auth.OAuthLogin(c.UserContext(), oauth.ExtractProfile(provider, gu))
	if err != nil {
		if appErr, ok := apperr.As(err); ok {
			return h.fail(c, appErr.Message)
		}
		log.Errorf("[OAuth] %s login failed: %v", provider, err)
		return h.fail(c, "Authentication failed")
	}

	h.cookies.setTokens(c, result.AccessToken, result.RefreshToken)
	return c.Redirect(h.successURL(result), fiber.StatusFound)
}

func (h *OAuthController) successURL(result *auth.Result) string {
	if result.NeedsPasswordSetup {
		q := url.Values{"mode": {"setup-password"}, "provider": {strings.ToLower(string(result.Provider))}}
		return h.frontendURL + "?" + q.Encode()
	}
	return h.frontendURL + "/home"
}

func (h *OAuthController) fail(c *fiber.Ctx, message string) error {
	return c.Redirect(h.frontendURL+"/login?error="+url.QueryEscape(message), fiber.StatusFound)
}
