package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/auth"
	"github.com/ManuelReschke/PixelShop/internal/pkg/response"
	"github.com/ManuelReschke/PixelShop/internal/pkg/usercontext"
)

const MsgCaptchaFailed = "Captcha verification failed"

// CaptchaVerifier is satisfied by *hcaptcha.Verifier.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) error
}

type sendOTPRequest struct {
	Email        string `json:"email" validate:"required,email,max=200"`
	CaptchaToken string `json:"hCaptchaToken"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type setupPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type AuthController struct {
	auth    *auth.Service
	captcha CaptchaVerifier
	cookies CookieConfig
	otpTTL  time.Duration
}

// NewAuthController wires the auth endpoints. captcha may be nil to disable the check.
func NewAuthController(svc *auth.Service, captcha CaptchaVerifier, cookies CookieConfig, otpTTL time.Duration) *AuthController {
	return &AuthController{auth: svc, captcha: captcha, cookies: cookies, otpTTL: otpTTL}
}

func (h *AuthController) otpSentMessage() string {
	return fmt.Sprintf("OTP sent. Valid for %d minutes.", int(h.otpTTL.Minutes()))
}

func (h *AuthController) checkCaptcha(c *fiber.Ctx, token string) error {
	if h.captcha == nil {
		return nil
	}
	if err := h.captcha.Verify(c.UserContext(), token); err != nil {
		log.Warnf("[Auth] Captcha rejected for %s: %v", c.IP(), err)
		return apperr.BadRequest(MsgCaptchaFailed)
	}
	return nil
}

func (h *AuthController) HandleSendRegisterOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.checkCaptcha(c, req.CaptchaToken); err != nil {
		return err
	}
	if err := h.auth.SendRegistrationOTP(c.UserContext(), req.Email); err != nil {
		return err
	}
	return response.OK(c, h.otpSentMessage(), nil)
}

func (h *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req auth.RegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	h.cookies.setTokens(c, result.AccessToken, result.RefreshToken)
	return response.Created(c, "Registration successful.", result)
}

func (h *AuthController) HandleSendResetOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.checkCaptcha(c, req.CaptchaToken); err != nil {
		return err
	}
	if err := h.auth.SendResetPasswordOTP(c.UserContext(), req.Email); err != nil {
		return err
	}
	return response.OK(c, h.otpSentMessage(), nil)
}

func (h *AuthController) HandleResetPassword(c *fiber.Ctx) error {
	var req auth.ResetPasswordInput
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.auth.ResetPassword(c.UserContext(), req)
	if err != nil {
		return err
	}
	h.cookies.setTokens(c, result.AccessToken, result.RefreshToken)
	return response.OK(c, "Password reset successful.", result)
}

func (h *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.cookies.setTokens(c, result.AccessToken, result.RefreshToken)
	return response.OK(c, "Login successful.", result)
}

// presentedRefresh prefers the cookie and falls back to the JSON body.
func presentedRefresh(c *fiber.Ctx) string {
	if raw := c.Cookies(usercontext.RefreshCookie); raw != "" {
		return raw
	}
	var req refreshRequest
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&req)
	}
	return req.RefreshToken
}

func (h *AuthController) HandleRefresh(c *fiber.Ctx) error {
	raw := presentedRefresh(c)
	if raw == "" {
		return apperr.Unauthorized(auth.MsgTokenMissing)
	}
	result, err := h.auth.Refresh(c.UserContext(), raw)
	if err != nil {
		if apperr.StatusOf(err) == fiber.StatusUnauthorized {
			h.cookies.clear(c)
		}
		return err
	}
	h.cookies.setTokens(c, result.AccessToken, result.RefreshToken)
	return response.OK(c, "Token refreshed.", result)
}

func (h *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), presentedRefresh(c)); err != nil {
		return err
	}
	h.cookies.clear(c)
	return response.OK(c, "Logout successful.", nil)
}

func (h *AuthController) HandleMe(c *fiber.Ctx) error {
	user, err := h.auth.Me(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return err
	}
	return response.OK(c, "", user)
}

func (h *AuthController) HandleSetupPassword(c *fiber.Ctx) error {
	var req setupPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.auth.SetupPassword(c.UserContext(), usercontext.GetUserID(c), req.Password)
	if err != nil {
		return err
	}
	return response.OK(c, "Password set successfully.", user)
}
