package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelShop/internal/pkg/account"
	"github.com/ManuelReschke/PixelShop/internal/pkg/response"
	"github.com/ManuelReschke/PixelShop/internal/pkg/usercontext"
)

type UserController struct {
	accounts *account.Service
}

func NewUserController(accounts *account.Service) *UserController {
	return &UserController{accounts: accounts}
}

// HandleList is the admin user listing.
func (h *UserController) HandleList(c *fiber.Ctx) error {
	page, err := h.accounts.List(c.UserContext(), c.Query("keyword"), c.QueryInt("page", 0), c.QueryInt("size", 0))
	if err != nil {
		return err
	}
	return response.OK(c, "", page)
}

func (h *UserController) HandleUpdateMe(c *fiber.Ctx) error {
	var in account.ProfileInput
	if err := bind(c, &in); err != nil {
		return err
	}
	user, err := h.accounts.UpdateProfile(c.UserContext(), usercontext.GetUserID(c), in)
	if err != nil {
		return err
	}
	return response.OK(c, "Profile updated successfully", user)
}

func (h *UserController) HandleUpdateAvatar(c *fiber.Ctx) error {
	file, err := formImage(c, "file")
	if err != nil {
		return err
	}
	user, err := h.accounts.UpdateAvatar(c.UserContext(), usercontext.GetUserID(c), file)
	if err != nil {
		return err
	}
	return response.OK(c, "Avatar updated successfully", user)
}
