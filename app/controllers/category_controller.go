package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelShop/internal/pkg/catalog"
	"github.com/ManuelReschke/PixelShop/internal/pkg/response"
)

type CategoryController struct {
	categories *catalog.CategoryService
}

func NewCategoryController(categories *catalog.CategoryService) *CategoryController {
	return &CategoryController{categories: categories}
}

func (h *CategoryController) HandleList(c *fiber.Ctx) error {
	list, err := h.categories.List(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, "", list)
}

func (h *CategoryController) HandleGet(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	category, err := h.categories.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "", category)
}

func (h *CategoryController) HandleCreate(c *fiber.Ctx) error {
	var in catalog.CategoryInput
	if err := bind(c, &in); err != nil {
		return err
	}
	category, err := h.categories.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return response.Created(c, "Category created successfully", category)
}

func (h *CategoryController) HandleUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in catalog.CategoryInput
	if err := bind(c, &in); err != nil {
		return err
	}
	category, err := h.categories.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return response.OK(c, "Category updated successfully", category)
}

func (h *CategoryController) HandleDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.categories.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return response.OK(c, "Category deleted successfully", nil)
}
