package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelShop/internal/pkg/catalog"
	"github.com/ManuelReschke/PixelShop/internal/pkg/response"
)

type SpriteController struct {
	sprites *catalog.SpriteService
}

func NewSpriteController(sprites *catalog.SpriteService) *SpriteController {
	return &SpriteController{sprites: sprites}
}

func spriteFilter(c *fiber.Ctx) (catalog.SpriteFilter, error) {
	ids, err := queryIDs(c, "categoryIds")
	if err != nil {
		return catalog.SpriteFilter{}, err
	}
	return catalog.SpriteFilter{
		CategoryIDs: ids,
		Keyword:     c.Query("keyword"),
		SortBy:      c.Query("sortBy"),
		SortOrder:   c.Query("sortOrder", "desc"),
		Page:        c.QueryInt("page", 0),
		Size:        c.QueryInt("size", 0),
	}, nil
}

func (h *SpriteController) HandleList(c *fiber.Ctx) error {
	f, err := spriteFilter(c)
	if err != nil {
		return err
	}
	page, err := h.sprites.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return response.OK(c, "", page)
}

func (h *SpriteController) HandleListMine(c *fiber.Ctx) error {
	f, err := spriteFilter(c)
	if err != nil {
		return err
	}
	page, err := h.sprites.ListMine(c.UserContext(), actor(c), f)
	if err != nil {
		return err
	}
	return response.OK(c, "", page)
}

func (h *SpriteController) HandleListByUser(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	f, err := spriteFilter(c)
	if err != nil {
		return err
	}
	page, err := h.sprites.ListByUser(c.UserContext(), userID, f)
	if err != nil {
		return err
	}
	return response.OK(c, "", page)
}

func (h *SpriteController) HandleTrash(c *fiber.Ctx) error {
	page, err := h.sprites.Trash(c.UserContext(), actor(c), c.QueryInt("page", 0), c.QueryInt("size", 0))
	if err != nil {
		return err
	}
	return response.OK(c, "", page)
}

func (h *SpriteController) HandleGet(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	sprite, err := h.sprites.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "", sprite)
}

func (h *SpriteController) HandleCreate(c *fiber.Ctx) error {
	var in catalog.SpriteInput
	if err := bindMultipartData(c, &in); err != nil {
		return err
	}
	image, err := formImage(c, "image")
	if err != nil {
		return err
	}
	sprite, err := h.sprites.Create(c.UserContext(), actor(c), in, image)
	if err != nil {
		return err
	}
	return response.Created(c, "Sprite created successfully", sprite)
}

func (h *SpriteController) HandleUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in catalog.SpriteInput
	if err := bindMultipartData(c, &in); err != nil {
		return err
	}
	image, err := formImage(c, "image")
	if err != nil {
		return err
	}
	sprite, err := h.sprites.Update(c.UserContext(), actor(c), id, in, image)
	if err != nil {
		return err
	}
	return response.OK(c, "Sprite updated successfully", sprite)
}

func (h *SpriteController) HandleDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.sprites.Delete(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	return response.OK(c, "Sprite moved to trash", nil)
}

func (h *SpriteController) HandleRestore(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	sprite, err := h.sprites.Restore(c.UserContext(), actor(c), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Sprite restored successfully", sprite)
}

func (h *SpriteController) HandlePermanentDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.sprites.PermanentDelete(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	return response.OK(c, "Sprite permanently deleted", nil)
}
