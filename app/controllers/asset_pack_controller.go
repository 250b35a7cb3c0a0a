package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelShop/internal/pkg/catalog"
	"github.com/ManuelReschke/PixelShop/internal/pkg/response"
)

type AssetPackController struct {
	packs *catalog.AssetPackService
}

func NewAssetPackController(packs *catalog.AssetPackService) *AssetPackController {
	return &AssetPackController{packs: packs}
}

func assetPackFilter(c *fiber.Ctx) (catalog.AssetPackFilter, error) {
	ids, err := queryIDs(c, "categoryIds")
	if err != nil {
		return catalog.AssetPackFilter{}, err
	}
	minPrice, err := queryFloat(c, "minPrice")
	if err != nil {
		return catalog.AssetPackFilter{}, err
	}
	maxPrice, err := queryFloat(c, "maxPrice")
	if err != nil {
		return catalog.AssetPackFilter{}, err
	}
	return catalog.AssetPackFilter{
		CategoryIDs: ids,
		Keyword:     c.Query("keyword"),
		MinPrice:    minPrice,
		MaxPrice:    maxPrice,
		SortBy:      c.Query("sortBy"),
		SortOrder:   c.Query("sortOrder", "desc"),
		Page:        c.QueryInt("page", 0),
		Size:        c.QueryInt("size", 0),
	}, nil
}

func (h *AssetPackController) HandleList(c *fiber.Ctx) error {
	f, err := assetPackFilter(c)
	if err != nil {
		return err
	}
	page, err := h.packs.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return response.OK(c, "", page)
}

func (h *AssetPackController) HandleListMine(c *fiber.Ctx) error {
	f, err := assetPackFilter(c)
	if err != nil {
		return err
	}
	page, err := h.packs.ListMine(c.UserContext(), actor(c), f)
	if err != nil {
		return err
	}
	return response.OK(c, "", page)
}

func (h *AssetPackController) HandleListByUser(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	f, err := assetPackFilter(c)
	if err != nil {
		return err
	}
	page, err := h.packs.ListByUser(c.UserContext(), userID, f)
	if err != nil {
		return err
	}
	return response.OK(c, "", page)
}

func (h *AssetPackController) HandleTrash(c *fiber.Ctx) error {
	page, err := h.packs.Trash(c.UserContext(), actor(c), c.QueryInt("page", 0), c.QueryInt("size", 0))
	if err != nil {
		return err
	}
	return response.OK(c, "", page)
}

func (h *AssetPackController) HandleGet(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	pack, err := h.packs.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "", pack)
}

func (h *AssetPackController) HandleCreate(c *fiber.Ctx) error {
	var in catalog.AssetPackInput
	if err := bindMultipartData(c, &in); err != nil {
		return err
	}
	image, err := formImage(c, "image")
	if err != nil {
		return err
	}
	pack, err := h.packs.Create(c.UserContext(), actor(c), in, image)
	if err != nil {
		return err
	}
	return response.Created(c, "Asset pack created successfully", pack)
}

func (h *AssetPackController) HandleUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in catalog.AssetPackInput
	if err := bindMultipartData(c, &in); err != nil {
		return err
	}
	image, err := formImage(c, "image")
	if err != nil {
		return err
	}
	pack, err := h.packs.Update(c.UserContext(), actor(c), id, in, image)
	if err != nil {
		return err
	}
	return response.OK(c, "Asset pack updated successfully", pack)
}

func (h *AssetPackController) HandleDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.packs.Delete(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	return response.OK(c, "Asset pack moved to trash", nil)
}

func (h *AssetPackController) HandleRestore(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	pack, err := h.packs.Restore(c.UserContext(), actor(c), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Asset pack restored successfully", pack)
}

func (h *AssetPackController) HandlePermanentDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.packs.PermanentDelete(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	return response.OK(c, "Asset pack permanently deleted", nil)
}
