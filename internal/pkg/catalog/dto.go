package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/ManuelReschke/PixelShop/app/models"
)

type SpriteSummary struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	ImageURL  string     `json:"imageUrl"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

type SpriteDTO struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Slug          string      `json:"slug"`
	ImageURL      string      `json:"imageUrl"`
	CategoryIDs   []uuid.UUID `json:"categoryIds"`
	CategoryNames []string    `json:"categoryNames"`
	CreatedBy     string      `json:"createdBy"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	DeletedAt     *time.Time  `json:"deletedAt,omitempty"`
}

type SpriteInfo struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	ImageURL string    `json:"imageUrl"`
}

type AssetPackDTO struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	Description   string       `json:"description"`
	Price         float64      `json:"price"`
	ImageURL      string       `json:"imageUrl"`
	SpriteCount   int          `json:"spriteCount"`
	Sprites       []SpriteInfo `json:"sprites"`
	CategoryIDs   []uuid.UUID  `json:"categoryIds"`
	CategoryNames []string     `json:"categoryNames"`
	CreatedBy     string       `json:"createdBy"`
	CreatedAt     time.Time    `json:"createdAt"`
	DeletedAt     *time.Time   `json:"deletedAt,omitempty"`
}

type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func spriteSummary(s models.Sprite) SpriteSummary {
	return SpriteSummary{
		ID:        s.ID,
		Name:      s.Name,
		Slug:      s.Slug,
		ImageURL:  s.ImageURL,
		CreatedAt: s.CreatedAt,
		DeletedAt: s.DeletedAt,
	}
}

func spriteDTO(s *models.Sprite) *SpriteDTO {
	ids, names := categoryColumns(s.Categories)
	return &SpriteDTO{
		ID:            s.ID,
		Name:          s.Name,
		Slug:          s.Slug,
		ImageURL:      s.ImageURL,
		CategoryIDs:   ids,
		CategoryNames: names,
		CreatedBy:     creatorName(s.CreatedBy),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		DeletedAt:     s.DeletedAt,
	}
}

func assetPackDTO(p models.AssetPack) AssetPackDTO {
	sprites := make([]SpriteInfo, 0, len(p.Sprites))
	for _, s := range p.Sprites {
		sprites = append(sprites, SpriteInfo{ID: s.ID, Name: s.Name, ImageURL: s.ImageURL})
	}
	ids, names := categoryColumns(p.CategoriesOfSprites())
	return AssetPackDTO{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		Price:         p.Price,
		ImageURL:      p.ImageURL,
		SpriteCount:   len(p.Sprites),
		Sprites:       sprites,
		CategoryIDs:   ids,
		CategoryNames: names,
		CreatedBy:     creatorName(p.CreatedBy),
		CreatedAt:     p.CreatedAt,
		DeletedAt:     p.DeletedAt,
	}
}

func categoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func categoryColumns(categories []models.Category) ([]uuid.UUID, []string) {
	ids := make([]uuid.UUID, 0, len(categories))
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
		names = append(names, c.Name)
	}
	return ids, names
}

func creatorName(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
