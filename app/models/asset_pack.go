package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssetPack struct {
	ID            uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Name          string     `gorm:"type:varchar(150);not null" json:"name"`
	Slug          string     `gorm:"type:varchar(191);uniqueIndex;not null" json:"slug"`
	Description   string     `gorm:"type:text;default:null" json:"description"`
	Price         float64    `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	ImageURL      string     `gorm:"type:varchar(500)" json:"image_url"`
	ImagePublicID string     `gorm:"type:varchar(255)" json:"-"`
	Sprites       []Sprite   `gorm:"many2many:asset_pack_sprites;" json:"sprites"`
	CreatedByID   uuid.UUID  `gorm:"type:char(36);index;not null" json:"created_by_id"`
	CreatedBy     *User      `gorm:"foreignKey:CreatedByID" json:"-"`
	DeletedAt     *time.Time `gorm:"index;default:null" json:"deleted_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *AssetPack) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *AssetPack) IsDeleted() bool {
	return p.DeletedAt != nil
}

func (p *AssetPack) OwnedBy(userID uuid.UUID) bool {
	return p.CreatedByID == userID
}

// CategoriesOfSprites returns the distinct categories across the pack's sprites
// in first-seen order.
func (p *AssetPack) CategoriesOfSprites() []Category {
	seen := make(map[uuid.UUID]struct{})
	var out []Category
	for _, s := range p.Sprites {
		for _, c := range s.Categories {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
