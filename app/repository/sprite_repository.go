package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/models"
)

var spriteSortColumns = map[string]string{
	"name":      "name",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"deletedAt": "deleted_at",
}

type spriteRepository struct {
	db *gorm.DB
}

func NewSpriteRepository(db *gorm.DB) SpriteRepository {
	return &spriteRepository{db: db}
}

// Create inserts the sprite and its category links without touching the categories themselves
func (r *spriteRepository) Create(sprite *models.Sprite) error {
	return r.db.Omit("Categories.*", "CreatedBy").Create(sprite).Error
}

func (r *spriteRepository) GetByID(id uuid.UUID) (*models.Sprite, error) {
	var sprite models.Sprite
	err := r.db.Preload("Categories").Preload("CreatedBy").
		Where("id = ?", id).
		First(&sprite).Error
	if err != nil {
		return nil, err
	}
	return &sprite, nil
}

func (r *spriteRepository) GetActiveByIDs(ids []uuid.UUID) ([]models.Sprite, error) {
	var sprites []models.Sprite
	if len(ids) == 0 {
		return sprites, nil
	}
	err := r.db.Preload("Categories").
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&sprites).Error
	return sprites, err
}

func (r *spriteRepository) ExistsBySlug(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Sprite{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *spriteRepository) Find(q SpriteQuery) ([]models.Sprite, int64, error) {
	query := withDeleted(r.db.Model(&models.Sprite{}), q.Deleted)
	if q.CreatedByID != nil {
		query = query.Where("created_by_id = ?", *q.CreatedByID)
	}
	query = withKeyword(query, q.Keyword, "name")
	if len(q.CategoryIDs) > 0 {
		query = query.Where(
			"EXISTS (SELECT 1 FROM sprite_categories sc WHERE sc.sprite_id = sprites.id AND sc.category_id IN ?)",
			q.CategoryIDs,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sprites []models.Sprite
	err := query.Preload("Categories").Preload("CreatedBy").
		Order(orderBy(spriteSortColumns, q.SortBy, q.Desc, "created_at")).
		Offset(q.Offset).Limit(q.Limit).
		Find(&sprites).Error
	return sprites, total, err
}

// Update saves the sprite's own columns; associations are handled by ReplaceCategories
func (r *spriteRepository) Update(sprite *models.Sprite) error {
	return r.db.Omit("Categories", "CreatedBy").Save(sprite).Error
}

func (r *spriteRepository) ReplaceCategories(sprite *models.Sprite, categories []models.Category) error {
	return r.db.Model(sprite).Association("Categories").Replace(categories)
}

func (r *spriteRepository) SetDeletedAt(id uuid.UUID, at *time.Time) error {
	return r.db.Model(&models.Sprite{}).Where("id = ?", id).Update("deleted_at", at).Error
}

// Delete removes the row and its join rows in categories and asset packs
func (r *spriteRepository) Delete(sprite *models.Sprite) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM asset_pack_sprites WHERE sprite_id = ?", sprite.ID).Error; err != nil {
			return err
		}
		return tx.Select("Categories").Delete(sprite).Error
	})
}

func (r *spriteRepository) ListDeletedBefore(cutoff time.Time) ([]models.Sprite, error) {
	var sprites []models.Sprite
	err := r.db.Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Order("deleted_at ASC").
		Find(&sprites).Error
	return sprites, err
}
