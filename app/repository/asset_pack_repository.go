package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/models"
)

var assetPackSortColumns = map[string]string{
	"name":      "name",
	"price":     "price",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"deletedAt": "deleted_at",
}

type assetPackRepository struct {
	db *gorm.DB
}

func NewAssetPackRepository(db *gorm.DB) AssetPackRepository {
	return &assetPackRepository{db: db}
}

func (r *assetPackRepository) Create(pack *models.AssetPack) error {
	return r.db.Omit("Sprites.*").Create(pack).Error
}

func (r *assetPackRepository) GetByID(id uuid.UUID) (*models.AssetPack, error) {
	var pack models.AssetPack
	err := r.db.Preload("Sprites.Categories").Preload("CreatedBy").
		Where("id = ?", id).
		First(&pack).Error
	if err != nil {
		return nil, err
	}
	return &pack, nil
}

func (r *assetPackRepository) ExistsBySlug(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.AssetPack{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *assetPackRepository) Find(q AssetPackQuery) ([]models.AssetPack, int64, error) {
	query := withDeleted(r.db.Model(&models.AssetPack{}), q.Deleted)
	if q.CreatedByID != nil {
		query = query.Where("created_by_id = ?", *q.CreatedByID)
	}
	query = withKeyword(query, q.Keyword, "name", "description")
	if q.MinPrice != nil {
		query = query.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("price <= ?", *q.MaxPrice)
	}
	if len(q.CategoryIDs) > 0 {
		query = query.Where(
			`EXISTS (SELECT 1 FROM asset_pack_sprites aps
				JOIN sprite_categories sc ON sc.sprite_id = aps.sprite_id
				WHERE aps.asset_pack_id = asset_packs.id AND sc.category_id IN ?)`,
			q.CategoryIDs,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var packs []models.AssetPack
	err := query.Preload("Sprites.Categories").Preload("CreatedBy").
		Order(orderBy(assetPackSortColumns, q.SortBy, q.Desc, "created_at")).
		Offset(q.Offset).Limit(q.Limit).
		Find(&packs).Error
	return packs, total, err
}

func (r *assetPackRepository) Update(pack *models.AssetPack) error {
	return r.db.Omit("Sprites", "CreatedBy").Save(pack).Error
}

func (r *assetPackRepository) ReplaceSprites(pack *models.AssetPack, sprites []models.Sprite) error {
	return r.db.Model(pack).Omit("Sprites.*").Association("Sprites").Replace(sprites)
}

func (r *assetPackRepository) SetDeletedAt(id uuid.UUID, at *time.Time) error {
	return r.db.Model(&models.AssetPack{}).Where("id = ?", id).Update("deleted_at", at).Error
}

// Delete removes the row together with its sprite join rows
func (r *assetPackRepository) Delete(pack *models.AssetPack) error {
	return r.db.Select("Sprites").Delete(pack).Error
}

func (r *assetPackRepository) ListDeletedBefore(cutoff time.Time) ([]models.AssetPack, error) {
	var packs []models.AssetPack
	err := r.db.Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Order("deleted_at ASC").
		Find(&packs).Error
	return packs, err
}
