package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/models"
)

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

func (r *categoryRepository) GetByID(id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) GetByIDs(ids []uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	if len(ids) == 0 {
		return categories, nil
	}
	err := r.db.Where("id IN ?", ids).Order("name ASC").Find(&categories).Error
	return categories, err
}

// ExistsByName checks for a category with the given name, optionally ignoring one ID (for updates)
func (r *categoryRepository) ExistsByName(name string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.Model(&models.Category{}).Where("name = ?", name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) ExistsBySlug(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Category{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) List() ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) Update(category *models.Category) error {
	return r.db.Save(category).Error
}

// Delete removes the category together with its sprite join rows
func (r *categoryRepository) Delete(category *models.Category) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM sprite_categories WHERE category_id = ?", category.ID).Error; err != nil {
			return err
		}
		return tx.Delete(category).Error
	})
}
