package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/models"
)

type authProviderRepository struct {
	db *gorm.DB
}

func NewAuthProviderRepository(db *gorm.DB) AuthProviderRepository {
	return &authProviderRepository{db: db}
}

func (r *authProviderRepository) Create(link *models.AuthProvider) error {
	return r.db.Create(link).Error
}

func (r *authProviderRepository) ExistsByUserAndProvider(userID uuid.UUID, provider models.Provider) (bool, error) {
	var count int64
	err := r.db.Model(&models.AuthProvider{}).
		Where("user_id = ? AND provider = ?", userID, provider).
		Count(&count).Error
	return count > 0, err
}

// GetByProviderID resolves an external identity to its link, with the owning user preloaded
func (r *authProviderRepository) GetByProviderID(provider models.Provider, providerID string) (*models.AuthProvider, error) {
	var link models.AuthProvider
	err := r.db.Preload("User").
		Where("provider = ? AND provider_id = ?", provider, providerID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *authProviderRepository) ListByUser(userID uuid.UUID) ([]models.AuthProvider, error) {
	var links []models.AuthProvider
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&links).Error
	return links, err
}
