package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/PixelShop/app/models"
)

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(token *models.RefreshToken) error {
	return r.db.Create(token).Error
}

func (r *refreshTokenRepository) GetByHash(hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.db.Where("token_hash = ?", hash).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepository) GetByHashForUpdate(hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token_hash = ?", hash).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepository) Revoke(id uuid.UUID) error {
	return r.db.Model(&models.RefreshToken{}).Where("id = ?", id).Update("revoked", true).Error
}

// RevokeAllByUser revokes every live token of the user and returns how many changed
func (r *refreshTokenRepository) RevokeAllByUser(userID uuid.UUID) (int64, error) {
	res := r.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}

func (r *refreshTokenRepository) DeleteExpiredAndRevoked(now time.Time) (int64, error) {
	res := r.db.Where("expires_at < ? OR revoked = ?", now, true).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
