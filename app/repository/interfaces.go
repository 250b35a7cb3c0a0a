package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	ExistsByUsername(username string) (bool, error)
	Update(user *models.User) error
	Search(keyword string, offset, limit int) ([]models.User, int64, error)
}

// AuthProviderRepository defines the interface for provider link operations
type AuthProviderRepository interface {
	Create(link *models.AuthProvider) error
	ExistsByUserAndProvider(userID uuid.UUID, provider models.Provider) (bool, error)
	GetByProviderID(provider models.Provider, providerID string) (*models.AuthProvider, error)
	ListByUser(userID uuid.UUID) ([]models.AuthProvider, error)
}

// RefreshTokenRepository defines the interface for persisted refresh tokens
type RefreshTokenRepository interface {
	Create(token *models.RefreshToken) error
	GetByHash(hash string) (*models.RefreshToken, error)
	// GetByHashForUpdate locks the row until the surrounding transaction ends.
	GetByHashForUpdate(hash string) (*models.RefreshToken, error)
	Revoke(id uuid.UUID) error
	RevokeAllByUser(userID uuid.UUID) (int64, error)
	DeleteExpiredAndRevoked(now time.Time) (int64, error)
}

// CategoryRepository defines the interface for category operations
type CategoryRepository interface {
	Create(category *models.Category) error
	GetByID(id uuid.UUID) (*models.Category, error)
	GetByIDs(ids []uuid.UUID) ([]models.Category, error)
	ExistsByName(name string, excludeID *uuid.UUID) (bool, error)
	ExistsBySlug(slug string) (bool, error)
	List() ([]models.Category, error)
	Update(category *models.Category) error
	Delete(category *models.Category) error
}

// SpriteQuery filters sprite listings. Zero values mean "no filter".
type SpriteQuery struct {
	CategoryIDs []uuid.UUID
	Keyword     string
	CreatedByID *uuid.UUID
	Deleted     bool
	SortBy      string
	Desc        bool
	Offset      int
	Limit       int
}

// SpriteRepository defines the interface for sprite operations
type SpriteRepository interface {
	Create(sprite *models.Sprite) error
	// GetByID returns the sprite regardless of its soft-delete state.
	GetByID(id uuid.UUID) (*models.Sprite, error)
	GetActiveByIDs(ids []uuid.UUID) ([]models.Sprite, error)
	ExistsBySlug(slug string) (bool, error)
	Find(q SpriteQuery) ([]models.Sprite, int64, error)
	Update(sprite *models.Sprite) error
	ReplaceCategories(sprite *models.Sprite, categories []models.Category) error
	SetDeletedAt(id uuid.UUID, at *time.Time) error
	Delete(sprite *models.Sprite) error
	ListDeletedBefore(cutoff time.Time) ([]models.Sprite, error)
}

// AssetPackQuery filters asset pack listings. Category filtering goes through the
// categories of the pack's sprites.
type AssetPackQuery struct {
	CategoryIDs []uuid.UUID
	Keyword     string
	MinPrice    *float64
	MaxPrice    *float64
	CreatedByID *uuid.UUID
	Deleted     bool
	SortBy      string
	Desc        bool
	Offset      int
	Limit       int
}

// AssetPackRepository defines the interface for asset pack operations
type AssetPackRepository interface {
	Create(pack *models.AssetPack) error
	GetByID(id uuid.UUID) (*models.AssetPack, error)
	ExistsBySlug(slug string) (bool, error)
	Find(q AssetPackQuery) ([]models.AssetPack, int64, error)
	Update(pack *models.AssetPack) error
	ReplaceSprites(pack *models.AssetPack, sprites []models.Sprite) error
	SetDeletedAt(id uuid.UUID, at *time.Time) error
	Delete(pack *models.AssetPack) error
	ListDeletedBefore(cutoff time.Time) ([]models.AssetPack, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	AuthProvider AuthProviderRepository
	RefreshToken RefreshTokenRepository
	Category     CategoryRepository
	Sprite       SpriteRepository
	AssetPack    AssetPackRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		AuthProvider: NewAuthProviderRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
		Category:     NewCategoryRepository(db),
		Sprite:       NewSpriteRepository(db),
		AssetPack:    NewAssetPackRepository(db),
	}
}
