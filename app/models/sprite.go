package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Sprite struct {
	ID            uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Name          string     `gorm:"type:varchar(150);not null" json:"name"`
	Slug          string     `gorm:"type:varchar(191);uniqueIndex;not null" json:"slug"`
	ImageURL      string     `gorm:"type:varchar(500);not null" json:"image_url"`
	ImagePublicID string     `gorm:"type:varchar(255)" json:"-"`
	Categories    []Category `gorm:"many2many:sprite_categories;" json:"categories"`
	CreatedByID   uuid.UUID  `gorm:"type:char(36);index;not null" json:"created_by_id"`
	CreatedBy     *User      `gorm:"foreignKey:CreatedByID" json:"-"`
	DeletedAt     *time.Time `gorm:"index;default:null" json:"deleted_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Sprite) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Sprite) IsDeleted() bool {
	return s.DeletedAt != nil
}

// OwnedBy reports whether the sprite was created by the given user.
func (s *Sprite) OwnedBy(userID uuid.UUID) bool {
	return s.CreatedByID == userID
}
