package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Provider identifies where a credential comes from.
type Provider string

const (
	ProviderLocal  Provider = "LOCAL"
	ProviderGoogle Provider = "GOOGLE"
	ProviderGitHub Provider = "GITHUB"
)

// ParseOAuthProvider maps an OAuth registration name (as used in routes and by goth)
// to a Provider. LOCAL is never an OAuth provider.
func ParseOAuthProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "google":
		return ProviderGoogle, nil
	case "github":
		return ProviderGitHub, nil
	default:
		return "", fmt.Errorf("unsupported oauth provider: %q", name)
	}
}

// GothName returns the provider name registered with goth.
func (p Provider) GothName() string {
	switch p {
	case ProviderGoogle:
		return "google"
	case ProviderGitHub:
		return "github"
	case ProviderLocal:
		return ""
	}
	return ""
}

// AuthProvider links a user to a credential: the local password or an external identity.
// A user holds at most one link per provider kind.
type AuthProvider struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_user_provider" json:"user_id"`
	Provider   Provider  `gorm:"type:varchar(20);not null;uniqueIndex:idx_provider_uid;uniqueIndex:idx_user_provider" json:"provider"`
	ProviderID string    `gorm:"type:varchar(191);not null;uniqueIndex:idx_provider_uid" json:"provider_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (p *AuthProvider) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
