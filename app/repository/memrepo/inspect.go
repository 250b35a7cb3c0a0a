package memrepo

import (
	"time"

	"github.com/google/uuid"

	"github.com/ManuelReschke/PixelShop/app/models"
)

// SetClock overrides the time source used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// ProvidersOf lists the provider kinds linked to a user.
func (s *Store) ProvidersOf(userID uuid.UUID) []models.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Provider
	for _, p := range s.providers {
		if p.UserID == userID {
			out = append(out, p.Provider)
		}
	}
	return out
}

// TokensOf returns the persisted refresh tokens of a user.
func (s *Store) TokensOf(userID uuid.UUID) []models.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RefreshToken
	for _, t := range s.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) SpriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sprites)
}

func (s *Store) AssetPackCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.packs)
}
