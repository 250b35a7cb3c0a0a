// Package memrepo provides in-memory implementations of the repository interfaces.
// Transactions are serialized and roll back by restoring a snapshot.
package memrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/app/repository"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users       map[uuid.UUID]models.User
	providers   map[uuid.UUID]models.AuthProvider
	tokens      map[uuid.UUID]models.RefreshToken
	categories  map[uuid.UUID]models.Category
	sprites     map[uuid.UUID]models.Sprite
	packs       map[uuid.UUID]models.AssetPack
	spriteCats  map[uuid.UUID][]uuid.UUID
	packSprites map[uuid.UUID][]uuid.UUID

	now func() time.Time
}

var _ repository.Transactor = (*Store)(nil)

func New() *Store {
	return &Store{
		users:       map[uuid.UUID]models.User{},
		providers:   map[uuid.UUID]models.AuthProvider{},
		tokens:      map[uuid.UUID]models.RefreshToken{},
		categories:  map[uuid.UUID]models.Category{},
		sprites:     map[uuid.UUID]models.Sprite{},
		packs:       map[uuid.UUID]models.AssetPack{},
		spriteCats:  map[uuid.UUID][]uuid.UUID{},
		packSprites: map[uuid.UUID][]uuid.UUID{},
		now:         time.Now,
	}
}

// Repositories returns a repository set backed by the store.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:         &userRepo{s},
		AuthProvider: &providerRepo{s},
		RefreshToken: &tokenRepo{s},
		Category:     &categoryRepo{s},
		Sprite:       &spriteRepo{s},
		AssetPack:    &packRepo{s},
	}
}

func (s *Store) Transaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(s.Repositories()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) ReadOnly(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	return s.Transaction(ctx, fn)
}

type snapshot struct {
	users       map[uuid.UUID]models.User
	providers   map[uuid.UUID]models.AuthProvider
	tokens      map[uuid.UUID]models.RefreshToken
	categories  map[uuid.UUID]models.Category
	sprites     map[uuid.UUID]models.Sprite
	packs       map[uuid.UUID]models.AssetPack
	spriteCats  map[uuid.UUID][]uuid.UUID
	packSprites map[uuid.UUID][]uuid.UUID
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		users:       cloneMap(s.users),
		providers:   cloneMap(s.providers),
		tokens:      cloneMap(s.tokens),
		categories:  cloneMap(s.categories),
		sprites:     cloneMap(s.sprites),
		packs:       cloneMap(s.packs),
		spriteCats:  cloneIDLists(s.spriteCats),
		packSprites: cloneIDLists(s.packSprites),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.providers = snap.providers
	s.tokens = snap.tokens
	s.categories = snap.categories
	s.sprites = snap.sprites
	s.packs = snap.packs
	s.spriteCats = snap.spriteCats
	s.packSprites = snap.packSprites
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneIDLists(in map[uuid.UUID][]uuid.UUID) map[uuid.UUID][]uuid.UUID {
	out := make(map[uuid.UUID][]uuid.UUID, len(in))
	for k, v := range in {
		out[k] = append([]uuid.UUID(nil), v...)
	}
	return out
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func stamp(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	*updated = now
}
