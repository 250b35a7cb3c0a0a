// Package storagetest provides an in-memory FileStore for tests.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ManuelReschke/PixelShop/internal/pkg/storage"
)

var ErrUnavailable = errors.New("storage unavailable")

type MemoryStore struct {
	mu      sync.Mutex
	seq     int
	files   map[string][]byte
	deleted []string

	FailUpload bool
	FailDelete bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: map[string][]byte{}}
}

func (m *MemoryStore) Upload(ctx context.Context, data []byte, folder, ext string) (storage.Stored, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpload {
		return storage.Stored{}, ErrUnavailable
	}
	m.seq++
	key := fmt.Sprintf("%s/%d%s", folder, m.seq, ext)
	m.files[key] = append([]byte(nil), data...)
	return storage.Stored{URL: "https://cdn.test/" + key, PublicID: key}, nil
}

func (m *MemoryStore) Delete(ctx context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete {
		return ErrUnavailable
	}
	delete(m.files, publicID)
	m.deleted = append(m.deleted, publicID)
	return nil
}

func (m *MemoryStore) Has(publicID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[publicID]
	return ok
}

func (m *MemoryStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func (m *MemoryStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
