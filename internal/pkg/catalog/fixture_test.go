package catalog

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/app/repository/memrepo"
	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/PixelShop/internal/pkg/media"
	"github.com/ManuelReschke/PixelShop/internal/pkg/storage/storagetest"
)

type fixture struct {
	store   *memrepo.Store
	files   *storagetest.MemoryStore
	sprites *SpriteService
	packs   *AssetPackService
	cats    *CategoryService
	cache   *memoryCache

	owner Actor
	other Actor
	admin Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memrepo.New()
	files := storagetest.NewMemoryStore()
	uploader := media.NewUploader(files, imageprocessor.New(1), nil)
	c := newMemoryCache()

	f := &fixture{
		store:   store,
		files:   files,
		sprites: NewSpriteService(store, uploader),
		packs:   NewAssetPackService(store, uploader),
		cats:    NewCategoryService(store, c),
		cache:   c,
	}
	f.owner = Actor{ID: f.addUser(t, "owner")}
	f.other = Actor{ID: f.addUser(t, "other")}
	f.admin = Actor{ID: f.addUser(t, "admin"), Admin: true}
	return f
}

func (f *fixture) addUser(t *testing.T, username string) uuid.UUID {
	t.Helper()
	u := &models.User{Email: username + "@example.com", Username: username, Role: models.RoleUser, Verified: true, Active: true}
	require.NoError(t, f.store.Repositories().User.Create(u))
	return u.ID
}

func (f *fixture) addCategory(t *testing.T, name string) uuid.UUID {
	t.Helper()
	dto, err := f.cats.Create(context.Background(), CategoryInput{Name: name})
	require.NoError(t, err)
	return dto.ID
}

func (f *fixture) addSprite(t *testing.T, actor Actor, name string, categories ...uuid.UUID) *SpriteDTO {
	t.Helper()
	dto, err := f.sprites.Create(context.Background(), actor, SpriteInput{Name: name, CategoryIDs: categories}, pngFile(t))
	require.NoError(t, err)
	return dto
}

func pngFile(t *testing.T) *media.File {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &media.File{Filename: "sprite.png", Data: buf.Bytes()}
}

func assertStatus(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T: %v", err, err)
	assert.Equal(t, status, appErr.Status)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

var (
	statusBadRequest = http.StatusBadRequest
	statusForbidden  = http.StatusForbidden
	statusNotFound   = http.StatusNotFound
	statusConflict   = http.StatusConflict
)

type memoryCache struct {
	mu      sync.Mutex
	data    map[string][]CategoryDTO
	gets    int
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]CategoryDTO{}}
}

func (c *memoryCache) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	*(dst.(*[]CategoryDTO)) = append([]CategoryDTO(nil), v...)
	return true, nil
}

func (c *memoryCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value.([]CategoryDTO)
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.data, key)
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}
