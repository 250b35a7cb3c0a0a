package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelShop/app/models"
)

func TestCategoryCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.cats.Create(ctx, CategoryInput{Name: "  Sci-Fi Ships ", Description: "space"})
	require.NoError(t, err)
	assert.Equal(t, "Sci-Fi Ships", c.Name)
	assert.Equal(t, "sci-fi-ships", c.Slug)

	_, err = f.cats.Create(ctx, CategoryInput{Name: "Sci-Fi Ships"})
	assertStatus(t, err, statusConflict, MsgCategoryExists)
}

func TestCategoryListIsCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCategory(t, "Tiles")
	f.addCategory(t, "Heroes")

	first, err := f.cats.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "Heroes", first[0].Name)
	assert.True(t, f.cache.has(CategoriesCacheKey))

	// A row written behind the service's back stays invisible until eviction.
	require.NoError(t, f.store.Repositories().Category.Create(&models.Category{Name: "Hidden", Slug: "hidden"}))
	cached, err := f.cats.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	f.addCategory(t, "Items")
	assert.False(t, f.cache.has(CategoriesCacheKey))

	fresh, err := f.cats.List(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 4)
}

func TestCategoryListWithoutCache(t *testing.T) {
	f := newFixture(t)
	f.cats = NewCategoryService(f.store, nil)
	f.addCategory(t, "Tiles")

	list, err := f.cats.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCategoryUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tiles := f.addCategory(t, "Tiles")
	f.addCategory(t, "Heroes")
	_, err := f.cats.List(ctx)
	require.NoError(t, err)

	_, err = f.cats.Update(ctx, tiles, CategoryInput{Name: "Heroes"})
	assertStatus(t, err, statusConflict, MsgCategoryExists)

	same, err := f.cats.Update(ctx, tiles, CategoryInput{Name: "Tiles", Description: "ground"})
	require.NoError(t, err)
	assert.Equal(t, "tiles", same.Slug)
	assert.Equal(t, "ground", same.Description)

	renamed, err := f.cats.Update(ctx, tiles, CategoryInput{Name: "Terrain Tiles"})
	require.NoError(t, err)
	assert.Equal(t, "terrain-tiles", renamed.Slug)
	assert.False(t, f.cache.has(CategoriesCacheKey))

	_, err = f.cats.Update(ctx, uuid.New(), CategoryInput{Name: "x"})
	assertStatus(t, err, statusNotFound, MsgCategoryNotFound)
}

func TestCategoryDeleteDetachesSprites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hero := f.addCategory(t, "Heroes")
	tile := f.addCategory(t, "Tiles")
	sprite := f.addSprite(t, f.owner, "Knight", hero, tile)

	require.NoError(t, f.cats.Delete(ctx, hero))

	got, err := f.sprites.Get(ctx, sprite.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tiles"}, got.CategoryNames)

	_, err = f.cats.Get(ctx, hero)
	assertStatus(t, err, statusNotFound, MsgCategoryNotFound)
	assertStatus(t, f.cats.Delete(ctx, hero), statusNotFound, MsgCategoryNotFound)
}
