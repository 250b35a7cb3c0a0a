package memrepo

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/app/repository"
)

type categoryRepo struct{ s *Store }

func (r *categoryRepo) Create(category *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.Name == category.Name || c.Slug == category.Slug {
			return ErrDuplicate
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	stamp(&category.CreatedAt, &category.UpdatedAt, r.s.now())
	r.s.categories[category.ID] = *category
	return nil
}

func (r *categoryRepo) GetByID(id uuid.UUID) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *categoryRepo) GetByIDs(ids []uuid.UUID) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.s.categoriesByIDs(ids)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *categoryRepo) ExistsByName(name string, excludeID *uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.categories {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *categoryRepo) ExistsBySlug(slug string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *categoryRepo) List() ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *categoryRepo) Update(category *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[category.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	category.UpdatedAt = r.s.now()
	r.s.categories[category.ID] = *category
	return nil
}

func (r *categoryRepo) Delete(category *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.categories, category.ID)
	for sid, ids := range r.s.spriteCats {
		r.s.spriteCats[sid] = without(ids, category.ID)
	}
	return nil
}

// categoriesByIDs must be called with mu held.
func (s *Store) categoriesByIDs(ids []uuid.UUID) []models.Category {
	out := make([]models.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// hydrateSprite must be called with mu held.
func (s *Store) hydrateSprite(sp models.Sprite) models.Sprite {
	sp.Categories = s.categoriesByIDs(s.spriteCats[sp.ID])
	if u, ok := s.users[sp.CreatedByID]; ok {
		sp.CreatedBy = &u
	}
	return sp
}

func (s *Store) hydratePack(p models.AssetPack) models.AssetPack {
	p.Sprites = nil
	for _, id := range s.packSprites[p.ID] {
		if sp, ok := s.sprites[id]; ok {
			p.Sprites = append(p.Sprites, s.hydrateSprite(sp))
		}
	}
	if u, ok := s.users[p.CreatedByID]; ok {
		p.CreatedBy = &u
	}
	return p
}

func without(ids []uuid.UUID, drop uuid.UUID) []uuid.UUID {
	out := ids[:0:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func categoryIDsOf(categories []models.Category) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	return ids
}

type spriteRepo struct{ s *Store }

func (r *spriteRepo) Create(sprite *models.Sprite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sp := range r.s.sprites {
		if sp.Slug == sprite.Slug {
			return ErrDuplicate
		}
	}
	if sprite.ID == uuid.Nil {
		sprite.ID = uuid.New()
	}
	stamp(&sprite.CreatedAt, &sprite.UpdatedAt, r.s.now())
	r.s.spriteCats[sprite.ID] = categoryIDsOf(sprite.Categories)
	stored := *sprite
	stored.Categories = nil
	stored.CreatedBy = nil
	r.s.sprites[sprite.ID] = stored
	return nil
}

func (r *spriteRepo) GetByID(id uuid.UUID) (*models.Sprite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sp, ok := r.s.sprites[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	sp = r.s.hydrateSprite(sp)
	return &sp, nil
}

func (r *spriteRepo) GetActiveByIDs(ids []uuid.UUID) ([]models.Sprite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Sprite
	for _, id := range ids {
		if sp, ok := r.s.sprites[id]; ok && sp.DeletedAt == nil {
			out = append(out, r.s.hydrateSprite(sp))
		}
	}
	return out, nil
}

func (r *spriteRepo) ExistsBySlug(slug string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sp := range r.s.sprites {
		if sp.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *spriteRepo) Find(q repository.SpriteQuery) ([]models.Sprite, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kw := strings.ToLower(strings.TrimSpace(q.Keyword))
	var out []models.Sprite
	for _, sp := range r.s.sprites {
		if (sp.DeletedAt != nil) != q.Deleted {
			continue
		}
		if q.CreatedByID != nil && sp.CreatedByID != *q.CreatedByID {
			continue
		}
		if kw != "" && !strings.Contains(strings.ToLower(sp.Name), kw) {
			continue
		}
		if len(q.CategoryIDs) > 0 && !anyIn(r.s.spriteCats[sp.ID], q.CategoryIDs) {
			continue
		}
		out = append(out, r.s.hydrateSprite(sp))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if q.Desc {
			a, b = b, a
		}
		return lessBy(q.SortBy, a.Name, b.Name, a.CreatedAt, b.CreatedAt, a.UpdatedAt, b.UpdatedAt, 0, 0)
	})
	return paginate(out, q.Offset, q.Limit), int64(len(out)), nil
}

func (r *spriteRepo) Update(sprite *models.Sprite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sprites[sprite.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	sprite.UpdatedAt = r.s.now()
	stored := *sprite
	stored.Categories = nil
	stored.CreatedBy = nil
	r.s.sprites[sprite.ID] = stored
	return nil
}

func (r *spriteRepo) ReplaceCategories(sprite *models.Sprite, categories []models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.spriteCats[sprite.ID] = categoryIDsOf(categories)
	sprite.Categories = categories
	return nil
}

func (r *spriteRepo) SetDeletedAt(id uuid.UUID, at *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sp, ok := r.s.sprites[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	sp.DeletedAt = at
	r.s.sprites[id] = sp
	return nil
}

func (r *spriteRepo) Delete(sprite *models.Sprite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sprites, sprite.ID)
	delete(r.s.spriteCats, sprite.ID)
	for pid, ids := range r.s.packSprites {
		r.s.packSprites[pid] = without(ids, sprite.ID)
	}
	return nil
}

func (r *spriteRepo) ListDeletedBefore(cutoff time.Time) ([]models.Sprite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Sprite
	for _, sp := range r.s.sprites {
		if sp.DeletedAt != nil && sp.DeletedAt.Before(cutoff) {
			out = append(out, sp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DeletedAt.Before(*out[j].DeletedAt) })
	return out, nil
}

type packRepo struct{ s *Store }

func (r *packRepo) Create(pack *models.AssetPack) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.packs {
		if p.Slug == pack.Slug {
			return ErrDuplicate
		}
	}
	if pack.ID == uuid.Nil {
		pack.ID = uuid.New()
	}
	stamp(&pack.CreatedAt, &pack.UpdatedAt, r.s.now())
	ids := make([]uuid.UUID, 0, len(pack.Sprites))
	for _, sp := range pack.Sprites {
		ids = append(ids, sp.ID)
	}
	r.s.packSprites[pack.ID] = ids
	stored := *pack
	stored.Sprites = nil
	stored.CreatedBy = nil
	r.s.packs[pack.ID] = stored
	return nil
}

func (r *packRepo) GetByID(id uuid.UUID) (*models.AssetPack, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.packs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	p = r.s.hydratePack(p)
	return &p, nil
}

func (r *packRepo) ExistsBySlug(slug string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.packs {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *packRepo) Find(q repository.AssetPackQuery) ([]models.AssetPack, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kw := strings.ToLower(strings.TrimSpace(q.Keyword))
	var out []models.AssetPack
	for _, p := range r.s.packs {
		if (p.DeletedAt != nil) != q.Deleted {
			continue
		}
		if q.CreatedByID != nil && p.CreatedByID != *q.CreatedByID {
			continue
		}
		if kw != "" && !containsAny(kw, p.Name, p.Description) {
			continue
		}
		if q.MinPrice != nil && p.Price < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && p.Price > *q.MaxPrice {
			continue
		}
		if len(q.CategoryIDs) > 0 {
			match := false
			for _, sid := range r.s.packSprites[p.ID] {
				if anyIn(r.s.spriteCats[sid], q.CategoryIDs) {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, r.s.hydratePack(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if q.Desc {
			a, b = b, a
		}
		return lessBy(q.SortBy, a.Name, b.Name, a.CreatedAt, b.CreatedAt, a.UpdatedAt, b.UpdatedAt, a.Price, b.Price)
	})
	return paginate(out, q.Offset, q.Limit), int64(len(out)), nil
}

func (r *packRepo) Update(pack *models.AssetPack) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.packs[pack.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	pack.UpdatedAt = r.s.now()
	stored := *pack
	stored.Sprites = nil
	stored.CreatedBy = nil
	r.s.packs[pack.ID] = stored
	return nil
}

func (r *packRepo) ReplaceSprites(pack *models.AssetPack, sprites []models.Sprite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(sprites))
	for _, sp := range sprites {
		ids = append(ids, sp.ID)
	}
	r.s.packSprites[pack.ID] = ids
	pack.Sprites = sprites
	return nil
}

func (r *packRepo) SetDeletedAt(id uuid.UUID, at *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.packs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.DeletedAt = at
	r.s.packs[id] = p
	return nil
}

func (r *packRepo) Delete(pack *models.AssetPack) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.packs, pack.ID)
	delete(r.s.packSprites, pack.ID)
	return nil
}

func (r *packRepo) ListDeletedBefore(cutoff time.Time) ([]models.AssetPack, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.AssetPack
	for _, p := range r.s.packs {
		if p.DeletedAt != nil && p.DeletedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DeletedAt.Before(*out[j].DeletedAt) })
	return out, nil
}

func anyIn(have, want []uuid.UUID) bool {
	for _, id := range want {
		if containsID(have, id) {
			return true
		}
	}
	return false
}

func lessBy(sortBy, nameA, nameB string, createdA, createdB, updatedA, updatedB time.Time, priceA, priceB float64) bool {
	switch sortBy {
	case "name":
		return nameA < nameB
	case "updatedAt":
		return updatedA.Before(updatedB)
	case "price":
		return priceA < priceB
	default:
		return createdA.Before(createdB)
	}
}
