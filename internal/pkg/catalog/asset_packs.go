package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/app/repository"
	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/media"
	"github.com/ManuelReschke/PixelShop/internal/pkg/pagination"
	"github.com/ManuelReschke/PixelShop/internal/pkg/storage"
)

const (
	MsgAssetPackNotFound   = "Asset pack not found"
	MsgAssetPackNotDeleted = "Asset pack is not deleted"
	MsgSpriteRequired      = "At least one sprite is required"
	MsgNoValidSprites      = "No valid sprites found for the given IDs"
	AssetPackFolder        = "asset-packs"
	AssetPackKind          = "asset_pack"
)

type AssetPackFilter struct {
	CategoryIDs []uuid.UUID
	Keyword     string
	MinPrice    *float64
	MaxPrice    *float64
	SortBy      string
	SortOrder   string
	Page        int
	Size        int
}

type AssetPackInput struct {
	Name        string      `json:"name" validate:"required,max=150"`
	Description string      `json:"description" validate:"max=5000"`
	Price       *float64    `json:"price" validate:"required,gte=0"`
	SpriteIDs   []uuid.UUID `json:"spriteIds" validate:"required"`
}

type AssetPackService struct {
	tx     repository.Transactor
	images *media.Uploader
	now    func() time.Time
}

func NewAssetPackService(tx repository.Transactor, images *media.Uploader) *AssetPackService {
	return &AssetPackService{tx: tx, images: images, now: time.Now}
}

func (s *AssetPackService) query(f AssetPackFilter, defaultSize int) (repository.AssetPackQuery, pagination.Request, error) {
	sortBy, desc, err := sortOrder(f.SortBy, f.SortOrder, "name", "price", "createdAt", "updatedAt")
	if err != nil {
		return repository.AssetPackQuery{}, pagination.Request{}, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return repository.AssetPackQuery{}, pagination.Request{}, apperr.BadRequest("minPrice must not exceed maxPrice")
	}
	req := pagination.NewRequest(f.Page, f.Size, defaultSize)
	return repository.AssetPackQuery{
		CategoryIDs: f.CategoryIDs,
		Keyword:     strings.TrimSpace(f.Keyword),
		MinPrice:    f.MinPrice,
		MaxPrice:    f.MaxPrice,
		SortBy:      sortBy,
		Desc:        desc,
		Offset:      req.Offset(),
		Limit:       req.Size,
	}, req, nil
}

func (s *AssetPackService) find(ctx context.Context, q repository.AssetPackQuery, req pagination.Request) (*pagination.Page[AssetPackDTO], error) {
	var page pagination.Page[AssetPackDTO]
	err := s.tx.ReadOnly(ctx, func(repos *repository.Repositories) error {
		items, total, err := repos.AssetPack.Find(q)
		if err != nil {
			return err
		}
		dtos := make([]AssetPackDTO, 0, len(items))
		for _, it := range items {
			dtos = append(dtos, assetPackDTO(it))
		}
		page = pagination.New(dtos, req, total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *AssetPackService) List(ctx context.Context, f AssetPackFilter) (*pagination.Page[AssetPackDTO], error) {
	q, req, err := s.query(f, defaultPageSize)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, q, req)
}

func (s *AssetPackService) ListMine(ctx context.Context, actor Actor, f AssetPackFilter) (*pagination.Page[AssetPackDTO], error) {
	q, req, err := s.query(f, defaultPageSize)
	if err != nil {
		return nil, err
	}
	q.CreatedByID = &actor.ID
	return s.find(ctx, q, req)
}

func (s *AssetPackService) ListByUser(ctx context.Context, userID uuid.UUID, f AssetPackFilter) (*pagination.Page[AssetPackDTO], error) {
	q, req, err := s.query(f, defaultPageSize)
	if err != nil {
		return nil, err
	}
	if err := ensureUser(ctx, s.tx, userID); err != nil {
		return nil, err
	}
	q.CreatedByID = &userID
	return s.find(ctx, q, req)
}

func (s *AssetPackService) Trash(ctx context.Context, actor Actor, page, size int) (*pagination.Page[AssetPackDTO], error) {
	req := pagination.NewRequest(page, size, defaultTrashSize)
	q := repository.AssetPackQuery{
		Deleted: true,
		SortBy:  "deletedAt",
		Desc:    true,
		Offset:  req.Offset(),
		Limit:   req.Size,
	}
	if !actor.Admin {
		q.CreatedByID = &actor.ID
	}
	return s.find(ctx, q, req)
}

func (s *AssetPackService) Get(ctx context.Context, id uuid.UUID) (*AssetPackDTO, error) {
	var dto AssetPackDTO
	err := s.tx.ReadOnly(ctx, func(repos *repository.Repositories) error {
		pack, err := loadAssetPack(repos, id)
		if err != nil {
			return err
		}
		if pack.IsDeleted() {
			return apperr.NotFound(MsgAssetPackNotFound)
		}
		dto = assetPackDTO(*pack)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *AssetPackService) Create(ctx context.Context, actor Actor, in AssetPackInput, image *media.File) (*AssetPackDTO, error) {
	if len(in.SpriteIDs) == 0 {
		return nil, apperr.BadRequest(MsgSpriteRequired)
	}
	if image.Empty() {
		return nil, apperr.BadRequest(MsgImageRequired)
	}

	stored, err := s.images.Upload(ctx, image, AssetPackFolder)
	if err != nil {
		return nil, err
	}

	var dto AssetPackDTO
	err = s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		sprites, err := resolveSprites(repos, in.SpriteIDs)
		if err != nil {
			return err
		}
		slug, err := uniqueSlug(Slugify(in.Name), repos.AssetPack.ExistsBySlug)
		if err != nil {
			return err
		}

		pack := &models.AssetPack{
			Name:          strings.TrimSpace(in.Name),
			Slug:          slug,
			Description:   in.Description,
			Price:         priceOf(in.Price),
			ImageURL:      stored.URL,
			ImagePublicID: stored.PublicID,
			Sprites:       sprites,
			CreatedByID:   actor.ID,
		}
		if err := repos.AssetPack.Create(pack); err != nil {
			return fmt.Errorf("create asset pack: %w", err)
		}

		created, err := repos.AssetPack.GetByID(pack.ID)
		if err != nil {
			return err
		}
		dto = assetPackDTO(*created)
		return nil
	})
	if err != nil {
		s.images.Release(ctx, stored.PublicID)
		return nil, err
	}

	log.Infof("[Catalog] Asset pack %s created by %s with %d sprites", dto.ID, actor.ID, dto.SpriteCount)
	return &dto, nil
}

func (s *AssetPackService) Update(ctx context.Context, actor Actor, id uuid.UUID, in AssetPackInput, image *media.File) (*AssetPackDTO, error) {
	if len(in.SpriteIDs) == 0 {
		return nil, apperr.BadRequest(MsgSpriteRequired)
	}

	var stored *storage.Stored
	if !image.Empty() {
		up, err := s.images.Upload(ctx, image, AssetPackFolder)
		if err != nil {
			return nil, err
		}
		stored = &up
	}

	var (
		dto      AssetPackDTO
		released string
	)
	err := s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		pack, err := loadAssetPack(repos, id)
		if err != nil {
			return err
		}
		if err := actor.authorize(pack.CreatedByID); err != nil {
			return err
		}
		sprites, err := resolveSprites(repos, in.SpriteIDs)
		if err != nil {
			return err
		}

		pack.Name = strings.TrimSpace(in.Name)
		pack.Description = in.Description
		pack.Price = priceOf(in.Price)
		if stored != nil {
			released = pack.ImagePublicID
			pack.ImageURL = stored.URL
			pack.ImagePublicID = stored.PublicID
		}
		if err := repos.AssetPack.Update(pack); err != nil {
			return fmt.Errorf("update asset pack: %w", err)
		}
		if err := repos.AssetPack.ReplaceSprites(pack, sprites); err != nil {
			return fmt.Errorf("replace sprites: %w", err)
		}
		dto = assetPackDTO(*pack)
		return nil
	})
	if err != nil {
		if stored != nil {
			s.images.Release(ctx, stored.PublicID)
		}
		return nil, err
	}

	s.images.Release(ctx, released)
	return &dto, nil
}

func (s *AssetPackService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		pack, err := loadAssetPack(repos, id)
		if err != nil {
			return err
		}
		if err := actor.authorize(pack.CreatedByID); err != nil {
			return err
		}
		if pack.IsDeleted() {
			return nil
		}
		now := s.now()
		return repos.AssetPack.SetDeletedAt(pack.ID, &now)
	})
}

func (s *AssetPackService) Restore(ctx context.Context, actor Actor, id uuid.UUID) (*AssetPackDTO, error) {
	var dto AssetPackDTO
	err := s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		pack, err := loadAssetPack(repos, id)
		if err != nil {
			return err
		}
		if err := actor.authorize(pack.CreatedByID); err != nil {
			return err
		}
		if !pack.IsDeleted() {
			return apperr.BadRequest(MsgAssetPackNotDeleted)
		}
		if err := repos.AssetPack.SetDeletedAt(pack.ID, nil); err != nil {
			return err
		}
		pack.DeletedAt = nil
		dto = assetPackDTO(*pack)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *AssetPackService) PermanentDelete(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.hardDelete(ctx, id, &actor)
}

func (s *AssetPackService) hardDelete(ctx context.Context, id uuid.UUID, actor *Actor) error {
	var publicID string
	err := s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		pack, err := loadAssetPack(repos, id)
		if err != nil {
			return err
		}
		if actor != nil {
			if err := actor.authorize(pack.CreatedByID); err != nil {
				return err
			}
		}
		publicID = pack.ImagePublicID
		return repos.AssetPack.Delete(pack)
	})
	if err != nil {
		return err
	}
	s.images.Release(ctx, publicID)
	return nil
}

func (s *AssetPackService) Kind() string { return AssetPackKind }

func (s *AssetPackService) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.tx.ReadOnly(ctx, func(repos *repository.Repositories) error {
		packs, err := repos.AssetPack.ListDeletedBefore(cutoff)
		if err != nil {
			return err
		}
		for _, p := range packs {
			ids = append(ids, p.ID)
		}
		return nil
	})
	return ids, err
}

func (s *AssetPackService) HardDelete(ctx context.Context, id uuid.UUID) error {
	return s.hardDelete(ctx, id, nil)
}

func loadAssetPack(repos *repository.Repositories, id uuid.UUID) (*models.AssetPack, error) {
	pack, err := repos.AssetPack.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(MsgAssetPackNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load asset pack: %w", err)
	}
	return pack, nil
}

// resolveSprites loads the active sprites among ids. Unknown or trashed ids are skipped.
func resolveSprites(repos *repository.Repositories, ids []uuid.UUID) ([]models.Sprite, error) {
	sprites, err := repos.Sprite.GetActiveByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("load sprites: %w", err)
	}
	if len(sprites) == 0 {
		return nil, apperr.BadRequest(MsgNoValidSprites)
	}
	return sprites, nil
}

func priceOf(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
