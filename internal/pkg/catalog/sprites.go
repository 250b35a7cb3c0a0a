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
	MsgSpriteNotFound   = "Sprite not found"
	MsgSpriteNotDeleted = "Sprite is not deleted"
	MsgCategoryRequired = "At least one category is required"
	SpriteFolder        = "sprites"
	SpriteKind          = "sprite"
)

type SpriteFilter struct {
	CategoryIDs []uuid.UUID
	Keyword     string
	SortBy      string
	SortOrder   string
	Page        int
	Size        int
}

type SpriteInput struct {
	Name        string      `json:"name" validate:"required,max=150"`
	CategoryIDs []uuid.UUID `json:"categoryIds" validate:"required"`
}

type SpriteService struct {
	tx     repository.Transactor
	images *media.Uploader
	now    func() time.Time
}

func NewSpriteService(tx repository.Transactor, images *media.Uploader) *SpriteService {
	return &SpriteService{tx: tx, images: images, now: time.Now}
}

func (s *SpriteService) query(f SpriteFilter, defaultSize int) (repository.SpriteQuery, pagination.Request, error) {
	sortBy, desc, err := sortOrder(f.SortBy, f.SortOrder, "name", "createdAt", "updatedAt")
	if err != nil {
		return repository.SpriteQuery{}, pagination.Request{}, err
	}
	req := pagination.NewRequest(f.Page, f.Size, defaultSize)
	return repository.SpriteQuery{
		CategoryIDs: f.CategoryIDs,
		Keyword:     strings.TrimSpace(f.Keyword),
		SortBy:      sortBy,
		Desc:        desc,
		Offset:      req.Offset(),
		Limit:       req.Size,
	}, req, nil
}

func (s *SpriteService) find(ctx context.Context, q repository.SpriteQuery, req pagination.Request) (*pagination.Page[SpriteSummary], error) {
	var page pagination.Page[SpriteSummary]
	err := s.tx.ReadOnly(ctx, func(repos *repository.Repositories) error {
		items, total, err := repos.Sprite.Find(q)
		if err != nil {
			return err
		}
		summaries := make([]SpriteSummary, 0, len(items))
		for _, it := range items {
			summaries = append(summaries, spriteSummary(it))
		}
		page = pagination.New(summaries, req, total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// List returns active sprites matching the filter.
func (s *SpriteService) List(ctx context.Context, f SpriteFilter) (*pagination.Page[SpriteSummary], error) {
	q, req, err := s.query(f, defaultPageSize)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, q, req)
}

// ListMine returns the caller's active sprites.
func (s *SpriteService) ListMine(ctx context.Context, actor Actor, f SpriteFilter) (*pagination.Page[SpriteSummary], error) {
	q, req, err := s.query(f, defaultPageSize)
	if err != nil {
		return nil, err
	}
	q.CreatedByID = &actor.ID
	return s.find(ctx, q, req)
}

// ListByUser returns the active sprites of another user.
func (s *SpriteService) ListByUser(ctx context.Context, userID uuid.UUID, f SpriteFilter) (*pagination.Page[SpriteSummary], error) {
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

// Trash lists soft-deleted sprites, most recently deleted first. Admins see every
// user's trash.
func (s *SpriteService) Trash(ctx context.Context, actor Actor, page, size int) (*pagination.Page[SpriteSummary], error) {
	req := pagination.NewRequest(page, size, defaultTrashSize)
	q := repository.SpriteQuery{
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

func (s *SpriteService) Get(ctx context.Context, id uuid.UUID) (*SpriteDTO, error) {
	var dto *SpriteDTO
	err := s.tx.ReadOnly(ctx, func(repos *repository.Repositories) error {
		sprite, err := loadSprite(repos, id)
		if err != nil {
			return err
		}
		if sprite.IsDeleted() {
			return apperr.NotFound(MsgSpriteNotFound)
		}
		dto = spriteDTO(sprite)
		return nil
	})
	return dto, err
}

func (s *SpriteService) Create(ctx context.Context, actor Actor, in SpriteInput, image *media.File) (*SpriteDTO, error) {
	if len(in.CategoryIDs) == 0 {
		return nil, apperr.BadRequest(MsgCategoryRequired)
	}
	if image.Empty() {
		return nil, apperr.BadRequest(MsgImageRequired)
	}

	stored, err := s.images.Upload(ctx, image, SpriteFolder)
	if err != nil {
		return nil, err
	}

	var dto *SpriteDTO
	err = s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		categories, err := resolveCategories(repos, in.CategoryIDs)
		if err != nil {
			return err
		}
		slug, err := uniqueSlug(Slugify(in.Name), repos.Sprite.ExistsBySlug)
		if err != nil {
			return err
		}

		sprite := &models.Sprite{
			Name:          strings.TrimSpace(in.Name),
			Slug:          slug,
			ImageURL:      stored.URL,
			ImagePublicID: stored.PublicID,
			Categories:    categories,
			CreatedByID:   actor.ID,
		}
		if err := repos.Sprite.Create(sprite); err != nil {
			return fmt.Errorf("create sprite: %w", err)
		}

		created, err := repos.Sprite.GetByID(sprite.ID)
		if err != nil {
			return err
		}
		dto = spriteDTO(created)
		return nil
	})
	if err != nil {
		s.images.Release(ctx, stored.PublicID)
		return nil, err
	}

	log.Infof("[Catalog] Sprite %s created by %s", dto.ID, actor.ID)
	return dto, nil
}

// Update replaces name and categories and, when image is given, the image. The
// previous image is only released after the change has committed.
func (s *SpriteService) Update(ctx context.Context, actor Actor, id uuid.UUID, in SpriteInput, image *media.File) (*SpriteDTO, error) {
	if len(in.CategoryIDs) == 0 {
		return nil, apperr.BadRequest(MsgCategoryRequired)
	}

	var stored *storage.Stored
	if !image.Empty() {
		up, err := s.images.Upload(ctx, image, SpriteFolder)
		if err != nil {
			return nil, err
		}
		stored = &up
	}

	var (
		dto      *SpriteDTO
		released string
	)
	err := s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		sprite, err := loadSprite(repos, id)
		if err != nil {
			return err
		}
		if err := actor.authorize(sprite.CreatedByID); err != nil {
			return err
		}
		categories, err := resolveCategories(repos, in.CategoryIDs)
		if err != nil {
			return err
		}

		sprite.Name = strings.TrimSpace(in.Name)
		if stored != nil {
			released = sprite.ImagePublicID
			sprite.ImageURL = stored.URL
			sprite.ImagePublicID = stored.PublicID
		}
		if err := repos.Sprite.Update(sprite); err != nil {
			return fmt.Errorf("update sprite: %w", err)
		}
		if err := repos.Sprite.ReplaceCategories(sprite, categories); err != nil {
			return fmt.Errorf("replace categories: %w", err)
		}
		dto = spriteDTO(sprite)
		return nil
	})
	if err != nil {
		if stored != nil {
			s.images.Release(ctx, stored.PublicID)
		}
		return nil, err
	}

	s.images.Release(ctx, released)
	return dto, nil
}

// Delete moves the sprite to the trash.
func (s *SpriteService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		sprite, err := loadSprite(repos, id)
		if err != nil {
			return err
		}
		if err := actor.authorize(sprite.CreatedByID); err != nil {
			return err
		}
		if sprite.IsDeleted() {
			return nil
		}
		now := s.now()
		return repos.Sprite.SetDeletedAt(sprite.ID, &now)
	})
}

func (s *SpriteService) Restore(ctx context.Context, actor Actor, id uuid.UUID) (*SpriteDTO, error) {
	var dto *SpriteDTO
	err := s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		sprite, err := loadSprite(repos, id)
		if err != nil {
			return err
		}
		if err := actor.authorize(sprite.CreatedByID); err != nil {
			return err
		}
		if !sprite.IsDeleted() {
			return apperr.BadRequest(MsgSpriteNotDeleted)
		}
		if err := repos.Sprite.SetDeletedAt(sprite.ID, nil); err != nil {
			return err
		}
		sprite.DeletedAt = nil
		dto = spriteDTO(sprite)
		return nil
	})
	return dto, err
}

// PermanentDelete removes the sprite row, its category and asset pack links, and
// then its image.
func (s *SpriteService) PermanentDelete(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.hardDelete(ctx, id, &actor)
}

func (s *SpriteService) hardDelete(ctx context.Context, id uuid.UUID, actor *Actor) error {
	var publicID string
	err := s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		sprite, err := loadSprite(repos, id)
		if err != nil {
			return err
		}
		if actor != nil {
			if err := actor.authorize(sprite.CreatedByID); err != nil {
				return err
			}
		}
		publicID = sprite.ImagePublicID
		return repos.Sprite.Delete(sprite)
	})
	if err != nil {
		return err
	}
	s.images.Release(ctx, publicID)
	return nil
}

func (s *SpriteService) Kind() string { return SpriteKind }

// ListDeletedBefore returns the ids of sprites trashed before cutoff.
func (s *SpriteService) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.tx.ReadOnly(ctx, func(repos *repository.Repositories) error {
		sprites, err := repos.Sprite.ListDeletedBefore(cutoff)
		if err != nil {
			return err
		}
		for _, sp := range sprites {
			ids = append(ids, sp.ID)
		}
		return nil
	})
	return ids, err
}

func (s *SpriteService) HardDelete(ctx context.Context, id uuid.UUID) error {
	return s.hardDelete(ctx, id, nil)
}

func loadSprite(repos *repository.Repositories, id uuid.UUID) (*models.Sprite, error) {
	sprite, err := repos.Sprite.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(MsgSpriteNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load sprite: %w", err)
	}
	return sprite, nil
}

func resolveCategories(repos *repository.Repositories, ids []uuid.UUID) ([]models.Category, error) {
	categories, err := repos.Category.GetByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if len(categories) == 0 {
		return nil, apperr.BadRequest(MsgCategoryRequired)
	}
	return categories, nil
}

func ensureUser(ctx context.Context, tx repository.Transactor, userID uuid.UUID) error {
	return tx.ReadOnly(ctx, func(repos *repository.Repositories) error {
		_, err := repos.User.GetByID(userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(MsgUserNotFound)
		}
		return err
	})
}
