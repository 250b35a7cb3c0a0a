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
)

const (
	MsgCategoryNotFound = "Category not found"
	MsgCategoryExists   = "Category name already exists."

	CategoriesCacheKey = "categories:all"
	CategoriesCacheTTL = time.Hour
)

// JSONCache is the subset of cache.Store the category service needs.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type CategoryService struct {
	tx    repository.Transactor
	cache JSONCache
}

// NewCategoryService creates the service. cache may be nil.
func NewCategoryService(tx repository.Transactor, cache JSONCache) *CategoryService {
	return &CategoryService{tx: tx, cache: cache}
}

// List returns all categories ordered by name. Cache failures fall back to the database.
func (s *CategoryService) List(ctx context.Context) ([]CategoryDTO, error) {
	if s.cache != nil {
		var cached []CategoryDTO
		found, err := s.cache.GetJSON(ctx, CategoriesCacheKey, &cached)
		if err != nil {
			log.Warnf("[Cache] Failed to read %s: %v", CategoriesCacheKey, err)
		} else if found {
			return cached, nil
		}
	}

	var dtos []CategoryDTO
	err := s.tx.ReadOnly(ctx, func(repos *repository.Repositories) error {
		categories, err := repos.Category.List()
		if err != nil {
			return err
		}
		dtos = make([]CategoryDTO, 0, len(categories))
		for _, c := range categories {
			dtos = append(dtos, categoryDTO(c))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, CategoriesCacheKey, dtos, CategoriesCacheTTL); err != nil {
			log.Warnf("[Cache] Failed to write %s: %v", CategoriesCacheKey, err)
		}
	}
	return dtos, nil
}

func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	var dto CategoryDTO
	err := s.tx.ReadOnly(ctx, func(repos *repository.Repositories) error {
		c, err := loadCategory(repos, id)
		if err != nil {
			return err
		}
		dto = categoryDTO(*c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(in.Name)
	var dto CategoryDTO
	err := s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		taken, err := repos.Category.ExistsByName(name, nil)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict(MsgCategoryExists)
		}
		slug, err := uniqueSlug(Slugify(name), repos.Category.ExistsBySlug)
		if err != nil {
			return err
		}

		c := &models.Category{Name: name, Slug: slug, Description: in.Description}
		if err := repos.Category.Create(c); err != nil {
			return categoryWriteError(err)
		}
		dto = categoryDTO(*c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.evict(ctx)
	return &dto, nil
}

func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, in CategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(in.Name)
	var dto CategoryDTO
	err := s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		c, err := loadCategory(repos, id)
		if err != nil {
			return err
		}
		taken, err := repos.Category.ExistsByName(name, &c.ID)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict(MsgCategoryExists)
		}

		if slug := Slugify(name); slug != c.Slug {
			c.Slug, err = uniqueSlug(slug, repos.Category.ExistsBySlug)
			if err != nil {
				return err
			}
		}
		c.Name = name
		c.Description = in.Description
		if err := repos.Category.Update(c); err != nil {
			return categoryWriteError(err)
		}
		dto = categoryDTO(*c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.evict(ctx)
	return &dto, nil
}

// Delete removes the category and detaches it from every sprite.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		c, err := loadCategory(repos, id)
		if err != nil {
			return err
		}
		return repos.Category.Delete(c)
	})
	if err != nil {
		return err
	}
	s.evict(ctx)
	return nil
}

func (s *CategoryService) evict(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, CategoriesCacheKey); err != nil {
		log.Warnf("[Cache] Failed to evict %s: %v", CategoriesCacheKey, err)
	}
}

func loadCategory(repos *repository.Repositories, id uuid.UUID) (*models.Category, error) {
	c, err := repos.Category.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(MsgCategoryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	return c, nil
}

func categoryWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(MsgCategoryExists)
	}
	return fmt.Errorf("save category: %w", err)
}
