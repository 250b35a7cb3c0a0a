// Package account manages user profiles outside of authentication.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/app/repository"
	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/media"
	"github.com/ManuelReschke/PixelShop/internal/pkg/pagination"
	"github.com/ManuelReschke/PixelShop/internal/pkg/upload"
)

const (
	MsgUserNotFound  = "User not found"
	MsgUsernameTaken = "Username already taken"
	MsgFileEmpty     = "File is empty"
	MsgNotAnImage    = "Only image files are allowed"

	AvatarFolder    = "avatars"
	defaultPageSize = 20
)

type ProfileInput struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	FullName string `json:"fullName" validate:"max=100"`
}

type Service struct {
	tx     repository.Transactor
	images *media.Uploader
}

func NewService(tx repository.Transactor, images *media.Uploader) *Service {
	return &Service{tx: tx, images: images}
}

// List pages through all users, newest first. keyword matches username, email or full name.
func (s *Service) List(ctx context.Context, keyword string, page, size int) (*pagination.Page[models.UserDTO], error) {
	req := pagination.NewRequest(page, size, defaultPageSize)
	var result pagination.Page[models.UserDTO]
	err := s.tx.ReadOnly(ctx, func(repos *repository.Repositories) error {
		users, total, err := repos.User.Search(strings.TrimSpace(keyword), req.Offset(), req.Size)
		if err != nil {
			return fmt.Errorf("search users: %w", err)
		}
		dtos := make([]models.UserDTO, 0, len(users))
		for i := range users {
			dtos = append(dtos, users[i].DTO())
		}
		result = pagination.New(dtos, req, total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.UserDTO, error) {
	username := strings.TrimSpace(in.Username)
	var dto models.UserDTO
	err := s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		user, err := loadUser(repos, userID)
		if err != nil {
			return err
		}
		if username != user.Username {
			taken, err := repos.User.ExistsByUsername(username)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict(MsgUsernameTaken)
			}
		}

		user.Username = username
		user.FullName = strings.TrimSpace(in.FullName)
		if err := repos.User.Update(user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict(MsgUsernameTaken)
			}
			return fmt.Errorf("update user: %w", err)
		}
		dto = user.DTO()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// UpdateAvatar stores a new avatar image and releases the previous one once the
// user row points at the new file.
func (s *Service) UpdateAvatar(ctx context.Context, userID uuid.UUID, file *media.File) (*models.UserDTO, error) {
	if file.Empty() {
		return nil, apperr.BadRequest(MsgFileEmpty)
	}
	head := file.Data
	if len(head) > upload.SniffLen {
		head = head[:upload.SniffLen]
	}
	if _, err := upload.ValidateImageBySniff(file.Filename, head); err != nil {
		return nil, apperr.BadRequest(MsgNotAnImage)
	}

	stored, err := s.images.Upload(ctx, file, AvatarFolder)
	if err != nil {
		return nil, err
	}

	var (
		dto      models.UserDTO
		previous string
	)
	err = s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		user, err := loadUser(repos, userID)
		if err != nil {
			return err
		}
		previous = user.AvatarPublicID
		user.AvatarURL = stored.URL
		user.AvatarPublicID = stored.PublicID
		if err := repos.User.Update(user); err != nil {
			return fmt.Errorf("update avatar: %w", err)
		}
		dto = user.DTO()
		return nil
	})
	if err != nil {
		s.images.Release(ctx, stored.PublicID)
		return nil, err
	}

	s.images.Release(ctx, previous)
	log.Infof("[Storage] Avatar of user %s replaced", userID)
	return &dto, nil
}

func loadUser(repos *repository.Repositories, id uuid.UUID) (*models.User, error) {
	user, err := repos.User.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(MsgUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
