package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
)

const maxUsernameAttempts = 1000

// OAuthProfile is what a provider told us about the signed-in account.
type OAuthProfile struct {
	Provider   models.Provider
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
}

// OAuthLogin signs in through a provider identity. The identity is matched by its
// provider link first, then by email, and a fresh account is created as last resort.
func (s *Service) OAuthLogin(ctx context.Context, profile OAuthProfile) (*Result, error) {
	if profile.Provider == "" || profile.Provider == models.ProviderLocal {
		return nil, apperr.BadRequest("Unsupported provider")
	}
	if profile.ProviderID == "" {
		return nil, apperr.BadRequest("Provider account id missing")
	}
	email := NormalizeEmail(profile.Email)
	if email == "" {
		return nil, apperr.BadRequest(MsgOAuthEmailMissing)
	}

	var result *Result
	err := s.run(ctx, func(u *unit) error {
		user, err := s.resolveOAuthUser(u, profile, email)
		if err != nil {
			return err
		}
		if !user.Active {
			return apperr.Forbidden(MsgAccountDisabled)
		}

		changed := false
		if strings.TrimSpace(user.FullName) == "" && strings.TrimSpace(profile.Name) != "" {
			user.FullName = profile.Name
			changed = true
		}
		if strings.TrimSpace(user.AvatarURL) == "" && strings.TrimSpace(profile.AvatarURL) != "" {
			user.AvatarURL = profile.AvatarURL
			changed = true
		}
		if changed {
			if err := u.repos.User.Update(user); err != nil {
				return fmt.Errorf("update user: %w", err)
			}
		}

		hasLocal, err := s.hasLocal(u, user.ID)
		if err != nil {
			return err
		}

		result, err = s.issue(u, user)
		if err != nil {
			return err
		}
		result.NeedsPasswordSetup = !hasLocal
		result.Provider = profile.Provider
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) resolveOAuthUser(u *unit, profile OAuthProfile, email string) (*models.User, error) {
	link, err := u.repos.AuthProvider.GetByProviderID(profile.Provider, profile.ProviderID)
	if err == nil {
		if link.User != nil {
			return link.User, nil
		}
		return u.repos.User.GetByID(link.UserID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load provider link: %w", err)
	}

	user, err := u.repos.User.GetByEmail(email)
	switch {
	case err == nil:
		log.Infof("[Auth] Linking %s account to existing user %s", profile.Provider, user.ID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.createOAuthUser(u, profile, email)
		if err != nil {
			return nil, err
		}
		u.notifyRegistered(user)
	default:
		return nil, err
	}

	err = u.repos.AuthProvider.Create(&models.AuthProvider{
		UserID:     user.ID,
		Provider:   profile.Provider,
		ProviderID: profile.ProviderID,
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.Conflict(fmt.Sprintf("Account is already linked to another %s identity", strings.ToLower(string(profile.Provider))))
	}
	if err != nil {
		return nil, fmt.Errorf("create provider link: %w", err)
	}
	return user, nil
}

func (s *Service) createOAuthUser(u *unit, profile OAuthProfile, email string) (*models.User, error) {
	source := profile.Name
	if strings.TrimSpace(source) == "" {
		source, _, _ = strings.Cut(email, "@")
	}
	username, err := s.uniqueUsername(u, BuildSafeUsername(source))
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     email,
		Username:  username,
		FullName:  profile.Name,
		AvatarURL: profile.AvatarURL,
		Role:      models.RoleUser,
		Verified:  true,
		Active:    true,
	}
	if err := u.repos.User.Create(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	log.Infof("[Auth] Created user %s from %s login", user.ID, profile.Provider)
	return user, nil
}

// uniqueUsername appends 1, 2, ... to base until the name is free.
func (s *Service) uniqueUsername(u *unit, base string) (string, error) {
	candidate := base
	for i := 1; i <= maxUsernameAttempts; i++ {
		taken, err := u.repos.User.ExistsByUsername(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
	return base + randomLetters(6), nil
}
