package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/app/repository"
	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/otp"
)

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=200"`
	Otp      string `json:"otp" validate:"required,numeric"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"fullName" validate:"max=100"`
}

type ResetPasswordInput struct {
	Email    string `json:"email" validate:"required,email"`
	Otp      string `json:"otp" validate:"required,numeric"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// SendRegistrationOTP mails a registration code unless the address already has a local account.
func (s *Service) SendRegistrationOTP(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	err := s.tx.ReadOnly(ctx, func(repos *repository.Repositories) error {
		user, err := repos.User.GetByEmail(email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		hasLocal, err := repos.AuthProvider.ExistsByUserAndProvider(user.ID, models.ProviderLocal)
		if err != nil {
			return err
		}
		if hasLocal {
			return apperr.Conflict(MsgLocalAccountExists)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.otp.Send(ctx, otp.PurposeRegister, email)
}

// Register consumes a registration OTP and either creates a new local account or
// adds a password to an account that so far only signed in through OAuth.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	email := NormalizeEmail(in.Email)
	if err := s.verifyOTP(ctx, otp.PurposeRegister, email, in.Otp); err != nil {
		return nil, err
	}

	var result *Result
	err := s.run(ctx, func(u *unit) error {
		user, err := u.repos.User.GetByEmail(email)
		switch {
		case err == nil:
			hasLocal, err := s.hasLocal(u, user.ID)
			if err != nil {
				return err
			}
			if hasLocal {
				return apperr.Conflict(MsgLocalAccountExists)
			}
			if err := user.SetPassword(in.Password); err != nil {
				return err
			}
			if in.FullName != "" {
				user.FullName = in.FullName
			}
			user.Verified = true
			if err := u.repos.User.Update(user); err != nil {
				return fmt.Errorf("update user: %w", err)
			}

		case errors.Is(err, gorm.ErrRecordNotFound):
			taken, err := u.repos.User.ExistsByUsername(in.Username)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict(MsgUsernameTaken)
			}
			user = &models.User{
				Email:    email,
				Username: in.Username,
				FullName: in.FullName,
				Role:     models.RoleUser,
				Verified: true,
				Active:   true,
			}
			if err := user.SetPassword(in.Password); err != nil {
				return err
			}
			if err := u.repos.User.Create(user); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperr.Conflict(MsgUsernameTaken)
				}
				return fmt.Errorf("create user: %w", err)
			}

		default:
			return err
		}

		if err := s.linkLocal(u, user); err != nil {
			return err
		}
		u.notifyRegistered(user)

		result, err = s.issue(u, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Infof("[Auth] Registered local account for %s", result.User.ID)
	return result, nil
}

func (s *Service) SendResetPasswordOTP(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	err := s.tx.ReadOnly(ctx, func(repos *repository.Repositories) error {
		_, err := repos.User.GetByEmail(email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(MsgEmailNotFound)
		}
		return err
	})
	if err != nil {
		return err
	}
	return s.otp.Send(ctx, otp.PurposeResetPassword, email)
}

// ResetPassword sets a new password after a reset OTP. Accounts that had no local
// credential yet gain one, which counts as a registration.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) (*Result, error) {
	email := NormalizeEmail(in.Email)
	if err := s.verifyOTP(ctx, otp.PurposeResetPassword, email, in.Otp); err != nil {
		return nil, err
	}

	var result *Result
	err := s.run(ctx, func(u *unit) error {
		user, err := u.repos.User.GetByEmail(email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(MsgEmailNotFound)
		}
		if err != nil {
			return err
		}

		if err := user.SetPassword(in.Password); err != nil {
			return err
		}
		if err := u.repos.User.Update(user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		hasLocal, err := s.hasLocal(u, user.ID)
		if err != nil {
			return err
		}
		if !hasLocal {
			if err := s.linkLocal(u, user); err != nil {
				return err
			}
			u.notifyRegistered(user)
		}

		result, err = s.issue(u, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Login checks email and password of a local account.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = NormalizeEmail(email)

	var result *Result
	err := s.run(ctx, func(u *unit) error {
		user, err := u.repos.User.GetByEmail(email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Unauthorized(MsgInvalidCredentials)
		}
		if err != nil {
			return err
		}

		hasLocal, err := s.hasLocal(u, user.ID)
		if err != nil {
			return err
		}
		if !hasLocal {
			social, err := s.hasSocial(u, user.ID)
			if err != nil {
				return err
			}
			if social {
				return apperr.BadRequest(MsgSocialAccount)
			}
			return apperr.Unauthorized(MsgInvalidCredentials)
		}
		if !user.CheckPassword(password) {
			return apperr.Unauthorized(MsgInvalidCredentials)
		}
		if !user.Verified {
			return apperr.Forbidden(MsgVerifyEmail)
		}
		if !user.Active {
			return apperr.Forbidden(MsgAccountDisabled)
		}

		user.MarkLogin(s.now())
		if err := u.repos.User.Update(user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		result, err = s.issue(u, user)
		return err
	})
	if err != nil {
		log.Debugf("[Auth] Login failed for %s: %v", email, err)
		return nil, err
	}
	return result, nil
}

// SetupPassword gives an OAuth-only account a local password.
func (s *Service) SetupPassword(ctx context.Context, userID uuid.UUID, password string) (*models.UserDTO, error) {
	var dto models.UserDTO
	err := s.run(ctx, func(u *unit) error {
		user, err := u.repos.User.GetByID(userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(MsgUserNotFound)
		}
		if err != nil {
			return err
		}

		hasLocal, err := s.hasLocal(u, user.ID)
		if err != nil {
			return err
		}
		if hasLocal {
			return apperr.Conflict(MsgPasswordAlreadySet)
		}

		if err := user.SetPassword(password); err != nil {
			return err
		}
		if err := u.repos.User.Update(user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if err := s.linkLocal(u, user); err != nil {
			return err
		}
		dto = user.DTO()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *Service) verifyOTP(ctx context.Context, purpose otp.Purpose, email, code string) error {
	ok, err := s.otp.Verify(ctx, purpose, email, code)
	if err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return apperr.BadRequest(MsgInvalidOTP)
	}
	return nil
}
