package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/repository"
	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/token"
)

// Refresh rotates a refresh token. A token with a bad signature or an expired JWT
// fails before any lookup. Presenting a valid token that was already revoked is
// treated as theft: every live token of the owner is revoked and that revocation
// is committed before the request fails.
func (s *Service) Refresh(ctx context.Context, raw string) (*Result, error) {
	claims, err := s.tokens.ParseRefresh(raw)
	if err != nil {
		return nil, apperr.Unauthorized(MsgTokenInvalid)
	}
	hash := token.HashRefresh(raw)

	var (
		result *Result
		reused bool
	)
	err = s.run(ctx, func(u *unit) error {
		record, err := u.repos.RefreshToken.GetByHashForUpdate(hash)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Unauthorized(MsgTokenMissing)
		}
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if claims.Subject != record.UserID.String() {
			return apperr.Unauthorized(MsgTokenInvalid)
		}

		if record.Revoked {
			n, err := u.repos.RefreshToken.RevokeAllByUser(record.UserID)
			if err != nil {
				return fmt.Errorf("revoke tokens: %w", err)
			}
			log.Warnf("[Auth] Revoked refresh token replayed for user %s, revoked %d live tokens", record.UserID, n)
			reused = true
			return nil
		}
		if record.Expired(s.now()) {
			return apperr.Unauthorized(MsgTokenExpired)
		}

		if err := u.repos.RefreshToken.Revoke(record.ID); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}

		user, err := u.repos.User.GetByID(record.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Unauthorized(MsgTokenMissing)
		}
		if err != nil {
			return err
		}
		if !user.Active {
			return apperr.Forbidden(MsgAccountDisabled)
		}

		result, err = s.issue(u, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	if reused {
		return nil, apperr.Unauthorized(MsgTokenRevoked)
	}
	return result, nil
}

// Logout revokes the refresh token if it is known. Unknown or malformed tokens are ignored.
func (s *Service) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	hash := token.HashRefresh(raw)

	return s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		record, err := repos.RefreshToken.GetByHashForUpdate(hash)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if record.Revoked {
			return nil
		}
		return repos.RefreshToken.Revoke(record.ID)
	})
}
