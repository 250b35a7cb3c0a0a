package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/app/repository"
	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/otp"
	"github.com/ManuelReschke/PixelShop/internal/pkg/token"
)

const (
	MsgLocalAccountExists = "Email already has local account. Please use reset password instead."
	MsgEmailNotFound      = "Email not found"
	MsgInvalidOTP         = "Invalid or expired OTP"
	MsgUsernameTaken      = "Username already taken"
	MsgInvalidCredentials = "Invalid credentials"
	MsgSocialAccount      = "This account was created using social login. Please sign in with Google/GitHub or set a password."
	MsgVerifyEmail        = "Please verify your email first"
	MsgAccountDisabled    = "Account is disabled"
	MsgTokenInvalid       = "Token is invalid"
	MsgTokenMissing       = "Token doesn't exist"
	MsgTokenRevoked       = "Token has been revoked. Please login again"
	MsgTokenExpired       = "Token has expired. Please login again"
	MsgOAuthEmailMissing  = "Email not provided by OAuth provider"
	MsgPasswordAlreadySet = "Password already set"
	MsgUserNotFound       = "User not found"
)

// OTPService issues and consumes one-time codes.
type OTPService interface {
	Send(ctx context.Context, purpose otp.Purpose, email string) error
	Verify(ctx context.Context, purpose otp.Purpose, email, code string) (bool, error)
}

// Notifier is told about new registrations after the registering transaction commits.
type Notifier interface {
	NotifyUserRegistered(ctx context.Context, user models.User)
}

// Result is returned by every operation that starts a session.
type Result struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	TokenType    string         `json:"tokenType"`
	ExpiresIn    int64          `json:"expiresIn"`
	User         models.UserDTO `json:"user"`

	// NeedsPasswordSetup is set by OAuth logins when the user has no local password yet.
	NeedsPasswordSetup bool            `json:"-"`
	Provider           models.Provider `json:"-"`
}

type Service struct {
	tx       repository.Transactor
	otp      OTPService
	tokens   *token.Service
	notifier Notifier
	now      func() time.Time
}

func NewService(tx repository.Transactor, otpService OTPService, tokens *token.Service, notifier Notifier) *Service {
	return &Service{
		tx:       tx,
		otp:      otpService,
		tokens:   tokens,
		notifier: notifier,
		now:      time.Now,
	}
}

// unit is the state of one orchestrator transaction.
type unit struct {
	repos      *repository.Repositories
	registered []models.User
}

func (u *unit) notifyRegistered(user *models.User) {
	u.registered = append(u.registered, *user)
}

// run executes fn in one transaction and dispatches registration notifications
// only once it has committed.
func (s *Service) run(ctx context.Context, fn func(u *unit) error) error {
	var registered []models.User
	err := s.tx.Transaction(ctx, func(repos *repository.Repositories) error {
		u := &unit{repos: repos}
		if err := fn(u); err != nil {
			return err
		}
		registered = u.registered
		return nil
	})
	if err != nil {
		return err
	}

	detached := context.WithoutCancel(ctx)
	for _, user := range registered {
		s.notifier.NotifyUserRegistered(detached, user)
	}
	return nil
}

// issue signs a token pair and persists the refresh token inside the current unit.
func (s *Service) issue(u *unit, user *models.User) (*Result, error) {
	access, _, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}

	record := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: token.HashRefresh(refresh),
		ExpiresAt: expiresAt,
	}
	if err := u.repos.RefreshToken.Create(record); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &Result{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         user.DTO(),
	}, nil
}

func (s *Service) hasLocal(u *unit, userID uuid.UUID) (bool, error) {
	ok, err := u.repos.AuthProvider.ExistsByUserAndProvider(userID, models.ProviderLocal)
	if err != nil {
		return false, fmt.Errorf("check local link: %w", err)
	}
	return ok, nil
}

func (s *Service) hasSocial(u *unit, userID uuid.UUID) (bool, error) {
	links, err := u.repos.AuthProvider.ListByUser(userID)
	if err != nil {
		return false, fmt.Errorf("list links: %w", err)
	}
	for _, l := range links {
		if l.Provider != models.ProviderLocal {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) linkLocal(u *unit, user *models.User) error {
	err := u.repos.AuthProvider.Create(&models.AuthProvider{
		UserID:     user.ID,
		Provider:   models.ProviderLocal,
		ProviderID: user.Email,
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(MsgLocalAccountExists)
	}
	return err
}

// Me returns the current profile of the user.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*models.UserDTO, error) {
	var dto models.UserDTO
	err := s.tx.ReadOnly(ctx, func(repos *repository.Repositories) error {
		user, err := repos.User.GetByID(userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(MsgUserNotFound)
		}
		if err != nil {
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

// NormalizeEmail trims and lowercases an address so lookups and OTP keys agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
