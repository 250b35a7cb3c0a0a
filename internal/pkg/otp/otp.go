package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelShop/internal/pkg/mail"
)

// Purpose separates code namespaces so a registration code never resets a password.
type Purpose string

const (
	PurposeRegister      Purpose = "register"
	PurposeResetPassword Purpose = "reset-password"
)

// Key returns the store key for a purpose and email.
func Key(p Purpose, email string) string {
	return "otp:" + string(p) + ":" + email
}

func (p Purpose) template() mail.Template {
	switch p {
	case PurposeRegister:
		return mail.TemplateOTPRegistration
	case PurposeResetPassword:
		return mail.TemplateOTPResetPassword
	}
	return ""
}

type Service struct {
	store      Store
	dispatcher mail.Dispatcher
	ttl        time.Duration
	length     int
}

func NewService(store Store, dispatcher mail.Dispatcher, ttl time.Duration, length int) *Service {
	return &Service{store: store, dispatcher: dispatcher, ttl: ttl, length: length}
}

// TTL is how long a sent code stays valid.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Send stores a fresh code, replacing any pending one, and queues the email.
// Queueing failures are logged; the code stays valid and can be re-requested.
func (s *Service) Send(ctx context.Context, purpose Purpose, email string) error {
	code, err := GenerateCode(s.length)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, Key(purpose, email), code, s.ttl); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}

	err = s.dispatcher.Dispatch(ctx, mail.Message{
		To:       email,
		Template: purpose.template(),
		Data: map[string]string{
			"code":       code,
			"ttlMinutes": strconv.Itoa(int(s.ttl.Minutes())),
		},
	})
	if err != nil {
		log.Errorf("[OTP] %s code for %s not queued: %v", purpose, email, err)
	}
	return nil
}

// Verify consumes the code on a match. A wrong or missing code leaves the store untouched.
// When callers race on one code only the caller whose delete removes the key wins.
func (s *Service) Verify(ctx context.Context, purpose Purpose, email, code string) (bool, error) {
	key := Key(purpose, email)
	stored, found, err := s.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read otp: %w", err)
	}
	if !found || code == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}
	deleted, err := s.store.Delete(ctx, key)
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return deleted, nil
}

// GenerateCode returns length random decimal digits.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid otp length %d", length)
	}
	ten := big.NewInt(10)
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}
