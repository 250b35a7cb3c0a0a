package controllers

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/catalog"
	"github.com/ManuelReschke/PixelShop/internal/pkg/media"
	"github.com/ManuelReschke/PixelShop/internal/pkg/usercontext"
	"github.com/ManuelReschke/PixelShop/internal/pkg/validation"
)

const (
	MsgInvalidBody = "Invalid request body"
	MsgInvalidID   = "Invalid id"

	maxImageBytes = 10 << 20
)

// CookieConfig controls the auth cookies. SameSite is None so a frontend on
// another origin can send them.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (cc CookieConfig) set(c *fiber.Ctx, name, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		Secure:   cc.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteNoneMode,
	})
}

func (cc CookieConfig) setTokens(c *fiber.Ctx, access, refresh string) {
	cc.set(c, usercontext.AccessCookie, access, cc.AccessTTL)
	cc.set(c, usercontext.RefreshCookie, refresh, cc.RefreshTTL)
}

func (cc CookieConfig) clear(c *fiber.Ctx) {
	for _, name := range []string{usercontext.AccessCookie, usercontext.RefreshCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			Secure:   cc.Secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteNoneMode,
		})
	}
}

// bind decodes the JSON body into dst and validates it.
func bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.BadRequest(MsgInvalidBody)
	}
	return validation.Struct(dst)
}

// bindMultipartData decodes the JSON document in the "data" form field.
func bindMultipartData(c *fiber.Ctx, dst interface{}) error {
	raw := c.FormValue("data")
	if raw == "" {
		return apperr.BadRequest("Missing data field")
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return apperr.BadRequest(MsgInvalidBody)
	}
	return validation.Struct(dst)
}

// formImage reads an optional uploaded file. It returns nil when field is absent.
func formImage(c *fiber.Ctx, field string) (*media.File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	if fh.Size > maxImageBytes {
		return nil, apperr.BadRequest("File is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	return &media.File{Filename: fh.Filename, Data: data}, nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.BadRequest(MsgInvalidID)
	}
	return id, nil
}

// queryIDs accepts both ?ids=a,b and repeated ?ids=a&ids=b.
func queryIDs(c *fiber.Ctx, name string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, raw := range c.Context().QueryArgs().PeekMulti(name) {
		for _, part := range strings.Split(string(raw), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, apperr.BadRequest("Invalid " + name)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func queryFloat(c *fiber.Ctx, name string) (*float64, error) {
	if c.Query(name) == "" {
		return nil, nil
	}
	v := c.QueryFloat(name, -1)
	if v < 0 {
		return nil, apperr.BadRequest("Invalid " + name)
	}
	return &v, nil
}

func actor(c *fiber.Ctx) catalog.Actor {
	uc := usercontext.GetUserContext(c)
	return catalog.Actor{ID: uc.UserID, Admin: uc.IsAdmin}
}
