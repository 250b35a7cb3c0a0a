// Package catalog implements the sprite, asset pack and category services.
package catalog

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
)

const (
	MsgForbidden     = "You do not have permission to modify this resource"
	MsgImageRequired = "Image is required"
	MsgUserNotFound  = "User not found"

	defaultPageSize  = 12
	defaultTrashSize = 20
)

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}

// CanModify reports whether the actor may change a resource created by owner.
func (a Actor) CanModify(owner uuid.UUID) bool {
	return a.Admin || a.ID == owner
}

func (a Actor) authorize(owner uuid.UUID) error {
	if !a.CanModify(owner) {
		return apperr.Forbidden(MsgForbidden)
	}
	return nil
}

// sortOrder validates sortBy against allowed and reports whether the order is descending.
// An empty sortBy means newest first.
func sortOrder(sortBy, order string, allowed ...string) (string, bool, error) {
	if sortBy == "" {
		return "createdAt", true, nil
	}
	for _, a := range allowed {
		if a == sortBy {
			return sortBy, strings.EqualFold(order, "desc"), nil
		}
	}
	return "", false, apperr.BadRequest("Invalid sortBy, allowed: " + strings.Join(allowed, ", "))
}

var slugFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases name, strips accents and keeps letters, digits and single dashes.
func Slugify(name string) string {
	folded, _, err := transform.String(slugFold, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case r == '-' || unicode.IsSpace(r):
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "item"
	}
	return slug
}

// uniqueSlug appends -1, -2, ... to base until exists reports it free.
func uniqueSlug(base string, exists func(string) (bool, error)) (string, error) {
	slug := base
	for i := 1; ; i++ {
		taken, err := exists(slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(i)
	}
}
