package oauth

import (
	"fmt"
	"strings"

	"github.com/markbates/goth"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/internal/pkg/auth"
)

// ExtractProfile maps a completed goth login onto the fields the auth service needs.
// Google reports sub/email/name/picture and GitHub id/email/name/avatar_url; goth
// fills most of them already, the raw payload covers the rest.
func ExtractProfile(provider models.Provider, u goth.User) auth.OAuthProfile {
	profile := auth.OAuthProfile{
		Provider:   provider,
		ProviderID: u.UserID,
		Email:      u.Email,
		Name:       firstNonEmpty(u.Name, strings.TrimSpace(u.FirstName+" "+u.LastName), u.NickName),
		AvatarURL:  u.AvatarURL,
	}

	switch provider {
	case models.ProviderGoogle:
		profile.ProviderID = firstNonEmpty(profile.ProviderID, rawString(u.RawData, "sub"), rawString(u.RawData, "id"))
		profile.AvatarURL = firstNonEmpty(profile.AvatarURL, rawString(u.RawData, "picture"))
	case models.ProviderGitHub:
		profile.ProviderID = firstNonEmpty(profile.ProviderID, rawString(u.RawData, "id"))
		profile.Name = firstNonEmpty(profile.Name, rawString(u.RawData, "login"))
		profile.AvatarURL = firstNonEmpty(profile.AvatarURL, rawString(u.RawData, "avatar_url"))
	}
	profile.Email = firstNonEmpty(profile.Email, rawString(u.RawData, "email"))
	return profile
}

// rawString reads a field of the provider payload. GitHub ids arrive as JSON numbers.
func rawString(raw map[string]interface{}, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
