package oauth

import (
	"testing"

	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/PixelShop/app/models"
)

func TestExtractProfileGoogle(t *testing.T) {
	u := goth.User{
		Provider: "google",
		RawData: map[string]interface{}{
			"sub":     "10987",
			"email":   "ana@example.com",
			"name":    "Ana",
			"picture": "https://lh3.example.com/ana.png",
		},
		Name: "Ana",
	}

	p := ExtractProfile(models.ProviderGoogle, u)
	assert.Equal(t, models.ProviderGoogle, p.Provider)
	assert.Equal(t, "10987", p.ProviderID)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, "https://lh3.example.com/ana.png", p.AvatarURL)
}

func TestExtractProfileGitHub(t *testing.T) {
	u := goth.User{
		Provider: "github",
		Email:    "octo@example.com",
		RawData: map[string]interface{}{
			"id":         float64(583231),
			"login":      "octocat",
			"avatar_url": "https://avatars.example.com/u/583231",
		},
	}

	p := ExtractProfile(models.ProviderGitHub, u)
	assert.Equal(t, "583231", p.ProviderID)
	assert.Equal(t, "octocat", p.Name)
	assert.Equal(t, "octo@example.com", p.Email)
	assert.Equal(t, "https://avatars.example.com/u/583231", p.AvatarURL)
}

func TestExtractProfilePrefersGothFields(t *testing.T) {
	u := goth.User{
		UserID:    "abc",
		FirstName: "Grace",
		LastName:  "Hopper",
		RawData:   map[string]interface{}{"sub": "ignored"},
	}
	p := ExtractProfile(models.ProviderGoogle, u)
	assert.Equal(t, "abc", p.ProviderID)
	assert.Equal(t, "Grace Hopper", p.Name)
	assert.Empty(t, p.Email)
}

func TestCallbackPath(t *testing.T) {
	assert.Equal(t, "/api/v1/auth/oauth/github/callback", CallbackPath(models.ProviderGitHub))
}
