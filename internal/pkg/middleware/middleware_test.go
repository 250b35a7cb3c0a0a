package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelShop/app/models"
	"github.com/ManuelReschke/PixelShop/app/repository/memrepo"
	"github.com/ManuelReschke/PixelShop/internal/pkg/response"
	"github.com/ManuelReschke/PixelShop/internal/pkg/token"
	"github.com/ManuelReschke/PixelShop/internal/pkg/usercontext"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type env struct {
	app    *fiber.App
	tokens *token.Service
	store  *memrepo.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		app:    fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler}),
		tokens: token.NewService(testSecret, 15*time.Minute, time.Hour),
		store:  memrepo.New(),
	}
	e.app.Use(Authenticate(e.tokens, e.store))
	e.app.Get("/me", RequireAuth, func(c *fiber.Ctx) error {
		return response.OK(c, "", usercontext.GetUserContext(c).Username)
	})
	e.app.Get("/admin", RequireAdmin, func(c *fiber.Ctx) error {
		return response.OK(c, "", "ok")
	})
	return e
}

func (e *env) user(t *testing.T, username string, role models.Role, active bool) (*models.User, string) {
	t.Helper()
	u := &models.User{Email: username + "@example.com", Username: username, Role: role, Active: active, Verified: true}
	require.NoError(t, e.store.Repositories().User.Create(u))
	access, _, err := e.tokens.IssueAccess(u)
	require.NoError(t, err)
	return u, access
}

func (e *env) do(t *testing.T, path string, header, value string) (int, response.Envelope) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	var body response.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestRequireAuth(t *testing.T) {
	e := newEnv(t)
	_, access := e.user(t, "alice", models.RoleUser, true)
	_, disabled := e.user(t, "mallory", models.RoleUser, false)
	refresh, _, err := e.tokens.IssueRefresh(uuid.New())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		value  string
		status int
	}{
		{"anonymous", "", "", fiber.StatusUnauthorized},
		{"bearer", "Authorization", "Bearer " + access, fiber.StatusOK},
		{"lowercase bearer", "Authorization", "bearer " + access, fiber.StatusOK},
		{"cookie", "Cookie", usercontext.AccessCookie + "=" + access, fiber.StatusOK},
		{"garbage", "Authorization", "Bearer not-a-jwt", fiber.StatusUnauthorized},
		{"refresh token", "Authorization", "Bearer " + refresh, fiber.StatusUnauthorized},
		{"disabled user", "Authorization", "Bearer " + disabled, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := e.do(t, "/me", tt.header, tt.value)
			assert.Equal(t, tt.status, status)
			if status == fiber.StatusOK {
				assert.True(t, body.Success)
				assert.Equal(t, "alice", body.Data)
			} else {
				assert.False(t, body.Success)
				assert.Equal(t, MsgAuthRequired, body.Message)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	e := newEnv(t)
	_, user := e.user(t, "alice", models.RoleUser, true)
	_, admin := e.user(t, "root", models.RoleAdmin, true)

	status, body := e.do(t, "/admin", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, MsgAuthRequired, body.Message)

	status, body = e.do(t, "/admin", "Authorization", "Bearer "+user)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, MsgAdminRequired, body.Message)

	status, body = e.do(t, "/admin", "Authorization", "Bearer "+admin)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, body.Success)
}
