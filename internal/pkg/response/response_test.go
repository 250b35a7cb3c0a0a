package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/validation"
)

func decode(t *testing.T, body io.Reader) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"app error", apperr.Conflict("Username already taken"), fiber.StatusConflict, "Username already taken"},
		{"validation", &validation.Errors{Fields: map[string]string{"email": "must not be blank"}}, fiber.StatusBadRequest, "Validation failed"},
		{"fiber error", fiber.NewError(fiber.StatusMethodNotAllowed, "Method Not Allowed"), fiber.StatusMethodNotAllowed, "Method Not Allowed"},
		{"unknown", errors.New("db exploded: secret dsn"), fiber.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			env := decode(t, resp.Body)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantMsg, env.Message)
		})
	}
}

func TestValidationErrorCarriesFieldMap(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error {
		return &validation.Errors{Fields: map[string]string{"email": "must not be blank"}}
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	env := decode(t, resp.Body)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "must not be blank", data["email"])
}

func TestOKAndCreated(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error { return OK(c, "Login successful.", fiber.Map{"id": 1}) })
	app.Get("/created", func(c *fiber.Ctx) error { return Created(c, "Registration successful.", nil) })

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	env := decode(t, resp.Body)
	assert.True(t, env.Success)
	assert.Equal(t, "Login successful.", env.Message)

	resp, err = app.Test(httptest.NewRequest("GET", "/created", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}
