package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelShop/internal/pkg/apperr"
	"github.com/ManuelReschke/PixelShop/internal/pkg/validation"
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func OK(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Message: message, Data: data})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Message: message, Data: data})
}

func Fail(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message, Data: data})
}

// ErrorHandler maps errors returned by handlers onto the envelope. Unknown errors
// become a generic 500 and are only logged.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := apperr.As(err); ok {
		return Fail(c, appErr.Status, appErr.Message, nil)
	}

	var verrs *validation.Errors
	if errors.As(err, &verrs) {
		return Fail(c, fiber.StatusBadRequest, "Validation failed", verrs.Fields)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return Fail(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.Errorf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
	return Fail(c, fiber.StatusInternalServerError, "Internal server error", nil)
}
