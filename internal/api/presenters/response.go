package presenters

import (
	"errors"

	"recipe-vault/domain"

	"github.com/gofiber/fiber/v2"
)

type (
	Response struct {
		Status  bool              `json:"status"`
		Message string            `json:"message"`
		Data    interface{}       `json:"data,omitempty"`
		Count   *int64            `json:"count,omitempty"`
		Error   string            `json:"error,omitempty"`
		Details map[string]string `json:"details,omitempty"`
	}
)

func SuccessResponse(c *fiber.Ctx, data interface{}, status int, message string) error {
	return c.Status(status).JSON(Response{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// ListResponse writes {data, count} where count ignores pagination.
func ListResponse(c *fiber.Ctx, data interface{}, count int64, status int, message string) error {
	return c.Status(status).JSON(Response{
		Status:  true,
		Message: message,
		Data:    data,
		Count:   &count,
	})
}

func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	res := Response{
		Status:  false,
		Message: message,
	}

	if status >= fiber.StatusInternalServerError {
		res.Error = domain.MessageInternalServerError
	} else if err != nil {
		res.Error = err.Error()
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			res.Details = verr.Fields
		}
	}

	return c.Status(status).JSON(res)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
