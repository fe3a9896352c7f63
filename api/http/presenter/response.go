package presenter

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ingeniar/bizgen/pkg/business"
)

type ErrorResponse struct {
	Message string                `json:"message"`
	Fields  []business.FieldError `json:"fields,omitempty"`
}

func JSON(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v)
}

func Error(c *fiber.Ctx, status int, message string) error {
	return JSON(c, status, ErrorResponse{Message: message})
}

// Result renders a generation verbatim.
func Result(c *fiber.Ctx, res business.Result) error {
	return JSON(c, http.StatusOK, res)
}

// GenerationError maps domain errors onto HTTP responses. Service errors keep the
// localized "<prefix>: <failure>" message.
func GenerationError(c *fiber.Ctx, err error) error {
	var verr *business.ValidationError
	var serr *business.ServiceError
	switch {
	case errors.As(err, &verr):
		return JSON(c, http.StatusBadRequest, ErrorResponse{Message: "invalid input", Fields: verr.Fields})
	case errors.As(err, &serr):
		return Error(c, http.StatusBadGateway, serr.Error())
	case errors.Is(err, business.ErrUnknownMode):
		return Error(c, http.StatusNotFound, err.Error())
	default:
		return Error(c, http.StatusInternalServerError, err.Error())
	}
}
