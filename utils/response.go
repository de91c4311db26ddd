package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/developia-II/linguascreen-backend/internal/models"
)

var Validate = validator.New()

// ErrorBody is the JSON shape of every failure response.
type ErrorBody struct {
	Kind   models.Kind `json:"kind"`
	Code   string      `json:"code,omitempty"`
	Detail string      `json:"detail"`
}

// Envelope is the JSON shape of every success response.
type Envelope struct {
	Message  string `json:"message"`
	Result   any    `json:"result,omitempty"`
	Metadata any    `json:"metadata,omitempty"`
}

func ErrorResponse(c *fiber.Ctx, status int, kind models.Kind, code, detail string) error {
	return c.Status(status).JSON(ErrorBody{Kind: kind, Code: code, Detail: detail})
}

func SuccessResponse(c *fiber.Ctx, status int, message string, result, metadata any) error {
	return c.Status(status).JSON(Envelope{Message: message, Result: result, Metadata: metadata})
}

// StatusFor maps an application error kind to an HTTP status.
func StatusFor(e *models.Error) int {
	switch e.Kind {
	case models.KindValidation:
		return fiber.StatusBadRequest
	case models.KindUnauthorized:
		return fiber.StatusUnauthorized
	case models.KindNotFound:
		return fiber.StatusNotFound
	case models.KindConflict:
		return fiber.StatusConflict
	case models.KindInsufficientVocabulary:
		return fiber.StatusUnprocessableEntity
	case models.KindRemoteUnavailable:
		if e.Timeout {
			return fiber.StatusGatewayTimeout
		}
		return fiber.StatusBadGateway
	case models.KindLLMParse:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ValidateStruct runs the shared validator and converts failures into a
// ValidationError listing the offending fields.
func ValidateStruct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError("%s", err.Error())
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Namespace()+" failed on '"+fe.Tag()+"'")
	}
	return models.NewValidationError("%s", strings.Join(parts, "; "))
}
