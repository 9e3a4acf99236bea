package handlers

import (
	"errors"
	"fmt"

	"bakehub/pkg/apperror"
	"bakehub/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondError writes err as JSON using the status of its error code.
// Untyped errors are reported as internal failures with fallback as message.
func respondError(c *fiber.Ctx, log *logger.Logger, err error, fallback string) error {
	typed := apperror.As(err)
	if typed == nil {
		typed = apperror.Internal(err, fallback)
	}
	code := typed.Code()
	meta := apperror.MetadataFor(code)

	body := fiber.Map{"code": code}
	switch code {
	case apperror.CodeInternal:
		log.Error(c.UserContext(), fallback, err)
		body["message"] = fallback
		body["error"] = meta.PublicMessage
	case apperror.CodeForbidden:
		body["message"] = meta.PublicMessage
	default:
		body["message"] = typed.Message()
	}

	if meta.DetailsAllowed && typed.Details() != nil {
		body["details"] = typed.Details()
		if details, ok := typed.Details().(map[string]string); ok {
			if reason, ok := details["reason"]; ok {
				body["reason"] = reason
			}
		}
	}
	return c.Status(meta.HTTPStatus).JSON(body)
}

// badRequest reports an unparsable request body.
func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// validationFailed lists every field that failed struct validation.
func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return badRequest(c, err)
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}
