package api

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-blog/logging"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

const (
	TextCodeValidation    = "validation_failed"
	TextCodeMalformedBody = "malformed_body"
)

// ErrorResponse is the JSON body sent for every failed request
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Message  string            `json:"message"`
	TextCode string            `json:"text_code,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

var errorMappers = []errors.ErrorMapper{
	mapFiberError,
	errors.MapHTTPErrors,
}

// ErrorHandler renders errors as ErrorResponse. Rich errors keep their code
// and text code, fiber errors keep their status and anything else is a 500
// with a generic message.
func ErrorHandler(logger logging.Logger) fiber.ErrorHandler {
	logger = logging.Resolve("http", logger)

	return func(c *fiber.Ctx, err error) error {
		richErr := errors.MapToError(err, errorMappers)
		status := statusFor(richErr)

		args := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"category", richErr.Category,
			"text_code", richErr.TextCode,
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		}
		if len(richErr.Metadata) > 0 {
			args = append(args, "details", print.MaybePrettyJSON(richErr.Metadata))
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed", append(args, "error", err)...)
		} else {
			logger.Debug("request rejected", append(args, "error", richErr.Message)...)
		}

		if status == http.StatusUnauthorized {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		}

		body := ErrorBody{
			Message:  richErr.Message,
			TextCode: richErr.TextCode,
		}
		if len(richErr.ValidationErrors) > 0 {
			body.Fields = make(map[string]string, len(richErr.ValidationErrors))
			for _, fe := range richErr.ValidationErrors {
				body.Fields[fe.Field] = fe.Message
			}
		}

		return c.Status(status).JSON(ErrorResponse{Error: body})
	}
}

func statusFor(e *errors.Error) int {
	if e.Code >= 400 && e.Code < 600 {
		return e.Code
	}

	switch e.Category {
	case errors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case errors.CategoryMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

func mapFiberError(err error) *errors.Error {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		return nil
	}
	return errors.New(fe.Message, errors.HTTPStatusToCategory(fe.Code)).
		WithCode(fe.Code).
		WithTextCode(errors.HTTPStatusToTextCode(fe.Code))
}

// validationError turns ozzo validation errors into a rich validation error
// listing the offending fields.
func validationError(err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for field, ferr := range verrs {
			fields[field] = ferr.Error()
		}
		return errors.NewValidationFromMap("invalid request", fields).
			WithTextCode(TextCodeValidation).
			WithCode(http.StatusUnprocessableEntity)
	}
	return errors.Wrap(err, errors.CategoryBadInput, "invalid request").
		WithTextCode(TextCodeValidation).
		WithCode(errors.CodeBadRequest)
}

func malformedBody(err error) error {
	return errors.Wrap(err, errors.CategoryBadInput, "malformed request body").
		WithTextCode(TextCodeMalformedBody).
		WithCode(errors.CodeBadRequest)
}
