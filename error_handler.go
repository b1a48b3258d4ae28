package auth

import (
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// ErrorDetails is the JSON body for every failed request
type ErrorDetails struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Details   string    `json:"details"`
}

type ErrorHandlerConfig struct {
	Logger  Logger
	Metrics MetricsRecorder
	Clock   Clock
}

const (
	failureKindValidation = "validation"
	failureKindInternal   = "internal"
	failureKindHTTP       = "http"
)

// ErrorHandler is the fiber app error handler. It maps auth sentinels,
// validation errors, and rich errors to status codes, logs the failure once,
// and stops the chain.
func ErrorHandler(cfg ErrorHandlerConfig) fiber.ErrorHandler {
	logger := ensureLogger(cfg.Logger, "auth.errors")
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return func(c *fiber.Ctx, err error) error {
		status, kind, body := translateError(err)

		logger.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"kind", kind,
			"message", errorMessage(err),
		)
		metrics.RecordFailure(kind, status)

		if body != nil {
			return c.Status(status).JSON(body)
		}

		return c.Status(status).JSON(ErrorDetails{
			Timestamp: clock(),
			Message:   errorMessage(err),
			Details:   "uri=" + c.Path(),
		})
	}
}

// translateError returns the status, the metric kind, and an optional body
// that replaces the default ErrorDetails
func translateError(err error) (int, string, any) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for field, ferr := range verrs {
			fields[field] = ferr.Error()
		}
		return http.StatusBadRequest, failureKindValidation, fields
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErrorStatus(richErr), richErrorKind(richErr), nil
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, failureKindHTTP, nil
	}

	return http.StatusInternalServerError, failureKindInternal, nil
}

func richErrorStatus(richErr *errors.Error) int {
	if richErr.Code >= 400 && richErr.Code < 600 {
		return richErr.Code
	}

	switch richErr.Category {
	case errors.CategoryAuth:
		return http.StatusForbidden
	case errors.CategoryAuthz:
		return http.StatusUnauthorized
	case errors.CategoryBadInput, errors.CategoryValidation, errors.CategoryConflict:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func richErrorKind(richErr *errors.Error) string {
	if richErr.TextCode != "" {
		return strings.ToLower(richErr.TextCode)
	}
	return failureKindInternal
}

func errorMessage(err error) string {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		if richErr.Category == errors.CategoryInternal && richErr.TextCode == "" {
			return "An unexpected server error occurred"
		}
		return richErr.Message
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Message
	}

	return "An unexpected server error occurred"
}
