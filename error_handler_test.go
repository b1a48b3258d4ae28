package auth_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-blog-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newErrorApp(t *testing.T, logger auth.Logger, metrics auth.MetricsRecorder, err error) *fiber.App {
	t.Helper()
	now := time.Date(2024, 2, 2, 8, 0, 0, 0, time.UTC)
	app := fiber.New(fiber.Config{
		ErrorHandler: auth.ErrorHandler(auth.ErrorHandlerConfig{
			Logger:  logger,
			Metrics: metrics,
			Clock:   func() time.Time { return now },
		}),
	})
	app.Get("/api/v1/posts", func(c *fiber.Ctx) error {
		return err
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	body := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}
	return resp.StatusCode, body
}

func TestErrorHandler_Translation(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		kind    string
	}{
		{"token invalid", auth.ErrTokenInvalid, 403, auth.MessageNoAuthentication, "token_invalid"},
		{"token expired", auth.ErrTokenExpired, 403, auth.MessageNoAuthentication, "token_expired"},
		{"no principal", auth.ErrNoPrincipal, 403, auth.MessageNoAuthentication, "no_principal"},
		{"insufficient role", auth.ErrInsufficientRole, 401, auth.MessageAccessDenied, "insufficient_role"},
		{"invalid credentials", auth.ErrInvalidCredentials, 400, auth.MessageInvalidCredentials, "invalid_credentials"},
		{"username exists", auth.ErrUsernameExists, 400, "Username already exists!", "username_exists"},
		{"email exists", auth.ErrEmailExists, 400, "Email already exists", "email_exists"},
		{"not found", auth.NewResourceNotFound("Category", "id", 9), 404, "Category not found with id : '9'", "resource_not_found"},
		{"fiber error", fiber.ErrMethodNotAllowed, 405, "Method Not Allowed", "http"},
		{"plain error", io.ErrUnexpectedEOF, 500, "An unexpected server error occurred", "internal"},
		{"wrapped internal", goerrors.Wrap(io.EOF, goerrors.CategoryInternal, "db exploded"), 500, "An unexpected server error occurred", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &captureLogger{}
			spy := &metricsSpy{}
			app := newErrorApp(t, logger, spy, tt.err)

			status, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))

			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, body["message"])
			assert.Equal(t, "uri=/api/v1/posts", body["details"])
			assert.Equal(t, "2024-02-02T08:00:00Z", body["timestamp"])

			assert.Len(t, logger.byLevel("error"), 1, "failure is logged exactly once")
			require.Len(t, spy.failures, 1)
			if tt.kind != "" {
				assert.Equal(t, tt.kind, spy.failures[0])
			}
		})
	}
}

func TestErrorHandler_ValidationErrors(t *testing.T) {
	err := validation.Errors{
		"title":       errors.New("Post title must have at least 4 characters"),
		"description": errors.New("Post description must have at least 10 characters"),
	}
	spy := &metricsSpy{}
	app := newErrorApp(t, &nopLogger{}, spy, err)

	status, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Post title must have at least 4 characters", body["title"])
	assert.Equal(t, "Post description must have at least 10 characters", body["description"])
	assert.Equal(t, []string{"validation"}, spy.failures)
}

func TestErrorHandler_LogsWithoutSecrets(t *testing.T) {
	logger := &captureLogger{}
	app := newErrorApp(t, logger, nil, auth.ErrTokenInvalid)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer secret.token.value")
	status, _ := doJSON(t, app, req)
	require.Equal(t, http.StatusForbidden, status)

	calls := logger.byLevel("error")
	require.Len(t, calls, 1)
	for _, arg := range calls[0].args {
		if s, ok := arg.(string); ok {
			assert.NotContains(t, s, "secret.token.value")
		}
	}
}
