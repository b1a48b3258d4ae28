package auth_test

import (
	"context"
	"sync"
	"testing"

	auth "github.com/goliatone/go-blog-auth"
	"github.com/goliatone/go-blog-auth/config"
	"github.com/goliatone/go-blog-auth/database"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type logCall struct {
	level   string
	message string
	args    []any
}

type captureLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *captureLogger) record(level, message string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, message: message, args: args})
}

func (l *captureLogger) Debug(message string, args ...any) { l.record("debug", message, args...) }
func (l *captureLogger) Info(message string, args ...any)  { l.record("info", message, args...) }
func (l *captureLogger) Warn(message string, args ...any)  { l.record("warn", message, args...) }
func (l *captureLogger) Error(message string, args ...any) { l.record("error", message, args...) }

func (l *captureLogger) byLevel(level string) []logCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []logCall{}
	for _, c := range l.calls {
		if c.level == level {
			out = append(out, c)
		}
	}
	return out
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := database.Open(context.Background(), config.DatabaseOptions{
		DSN:          ":memory:",
		MaxOpenConns: 1,
	}, nopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func registerUser(t *testing.T, users auth.Users, username, email, password string, roles ...string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user, err := users.Register(context.Background(), &auth.User{
		Name:         username,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}, roles...)
	require.NoError(t, err)
	return user
}
