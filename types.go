package auth

import (
	"context"
	"log/slog"
	"os"
	"time"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() time.Duration
	GetIssuer() string
	GetAuthScheme() string
	GetContextKey() string
	GetHashidUserIDs() bool
}

// CredentialStore is the read side of the user store the auth core needs
type CredentialStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// AccountRegisterer persists new credentials
type AccountRegisterer interface {
	CredentialStore
	Register(ctx context.Context, user *User, roles ...string) (*User, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Clock returns the current time, injectable for tests
type Clock func() time.Time

type defLogger struct {
	logger *slog.Logger
}

func newDefLogger(component string) defLogger {
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return defLogger{logger: slog.New(h).With("component", component)}
}

func (d defLogger) Debug(msg string, args ...any) { d.logger.Debug(msg, args...) }
func (d defLogger) Info(msg string, args ...any)  { d.logger.Info(msg, args...) }
func (d defLogger) Warn(msg string, args ...any)  { d.logger.Warn(msg, args...) }
func (d defLogger) Error(msg string, args ...any) { d.logger.Error(msg, args...) }

// NewLogger returns the default structured logger tagged with component
func NewLogger(component string) Logger {
	return newDefLogger(component)
}

func ensureLogger(logger Logger, component string) Logger {
	if logger == nil {
		return newDefLogger(component)
	}
	return logger
}
