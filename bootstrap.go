package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"os"
	"strings"

	"github.com/goliatone/go-errors"
)

// BootstrapAdminOptions describes the initial admin credential
type BootstrapAdminOptions struct {
	Enabled  bool
	Name     string
	Username string
	Email    string
	// Password is used as is. When empty a random one is generated and
	// written to PasswordFile.
	Password     string
	PasswordFile string
	// UseHashid derives the admin ID from the email
	UseHashid bool
	Logger    Logger
}

const generatedPasswordLength = 32

// BootstrapAdmin creates the admin credential with ADMIN and USER roles when
// neither its username nor its email is taken. Running it again is a no-op.
// It reports whether a user was created.
func BootstrapAdmin(ctx context.Context, users AccountRegisterer, opts BootstrapAdminOptions) (bool, error) {
	if !opts.Enabled {
		return false, nil
	}

	logger := ensureLogger(opts.Logger, "auth.bootstrap")

	opts.Username = strings.TrimSpace(opts.Username)
	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Username == "" || opts.Email == "" {
		return false, errors.New("bootstrap admin requires username and email", errors.CategoryValidation)
	}

	exists, err := users.ExistsByUsername(ctx, opts.Username)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check admin username")
	}
	if !exists {
		exists, err = users.ExistsByEmail(ctx, opts.Email)
		if err != nil {
			return false, errors.Wrap(err, errors.CategoryInternal, "failed to check admin email")
		}
	}
	if exists {
		logger.Debug("bootstrap admin already present", "username", opts.Username)
		return false, nil
	}

	password := opts.Password
	generated := password == ""
	if generated {
		if opts.PasswordFile == "" {
			return false, errors.New("bootstrap admin has no password and no password file", errors.CategoryValidation)
		}
		if password, err = generatePassword(generatedPasswordLength); err != nil {
			return false, errors.Wrap(err, errors.CategoryInternal, "failed to generate admin password")
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}

	name := opts.Name
	if name == "" {
		name = opts.Username
	}

	admin := &User{
		Name:         name,
		Username:     opts.Username,
		Email:        opts.Email,
		PasswordHash: hash,
	}
	if opts.UseHashid {
		if err := assignHashid(admin); err != nil {
			return false, err
		}
	}

	if _, err := users.Register(ctx, admin, RoleAdmin, RoleUser); err != nil {
		return false, err
	}

	if generated {
		if err := os.WriteFile(opts.PasswordFile, []byte(password+"\n"), 0o600); err != nil {
			return true, errors.Wrap(err, errors.CategoryInternal, "failed to write admin password file")
		}
		logger.Info("bootstrap admin created", "username", opts.Username, "password_file", opts.PasswordFile)
		return true, nil
	}

	logger.Info("bootstrap admin created", "username", opts.Username)
	return true, nil
}

func generatePassword(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:length], nil
}
