package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// RegisterUserMessage carries a registration request
type RegisterUserMessage struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Roles    []string
	// UseHashid derives the user ID from the email instead of a random UUID
	UseHashid bool
}

type Auther struct {
	store     AccountRegisterer
	tokens    *TokenService
	passwords PasswordAuthenticator
	logger    Logger
	metrics   MetricsRecorder
	clock     Clock
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(store AccountRegisterer, tokens *TokenService) *Auther {
	return &Auther{
		store:     store,
		tokens:    tokens,
		passwords: BcryptAuthenticator,
		logger:    newDefLogger("auth.authenticator"),
		metrics:   NoopMetrics{},
		clock:     time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = ensureLogger(logger, "auth.authenticator")
	return s
}

func (s *Auther) WithMetrics(metrics MetricsRecorder) *Auther {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	s.metrics = metrics
	return s
}

func (s *Auther) WithClock(clock Clock) *Auther {
	if clock != nil {
		s.clock = clock
	}
	return s
}

func (s *Auther) WithPasswordAuthenticator(p PasswordAuthenticator) *Auther {
	if p != nil {
		s.passwords = p
	}
	return s
}

// TokenService returns the TokenService instance used by this Auther
func (s *Auther) TokenService() *TokenService {
	return s.tokens
}

// Login verifies the identifier (username or email) and password and returns
// a signed token. Unknown identifiers and wrong passwords fail the same way.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	identifier = strings.TrimSpace(identifier)

	user, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if !HasTextCode(err, TextCodeIdentityNotFound) {
			s.logger.Error("login credential lookup failed", "error", err)
			s.metrics.RecordLogin(LoginResultError)
			return "", errors.Wrap(err, errors.CategoryInternal, "failed to retrieve credential during login")
		}
		// equalize timing with the known-user path
		_ = s.passwords.ComparePasswordAndHash(password, timingHash())
		s.logger.Info("login rejected", "identifier", identifier, "reason", "unknown identifier")
		s.metrics.RecordLogin(LoginResultRejected)
		return "", ErrInvalidCredentials
	}

	if err := s.passwords.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Info("login rejected", "identifier", identifier, "reason", "password mismatch")
		s.metrics.RecordLogin(LoginResultRejected)
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(identifier, user.RoleNames(), s.clock())
	if err != nil {
		s.logger.Error("login token issue failed", "error", err)
		s.metrics.RecordLogin(LoginResultError)
		return "", err
	}

	s.logger.Info("login succeeded", "identifier", identifier)
	s.metrics.RecordLogin(LoginResultSuccess)

	return token, nil
}

// Register creates a credential. Username and email conflicts are reported
// separately; every account gets the USER role.
func (s *Auther) Register(ctx context.Context, msg RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), errors.CategoryOperation, "context cancelled during user registration")
	default:
	}

	username := getUsername(msg.Username, msg.Email)

	exists, err := s.store.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check username")
	}
	if exists {
		return nil, ErrUsernameExists
	}

	exists, err = s.store.ExistsByEmail(ctx, msg.Email)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check email")
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := s.passwords.HashPassword(msg.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Name:         msg.Name,
		Username:     username,
		Email:        strings.TrimSpace(msg.Email),
		PasswordHash: hash,
	}

	if msg.UseHashid {
		if err := assignHashid(user); err != nil {
			return nil, err
		}
	}

	roles := append([]string{RoleUser}, msg.Roles...)
	user, err = s.store.Register(ctx, user, NormalizeRoles(roles)...)
	if err != nil {
		s.logger.Error("register user failed", "username", username, "error", err)
		return nil, err
	}

	s.logger.Info("user registered", "username", user.Username, "roles", user.RoleNames())
	return user, nil
}

// assignHashid sets a deterministic ID derived from the user email
func assignHashid(user *User) error {
	id, err := hashid.NewUUID(user.Email)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to derive user id")
	}
	user.ID = id
	return nil
}

func getUsername(username, email string) string {
	username = strings.TrimSpace(username)
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}

var (
	timingHashOnce sync.Once
	timingHashVal  string
)

func timingHash() string {
	timingHashOnce.Do(func() {
		timingHashVal = RandomPasswordHash()
	})
	return timingHashVal
}
