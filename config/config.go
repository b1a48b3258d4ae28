package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	auth "github.com/goliatone/go-blog-auth"
)

const (
	EnvSigningKey = "BLOG_AUTH_JWT_SECRET"
	EnvDSN        = "BLOG_AUTH_DSN"
	EnvAddress    = "BLOG_AUTH_ADDRESS"
)

// MinSigningKeyLength is the HS256 key floor, 256 bits
const MinSigningKeyLength = 32

type App struct {
	Debug     bool            `yaml:"debug" json:"debug"`
	Server    ServerOptions   `yaml:"server" json:"server"`
	Database  DatabaseOptions `yaml:"database" json:"database"`
	Auth      AuthOptions     `yaml:"auth" json:"auth"`
	Bootstrap AdminOptions    `yaml:"bootstrap" json:"bootstrap"`
}

type ServerOptions struct {
	Address         string `yaml:"address" json:"address"`
	ShutdownTimeout string `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DatabaseOptions is handed to the persistence client
type DatabaseOptions struct {
	DSN          string `yaml:"dsn" json:"dsn"`
	Debug        bool   `yaml:"debug" json:"debug"`
	PingTimeout  string `yaml:"ping_timeout" json:"ping_timeout"`
	MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns"`
}

// AuthOptions implements auth.Config
type AuthOptions struct {
	SigningKey      string `yaml:"signing_key" json:"-"`
	TokenExpiration string `yaml:"token_expiration" json:"token_expiration"`
	Issuer          string `yaml:"issuer" json:"issuer"`
	AuthScheme      string `yaml:"auth_scheme" json:"auth_scheme"`
	ContextKey      string `yaml:"context_key" json:"context_key"`
	HashidUserIDs   bool   `yaml:"hashid_user_ids" json:"hashid_user_ids"`
}

type AdminOptions struct {
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	Name         string `yaml:"name" json:"name"`
	Username     string `yaml:"username" json:"username"`
	Email        string `yaml:"email" json:"email"`
	Password     string `yaml:"password" json:"-"`
	PasswordFile string `yaml:"password_file" json:"password_file"`
}

var _ auth.Config = AuthOptions{}

// Defaults returns a config that runs locally once a signing key is set
func Defaults() *App {
	return &App{
		Server: ServerOptions{
			Address:         ":8080",
			ShutdownTimeout: "10s",
		},
		Database: DatabaseOptions{
			DSN:         "file:blog.db?cache=shared",
			PingTimeout: "5s",
		},
		Auth: AuthOptions{
			TokenExpiration: auth.DefaultTokenExpiration.String(),
			AuthScheme:      "Bearer",
			ContextKey:      "user",
		},
		Bootstrap: AdminOptions{
			Name:     "Administrator",
			Username: "admin",
			Email:    "admin@example.com",
		},
	}
}

func (o AuthOptions) GetSigningKey() string {
	return o.SigningKey
}

// GetTokenExpiration parses values like "720h"; bad or empty values give
// the default
func (o AuthOptions) GetTokenExpiration() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(o.TokenExpiration))
	if err != nil || d <= 0 {
		return auth.DefaultTokenExpiration
	}
	return d
}

func (o AuthOptions) GetIssuer() string {
	return o.Issuer
}

func (o AuthOptions) GetAuthScheme() string {
	if o.AuthScheme == "" {
		return "Bearer"
	}
	return o.AuthScheme
}

func (o AuthOptions) GetContextKey() string {
	if o.ContextKey == "" {
		return "user"
	}
	return o.ContextKey
}

func (o AuthOptions) GetHashidUserIDs() bool {
	return o.HashidUserIDs
}

func (d DatabaseOptions) GetDSN() string {
	return d.DSN
}

func (d DatabaseOptions) GetServer() string {
	return d.DSN
}

func (d DatabaseOptions) GetDriver() string {
	return "sqlite"
}

func (d DatabaseOptions) GetDebug() bool {
	return d.Debug
}

func (d DatabaseOptions) GetPingTimeout() time.Duration {
	t, err := time.ParseDuration(d.PingTimeout)
	if err != nil || t <= 0 {
		return 5 * time.Second
	}
	return t
}

func (d DatabaseOptions) GetOtelIdentifier() string {
	return "blog-auth"
}

// GetMaxOpenConns zero leaves the pool unbounded
func (d DatabaseOptions) GetMaxOpenConns() int {
	return d.MaxOpenConns
}

func (s ServerOptions) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// BootstrapOptions maps the admin section to auth.BootstrapAdminOptions
func (c *App) BootstrapOptions(logger auth.Logger) auth.BootstrapAdminOptions {
	return auth.BootstrapAdminOptions{
		Enabled:      c.Bootstrap.Enabled,
		Name:         c.Bootstrap.Name,
		Username:     c.Bootstrap.Username,
		Email:        c.Bootstrap.Email,
		Password:     c.Bootstrap.Password,
		PasswordFile: c.Bootstrap.PasswordFile,
		UseHashid:    c.Auth.HashidUserIDs,
		Logger:       logger,
	}
}

// ApplyEnv overlays environment variables on top of file values
func (c *App) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvSigningKey); ok && v != "" {
		c.Auth.SigningKey = v
	}
	if v, ok := lookup(EnvDSN); ok && v != "" {
		c.Database.DSN = v
	}
	if v, ok := lookup(EnvAddress); ok && v != "" {
		c.Server.Address = v
	}
}

// Validate rejects configurations the server must not start with
func (c *App) Validate() error {
	if len(c.Auth.SigningKey) < MinSigningKeyLength {
		return fmt.Errorf("auth.signing_key must be at least %d bytes, set it in the config file or %s", MinSigningKeyLength, EnvSigningKey)
	}
	if _, err := time.ParseDuration(c.Auth.TokenExpiration); c.Auth.TokenExpiration != "" && err != nil {
		return fmt.Errorf("auth.token_expiration: %w", err)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	return nil
}
