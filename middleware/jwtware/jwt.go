package jwtware

import (
	"errors"
	"strings"
	"time"

	auth "github.com/goliatone/go-blog-auth"
	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "header:" + router.HeaderAuthorization
	// ErrJWTMissingOrMalformed no credential was presented in any lookup
	// location. The gate treats it as an anonymous request.
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
)

// DefaultContextKey is where the verified identity lives in router locals
const DefaultContextKey = "user"

// Verifier validates raw tokens. auth.TokenService implements it.
type Verifier interface {
	Verify(raw string, now time.Time) (*auth.Identity, error)
}

type Config struct {
	// Filter skips the middleware when it returns true
	Filter       func(router.Context) bool
	ErrorHandler router.ErrorHandler
	// Verifier is required
	Verifier    Verifier
	ContextKey  string
	TokenLookup string
	AuthScheme  string
	Clock       auth.Clock
	Logger      auth.Logger
}

// New returns the authentication gate. A request without a bearer token
// continues anonymously; a request with a token that fails verification is
// handed to the error handler and never reaches the next handler.
func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return next(ctx)
			}

			raw, err := ExtractRawTokenFromContext(ctx, extractors)
			if err != nil || raw == "" {
				return next(ctx)
			}

			identity, err := cfg.Verifier.Verify(raw, cfg.Clock())
			if err != nil {
				cfg.Logger.Debug("token rejected", "path", ctx.Path(), "error", err)
				return cfg.ErrorHandler(ctx, err)
			}

			prevCtx := ctx.Context()
			defer func() {
				ctx.Locals(cfg.ContextKey, nil)
				ctx.SetContext(prevCtx)
			}()

			ctx.Locals(cfg.ContextKey, identity)
			ctx.SetContext(auth.WithIdentity(prevCtx, identity))

			return next(ctx)
		}
	}
}

// GetIdentity returns the identity bound by the gate for this request
func GetIdentity(ctx router.Context, contextKey ...string) (*auth.Identity, bool) {
	key := DefaultContextKey
	if len(contextKey) > 0 && contextKey[0] != "" {
		key = contextKey[0]
	}

	if identity, ok := ctx.Locals(key).(*auth.Identity); ok && identity != nil {
		return identity, true
	}

	return auth.IdentityFromContext(ctx.Context())
}

func ExtractRawTokenFromContext(ctx router.Context, extractors []JWTExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Verifier == nil {
		panic("AUTH: JWT middleware configuration: Verifier is required.")
	}

	if cfg.ErrorHandler == nil {
		// defer to the app error handler
		cfg.ErrorHandler = func(_ router.Context, err error) error {
			return err
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	if cfg.Logger == nil {
		cfg.Logger = auth.NewLogger("auth.jwtware")
	}

	return cfg
}

// FromConfig builds the gate options from the auth configuration
func FromConfig(authCfg auth.Config, verifier Verifier) Config {
	return Config{
		Verifier:   verifier,
		ContextKey: authCfg.GetContextKey(),
		AuthScheme: authCfg.GetAuthScheme(),
	}
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

// GetExtractors parses a lookup like "header:Authorization,query:token"
func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 && authSchemes[0] != "" {
		authScheme = strings.TrimSpace(authSchemes[0])
	}

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, jwtFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, jwtFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(parts[1]))
		}
	}

	return extractors
}

type JWTExtractor func(c router.Context) (string, error)

// jwtFromHeader only accepts "<scheme> <token>"; anything else counts as
// no token at all
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	prefix := authScheme + " "
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		if len(a) > len(prefix) && strings.EqualFold(a[:len(prefix)], prefix) {
			if token := strings.TrimSpace(a[len(prefix):]); token != "" {
				return token, nil
			}
		}
		return "", ErrJWTMissingOrMalformed
	}
}

func jwtFromQuery(param string) JWTExtractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

func jwtFromParam(param string) JWTExtractor {
	return func(c router.Context) (string, error) {
		token := c.Param(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

func jwtFromCookie(name string) JWTExtractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}
