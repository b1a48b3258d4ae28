package auth

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// DefaultTokenExpiration is used when the configured TTL is zero
const DefaultTokenExpiration = 30 * 24 * time.Hour

var allowedSigningMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// TokenService signs and verifies bearer tokens.
// Claims use second precision: iat is the issue time truncated to the
// second and exp is iat plus the TTL.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, ttl time.Duration, issuer string, logger Logger) (*TokenService, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("signing key must not be empty", errors.CategoryBadInput)
	}

	if ttl < 0 {
		return nil, errors.New("token TTL must be non-negative", errors.CategoryBadInput)
	}

	if ttl == 0 {
		ttl = DefaultTokenExpiration
	}

	key := make([]byte, len(signingKey))
	copy(key, signingKey)

	return &TokenService{
		signingKey: key,
		ttl:        ttl,
		issuer:     issuer,
		logger:     ensureLogger(logger, "auth.tokens"),
	}, nil
}

// NewTokenServiceFromConfig reads key, TTL and issuer from cfg
func NewTokenServiceFromConfig(cfg Config, logger Logger) (*TokenService, error) {
	return NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		logger,
	)
}

// TTL returns the token lifetime
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Issue mints a token for subject carrying roles
func (ts *TokenService) Issue(subject string, roles []string, now time.Time) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token subject is required", errors.CategoryBadInput)
	}

	issuedAt := now.Truncate(time.Second)

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ts.ttl)),
		},
		Roles: NormalizeRoles(roles),
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenService) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Verify checks signature first and expiry second, then returns the identity.
func (ts *TokenService) Verify(raw string, now time.Time) (*Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrTokenInvalid
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods(allowedSigningMethods),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		// unused trailing bits in the last base64 character must be zero
		jwt.WithStrictDecoding(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	claims := &JWTClaims{}
	token, err := jwt.NewParser(parserOptions...).ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	})

	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			ts.logger.Debug("token verification failed", "reason", "expired")
			return nil, ErrTokenExpired
		}
		ts.logger.Debug("token verification failed", "reason", "invalid", "error", err.Error())
		return nil, ErrTokenInvalid
	}

	if !token.Valid || claims.RegisteredClaims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims.Identity(), nil
}
