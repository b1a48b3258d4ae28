package auth_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-blog-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key-0123456789abcdef")

func newTestTokenService(t *testing.T, ttl time.Duration) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService(testSigningKey, ttl, "", &nopLogger{})
	require.NoError(t, err)
	return ts
}

func TestNewTokenService(t *testing.T) {
	t.Run("creates token service with logger", func(t *testing.T) {
		ts, err := auth.NewTokenService(testSigningKey, time.Hour, "blog", &nopLogger{})
		require.NoError(t, err)
		assert.Equal(t, time.Hour, ts.TTL())
	})

	t.Run("creates token service with nil logger", func(t *testing.T) {
		ts, err := auth.NewTokenService(testSigningKey, time.Hour, "", nil)
		require.NoError(t, err)
		assert.NotNil(t, ts)
	})

	t.Run("zero TTL falls back to default", func(t *testing.T) {
		ts, err := auth.NewTokenService(testSigningKey, 0, "", nil)
		require.NoError(t, err)
		assert.Equal(t, auth.DefaultTokenExpiration, ts.TTL())
	})

	t.Run("rejects empty key", func(t *testing.T) {
		_, err := auth.NewTokenService(nil, time.Hour, "", nil)
		assert.Error(t, err)
	})

	t.Run("rejects negative TTL", func(t *testing.T) {
		_, err := auth.NewTokenService(testSigningKey, -time.Second, "", nil)
		assert.Error(t, err)
	})
}

func TestTokenService_Issue(t *testing.T) {
	ts := newTestTokenService(t, 24*time.Hour)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	token, err := ts.Issue("admin@example.com", []string{"ROLE_ADMIN", "user"}, now)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	parsed, err := jwt.ParseWithClaims(token, &auth.JWTClaims{}, func(*jwt.Token) (any, error) {
		return testSigningKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)

	claims, ok := parsed.Claims.(*auth.JWTClaims)
	require.True(t, ok)
	assert.Equal(t, "admin@example.com", claims.Subject)
	assert.Equal(t, []string{"ADMIN", "USER"}, claims.Roles)
	assert.Equal(t, now, claims.Issued().UTC())
	assert.Equal(t, now.Add(24*time.Hour), claims.Expires().UTC())
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, jwt.SigningMethodHS256.Alg(), parsed.Method.Alg())
}

func TestTokenService_IssueRequiresSubject(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)
	_, err := ts.Issue("  ", nil, time.Now())
	assert.Error(t, err)
}

func TestTokenService_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		subject string
		roles   []string
	}{
		{"admin@example.com", []string{auth.RoleAdmin, auth.RoleUser}},
		{"john", []string{auth.RoleUser}},
		{"no-roles", nil},
	}

	for _, tc := range cases {
		t.Run(tc.subject, func(t *testing.T) {
			token, err := ts.Issue(tc.subject, tc.roles, t0)
			require.NoError(t, err)

			identity, err := ts.Verify(token, t0.Add(time.Second))
			require.NoError(t, err)
			assert.Equal(t, tc.subject, identity.Subject)
			assert.ElementsMatch(t, auth.NormalizeRoles(tc.roles), identity.Roles)
			assert.Equal(t, t0, identity.IssuedAt.UTC())
			assert.Equal(t, t0.Add(time.Hour), identity.ExpiresAt.UTC())
		})
	}
}

func TestTokenService_ExpiryMonotonicity(t *testing.T) {
	ttl := 10 * time.Second
	ts := newTestTokenService(t, ttl)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	token, err := ts.Issue("john", []string{auth.RoleUser}, t0)
	require.NoError(t, err)

	for offset := time.Duration(0); offset < ttl; offset += time.Second {
		_, err := ts.Verify(token, t0.Add(offset))
		assert.NoError(t, err, "offset %s should be valid", offset)
	}

	for _, offset := range []time.Duration{ttl, ttl + time.Nanosecond, ttl + time.Second, 48 * time.Hour} {
		_, err := ts.Verify(token, t0.Add(offset))
		require.Error(t, err, "offset %s should be expired", offset)
		assert.True(t, auth.IsTokenExpiredError(err))
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	}
}

func TestTokenService_TamperRejection(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	token, err := ts.Issue("john", []string{auth.RoleUser}, t0)
	require.NoError(t, err)
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	tampered := map[string]string{
		"truncated":      parts[0] + "." + parts[1],
		"empty sig":      parts[0] + "." + parts[1] + ".",
		"extra segment":  token + ".AAAA",
		"swapped claims": parts[0] + "." + parts[0] + "." + parts[2],
	}

	for name, raw := range tampered {
		t.Run(name, func(t *testing.T) {
			identity, err := ts.Verify(raw, t0.Add(time.Second))
			require.Error(t, err)
			assert.Nil(t, identity)
			assert.True(t, auth.IsTokenInvalidError(err))
		})
	}
}

func TestTokenService_EveryBitFlipRejected(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 8; i++ {
		token, err := ts.Issue(fmt.Sprintf("user%d", i), []string{auth.RoleUser}, t0)
		require.NoError(t, err)

		accepted := 0
		for pos := 0; pos < len(token); pos++ {
			for bit := 0; bit < 7; bit++ {
				b := []byte(token)
				b[pos] ^= 1 << bit

				identity, err := ts.Verify(string(b), t0.Add(time.Second))
				if err == nil {
					accepted++
					t.Errorf("token %d accepted with byte %d changed %q -> %q", i, pos, token[pos], b[pos])
					continue
				}
				assert.Nil(t, identity)
				assert.True(t, auth.IsTokenInvalidError(err), "pos %d bit %d: %v", pos, bit, err)
			}
		}
		assert.Zero(t, accepted)
	}
}

func TestTokenService_ForeignKeyAndGarbage(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	other, err := auth.NewTokenService([]byte("another-signing-key-0123456789abc"), time.Hour, "", nil)
	require.NoError(t, err)

	foreign, err := other.Issue("admin@example.com", []string{auth.RoleAdmin}, t0)
	require.NoError(t, err)

	_, err = ts.Verify(foreign, t0.Add(time.Second))
	assert.True(t, auth.IsTokenInvalidError(err))

	for _, raw := range []string{"", "Wrong Token", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30.AAAA"} {
		_, err := ts.Verify(raw, t0)
		assert.True(t, auth.IsTokenInvalidError(err), "raw %q", raw)
	}
}

func TestTokenService_SignatureCheckedBeforeExpiry(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	other, err := auth.NewTokenService([]byte("another-signing-key-0123456789abc"), time.Hour, "", nil)
	require.NoError(t, err)
	forged, err := other.Issue("admin@example.com", []string{auth.RoleAdmin}, t0)
	require.NoError(t, err)

	_, err = ts.Verify(forged, t0.Add(2*time.Hour))
	require.Error(t, err)
	assert.True(t, auth.IsTokenInvalidError(err))
	assert.False(t, auth.IsTokenExpiredError(err))
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":   "admin@example.com",
		"roles": []string{"ADMIN"},
		"exp":   now.Add(time.Hour).Unix(),
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ts.Verify(unsigned, now)
	assert.True(t, auth.IsTokenInvalidError(err))
}

func TestTokenService_RequiresExpiry(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "john"}).SignedString(testSigningKey)
	require.NoError(t, err)

	_, err = ts.Verify(token, time.Now())
	assert.True(t, auth.IsTokenInvalidError(err))
}

func TestTokenService_Issuer(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	blog, err := auth.NewTokenService(testSigningKey, time.Hour, "blog", nil)
	require.NoError(t, err)
	other, err := auth.NewTokenService(testSigningKey, time.Hour, "other", nil)
	require.NoError(t, err)

	token, err := other.Issue("john", nil, t0)
	require.NoError(t, err)

	_, err = blog.Verify(token, t0)
	assert.True(t, auth.IsTokenInvalidError(err))

	token, err = blog.Issue("john", nil, t0)
	require.NoError(t, err)

	identity, err := blog.Verify(token, t0)
	require.NoError(t, err)
	assert.Equal(t, "john", identity.Subject)
}

func TestTokenService_VerifyIsIdempotent(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	token, err := ts.Issue("john", []string{auth.RoleUser, auth.RoleAdmin}, t0)
	require.NoError(t, err)

	first, err := ts.Verify(token, t0.Add(time.Minute))
	require.NoError(t, err)
	second, err := ts.Verify(token, t0.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, first, second)

	first.Roles[0] = "MUTATED"
	third, err := ts.Verify(token, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, second, third)
}
