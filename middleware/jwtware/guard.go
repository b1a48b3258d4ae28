package jwtware

import (
	auth "github.com/goliatone/go-blog-auth"
	"github.com/goliatone/go-router"
)

// Guard turns auth.Authorize decisions into route middleware
type Guard struct {
	contextKey string
	metrics    auth.MetricsRecorder
}

// NewGuard reads identities stored under contextKey by the gate
func NewGuard(contextKey string, metrics auth.MetricsRecorder) *Guard {
	if contextKey == "" {
		contextKey = DefaultContextKey
	}
	if metrics == nil {
		metrics = auth.NoopMetrics{}
	}
	return &Guard{contextKey: contextKey, metrics: metrics}
}

// RequireRole denies the request before the next handler runs unless the
// bound identity holds role. Anonymous requests fail with ErrNoPrincipal.
func (g *Guard) RequireRole(role string) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			identity, _ := GetIdentity(ctx, g.contextKey)

			decision := auth.Authorize(role, identity)
			if !decision.Allowed() {
				g.metrics.RecordAuthorization(role, auth.AuthorizationDenied)
				return decision.Reason()
			}

			g.metrics.RecordAuthorization(role, auth.AuthorizationAllowed)
			return next(ctx)
		}
	}
}

// RequireRole is a Guard with the default context key and no metrics
func RequireRole(role string) router.MiddlewareFunc {
	return NewGuard(DefaultContextKey, nil).RequireRole(role)
}
