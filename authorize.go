package auth

// Decision is the outcome of Authorize: allowed, or denied with a reason
type Decision struct {
	reason error
}

// Allow is the allowing decision
func Allow() Decision {
	return Decision{}
}

// Deny returns a denying decision; a nil reason is treated as ErrNoPrincipal
func Deny(reason error) Decision {
	if reason == nil {
		reason = ErrNoPrincipal
	}
	return Decision{reason: reason}
}

// Allowed reports whether the request may proceed
func (d Decision) Allowed() bool {
	return d.reason == nil
}

// Reason is nil for allowed decisions
func (d Decision) Reason() error {
	return d.reason
}

// Authorize checks a single required role against the request identity.
// A nil identity is anonymous and always denied.
func Authorize(requiredRole string, identity *Identity) Decision {
	if identity == nil || identity.Subject == "" {
		return Deny(ErrNoPrincipal)
	}

	if !identity.HasRole(requiredRole) {
		return Deny(ErrInsufficientRole)
	}

	return Allow()
}
