package auth

import "strings"

const (
	// RoleAdmin can create, update, and delete blog resources
	RoleAdmin = "ADMIN"
	// RoleUser is granted to every registered account
	RoleUser = "USER"
)

// RoleAuthorityPrefix is prepended to role names in the roles table
const RoleAuthorityPrefix = "ROLE_"

// NormalizeRole turns "role_admin", "ROLE_ADMIN" or " admin " into "ADMIN"
func NormalizeRole(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.TrimPrefix(name, RoleAuthorityPrefix)
}

// AuthorityName returns the stored form of a role, e.g. "ROLE_ADMIN"
func AuthorityName(role string) string {
	role = NormalizeRole(role)
	if role == "" {
		return ""
	}
	return RoleAuthorityPrefix + role
}

// NormalizeRoles normalizes, drops empties, and dedupes keeping order
func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		n := NormalizeRole(r)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// GetAllRoles returns the roles seeded at start up
func GetAllRoles() []string {
	return []string{RoleAdmin, RoleUser}
}
