package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the credential record
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name" json:"name,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Roles         []*Role    `bun:"m2m:users_roles,join:User=Role" json:"roles,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// RoleNames returns the normalized role names held by the user
func (u *User) RoleNames() []string {
	if u == nil {
		return nil
	}
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r != nil {
			names = append(names, r.Name)
		}
	}
	return NormalizeRoles(names)
}

// Role is a named permission tier, stored as ROLE_<NAME>
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            int64  `bun:"id,pk,autoincrement" json:"id"`
	Name          string `bun:"name,notnull,unique" json:"name"`
}

// UserRole links users and roles
type UserRole struct {
	bun.BaseModel `bun:"table:users_roles,alias:usrrol"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id"`
	RoleID        int64     `bun:"role_id,pk"`
	Role          *Role     `bun:"rel:belongs-to,join:role_id=id"`
}

// RegisterModels must run before any query that loads User.Roles
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*UserRole)(nil))
}

// Identity is the caller bound to a single request after token verification
type Identity struct {
	Subject   string    `json:"subject"`
	Roles     []string  `json:"roles"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HasRole reports whether the identity holds role
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	role = NormalizeRole(role)
	if role == "" {
		return false
	}
	for _, r := range i.Roles {
		if NormalizeRole(r) == role {
			return true
		}
	}
	return false
}
