// internal/domain/auth/entity.go
package auth

import (
	"database/sql"
	"time"
)

type Role string

const (
	// RoleSuperAdmin is the only role allowed to bypass the tenant filter, and
	// only through the explicitly-named admin repository methods.
	RoleSuperAdmin Role = "super_admin"
	RoleOrgAdmin   Role = "org_admin"
	RoleIssuer     Role = "issuer"
)

type User struct {
	ID           int64          `json:"id" db:"id"`
	OrgID        int64          `json:"org_id" db:"org_id"`
	Email        string         `json:"email" db:"email"`
	PasswordHash string         `json:"-" db:"password_hash"`
	FullName     string         `json:"full_name" db:"full_name"`
	Role         Role           `json:"role" db:"role"`
	EmailVerified bool          `json:"email_verified" db:"email_verified"`
	LastLoginAt  sql.NullTime   `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

func (u *User) IsSuperAdmin() bool { return u.Role == RoleSuperAdmin }
