// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the verified facts about a request principal. OrgID is the only
// source of tenant identity anywhere in the service; request bodies and query
// strings are never trusted for it.
type Claims struct {
	UserID  int64  `json:"user_id"`
	OrgID   int64  `json:"org_id"`
	Role    string `json:"role"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"` // access, email_verification
	jwt.RegisteredClaims
}

// IsSuperAdmin reports whether the principal may use the tenant-filter bypass.
func (c *Claims) IsSuperAdmin() bool {
	return c.Role == "super_admin"
}

// VerifyAudience checks if the expected audience is listed in the claims.
func (c *Claims) VerifyAudience(audience string, required bool) bool {
	if len(c.Audience) == 0 {
		return !required
	}
	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}
	return false
}
