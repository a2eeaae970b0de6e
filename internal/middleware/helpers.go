// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// MustGetOrgID gets the verified tenant id from context or panics. Handlers
// behind Auth() may rely on it being present.
func MustGetOrgID(c *gin.Context) int64 {
	orgID, exists := GetOrgID(c)
	if !exists {
		panic("org_id not found in context")
	}
	return orgID
}

// MustGetUserID gets the verified user id from context or panics.
func MustGetUserID(c *gin.Context) int64 {
	userID, exists := GetUserID(c)
	if !exists {
		panic("user_id not found in context")
	}
	return userID
}

func GetOrgID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("org_id")
	if !exists {
		return 0, false
	}
	orgID, ok := v.(int64)
	return orgID, ok
}

func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	userID, ok := v.(int64)
	return userID, ok
}

// GetRole gets the principal's role from context, or "".
func GetRole(c *gin.Context) string {
	v, exists := c.Get("role")
	if !exists {
		return ""
	}
	role, ok := v.(string)
	if !ok {
		return ""
	}
	return role
}

// IsSuperAdmin checks if the principal may use the tenant-filter bypass.
func IsSuperAdmin(c *gin.Context) bool {
	return GetRole(c) == "super_admin"
}
