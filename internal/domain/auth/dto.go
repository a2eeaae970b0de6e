// internal/domain/auth/dto.go
package auth

type RegisterRequest struct {
	OrganizationName string `json:"organization_name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	FullName         string `json:"full_name" binding:"required"`
	Domain           string `json:"domain"`
	Website          string `json:"website"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Device   string `json:"device"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        *UserProfile `json:"user"`
}

type UserProfile struct {
	ID       int64  `json:"id"`
	OrgID    int64  `json:"org_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// ToProfile maps a user to its API shape.
func ToProfile(u *User) *UserProfile {
	return &UserProfile{
		ID:       u.ID,
		OrgID:    u.OrgID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     string(u.Role),
	}
}
