// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"certhub-service/internal/domain/auth"
	"certhub-service/internal/middleware"
	"certhub-service/internal/pkg/response"
	service "certhub-service/internal/service/auth"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates an organization with its first admin user.
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid registration payload", err)
		return
	}

	profile, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "organization registered, verification email sent", profile)
}

// VerifyEmail consumes the token from the verification link.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusBadRequest, "token is required", nil)
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), token); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "email verified", nil)
}

// Login authenticates a user and opens a session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid login payload", err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", result)
}

// Logout invalidates the current session.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	jti := c.GetString("jti")

	if err := h.authService.Logout(c.Request.Context(), userID, jti); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "logged out", nil)
}
