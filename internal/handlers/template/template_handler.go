// internal/handlers/template/template_handler.go
package template

import (
	"net/http"
	"strconv"

	"certhub-service/internal/domain/template"
	"certhub-service/internal/middleware"
	"certhub-service/internal/pkg/response"
	service "certhub-service/internal/service/template"

	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	templateService *service.TemplateService
}

func NewTemplateHandler(templateService *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
	}
}

// Create stores a new certificate template.
func (h *TemplateHandler) Create(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)
	userID := middleware.MustGetUserID(c)

	var req template.SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid template payload", err)
		return
	}

	result, err := h.templateService.Create(c.Request.Context(), orgID, userID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "template created", result)
}

// Update rewrites an existing certificate template.
func (h *TemplateHandler) Update(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)
	userID := middleware.MustGetUserID(c)

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req template.SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid template payload", err)
		return
	}

	result, err := h.templateService.Update(c.Request.Context(), orgID, userID, id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "template updated", result)
}

// Get returns one template with its element tree.
func (h *TemplateHandler) Get(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)

	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.templateService.Get(c.Request.Context(), orgID, id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "template retrieved", result)
}

// List returns template summaries.
func (h *TemplateHandler) List(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)

	result, err := h.templateService.List(c.Request.Context(), orgID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "templates retrieved", result)
}

// SetDefault marks one template as the organization's default.
func (h *TemplateHandler) SetDefault(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)
	userID := middleware.MustGetUserID(c)

	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.templateService.SetDefault(c.Request.Context(), orgID, userID, id); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "default template set", nil)
}

// Delete removes a template.
func (h *TemplateHandler) Delete(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)
	userID := middleware.MustGetUserID(c)

	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.templateService.Delete(c.Request.Context(), orgID, userID, id); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "template deleted", nil)
}

// ========== Email templates ==========

// CreateEmail stores a notification email template.
func (h *TemplateHandler) CreateEmail(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)
	userID := middleware.MustGetUserID(c)

	var req template.SaveEmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid email template payload", err)
		return
	}

	result, err := h.templateService.CreateEmail(c.Request.Context(), orgID, userID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "email template created", result)
}

// UpdateEmail rewrites an email template.
func (h *TemplateHandler) UpdateEmail(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)
	userID := middleware.MustGetUserID(c)

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req template.SaveEmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid email template payload", err)
		return
	}

	result, err := h.templateService.UpdateEmail(c.Request.Context(), orgID, userID, id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "email template updated", result)
}

// GetEmail returns one email template with its decrypted body.
func (h *TemplateHandler) GetEmail(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)

	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.templateService.GetEmail(c.Request.Context(), orgID, id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "email template retrieved", result)
}

// ListEmail returns email template summaries.
func (h *TemplateHandler) ListEmail(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)

	result, err := h.templateService.ListEmail(c.Request.Context(), orgID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "email templates retrieved", result)
}

// DeleteEmail removes an email template.
func (h *TemplateHandler) DeleteEmail(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)
	userID := middleware.MustGetUserID(c)

	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.templateService.DeleteEmail(c.Request.Context(), orgID, userID, id); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "email template deleted", nil)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.Error(c, http.StatusBadRequest, "invalid template ID", err)
		return 0, false
	}
	return id, true
}
