// internal/handlers/organization/organization_handler.go
package organization

import (
	"net/http"
	"strconv"
	"strings"

	"certhub-service/internal/domain/organization"
	"certhub-service/internal/domain/plan"
	"certhub-service/internal/middleware"
	"certhub-service/internal/pkg/response"
	auditsvc "certhub-service/internal/service/audit"
	service "certhub-service/internal/service/organization"

	"github.com/gin-gonic/gin"
)

type OrganizationHandler struct {
	orgService *service.OrganizationService
	recorder   *auditsvc.Recorder
}

func NewOrganizationHandler(orgService *service.OrganizationService, recorder *auditsvc.Recorder) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
		recorder:   recorder,
	}
}

// GetProfile returns the caller's organization.
func (h *OrganizationHandler) GetProfile(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)

	profile, err := h.orgService.Profile(c.Request.Context(), orgID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "organization retrieved", profile)
}

// UpdateProfile applies a partial update to the caller's organization.
func (h *OrganizationHandler) UpdateProfile(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)

	var req organization.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid profile payload", err)
		return
	}

	profile, err := h.orgService.UpdateProfile(c.Request.Context(), orgID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "organization updated", profile)
}

// ListAuditEvents returns the organization's recent audit trail.
func (h *OrganizationHandler) ListAuditEvents(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.recorder.ListByOrg(c.Request.Context(), orgID, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "audit events retrieved", events)
}

// ========== Super-admin endpoints ==========

// ListPending returns organizations awaiting approval.
func (h *OrganizationHandler) ListPending(c *gin.Context) {
	orgs, err := h.orgService.ListPending(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "pending organizations retrieved", orgs)
}

// Approve activates a PENDING organization.
func (h *OrganizationHandler) Approve(c *gin.Context) {
	orgID, ok := pathOrgID(c)
	if !ok {
		return
	}

	if err := h.orgService.Approve(c.Request.Context(), orgID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "organization approved", nil)
}

// Block suspends an organization and tears down its sessions.
func (h *OrganizationHandler) Block(c *gin.Context) {
	orgID, ok := pathOrgID(c)
	if !ok {
		return
	}

	if err := h.orgService.Block(c.Request.Context(), orgID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "organization blocked", nil)
}

// Unblock restores a BLOCKED organization.
func (h *OrganizationHandler) Unblock(c *gin.Context) {
	orgID, ok := pathOrgID(c)
	if !ok {
		return
	}

	if err := h.orgService.Unblock(c.Request.Context(), orgID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "organization unblocked", nil)
}

// Delete removes an organization and everything under it.
func (h *OrganizationHandler) Delete(c *gin.Context) {
	orgID, ok := pathOrgID(c)
	if !ok {
		return
	}

	if err := h.orgService.Delete(c.Request.Context(), orgID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "organization deleted", nil)
}

// SetPlan switches an organization to another tier.
func (h *OrganizationHandler) SetPlan(c *gin.Context) {
	orgID, ok := pathOrgID(c)
	if !ok {
		return
	}

	var req struct {
		Plan string `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid plan payload", err)
		return
	}

	name := plan.Name(strings.ToUpper(req.Plan))
	switch name {
	case plan.Free, plan.Pro, plan.Enterprise:
	default:
		response.Error(c, http.StatusBadRequest, "unknown plan name", nil)
		return
	}

	if err := h.orgService.SetPlan(c.Request.Context(), orgID, name); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "organization plan updated", nil)
}

func pathOrgID(c *gin.Context) (int64, bool) {
	orgID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orgID < 1 {
		response.Error(c, http.StatusBadRequest, "invalid organization ID", err)
		return 0, false
	}
	return orgID, true
}
