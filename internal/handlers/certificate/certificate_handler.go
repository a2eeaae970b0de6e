// internal/handlers/certificate/certificate_handler.go
package certificate

import (
	"net/http"
	"strconv"

	"certhub-service/internal/domain/certificate"
	"certhub-service/internal/middleware"
	"certhub-service/internal/pkg/response"
	service "certhub-service/internal/service/certificate"

	"github.com/gin-gonic/gin"
)

type CertificateHandler struct {
	certService *service.CertificateService
}

func NewCertificateHandler(certService *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{
		certService: certService,
	}
}

// Issue creates one certificate for the caller's organization.
func (h *CertificateHandler) Issue(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)
	userID := middleware.MustGetUserID(c)

	var req certificate.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid issuance payload", err)
		return
	}

	result, err := h.certService.Issue(c.Request.Context(), orgID, userID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "certificate issued", result)
}

// IssueBulk creates a batch of certificates atomically.
func (h *CertificateHandler) IssueBulk(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)
	userID := middleware.MustGetUserID(c)

	var req certificate.BulkIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid bulk issuance payload", err)
		return
	}

	result, err := h.certService.IssueBulk(c.Request.Context(), orgID, userID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "certificates issued", result)
}

// List returns a filtered page of the organization's certificates.
func (h *CertificateHandler) List(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)

	var filters certificate.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.certService.List(c.Request.Context(), orgID, &filters)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "certificates retrieved", result)
}

// Get returns one certificate.
func (h *CertificateHandler) Get(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)

	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.certService.Get(c.Request.Context(), orgID, id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "certificate retrieved", result)
}

// Revoke marks an ACTIVE certificate revoked.
func (h *CertificateHandler) Revoke(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)
	userID := middleware.MustGetUserID(c)

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req certificate.RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid revoke payload", err)
		return
	}

	if err := h.certService.Revoke(c.Request.Context(), orgID, userID, id, req.Reason); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "certificate revoked", nil)
}

// Delete removes a certificate row.
func (h *CertificateHandler) Delete(c *gin.Context) {
	orgID := middleware.MustGetOrgID(c)

	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.certService.Delete(c.Request.Context(), orgID, id); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "certificate deleted", nil)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.Error(c, http.StatusBadRequest, "invalid certificate ID", err)
		return 0, false
	}
	return id, true
}
