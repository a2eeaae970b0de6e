// internal/handlers/verify/verify_handler.go
package verify

import (
	"net/http"

	"certhub-service/internal/pkg/response"
	service "certhub-service/internal/service/certificate"

	"github.com/gin-gonic/gin"
)

// VerifyHandler serves the public, unauthenticated certificate lookup.
type VerifyHandler struct {
	certService *service.CertificateService
}

func NewVerifyHandler(certService *service.CertificateService) *VerifyHandler {
	return &VerifyHandler{
		certService: certService,
	}
}

// Verify resolves a certificate by its public identifier.
func (h *VerifyHandler) Verify(c *gin.Context) {
	certificateID := c.Param("certificateId")
	if certificateID == "" {
		response.Error(c, http.StatusBadRequest, "certificate ID is required", nil)
		return
	}

	result, err := h.certService.Verify(c.Request.Context(), certificateID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "certificate verified", result)
}
