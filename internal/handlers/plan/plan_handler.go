// internal/handlers/plan/plan_handler.go
package plan

import (
	"net/http"
	"strings"

	"certhub-service/internal/domain/plan"
	"certhub-service/internal/pkg/response"
	service "certhub-service/internal/service/plan"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

// ListPlans returns all subscription tiers. Public pricing endpoint.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	result, err := h.planService.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "plans retrieved", result)
}

// GetPlan returns one tier by name.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	name, ok := tierName(c)
	if !ok {
		return
	}

	p, err := h.planService.GetByName(c.Request.Context(), name)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "plan retrieved", p)
}

// UpdatePlan applies a partial admin update to one tier.
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	name, ok := tierName(c)
	if !ok {
		return
	}

	var req plan.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid plan payload", err)
		return
	}

	p, err := h.planService.Update(c.Request.Context(), name, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "plan updated", p)
}

func tierName(c *gin.Context) (plan.Name, bool) {
	name := plan.Name(strings.ToUpper(c.Param("name")))
	switch name {
	case plan.Free, plan.Pro, plan.Enterprise:
		return name, true
	}
	response.Error(c, http.StatusBadRequest, "unknown plan name", nil)
	return "", false
}
