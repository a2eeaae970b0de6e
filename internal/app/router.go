// internal/app/router.go
package app

import (
	authHandler "certhub-service/internal/handlers/auth"
	certHandler "certhub-service/internal/handlers/certificate"
	orgHandler "certhub-service/internal/handlers/organization"
	planHandler "certhub-service/internal/handlers/plan"
	templateHandler "certhub-service/internal/handlers/template"
	verifyHandler "certhub-service/internal/handlers/verify"
	"certhub-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler         *authHandler.AuthHandler
	PlanHandler         *planHandler.PlanHandler
	OrganizationHandler *orgHandler.OrganizationHandler
	CertificateHandler  *certHandler.CertificateHandler
	TemplateHandler     *templateHandler.TemplateHandler
	VerifyHandler       *verifyHandler.VerifyHandler
	AuthMiddleware      *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Public Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/register", h.AuthHandler.Register)
		authPublic.POST("/login", h.AuthHandler.Login)
		authPublic.GET("/verify-email", h.AuthHandler.VerifyEmail)
	}

	plans := api.Group("/plans")
	{
		plans.GET("", h.PlanHandler.ListPlans)
		plans.GET("/:name", h.PlanHandler.GetPlan)
	}

	// Public certificate verification by external identifier.
	api.GET("/verify/:certificateId", h.VerifyHandler.Verify)

	// ==================== Authenticated Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
	}

	org := api.Group("/organization")
	org.Use(h.AuthMiddleware.Auth())
	{
		org.GET("", h.OrganizationHandler.GetProfile)
		org.PUT("", h.AuthMiddleware.RequireRole("org_admin"), h.OrganizationHandler.UpdateProfile)
		org.GET("/audit-events", h.AuthMiddleware.RequireRole("org_admin"), h.OrganizationHandler.ListAuditEvents)
	}

	certificates := api.Group("/certificates")
	certificates.Use(h.AuthMiddleware.Auth())
	{
		certificates.POST("", h.CertificateHandler.Issue)
		certificates.POST("/bulk", h.CertificateHandler.IssueBulk)
		certificates.GET("", h.CertificateHandler.List)
		certificates.GET("/:id", h.CertificateHandler.Get)
		certificates.PUT("/:id/revoke", h.CertificateHandler.Revoke)
		certificates.DELETE("/:id", h.AuthMiddleware.RequireRole("org_admin"), h.CertificateHandler.Delete)
	}

	templates := api.Group("/templates")
	templates.Use(h.AuthMiddleware.Auth())
	{
		templates.POST("", h.TemplateHandler.Create)
		templates.GET("", h.TemplateHandler.List)
		templates.GET("/:id", h.TemplateHandler.Get)
		templates.PUT("/:id", h.TemplateHandler.Update)
		templates.PUT("/:id/default", h.TemplateHandler.SetDefault)
		templates.DELETE("/:id", h.TemplateHandler.Delete)
	}

	emailTemplates := api.Group("/email-templates")
	emailTemplates.Use(h.AuthMiddleware.Auth())
	{
		emailTemplates.POST("", h.TemplateHandler.CreateEmail)
		emailTemplates.GET("", h.TemplateHandler.ListEmail)
		emailTemplates.GET("/:id", h.TemplateHandler.GetEmail)
		emailTemplates.PUT("/:id", h.TemplateHandler.UpdateEmail)
		emailTemplates.DELETE("/:id", h.TemplateHandler.DeleteEmail)
	}

	// ==================== Super Admin Routes ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireSuperAdmin())
	{
		admin.PUT("/plans/:name", h.PlanHandler.UpdatePlan)

		adminOrgs := admin.Group("/organizations")
		{
			adminOrgs.GET("/pending", h.OrganizationHandler.ListPending)
			adminOrgs.PUT("/:id/approve", h.OrganizationHandler.Approve)
			adminOrgs.PUT("/:id/block", h.OrganizationHandler.Block)
			adminOrgs.PUT("/:id/unblock", h.OrganizationHandler.Unblock)
			adminOrgs.PUT("/:id/plan", h.OrganizationHandler.SetPlan)
			adminOrgs.DELETE("/:id", h.OrganizationHandler.Delete)
		}
	}
}
