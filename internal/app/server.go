// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"certhub-service/internal/config"
	"certhub-service/internal/db"
	authHandler "certhub-service/internal/handlers/auth"
	certHandler "certhub-service/internal/handlers/certificate"
	orgHandler "certhub-service/internal/handlers/organization"
	planHandler "certhub-service/internal/handlers/plan"
	templateHandler "certhub-service/internal/handlers/template"
	verifyHandler "certhub-service/internal/handlers/verify"
	"certhub-service/internal/middleware"
	"certhub-service/internal/pkg/jwt"
	"certhub-service/internal/pkg/sealed"
	"certhub-service/internal/pkg/session"
	"certhub-service/internal/repository/postgres"
	auditUsecase "certhub-service/internal/service/audit"
	authUsecase "certhub-service/internal/service/auth"
	certUsecase "certhub-service/internal/service/certificate"
	"certhub-service/internal/service/email"
	"certhub-service/internal/service/entitlement"
	orgUsecase "certhub-service/internal/service/organization"
	planUsecase "certhub-service/internal/service/plan"
	"certhub-service/internal/service/quota"
	templateUsecase "certhub-service/internal/service/template"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const expirySweepInterval = time.Hour

type Server struct {
	cfg         config.AppConfig
	engine      *gin.Engine
	logger      *zap.Logger
	authService *authUsecase.AuthService
	certService *certUsecase.CertificateService
}

func NewServer() (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	engine := gin.Default()
	return &Server{cfg: cfg, engine: engine}, nil
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	// ----- Logger -----
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	s.logger = logger

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Template encryption -----
	cipher, err := sealed.NewCipher(s.cfg.TemplateKey)
	if err != nil {
		return fmt.Errorf("failed to build template cipher: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Email -----
	emailSender := email.NewEmailSender(
		s.cfg.SMTPHost,
		s.cfg.SMTPPort,
		s.cfg.SMTPUser,
		s.cfg.SMTPPass,
		s.cfg.SMTPFromName,
		s.cfg.SMTPSecure,
	)

	// ----- Repositories -----
	planRepo := postgres.NewPlanRepository(pool)
	orgRepo := postgres.NewOrganizationRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	certRepo := postgres.NewCertificateRepository(pool)
	templateRepo := postgres.NewTemplateRepository(pool)
	emailTemplateRepo := postgres.NewEmailTemplateRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	// ----- Services -----
	recorder := auditUsecase.NewRecorder(auditRepo, logger)
	planService := planUsecase.NewPlanService(planRepo, redisClient, logger)
	entitlementService := entitlement.NewService(planService, logger)
	quotaService := quota.NewService(certRepo, logger)

	templateService := templateUsecase.NewTemplateService(
		templateRepo,
		emailTemplateRepo,
		orgRepo,
		entitlementService,
		cipher,
		recorder,
		logger,
	)
	certService := certUsecase.NewCertificateService(
		certRepo,
		orgRepo,
		entitlementService,
		quotaService,
		templateService,
		emailSender,
		recorder,
		logger,
	)
	orgService := orgUsecase.NewOrganizationService(
		orgRepo,
		planService,
		userRepo,
		certRepo,
		sessionManager,
		logger,
	)
	authService := authUsecase.NewAuthService(
		userRepo,
		orgRepo,
		jwtManager,
		sessionManager,
		rateLimiter,
		emailSender,
		s.cfg.PublicBaseURL,
		logger,
	)
	s.authService = authService
	s.certService = certService

	// ----- Seed plans & super admin -----
	if err := planService.SeedIfEmpty(ctx); err != nil {
		return fmt.Errorf("failed to seed plans: %w", err)
	}
	if err := s.initializeSuperAdmin(); err != nil {
		logger.Error("failed to initialize super admin", zap.Error(err))
	}

	// ----- Expiry sweep -----
	go s.runExpirySweep(context.Background())

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(authService)
	planHandlerInst := planHandler.NewPlanHandler(planService)
	orgHandlerInst := orgHandler.NewOrganizationHandler(orgService, recorder)
	certHandlerInst := certHandler.NewCertificateHandler(certService)
	templateHandlerInst := templateHandler.NewTemplateHandler(templateService)
	verifyHandlerInst := verifyHandler.NewVerifyHandler(certService)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:         authHandlerInst,
		PlanHandler:         planHandlerInst,
		OrganizationHandler: orgHandlerInst,
		CertificateHandler:  certHandlerInst,
		TemplateHandler:     templateHandlerInst,
		VerifyHandler:       verifyHandlerInst,
		AuthMiddleware:      authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}

// runExpirySweep periodically moves ACTIVE certificates past their expiry
// date to EXPIRED.
func (s *Server) runExpirySweep(ctx context.Context) {
	ticker := time.NewTicker(expirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if _, err := s.certService.ExpireDue(sweepCtx); err != nil {
				s.logger.Error("expiry sweep failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// initializeSuperAdmin creates the platform operator account if missing.
func (s *Server) initializeSuperAdmin() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	email := os.Getenv("SUPER_ADMIN_EMAIL")
	password := os.Getenv("SUPER_ADMIN_PASSWORD")
	fullName := os.Getenv("SUPER_ADMIN_NAME")

	if email == "" || password == "" {
		s.logger.Warn("SUPER_ADMIN_EMAIL or SUPER_ADMIN_PASSWORD not set, skipping super admin bootstrap")
		return nil
	}
	if fullName == "" {
		fullName = "Platform Administrator"
	}
	if len(password) < 8 {
		return fmt.Errorf("super admin password must be at least 8 characters")
	}

	return s.authService.EnsureSuperAdminExists(ctx, email, password, fullName)
}
