package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/impresahub/impresa_backend/cmd/docs"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/middleware"
	"github.com/impresahub/impresa_backend/internal/platform/config"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// authLimiter throttles the public auth routes and may be nil.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	authLimiter *limiter.Limiter,
	health HealthChecker,
) {
	registerOperationalRoutes(r, health)

	// Register public authentication routes
	google := NewGoogleOAuthHandler(services.GoogleOAuth, services.User, services.TokenService, cfg.FrontendBaseURL, cfg.IsProduction)
	registerAuthRoutes(r, services, authLimiter, google)

	setupAPIV1Routes(r, cfg, services)

	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific route registrations.
// API tokens are checked first; requests without one fall through to JWT authentication.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	service *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1",
		middleware.APITokenAuth(service.APIToken),
		middleware.AuthMiddleware(cfg.JWTSecret),
	)

	registerUserRoutes(v1, service.User)
	RegisterAPITokenRoutes(v1, service.APIToken)
	registerEntityRoutes(v1, service.Entity, cfg.MaxUploadSize)
	registerApprovalRoutes(v1, service.Approval)
	registerNotificationRoutes(v1, service.Notification)
	registerDashboardRoutes(v1, service.Dashboard)
	registerContoRoutes(v1, service.Conto, cfg.MaxUploadSize)
	registerProjectTemplateRoutes(v1, service.Template)
	registerMessageRoutes(v1, service.Message)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
