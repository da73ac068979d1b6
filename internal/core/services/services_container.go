package services

import (
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, authorizer portssvc.PermissionChecker, storage portsrepo.FileStorage) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Scope and notifications come first, every state-changing service depends on them.
	container.Scope = NewScopeService(repos.UserRepo)
	container.Notification = NewNotificationService(repos.NotificationRepo, repos.UserRepo, repos.OutboxRepo)

	container.User = NewUserService(UserServiceDeps{
		TxRunner:   repos.TxRunner,
		UserRepo:   repos.UserRepo,
		Counters:   repos.DashboardRepo,
		Notifier:   container.Notification,
		Scope:      container.Scope,
		Authorizer: authorizer,
	})
	container.Entity = NewEntityService(EntityServiceDeps{
		TxRunner:   repos.TxRunner,
		EntityRepo: repos.EntityRepo,
		UserRepo:   repos.UserRepo,
		Counters:   repos.DashboardRepo,
		Storage:    storage,
		Notifier:   container.Notification,
		Scope:      container.Scope,
		Authorizer: authorizer,
	})
	container.Approval = NewApprovalService(ApprovalServiceDeps{
		TxRunner:   repos.TxRunner,
		EntityRepo: repos.EntityRepo,
		UserRepo:   repos.UserRepo,
		Counters:   repos.DashboardRepo,
		Notifier:   container.Notification,
		Authorizer: authorizer,
	})
	container.Dashboard = NewDashboardService(container.Scope, repos.DashboardRepo, repos.NotificationRepo, repos.MessageRepo)
	container.Conto = NewContoService(ContoServiceDeps{
		TxRunner:   repos.TxRunner,
		ContoRepo:  repos.ContoRepo,
		EntityRepo: repos.EntityRepo,
		UserRepo:   repos.UserRepo,
		Scope:      container.Scope,
		Ratios:     cfg.CommissionRatios,
		Notifier:   container.Notification,
		Authorizer: authorizer,
	})
	container.Template = NewProjectTemplateService(repos.TxRunner, repos.TemplateRepo, repos.EntityRepo, repos.DashboardRepo, container.Scope, authorizer)
	container.Message = NewMessageService(repos.MessageRepo, repos.UserRepo, container.Scope, authorizer)

	container.APIToken = NewAPITokenService(repos.APITokenRepo, container.User)
	container.TokenService = NewTokenService(cfg)
	container.GoogleOAuth = NewGoogleOAuthHandlerService(cfg)

	container.OutboxRelay = NewOutboxRelay(repos.OutboxRepo, container.Notification, RelayOptions{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxAttempts:  cfg.OutboxMaxAttempts,
		JitterMax:    cfg.OutboxPollInterval,
	})
	container.Cleaner = NewCleaner(repos.NotificationRepo, repos.OutboxRepo, cfg.CleanerInterval, cfg.NotificationRetention)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.ContoSvcFacade     = (*contoService)(nil)
	_ portssvc.DashboardSvc       = (*dashboardService)(nil)
	_ portssvc.ProjectTemplateSvc = (*templateService)(nil)
	_ portssvc.MessageSvc         = (*messageService)(nil)
	_ portssvc.APITokenSvc        = (*apiTokenService)(nil)
)
