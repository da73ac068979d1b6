package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	TxRunner         TxRunner
	UserRepo         UserRepositoryFacade
	EntityRepo       EntityRepositoryFacade
	NotificationRepo NotificationRepository
	OutboxRepo       OutboxRepositoryFacade
	DashboardRepo    DashboardRepositoryFacade
	ContoRepo        ContoRepository
	TemplateRepo     ProjectTemplateRepository
	MessageRepo      MessageRepository
	APITokenRepo     APITokenRepository
}
