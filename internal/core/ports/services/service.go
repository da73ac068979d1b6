package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Scope        ScopeResolverSvc
	User         UserSvcFacade
	Entity       EntitySvcFacade
	Approval     ApprovalSvc
	Notification NotificationSvcFacade
	Dashboard    DashboardSvc
	Conto        ContoSvcFacade
	Template     ProjectTemplateSvc
	Message      MessageSvc
	APIToken     APITokenSvc
	TokenService TokenSvcFacade
	GoogleOAuth  GoogleOAuthHandlerSvcFacade

	// Background workers started by main and stopped on shutdown.
	OutboxRelay BackgroundWorker
	Cleaner     BackgroundWorker
}
