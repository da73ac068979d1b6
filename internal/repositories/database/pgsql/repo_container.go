package pgsql

import (
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxRunner:         newPgxTxRunner(dbPool),
		UserRepo:         newPgxUserRepository(dbPool),
		EntityRepo:       newPgxEntityRepository(dbPool),
		NotificationRepo: newPgxNotificationRepository(dbPool),
		OutboxRepo:       newPgxOutboxRepository(dbPool),
		DashboardRepo:    newPgxDashboardRepository(dbPool),
		ContoRepo:        newPgxContoRepository(dbPool),
		TemplateRepo:     newPgxProjectTemplateRepository(dbPool),
		MessageRepo:      newPgxMessageRepository(dbPool),
		APITokenRepo:     newPgxAPITokenRepository(dbPool),
	}
}
