package repositories

import (
	"context"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ContoRepository persists ledger entries.
type ContoRepository interface {
	SaveEntries(ctx context.Context, entries []domain.ContoEntry) error
	FindEntries(ctx context.Context, filter domain.ContoFilter) ([]domain.ContoEntry, int, error)
	// Balance sums signed amounts for userID; a nil userID sums the platform share.
	Balance(ctx context.Context, userID *string) (decimal.Decimal, error)
	ReferenceExists(ctx context.Context, referenceID string) (bool, error)
}
