package repositories

import (
	"context"
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
)

// APITokenRepository defines the interface for API token data access operations
type APITokenRepository interface {
	// Create persists a new API token
	Create(ctx context.Context, token *domain.APIToken) error

	// FindByID retrieves an API token by its ID
	FindByID(ctx context.Context, id string) (*domain.APIToken, error)

	// FindByUserID retrieves the live API tokens of a user
	FindByUserID(ctx context.Context, userID string) ([]domain.APIToken, error)

	// FindByHash finds a token by the hash of its secret
	FindByHash(ctx context.Context, tokenHash string) (*domain.APIToken, error)

	TouchLastUsed(ctx context.Context, id string, at time.Time) error

	Revoke(ctx context.Context, id string, at time.Time) error
}
