package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/utils"
)

// tokenPrefixLen is how much of the secret is kept in clear for listings.
const tokenPrefixLen = 12

// apiTokenService implements the APITokenSvc interface
type apiTokenService struct {
	BaseService
	tokenRepo repositories.APITokenRepository
	userSvc   portssvc.UserAuthSvc
}

// NewAPITokenService creates a new instance of apiTokenService
func NewAPITokenService(tokenRepo repositories.APITokenRepository, userSvc portssvc.UserAuthSvc) portssvc.APITokenSvc {
	return &apiTokenService{
		tokenRepo: tokenRepo,
		userSvc:   userSvc,
	}
}

// CreateToken generates a new API token for the user
func (s *apiTokenService) CreateToken(ctx context.Context, userID, name string, expiresIn *time.Duration) (string, *domain.APIToken, error) {
	name = strings.TrimSpace(name)
	if userID == "" {
		return "", nil, apperrors.NewValidationFailedError("user ID is required")
	}
	if name == "" {
		return "", nil, apperrors.NewValidationFailedError("token name is required")
	}

	secret, err := utils.GenerateAPITokenSecret(32)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	t := now()
	var expiresAt *time.Time
	if expiresIn != nil {
		expiry := t.Add(*expiresIn)
		expiresAt = &expiry
	}

	apiToken := &domain.APIToken{
		ID:        newID(),
		UserID:    userID,
		Name:      name,
		Prefix:    secret[:tokenPrefixLen],
		TokenHash: utils.HashToken(secret),
		ExpiresAt: expiresAt,
		CreatedAt: t,
	}
	if err := s.tokenRepo.Create(ctx, apiToken); err != nil {
		s.LogError(ctx, err, "Failed to save API token")
		return "", nil, err
	}

	s.LogInfo(ctx, "API token created", slog.String("token_id", apiToken.ID))
	return secret, apiToken, nil
}

// ListTokens returns all API tokens for a user
func (s *apiTokenService) ListTokens(ctx context.Context, userID string) ([]domain.APIToken, error) {
	if userID == "" {
		return nil, apperrors.NewValidationFailedError("user ID is required")
	}
	return s.tokenRepo.FindByUserID(ctx, userID)
}

// RevokeToken revokes a token owned by userID. Tokens of other users are reported as not found.
func (s *apiTokenService) RevokeToken(ctx context.Context, userID, tokenID string) error {
	token, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		return wrapNotFound(err, "api token")
	}
	if token.UserID != userID || token.RevokedAt != nil {
		return apperrors.NewNotFoundError("api token")
	}
	if err := s.tokenRepo.Revoke(ctx, tokenID, now()); err != nil {
		return err
	}
	s.LogInfo(ctx, "API token revoked", slog.String("token_id", tokenID))
	return nil
}

// ValidateToken checks if a token is valid and returns the associated user
func (s *apiTokenService) ValidateToken(ctx context.Context, tokenString string) (*domain.User, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token is required: %w", apperrors.ErrUnauthorized)
	}

	token, err := s.tokenRepo.FindByHash(ctx, utils.HashToken(tokenString))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("unknown api token: %w", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	t := now()
	if !token.IsUsable(t) {
		return nil, fmt.Errorf("api token revoked or expired: %w", apperrors.ErrUnauthorized)
	}

	user, err := s.userSvc.LoadActiveUser(ctx, token.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.TouchLastUsed(ctx, token.ID, t); err != nil {
		s.LogError(ctx, err, "Failed to record API token use", slog.String("token_id", token.ID))
	}
	return user, nil
}
