package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// memTokenRepo keeps tokens in memory, keyed by ID.
type memTokenRepo struct {
	tokens  map[string]*domain.APIToken
	touched []string
}

func (r *memTokenRepo) Create(_ context.Context, token *domain.APIToken) error {
	cp := *token
	r.tokens[token.ID] = &cp
	return nil
}

func (r *memTokenRepo) FindByID(_ context.Context, id string) (*domain.APIToken, error) {
	t, ok := r.tokens[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTokenRepo) FindByUserID(_ context.Context, userID string) ([]domain.APIToken, error) {
	var out []domain.APIToken
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memTokenRepo) FindByHash(_ context.Context, tokenHash string) (*domain.APIToken, error) {
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memTokenRepo) TouchLastUsed(_ context.Context, id string, at time.Time) error {
	r.touched = append(r.touched, id)
	r.tokens[id].LastUsedAt = &at
	return nil
}

func (r *memTokenRepo) Revoke(_ context.Context, id string, at time.Time) error {
	r.tokens[id].RevokedAt = &at
	return nil
}

type MockUserAuth struct {
	mock.Mock
}

func (m *MockUserAuth) AuthenticateUser(ctx context.Context, login, password string) (*domain.User, error) {
	args := m.Called(ctx, login, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserAuth) FindSignInUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserAuth) LoadActiveUser(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type APITokenServiceTestSuite struct {
	suite.Suite
	repo    *memTokenRepo
	users   *MockUserAuth
	service portssvc.APITokenSvc
	ctx     context.Context
}

func (s *APITokenServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = &memTokenRepo{tokens: map[string]*domain.APIToken{}}
	s.users = new(MockUserAuth)
	s.service = services.NewAPITokenService(s.repo, s.users)
}

func TestAPITokenServiceTestSuite(t *testing.T) {
	suite.Run(t, new(APITokenServiceTestSuite))
}

func (s *APITokenServiceTestSuite) TestCreateStoresOnlyHash() {
	ttl := 24 * time.Hour
	secret, token, err := s.service.CreateToken(s.ctx, "S1", "  integrazione crm ", &ttl)
	s.Require().NoError(err)

	s.Equal("integrazione crm", token.Name)
	s.True(strings.HasPrefix(secret, token.Prefix))
	s.NotEqual(secret, token.TokenHash)
	s.Require().NotNil(token.ExpiresAt)
	s.WithinDuration(time.Now().Add(ttl), *token.ExpiresAt, time.Minute)

	stored := s.repo.tokens[token.ID]
	s.Require().NotNil(stored)
	s.NotContains(stored.TokenHash, secret)
}

func (s *APITokenServiceTestSuite) TestCreateRequiresName() {
	_, _, err := s.service.CreateToken(s.ctx, "S1", "   ", nil)
	s.ErrorIs(err, apperrors.ErrValidation)
	s.Empty(s.repo.tokens)
}

func (s *APITokenServiceTestSuite) TestValidateResolvesActiveUser() {
	secret, token, err := s.service.CreateToken(s.ctx, "S1", "crm", nil)
	s.Require().NoError(err)
	user := activeUser("S1", domain.RoleSportelloLavoro, "R1")
	s.users.On("LoadActiveUser", mock.Anything, "S1").Return(&user, nil).Once()

	got, err := s.service.ValidateToken(s.ctx, secret)
	s.Require().NoError(err)
	s.Equal("S1", got.UserID)
	s.Equal([]string{token.ID}, s.repo.touched)
}

func (s *APITokenServiceTestSuite) TestValidateRejectsUnknownRevokedAndExpired() {
	_, err := s.service.ValidateToken(s.ctx, "not-a-token")
	s.ErrorIs(err, apperrors.ErrUnauthorized)

	secret, token, err := s.service.CreateToken(s.ctx, "S1", "crm", nil)
	s.Require().NoError(err)
	s.Require().NoError(s.service.RevokeToken(s.ctx, "S1", token.ID))
	_, err = s.service.ValidateToken(s.ctx, secret)
	s.ErrorIs(err, apperrors.ErrUnauthorized)

	expired := -time.Minute
	secret, _, err = s.service.CreateToken(s.ctx, "S1", "old", &expired)
	s.Require().NoError(err)
	_, err = s.service.ValidateToken(s.ctx, secret)
	s.ErrorIs(err, apperrors.ErrUnauthorized)

	s.users.AssertNotCalled(s.T(), "LoadActiveUser", mock.Anything, mock.Anything)
}

func (s *APITokenServiceTestSuite) TestValidateRejectsDisabledOwner() {
	secret, _, err := s.service.CreateToken(s.ctx, "G1", "crm", nil)
	s.Require().NoError(err)
	s.users.On("LoadActiveUser", mock.Anything, "G1").
		Return(nil, apperrors.NewForbiddenError("account is not active")).Once()

	_, err = s.service.ValidateToken(s.ctx, secret)
	s.ErrorIs(err, apperrors.ErrForbidden)
	s.Empty(s.repo.touched)
}

func (s *APITokenServiceTestSuite) TestRevokeOtherUsersTokenIsNotFound() {
	_, token, err := s.service.CreateToken(s.ctx, "S1", "crm", nil)
	s.Require().NoError(err)

	err = s.service.RevokeToken(s.ctx, "G1", token.ID)
	s.ErrorIs(err, apperrors.ErrNotFound)
	s.Nil(s.repo.tokens[token.ID].RevokedAt)

	err = s.service.RevokeToken(s.ctx, "S1", "missing")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *APITokenServiceTestSuite) TestListOmitsRevoked() {
	_, keep, err := s.service.CreateToken(s.ctx, "S1", "keep", nil)
	s.Require().NoError(err)
	_, drop, err := s.service.CreateToken(s.ctx, "S1", "drop", nil)
	s.Require().NoError(err)
	s.Require().NoError(s.service.RevokeToken(s.ctx, "S1", drop.ID))

	tokens, err := s.service.ListTokens(s.ctx, "S1")
	s.Require().NoError(err)
	s.Require().Len(tokens, 1)
	s.Equal(keep.ID, tokens[0].ID)
}
