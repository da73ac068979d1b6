package services_test

import (
	"context"
	"testing"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/core/services"
	"github.com/impresahub/impresa_backend/internal/dto"
	"github.com/impresahub/impresa_backend/internal/platform/authz"
	"github.com/impresahub/impresa_backend/internal/utils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type UserServiceTestSuite struct {
	suite.Suite
	users    *MockUserRepository
	counters *recordingCounters
	sink     *recordingSink
	service  portssvc.UserSvcFacade
	ctx      context.Context
}

const testPassword = "correct-horse-battery"

func (s *UserServiceTestSuite) SetupTest() {
	authorizer, err := authz.NewAuthorizer()
	s.Require().NoError(err)

	hash, err := utils.HashPassword(testPassword)
	s.Require().NoError(err)
	withPassword := func(u domain.User) domain.User {
		u.PasswordHash = hash
		return u
	}
	pending := activeUser("P1", domain.RoleSegnalatori, "")
	pending.Approval = *pendingState()
	pending.IsActive = false

	s.ctx = context.Background()
	s.users = (&MockUserRepository{}).withUsers(
		activeUser("SA1", domain.RoleSuperAdmin, ""),
		activeUser("A1", domain.RoleAdmin, ""),
		activeUser("R1", domain.RoleResponsabileTerritoriale, ""),
		withPassword(activeUser("S1", domain.RoleSportelloLavoro, "R1")),
		activeUser("G1", domain.RoleSegnalatori, "S1"),
		activeUser("R2", domain.RoleResponsabileTerritoriale, ""),
		withPassword(pending),
	)
	s.counters = &recordingCounters{}
	s.sink = &recordingSink{}
	s.service = services.NewUserService(services.UserServiceDeps{
		TxRunner:   &fakeTxRunner{},
		UserRepo:   s.users,
		Counters:   s.counters,
		Notifier:   s.sink,
		Scope:      services.NewScopeService(s.users),
		Authorizer: authorizer,
	})
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func actorFor(id string, role domain.UserRole) domain.Actor {
	return domain.Actor{UserID: id, Role: role, Name: "User " + id}
}

func newUserRequest(username string, role domain.UserRole) dto.CreateUserRequest {
	return dto.CreateUserRequest{
		Username: username,
		Email:    " " + username + "@Example.IT ",
		Password: testPassword,
		Name:     "Nuovo " + username,
		Role:     string(role),
	}
}

func (s *UserServiceTestSuite) TestNobodyCreatesSuperAdmins() {
	_, err := s.service.CreateUser(s.ctx, actorFor("SA1", domain.RoleSuperAdmin), newUserRequest("root2", domain.RoleSuperAdmin))
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *UserServiceTestSuite) TestOnlySuperAdminCreatesAdmins() {
	_, err := s.service.CreateUser(s.ctx, actorFor("A1", domain.RoleAdmin), newUserRequest("admin2", domain.RoleAdmin))
	s.ErrorIs(err, apperrors.ErrForbidden)

	s.users.On("SaveUser", mock.Anything, mock.Anything).Return(nil).Once()
	user, err := s.service.CreateUser(s.ctx, actorFor("SA1", domain.RoleSuperAdmin), newUserRequest("admin2", domain.RoleAdmin))
	s.Require().NoError(err)
	s.True(user.Approval.IsApproved())
	s.True(user.IsActive)
	s.Equal("admin2@example.it", user.Email)
	s.NotEqual(testPassword, user.PasswordHash)
	s.Empty(s.sink.requests)
}

func (s *UserServiceTestSuite) TestManagerCreatesPendingReport() {
	s.users.On("SaveUser", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.Role == domain.RoleSportelloLavoro && u.ManagedBy != nil && *u.ManagedBy == "R1"
	})).Return(nil).Once()

	user, err := s.service.CreateUser(s.ctx, actorFor("R1", domain.RoleResponsabileTerritoriale), newUserRequest("sportello9", domain.RoleSportelloLavoro))
	s.Require().NoError(err)
	s.True(user.Approval.IsPendingApproval())
	s.False(user.IsActive)
	s.False(user.CanSignIn())

	s.Equal([]domain.CounterDelta{{OwnerID: "R1", Kind: "user", Total: 1, Pending: 1}}, s.counters.deltas)
	s.Require().Len(s.sink.requests, 1)
	s.Equal(domain.NotificationType("user_pending"), s.sink.requests[0].Type)
	s.Empty(s.sink.requests[0].Recipients)
	s.users.AssertExpectations(s.T())
}

func (s *UserServiceTestSuite) TestManagerCannotCreatePeers() {
	_, err := s.service.CreateUser(s.ctx, actorFor("R1", domain.RoleResponsabileTerritoriale), newUserRequest("rt9", domain.RoleResponsabileTerritoriale))
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *UserServiceTestSuite) TestSegnalatoreCannotCreateUsers() {
	_, err := s.service.CreateUser(s.ctx, actorFor("G1", domain.RoleSegnalatori), newUserRequest("seg9", domain.RoleSegnalatori))
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *UserServiceTestSuite) TestManagerAssignsReportInsideScopeOnly() {
	req := newUserRequest("seg9", domain.RoleSegnalatori)
	req.ManagedBy = ptr("R2")
	_, err := s.service.CreateUser(s.ctx, actorFor("R1", domain.RoleResponsabileTerritoriale), req)
	s.ErrorIs(err, apperrors.ErrForbidden)

	s.users.On("SaveUser", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return *u.ManagedBy == "S1"
	})).Return(nil).Once()
	req.ManagedBy = ptr("S1")
	_, err = s.service.CreateUser(s.ctx, actorFor("R1", domain.RoleResponsabileTerritoriale), req)
	s.NoError(err)
}

func (s *UserServiceTestSuite) TestAdminManagerMustOutrankRole() {
	req := newUserRequest("seg9", domain.RoleSegnalatori)
	req.ManagedBy = ptr("G1")
	_, err := s.service.CreateUser(s.ctx, actorFor("A1", domain.RoleAdmin), req)
	s.ErrorIs(err, apperrors.ErrValidation)

	req.ManagedBy = ptr("nobody")
	_, err = s.service.CreateUser(s.ctx, actorFor("A1", domain.RoleAdmin), req)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *UserServiceTestSuite) TestDuplicateUsernameIsConflict() {
	_, err := s.service.CreateUser(s.ctx, actorFor("A1", domain.RoleAdmin), newUserRequest("G1", domain.RoleSegnalatori))
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *UserServiceTestSuite) TestRegisterStartsPending() {
	s.users.On("SaveUser", mock.Anything, mock.Anything).Return(nil).Once()

	user, err := s.service.RegisterUser(s.ctx, dto.RegisterRequest{Username: "mario", Email: "mario@example.it", Password: testPassword, Name: "Mario"})
	s.Require().NoError(err)
	s.Equal(domain.RoleSegnalatori, user.Role)
	s.True(user.Approval.IsPendingApproval())
	s.Equal(user.UserID, user.CreatedBy)
	s.Nil(user.ManagedBy)
	s.Equal([]domain.CounterDelta{{OwnerID: user.UserID, Kind: "user", Total: 1, Pending: 1}}, s.counters.deltas)
	s.Len(s.sink.requests, 1)
}

func (s *UserServiceTestSuite) TestAuthenticate() {
	user, err := s.service.AuthenticateUser(s.ctx, "S1", testPassword)
	s.Require().NoError(err)
	s.Equal("S1", user.UserID)

	user, err = s.service.AuthenticateUser(s.ctx, "S1@EXAMPLE.IT", testPassword)
	s.Require().NoError(err)
	s.Equal("S1", user.UserID)

	_, err = s.service.AuthenticateUser(s.ctx, "S1", "wrong-password")
	s.ErrorIs(err, apperrors.ErrUnauthorized)

	_, err = s.service.AuthenticateUser(s.ctx, "ghost", testPassword)
	s.ErrorIs(err, apperrors.ErrUnauthorized)

	_, err = s.service.AuthenticateUser(s.ctx, "P1", testPassword)
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *UserServiceTestSuite) TestGetUserOutsideScopeIsForbidden() {
	_, err := s.service.GetUserByID(s.ctx, actorFor("S1", domain.RoleSportelloLavoro), "R2")
	s.ErrorIs(err, apperrors.ErrForbidden)

	user, err := s.service.GetUserByID(s.ctx, actorFor("S1", domain.RoleSportelloLavoro), "G1")
	s.Require().NoError(err)
	s.Equal("G1", user.UserID)

	_, err = s.service.GetUserByID(s.ctx, actorFor("A1", domain.RoleAdmin), "ghost")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *UserServiceTestSuite) TestListUsersAppliesScope() {
	s.users.On("FindUsers", mock.Anything, mock.MatchedBy(func(f domain.UserFilter) bool {
		return !f.Global && len(f.OwnerIDs) == 2 && f.Role == nil
	})).Return([]domain.User{}, 0, nil).Once()

	_, _, err := s.service.ListUsers(s.ctx, actorFor("S1", domain.RoleSportelloLavoro), dto.ListUsersParams{})
	s.NoError(err)

	_, _, err = s.service.ListUsers(s.ctx, actorFor("S1", domain.RoleSportelloLavoro), dto.ListUsersParams{Role: "wizard"})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *UserServiceTestSuite) TestUpdateRules() {
	name := "Altro"
	_, err := s.service.UpdateUser(s.ctx, actorFor("S1", domain.RoleSportelloLavoro), "G1", dto.UpdateUserRequest{Name: &name})
	s.ErrorIs(err, apperrors.ErrForbidden)

	_, err = s.service.UpdateUser(s.ctx, actorFor("A1", domain.RoleAdmin), "SA1", dto.UpdateUserRequest{Name: &name})
	s.ErrorIs(err, apperrors.ErrForbidden)

	taken := "G1@example.it"
	_, err = s.service.UpdateUser(s.ctx, actorFor("S1", domain.RoleSportelloLavoro), "S1", dto.UpdateUserRequest{Email: &taken})
	s.ErrorIs(err, apperrors.ErrDuplicate)

	s.users.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.UserID == "S1" && u.Name == "Altro" && u.LastUpdatedBy == "S1"
	})).Return(nil).Once()
	updated, err := s.service.UpdateUser(s.ctx, actorFor("S1", domain.RoleSportelloLavoro), "S1", dto.UpdateUserRequest{Name: ptr(" Altro ")})
	s.Require().NoError(err)
	s.Equal("Altro", updated.Name)
}

func (s *UserServiceTestSuite) TestDeleteRules() {
	admin := actorFor("A1", domain.RoleAdmin)
	s.ErrorIs(s.service.DeleteUser(s.ctx, admin, "A1"), apperrors.ErrValidation)
	s.ErrorIs(s.service.DeleteUser(s.ctx, admin, "SA1"), apperrors.ErrForbidden)
	s.ErrorIs(s.service.DeleteUser(s.ctx, actorFor("R1", domain.RoleResponsabileTerritoriale), "G1"), apperrors.ErrForbidden)

	s.users.On("MarkUserDeleted", mock.Anything, "G1", mock.Anything, "A1").Return(nil).Once()
	s.Require().NoError(s.service.DeleteUser(s.ctx, admin, "G1"))
	s.Equal([]domain.CounterDelta{{OwnerID: "S1", Kind: "user", Total: -1, Approved: -1}}, s.counters.deltas)
	s.users.AssertExpectations(s.T())
}

func (s *UserServiceTestSuite) TestLoadActiveUserRejectsPending() {
	_, err := s.service.LoadActiveUser(s.ctx, "P1")
	s.ErrorIs(err, apperrors.ErrUnauthorized)

	_, err = s.service.LoadActiveUser(s.ctx, "ghost")
	s.ErrorIs(err, apperrors.ErrUnauthorized)

	user, err := s.service.LoadActiveUser(s.ctx, "G1")
	s.Require().NoError(err)
	s.Equal("G1", user.UserID)
}
