package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/core/services"
	"github.com/impresahub/impresa_backend/internal/dto"
	"github.com/impresahub/impresa_backend/internal/platform/authz"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type EntityServiceTestSuite struct {
	suite.Suite
	tx       *fakeTxRunner
	entities *MockEntityRepository
	users    *MockUserRepository
	counters *recordingCounters
	storage  *MockFileStorage
	sink     *recordingSink
	service  portssvc.EntitySvcFacade
	ctx      context.Context

	admin domain.Actor
	r1    domain.Actor
	s1    domain.Actor
	g3    domain.Actor
}

func (s *EntityServiceTestSuite) SetupTest() {
	authorizer, err := authz.NewAuthorizer()
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.tx = &fakeTxRunner{}
	s.entities = new(MockEntityRepository)
	s.users = (&MockUserRepository{}).withUsers(
		activeUser("A1", domain.RoleAdmin, ""),
		activeUser("R1", domain.RoleResponsabileTerritoriale, ""),
		activeUser("S1", domain.RoleSportelloLavoro, "R1"),
		activeUser("G1", domain.RoleSegnalatori, "S1"),
		activeUser("R2", domain.RoleResponsabileTerritoriale, ""),
		activeUser("S2", domain.RoleSportelloLavoro, "R2"),
		activeUser("G3", domain.RoleSegnalatori, "S2"),
	)
	s.counters = &recordingCounters{}
	s.storage = new(MockFileStorage)
	s.sink = &recordingSink{}

	s.service = services.NewEntityService(services.EntityServiceDeps{
		TxRunner:   s.tx,
		EntityRepo: s.entities,
		UserRepo:   s.users,
		Counters:   s.counters,
		Storage:    s.storage,
		Notifier:   s.sink,
		Scope:      services.NewScopeService(s.users),
		Authorizer: authorizer,
	})

	s.admin = domain.Actor{UserID: "A1", Role: domain.RoleAdmin, Name: "Admin"}
	s.r1 = domain.Actor{UserID: "R1", Role: domain.RoleResponsabileTerritoriale, Name: "Rita"}
	s.s1 = domain.Actor{UserID: "S1", Role: domain.RoleSportelloLavoro, Name: "Sandro"}
	s.g3 = domain.Actor{UserID: "G3", Role: domain.RoleSegnalatori, Name: "Gino"}
}

func TestEntityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EntityServiceTestSuite))
}

func companyRequest() dto.EntityRequest {
	return dto.EntityRequest{Name: "Rossi S.r.l.", VATNumber: ptr("IT12345678901")}
}

func (s *EntityServiceTestSuite) TestCreateCompany_BySportelloIsPendingAndNotifiesAdmins() {
	s.entities.On("SaveEntity", mock.Anything, mock.MatchedBy(func(e domain.Entity) bool {
		return e.Kind == domain.KindCompany && e.OwnerID == "S1"
	})).Return(nil).Once()

	company, err := s.service.CreateEntity(s.ctx, s.s1, domain.KindCompany, companyRequest(), nil)
	s.Require().NoError(err)

	s.Equal("S1", company.OwnerID)
	s.Equal("12345678901", *company.VATNumber)
	s.Require().NotNil(company.Approval)
	s.True(company.Approval.IsPendingApproval())
	s.False(company.Approval.IsApproved())
	s.False(company.Approval.IsActive())

	s.Require().Len(s.sink.requests, 1)
	req := s.sink.requests[0]
	s.Equal(domain.NotificationType("company_pending"), req.Type)
	s.Empty(req.Recipients, "an empty recipient list addresses every admin")
	s.Equal(company.EntityID, req.EntityID)
	s.Equal("Sandro", req.CreatedByName)

	s.Require().Len(s.counters.deltas, 1)
	s.Equal(domain.CounterDelta{OwnerID: "S1", Kind: "company", Total: 1, Pending: 1}, s.counters.deltas[0])
	s.Equal(1, s.tx.calls)
	s.entities.AssertExpectations(s.T())
}

func (s *EntityServiceTestSuite) TestCreateCompany_ByAdminIsApprovedWithoutNotification() {
	s.entities.On("SaveEntity", mock.Anything, mock.Anything).Return(nil).Once()

	company, err := s.service.CreateEntity(s.ctx, s.admin, domain.KindCompany, companyRequest(), nil)
	s.Require().NoError(err)
	s.True(company.Approval.IsApproved())
	s.Equal("A1", *company.Approval.ApprovedBy)
	s.Empty(s.sink.requests)
	s.Equal(1, s.counters.deltas[0].Approved)
}

func (s *EntityServiceTestSuite) TestCreateCompany_SegnalatoreForbidden() {
	_, err := s.service.CreateEntity(s.ctx, s.g3, domain.KindCompany, companyRequest(), nil)
	s.ErrorIs(err, apperrors.ErrForbidden)
	s.entities.AssertNotCalled(s.T(), "SaveEntity", mock.Anything, mock.Anything)
}

func (s *EntityServiceTestSuite) TestCreate_MissingRequiredFields() {
	_, err := s.service.CreateEntity(s.ctx, s.r1, domain.KindSportello, dto.EntityRequest{Name: "Sportello Nord"}, nil)
	var vErr *apperrors.ValidationError
	s.Require().ErrorAs(err, &vErr)
	s.Contains(vErr.Messages, "vatNumber is required")
	s.Contains(vErr.Messages, "email is required")
	s.Zero(s.tx.calls)
}

func (s *EntityServiceTestSuite) TestCreateSportello_AdminMustAssignResponsabile() {
	req := dto.EntityRequest{Name: "Sportello Nord", VATNumber: ptr("12345678901"), Email: ptr("NORD@Example.it"), OwnerID: ptr("S1")}
	_, err := s.service.CreateEntity(s.ctx, s.admin, domain.KindSportello, req, nil)
	s.ErrorIs(err, apperrors.ErrValidation)

	s.entities.On("SaveEntity", mock.Anything, mock.Anything).Return(nil).Once()
	req.OwnerID = ptr("R1")
	sportello, err := s.service.CreateEntity(s.ctx, s.admin, domain.KindSportello, req, nil)
	s.Require().NoError(err)
	s.Equal("R1", sportello.OwnerID)
	s.Equal("nord@example.it", *sportello.Email)
}

func (s *EntityServiceTestSuite) TestCreate_OwnerOutsideScopeForbidden() {
	req := companyRequest()
	req.OwnerID = ptr("G3")
	_, err := s.service.CreateEntity(s.ctx, s.r1, domain.KindCompany, req, nil)
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *EntityServiceTestSuite) TestCreate_DiscardsFilesWhenSaveFails() {
	att := domain.Attachment{FileName: "visura.pdf", StoredName: "abc.pdf"}
	s.storage.On("Save", mock.Anything, "visura.pdf", []byte("%PDF")).Return(att, nil).Once()
	s.storage.On("Delete", mock.Anything, att).Return(nil).Once()
	s.entities.On("SaveEntity", mock.Anything, mock.Anything).Return(errors.New("insert failed")).Once()

	_, err := s.service.CreateEntity(s.ctx, s.s1, domain.KindCompany, companyRequest(), []dto.UploadedFile{{FileName: "visura.pdf", Content: []byte("%PDF")}})
	s.Error(err)
	s.Empty(s.sink.requests)
	s.storage.AssertExpectations(s.T())
}

func (s *EntityServiceTestSuite) TestList_ResponsabileSeesManagedSubtree() {
	s.entities.On("FindEntities", mock.Anything, mock.MatchedBy(func(f domain.EntityFilter) bool {
		return f.Kind == domain.KindCompany && !f.Global
	})).Return([]domain.Entity{{EntityID: "C1", OwnerID: "S1"}}, 1, nil).Once()

	_, total, err := s.service.ListEntities(s.ctx, s.r1, domain.KindCompany, dto.ListEntitiesParams{})
	s.Require().NoError(err)
	s.Equal(1, total)

	filter := s.entities.Calls[0].Arguments.Get(1).(domain.EntityFilter)
	s.Equal([]string{"G1", "R1", "S1"}, filter.OwnerIDs)
	s.NotContains(filter.OwnerIDs, "R2")
	s.NotContains(filter.OwnerIDs, "G3")
}

func (s *EntityServiceTestSuite) TestList_AdminIsUnfiltered() {
	s.entities.On("FindEntities", mock.Anything, mock.MatchedBy(func(f domain.EntityFilter) bool {
		return f.Global && f.OwnerIDs == nil
	})).Return([]domain.Entity{}, 0, nil).Once()

	_, _, err := s.service.ListEntities(s.ctx, s.admin, domain.KindSupplier, dto.ListEntitiesParams{})
	s.NoError(err)
	s.entities.AssertExpectations(s.T())
}

func (s *EntityServiceTestSuite) TestGet_OutsideScopeIsForbidden() {
	s.entities.On("FindEntityByID", mock.Anything, domain.KindCompany, "C1").
		Return(&domain.Entity{EntityID: "C1", Kind: domain.KindCompany, OwnerID: "R1"}, nil)

	_, err := s.service.GetEntity(s.ctx, s.g3, domain.KindCompany, "C1")
	s.ErrorIs(err, apperrors.ErrForbidden)

	got, err := s.service.GetEntity(s.ctx, s.r1, domain.KindCompany, "C1")
	s.Require().NoError(err)
	s.Equal("C1", got.EntityID)
}

func (s *EntityServiceTestSuite) TestGet_UnknownIsNotFound() {
	s.entities.On("FindEntityByID", mock.Anything, domain.KindAgente, "missing").
		Return(nil, apperrors.NewNotFoundError("agente"))

	_, err := s.service.GetEntity(s.ctx, s.r1, domain.KindAgente, "missing")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *EntityServiceTestSuite) TestUpdate_MergesAttributesAndKeepsApproval() {
	existing := &domain.Entity{
		EntityID:   "P1",
		Kind:       domain.KindProject,
		OwnerID:    "S1",
		Name:       "Progetto",
		CompanyID:  ptr("C1"),
		Attributes: map[string]any{"budget": 100, "note": "x"},
	}
	s.entities.On("FindEntityByID", mock.Anything, domain.KindProject, "P1").Return(existing, nil)
	s.entities.On("UpdateEntity", mock.Anything, mock.Anything).Return(nil).Once()

	updated, err := s.service.UpdateEntity(s.ctx, s.s1, domain.KindProject, "P1", dto.UpdateEntityRequest{
		Name:       ptr("Progetto 2"),
		Attributes: map[string]any{"note": nil, "stage": "avvio"},
	})
	s.Require().NoError(err)
	s.Equal("Progetto 2", updated.Name)
	s.Equal(map[string]any{"budget": 100, "stage": "avvio"}, updated.Attributes)
	s.Nil(updated.Approval)
}

func (s *EntityServiceTestSuite) TestUpdate_BlankOptionalFieldClearsIt() {
	existing := &domain.Entity{
		EntityID:  "C1",
		Kind:      domain.KindCompany,
		OwnerID:   "S1",
		Name:      "Rossi S.r.l.",
		VATNumber: ptr("01234567897"),
		Phone:     ptr("0612345678"),
		City:      ptr("Roma"),
	}
	s.entities.On("FindEntityByID", mock.Anything, domain.KindCompany, "C1").Return(existing, nil).Once()
	s.entities.On("UpdateEntity", mock.Anything, mock.MatchedBy(func(e domain.Entity) bool {
		return e.Phone == nil && e.City != nil && *e.City == "Roma"
	})).Return(nil).Once()

	updated, err := s.service.UpdateEntity(s.ctx, s.s1, domain.KindCompany, "C1", dto.UpdateEntityRequest{
		Phone: ptr("  "),
	})
	s.Require().NoError(err)
	s.Nil(updated.Phone)
	s.Equal("Roma", *updated.City)
	s.Equal("01234567897", *updated.VATNumber)
	s.entities.AssertExpectations(s.T())
}

func (s *EntityServiceTestSuite) TestUpdate_ClearingRequiredFieldIsRejected() {
	s.entities.On("FindEntityByID", mock.Anything, domain.KindCompany, "C1").Return(&domain.Entity{
		EntityID:  "C1",
		Kind:      domain.KindCompany,
		OwnerID:   "S1",
		Name:      "Rossi S.r.l.",
		VATNumber: ptr("01234567897"),
	}, nil).Once()

	_, err := s.service.UpdateEntity(s.ctx, s.s1, domain.KindCompany, "C1", dto.UpdateEntityRequest{
		VATNumber: ptr(""),
	})
	s.ErrorIs(err, apperrors.ErrValidation)
	s.entities.AssertNotCalled(s.T(), "UpdateEntity", mock.Anything, mock.Anything)
}

func (s *EntityServiceTestSuite) TestDelete_AppliesCounterAndRemovesFiles() {
	att := domain.Attachment{StoredName: "gone.pdf"}
	s.entities.On("FindEntityByID", mock.Anything, domain.KindCompany, "C1").Return(&domain.Entity{
		EntityID:    "C1",
		Kind:        domain.KindCompany,
		OwnerID:     "S1",
		Approval:    pendingState(),
		Attachments: []domain.Attachment{att},
	}, nil)
	s.entities.On("DeleteEntity", mock.Anything, domain.KindCompany, "C1").Return(nil).Once()
	s.storage.On("Delete", mock.Anything, att).Return(nil).Once()

	s.Require().NoError(s.service.DeleteEntity(s.ctx, s.r1, domain.KindCompany, "C1"))
	s.Equal(domain.CounterDelta{OwnerID: "S1", Kind: "company", Total: -1, Pending: -1}, s.counters.deltas[0])
	s.storage.AssertExpectations(s.T())
}
