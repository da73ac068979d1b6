package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/dto"
	"github.com/impresahub/impresa_backend/internal/middleware"
	"github.com/impresahub/impresa_backend/internal/utils"
	"github.com/impresahub/impresa_backend/internal/utils/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock EntityService ---
type MockEntityService struct {
	mock.Mock
}

func (m *MockEntityService) ListEntities(ctx context.Context, actor domain.Actor, kind domain.EntityKind, params dto.ListEntitiesParams) ([]domain.Entity, int, error) {
	args := m.Called(ctx, actor, kind, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Entity), args.Int(1), args.Error(2)
}
func (m *MockEntityService) GetEntity(ctx context.Context, actor domain.Actor, kind domain.EntityKind, entityID string) (*domain.Entity, error) {
	args := m.Called(ctx, actor, kind, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}
func (m *MockEntityService) CreateEntity(ctx context.Context, actor domain.Actor, kind domain.EntityKind, req dto.EntityRequest, files []dto.UploadedFile) (*domain.Entity, error) {
	args := m.Called(ctx, actor, kind, req, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}
func (m *MockEntityService) UpdateEntity(ctx context.Context, actor domain.Actor, kind domain.EntityKind, entityID string, req dto.UpdateEntityRequest) (*domain.Entity, error) {
	args := m.Called(ctx, actor, kind, entityID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}
func (m *MockEntityService) DeleteEntity(ctx context.Context, actor domain.Actor, kind domain.EntityKind, entityID string) error {
	return m.Called(ctx, actor, kind, entityID).Error(0)
}
func (m *MockEntityService) AddAttachments(ctx context.Context, actor domain.Actor, kind domain.EntityKind, entityID string, files []dto.UploadedFile) (*domain.Entity, error) {
	args := m.Called(ctx, actor, kind, entityID, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}

var _ portssvc.EntitySvcFacade = (*MockEntityService)(nil)

// --- Mock ApprovalService ---
type MockApprovalService struct {
	mock.Mock
}

func (m *MockApprovalService) ListPending(ctx context.Context, actor domain.Actor) ([]domain.PendingItem, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PendingItem), args.Error(1)
}
func (m *MockApprovalService) Approve(ctx context.Context, actor domain.Actor, approvalType, id string) (*domain.ApprovalOutcome, error) {
	args := m.Called(ctx, actor, approvalType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApprovalOutcome), args.Error(1)
}
func (m *MockApprovalService) Reject(ctx context.Context, actor domain.Actor, approvalType, id string, reason *string) (*domain.ApprovalOutcome, error) {
	args := m.Called(ctx, actor, approvalType, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApprovalOutcome), args.Error(1)
}

var _ portssvc.ApprovalSvc = (*MockApprovalService)(nil)

// --- Mock NotificationService ---
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Notify(ctx context.Context, req domain.NotificationRequest) {
	m.Called(ctx, req)
}
func (m *MockNotificationService) Deliver(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}
func (m *MockNotificationService) ListForUser(ctx context.Context, userID string, page domain.Page) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *MockNotificationService) CountUnread(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
func (m *MockNotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	return m.Called(ctx, notificationID, userID).Error(0)
}
func (m *MockNotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
func (m *MockNotificationService) Delete(ctx context.Context, notificationID, userID string) error {
	return m.Called(ctx, notificationID, userID).Error(0)
}
func (m *MockNotificationService) Dispatch(ctx context.Context, event domain.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

var _ portssvc.NotificationSvcFacade = (*MockNotificationService)(nil)

// --- Mock ContoService ---
type MockContoService struct {
	mock.Mock
}

func (m *MockContoService) RecordCommission(ctx context.Context, actor domain.Actor, req dto.CommissionRequest) (*domain.CommissionSplit, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommissionSplit), args.Error(1)
}
func (m *MockContoService) CreateManualEntry(ctx context.Context, actor domain.Actor, req dto.ManualEntryRequest) (*domain.ContoEntry, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContoEntry), args.Error(1)
}
func (m *MockContoService) ImportWorkbook(ctx context.Context, actor domain.Actor, r io.Reader) (*domain.ImportResult, error) {
	args := m.Called(ctx, actor, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportResult), args.Error(1)
}
func (m *MockContoService) ListEntries(ctx context.Context, actor domain.Actor, params dto.ListContoParams) ([]domain.ContoEntry, int, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ContoEntry), args.Int(1), args.Error(2)
}
func (m *MockContoService) GetBalance(ctx context.Context, actor domain.Actor, userID *string) (decimal.Decimal, error) {
	args := m.Called(ctx, actor, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockContoService) ExportWorkbook(ctx context.Context, actor domain.Actor, params dto.ListContoParams, w io.Writer) error {
	args := m.Called(ctx, actor, params, w)
	if payload, ok := args.Get(1).([]byte); ok {
		_, _ = w.Write(payload)
	}
	return args.Error(0)
}

var _ portssvc.ContoSvcFacade = (*MockContoService)(nil)

// --- Mock APITokenService ---
type MockAPITokenService struct {
	mock.Mock
}

func (m *MockAPITokenService) CreateToken(ctx context.Context, userID, name string, expiresIn *time.Duration) (string, *domain.APIToken, error) {
	args := m.Called(ctx, userID, name, expiresIn)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*domain.APIToken), args.Error(2)
}
func (m *MockAPITokenService) ListTokens(ctx context.Context, userID string) ([]domain.APIToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.APIToken), args.Error(1)
}
func (m *MockAPITokenService) RevokeToken(ctx context.Context, userID, tokenID string) error {
	return m.Called(ctx, userID, tokenID).Error(0)
}
func (m *MockAPITokenService) ValidateToken(ctx context.Context, tokenString string) (*domain.User, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

var _ portssvc.APITokenSvc = (*MockAPITokenService)(nil)

// --- Test Suite ---
type HandlerTestSuite struct {
	suite.Suite
	router           *gin.Engine
	jwtSecret        string
	mockEntity       *MockEntityService
	mockApproval     *MockApprovalService
	mockNotification *MockNotificationService
	mockConto        *MockContoService
	mockAPIToken     *MockAPITokenService
}

func (suite *HandlerTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(validation.RegisterGinValidators())
}

func (suite *HandlerTestSuite) SetupTest() {
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.mockEntity = new(MockEntityService)
	suite.mockApproval = new(MockApprovalService)
	suite.mockNotification = new(MockNotificationService)
	suite.mockConto = new(MockContoService)
	suite.mockAPIToken = new(MockAPITokenService)

	suite.router = gin.New()
	v1 := suite.router.Group("/api/v1",
		middleware.APITokenAuth(suite.mockAPIToken),
		middleware.AuthMiddleware(suite.jwtSecret),
	)
	registerEntityRoutes(v1, suite.mockEntity, 1<<20)
	registerApprovalRoutes(v1, suite.mockApproval)
	registerNotificationRoutes(v1, suite.mockNotification)
	registerContoRoutes(v1, suite.mockConto, 1<<20)
}

func (suite *HandlerTestSuite) generateTestToken(actor domain.Actor) string {
	token, _, err := utils.GenerateJWT(actor.UserID, string(actor.Role), actor.Name, suite.jwtSecret, time.Hour, "impresa-test")
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return token
}

func (suite *HandlerTestSuite) serve(req *http.Request, actor *domain.Actor) *httptest.ResponseRecorder {
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(*actor))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func newActor(role domain.UserRole) domain.Actor {
	return domain.Actor{UserID: uuid.NewString(), Role: role, Name: "Test " + string(role)}
}

func approvedEntity(kind domain.EntityKind, ownerID string) *domain.Entity {
	st := domain.ApprovalApproved
	now := time.Now()
	return &domain.Entity{
		EntityID: uuid.NewString(),
		Kind:     kind,
		OwnerID:  ownerID,
		Name:     "Rossi SRL",
		Approval: &domain.ApprovalState{Status: &st, ApprovedBy: &ownerID, ApprovedAt: &now},
		AuditFields: domain.AuditFields{
			CreatedAt: now, CreatedBy: ownerID, LastUpdatedAt: now, LastUpdatedBy: ownerID,
		},
	}
}

// --- Test Cases ---

func (suite *HandlerTestSuite) TestMissingToken_Unauthorized() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	w := suite.serve(req, nil)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockEntity.AssertNotCalled(suite.T(), "ListEntities")
}

func (suite *HandlerTestSuite) TestAPIKey_AuthenticatesAsTokenOwner() {
	owner := &domain.User{UserID: uuid.NewString(), Role: domain.RoleSportelloLavoro, Name: "Sportello"}
	suite.mockAPIToken.On("ValidateToken", mock.Anything, "key-123").Return(owner, nil).Once()
	suite.mockEntity.On("ListEntities", mock.Anything, owner.Actor(), domain.KindCompany, mock.Anything).
		Return([]domain.Entity{}, 0, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("x-api-key", "key-123")
	w := suite.serve(req, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockEntity.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestListCompanies_PagingNormalized() {
	actor := newActor(domain.RoleResponsabileTerritoriale)
	ent := approvedEntity(domain.KindCompany, actor.UserID)
	suite.mockEntity.On("ListEntities", mock.Anything, actor, domain.KindCompany,
		mock.MatchedBy(func(p dto.ListEntitiesParams) bool { return p.Limit == 500 && p.Search == "rossi" }),
	).Return([]domain.Entity{*ent}, 1, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/companies?limit=500&search=rossi", nil)
	w := suite.serve(req, &actor)

	suite.Require().Equal(http.StatusOK, w.Code)
	var body dto.ListEntitiesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(1, body.Total)
	suite.Equal(50, body.Limit)
	suite.Require().Len(body.Items, 1)
	suite.Equal(ent.EntityID, body.Items[0].ID)
	suite.Require().NotNil(body.Items[0].IsApproved)
	suite.True(*body.Items[0].IsApproved)
}

func (suite *HandlerTestSuite) TestGetEntity_OutOfScopeForbidden() {
	actor := newActor(domain.RoleSegnalatori)
	id := uuid.NewString()
	suite.mockEntity.On("GetEntity", mock.Anything, actor, domain.KindCompany, id).
		Return(nil, apperrors.NewForbiddenError("company is outside the caller's scope")).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/companies/"+id, nil)
	w := suite.serve(req, &actor)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.JSONEq(`{"error":"Forbidden"}`, w.Body.String())
}

func (suite *HandlerTestSuite) TestGetEntity_NotFound() {
	actor := newActor(domain.RoleAdmin)
	id := uuid.NewString()
	suite.mockEntity.On("GetEntity", mock.Anything, actor, domain.KindSupplier, id).
		Return(nil, apperrors.NewNotFoundError("supplier")).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/suppliers/"+id, nil)
	w := suite.serve(req, &actor)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestCreateEntity_BindingValidation() {
	actor := newActor(domain.RoleAdmin)
	body := `{"name":"Rossi SRL","email":"not-an-email","vatNumber":"123"}`

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/companies", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := suite.serve(req, &actor)

	suite.Require().Equal(http.StatusBadRequest, w.Code)
	var resp ValidationErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Errors, 2)
	suite.mockEntity.AssertNotCalled(suite.T(), "CreateEntity")
}

func (suite *HandlerTestSuite) TestCreateEntity_RoleNotAllowed() {
	actor := newActor(domain.RoleSegnalatori)
	suite.mockEntity.On("CreateEntity", mock.Anything, actor, domain.KindAgente, mock.Anything, []dto.UploadedFile(nil)).
		Return(nil, apperrors.NewForbiddenError("role may not create agente")).Once()

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/agenti", strings.NewReader(`{"name":"Mario Bianchi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := suite.serve(req, &actor)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockEntity.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestCreateEntity_MultipartWithDocuments() {
	actor := newActor(domain.RoleSportelloLavoro)
	created := approvedEntity(domain.KindCompany, actor.UserID)
	pending := domain.ApprovalPending
	created.Approval = &domain.ApprovalState{Status: &pending}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	suite.Require().NoError(mw.WriteField("payload", `{"name":"Rossi SRL"}`))
	part, err := mw.CreateFormFile("documents", "visura.pdf")
	suite.Require().NoError(err)
	_, _ = part.Write([]byte("%PDF-1.4 test"))
	suite.Require().NoError(mw.Close())

	suite.mockEntity.On("CreateEntity", mock.Anything, actor, domain.KindCompany,
		mock.MatchedBy(func(r dto.EntityRequest) bool { return r.Name == "Rossi SRL" }),
		mock.MatchedBy(func(files []dto.UploadedFile) bool {
			return len(files) == 1 && files[0].FileName == "visura.pdf" && string(files[0].Content) == "%PDF-1.4 test"
		}),
	).Return(created, nil).Once()

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/companies", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := suite.serve(req, &actor)

	suite.Require().Equal(http.StatusCreated, w.Code)
	var resp dto.EntityResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().NotNil(resp.PendingApproval)
	suite.True(*resp.PendingApproval)
	suite.False(*resp.IsActive)
	suite.mockEntity.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestCreateEntity_MultipartMissingPayload() {
	actor := newActor(domain.RoleAdmin)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	suite.Require().NoError(mw.WriteField("other", "x"))
	suite.Require().NoError(mw.Close())

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/projects", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := suite.serve(req, &actor)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.JSONEq(`{"errors":["payload is required"]}`, w.Body.String())
}

func (suite *HandlerTestSuite) TestApprove_Success() {
	actor := newActor(domain.RoleAdmin)
	id := uuid.NewString()
	st := domain.ApprovalApproved
	now := time.Now()
	outcome := &domain.ApprovalOutcome{
		Type:    domain.ApprovalTypeCompany,
		ID:      id,
		Name:    "Rossi SRL",
		State:   domain.ApprovalState{Status: &st, ApprovedBy: &actor.UserID, ApprovedAt: &now},
		Changed: true,
	}
	suite.mockApproval.On("Approve", mock.Anything, actor, "company", id).Return(outcome, nil).Once()

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/approvals/approve/company/"+id, nil)
	w := suite.serve(req, &actor)

	suite.Require().Equal(http.StatusOK, w.Code)
	var resp dto.ApprovalResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("approved", resp.Status)
	suite.True(resp.IsApproved)
	suite.True(resp.IsActive)
	suite.False(resp.PendingApproval)
	suite.True(resp.Changed)
}

func (suite *HandlerTestSuite) TestReject_AfterApprovalIsConflict() {
	actor := newActor(domain.RoleSuperAdmin)
	id := uuid.NewString()
	reason := "documenti mancanti"
	suite.mockApproval.On("Reject", mock.Anything, actor, "sportello", id,
		mock.MatchedBy(func(r *string) bool { return r != nil && *r == reason }),
	).Return(nil, apperrors.NewConflictError("record was already approved")).Once()

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/approvals/reject/sportello/"+id, strings.NewReader(`{"reason":"documenti mancanti"}`))
	req.Header.Set("Content-Type", "application/json")
	w := suite.serve(req, &actor)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockApproval.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestListPending_NonPrivilegedForbidden() {
	actor := newActor(domain.RoleResponsabileTerritoriale)
	suite.mockApproval.On("ListPending", mock.Anything, actor).
		Return(nil, apperrors.NewForbiddenError("approvals require an admin")).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/approvals/pending", nil)
	w := suite.serve(req, &actor)

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerTestSuite) TestNotificationUnreadCount() {
	actor := newActor(domain.RoleSportelloLavoro)
	suite.mockNotification.On("CountUnread", mock.Anything, actor.UserID).Return(3, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/notifications/unread-count", nil)
	w := suite.serve(req, &actor)

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"count":3}`, w.Body.String())
}

func (suite *HandlerTestSuite) TestNotificationMarkRead_NotRecipient() {
	actor := newActor(domain.RoleSegnalatori)
	nid := uuid.NewString()
	suite.mockNotification.On("MarkRead", mock.Anything, nid, actor.UserID).
		Return(apperrors.NewNotFoundError("notification")).Once()

	req, _ := http.NewRequest(http.MethodPut, "/api/v1/notifications/"+nid+"/read", nil)
	w := suite.serve(req, &actor)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestContoExport_Workbook() {
	actor := newActor(domain.RoleAdmin)
	payload := []byte("PK\x03\x04fake-xlsx")
	suite.mockConto.On("ExportWorkbook", mock.Anything, actor, mock.Anything, mock.Anything).Return(nil, payload).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/conto/export", nil)
	w := suite.serve(req, &actor)

	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(xlsxContentType, w.Header().Get("Content-Type"))
	suite.Contains(w.Header().Get("Content-Disposition"), "conto-")
	suite.Equal(payload, w.Body.Bytes())
}

func (suite *HandlerTestSuite) TestContoExport_ErrorStaysJSON() {
	actor := newActor(domain.RoleAdmin)
	suite.mockConto.On("ExportWorkbook", mock.Anything, actor, mock.Anything, mock.Anything).
		Return(errors.New("db down"), nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/conto/export", nil)
	w := suite.serve(req, &actor)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.JSONEq(`{"error":"Internal server error"}`, w.Body.String())
}

func (suite *HandlerTestSuite) TestContoBalance_DefaultsToCaller() {
	actor := newActor(domain.RoleSportelloLavoro)
	suite.mockConto.On("GetBalance", mock.Anything, actor, (*string)(nil)).
		Return(decimal.RequireFromString("120.50"), nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/conto/balance", nil)
	w := suite.serve(req, &actor)

	suite.Require().Equal(http.StatusOK, w.Code)
	var resp dto.BalanceResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().NotNil(resp.UserID)
	suite.Equal(actor.UserID, *resp.UserID)
	suite.True(decimal.RequireFromString("120.50").Equal(resp.Balance))
}

// --- Run Test Suite ---
func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
