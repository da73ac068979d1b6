package services_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Tx runner ---

// fakeTxRunner runs fn inline and counts transactions.
type fakeTxRunner struct {
	calls int
}

func (r *fakeTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(ctx)
}

// --- Mock UserRepository ---

// MockUserRepository serves reads from an in-memory directory when one is set
// and falls back to testify expectations otherwise.
type MockUserRepository struct {
	mock.Mock
	mu    sync.Mutex
	users map[string]domain.User
}

// withUsers installs a directory used by the read methods.
func (m *MockUserRepository) withUsers(users ...domain.User) *MockUserRepository {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = map[string]domain.User{}
	}
	for _, u := range users {
		m.users[u.UserID] = u
	}
	return m
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	if m.users != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		u, ok := m.users[userID]
		if !ok {
			return nil, apperrors.ErrNotFound
		}
		return &u, nil
	}
	args := m.Called(ctx, userID)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.users != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, u := range m.users {
			if u.Username == username {
				return &u, nil
			}
		}
		return nil, apperrors.ErrNotFound
	}
	args := m.Called(ctx, username)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.users != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, u := range m.users {
			if u.Email == email {
				return &u, nil
			}
		}
		return nil, apperrors.ErrNotFound
	}
	args := m.Called(ctx, email)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) FindUserIDsManagedBy(ctx context.Context, managerIDs []string) ([]string, error) {
	if m.users != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		managers := make(map[string]bool, len(managerIDs))
		for _, id := range managerIDs {
			managers[id] = true
		}
		var ids []string
		for _, u := range m.users {
			if u.DeletedAt == nil && u.ManagedBy != nil && managers[*u.ManagedBy] {
				ids = append(ids, u.UserID)
			}
		}
		return ids, nil
	}
	args := m.Called(ctx, managerIDs)
	var ids []string
	if args.Get(0) != nil {
		ids = args.Get(0).([]string)
	}
	return ids, args.Error(1)
}

func (m *MockUserRepository) FindUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error) {
	args := m.Called(ctx, filter)
	var users []domain.User
	if args.Get(0) != nil {
		users = args.Get(0).([]domain.User)
	}
	return users, args.Int(1), args.Error(2)
}

func (m *MockUserRepository) FindPrivilegedUserIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var ids []string
	if args.Get(0) != nil {
		ids = args.Get(0).([]string)
	}
	return ids, args.Error(1)
}

func (m *MockUserRepository) FindPendingUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	var users []domain.User
	if args.Get(0) != nil {
		users = args.Get(0).([]domain.User)
	}
	return users, args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) LockUser(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) UpdateUserApproval(ctx context.Context, userID string, expected *domain.ApprovalStatus, state domain.ApprovalState, isActive bool, updatedBy string, at time.Time) error {
	args := m.Called(ctx, userID, expected, state, isActive, updatedBy, at)
	return args.Error(0)
}

func (m *MockUserRepository) MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error {
	args := m.Called(ctx, userID, deletedAt, deletedBy)
	return args.Error(0)
}

// --- Mock EntityRepository ---

type MockEntityRepository struct {
	mock.Mock
}

func entityResult(args mock.Arguments) (*domain.Entity, error) {
	var e *domain.Entity
	if args.Get(0) != nil {
		e = args.Get(0).(*domain.Entity)
	}
	return e, args.Error(1)
}

func (m *MockEntityRepository) FindEntityByID(ctx context.Context, kind domain.EntityKind, entityID string) (*domain.Entity, error) {
	return entityResult(m.Called(ctx, kind, entityID))
}

func (m *MockEntityRepository) FindEntities(ctx context.Context, filter domain.EntityFilter) ([]domain.Entity, int, error) {
	args := m.Called(ctx, filter)
	var entities []domain.Entity
	if args.Get(0) != nil {
		entities = args.Get(0).([]domain.Entity)
	}
	return entities, args.Int(1), args.Error(2)
}

func (m *MockEntityRepository) FindPendingEntities(ctx context.Context, kinds []domain.EntityKind) ([]domain.Entity, error) {
	args := m.Called(ctx, kinds)
	var entities []domain.Entity
	if args.Get(0) != nil {
		entities = args.Get(0).([]domain.Entity)
	}
	return entities, args.Error(1)
}

func (m *MockEntityRepository) FindEntityByVATNumber(ctx context.Context, kind domain.EntityKind, vatNumber string) (*domain.Entity, error) {
	return entityResult(m.Called(ctx, kind, vatNumber))
}

func (m *MockEntityRepository) SaveEntity(ctx context.Context, entity domain.Entity) error {
	return m.Called(ctx, entity).Error(0)
}

func (m *MockEntityRepository) UpdateEntity(ctx context.Context, entity domain.Entity) error {
	return m.Called(ctx, entity).Error(0)
}

func (m *MockEntityRepository) LockEntity(ctx context.Context, kind domain.EntityKind, entityID string) (*domain.Entity, error) {
	return entityResult(m.Called(ctx, kind, entityID))
}

func (m *MockEntityRepository) UpdateEntityApproval(ctx context.Context, kind domain.EntityKind, entityID string, expected *domain.ApprovalStatus, state domain.ApprovalState, updatedBy string, at time.Time) error {
	return m.Called(ctx, kind, entityID, expected, state, updatedBy, at).Error(0)
}

func (m *MockEntityRepository) AppendEntityAttachments(ctx context.Context, kind domain.EntityKind, entityID string, attachments []domain.Attachment, updatedBy string, at time.Time) error {
	return m.Called(ctx, kind, entityID, attachments, updatedBy, at).Error(0)
}

func (m *MockEntityRepository) DeleteEntity(ctx context.Context, kind domain.EntityKind, entityID string) error {
	return m.Called(ctx, kind, entityID).Error(0)
}

// --- Counters ---

// recordingCounters keeps every delta applied.
type recordingCounters struct {
	deltas []domain.CounterDelta
	err    error
}

func (c *recordingCounters) ApplyCounterDelta(_ context.Context, delta domain.CounterDelta) error {
	if c.err != nil {
		return c.err
	}
	c.deltas = append(c.deltas, delta)
	return nil
}

// --- Notification sink ---

// recordingSink keeps every notification request.
type recordingSink struct {
	requests []domain.NotificationRequest
}

func (s *recordingSink) Notify(_ context.Context, req domain.NotificationRequest) {
	s.requests = append(s.requests, req)
}

// --- File storage ---

type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) Save(ctx context.Context, fileName string, content []byte) (domain.Attachment, error) {
	args := m.Called(ctx, fileName, content)
	return args.Get(0).(domain.Attachment), args.Error(1)
}

func (m *MockFileStorage) Delete(ctx context.Context, attachment domain.Attachment) error {
	return m.Called(ctx, attachment).Error(0)
}

// --- Notification repository ---

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) SaveNotification(ctx context.Context, n domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationRepository) FindNotificationsForUser(ctx context.Context, userID string, page domain.Page) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, page)
	var ns []domain.Notification
	if args.Get(0) != nil {
		ns = args.Get(0).([]domain.Notification)
	}
	return ns, args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, notificationID, userID string, at time.Time) error {
	return m.Called(ctx, notificationID, userID, at).Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	args := m.Called(ctx, userID, at)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepository) RemoveRecipient(ctx context.Context, notificationID, userID string) error {
	return m.Called(ctx, notificationID, userID).Error(0)
}

func (m *MockNotificationRepository) DeleteNotificationsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// --- Outbox ---

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Enqueue(ctx context.Context, event domain.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockOutboxRepository) Claim(ctx context.Context, now, lockCutoff time.Time, maxAttempts, limit int) ([]domain.OutboxEvent, error) {
	args := m.Called(ctx, now, lockCutoff, maxAttempts, limit)
	var events []domain.OutboxEvent
	if args.Get(0) != nil {
		events = args.Get(0).([]domain.OutboxEvent)
	}
	return events, args.Error(1)
}

func (m *MockOutboxRepository) Ack(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *MockOutboxRepository) Nack(ctx context.Context, eventID string, lastError string, nextAvailable time.Time) error {
	return m.Called(ctx, eventID, lastError, nextAvailable).Error(0)
}

func (m *MockOutboxRepository) Dead(ctx context.Context, eventID string, lastError string) error {
	return m.Called(ctx, eventID, lastError).Error(0)
}

func (m *MockOutboxRepository) CountUndelivered(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockOutboxRepository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockDispatcher is an outbox dispatcher driven by expectations.
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, event domain.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

// --- Conto ---

type MockContoRepository struct {
	mock.Mock
}

func (m *MockContoRepository) SaveEntries(ctx context.Context, entries []domain.ContoEntry) error {
	return m.Called(ctx, entries).Error(0)
}

func (m *MockContoRepository) FindEntries(ctx context.Context, filter domain.ContoFilter) ([]domain.ContoEntry, int, error) {
	args := m.Called(ctx, filter)
	var entries []domain.ContoEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.ContoEntry)
	}
	return entries, args.Int(1), args.Error(2)
}

func (m *MockContoRepository) Balance(ctx context.Context, userID *string) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockContoRepository) ReferenceExists(ctx context.Context, referenceID string) (bool, error) {
	args := m.Called(ctx, referenceID)
	return args.Bool(0), args.Error(1)
}

// --- Messages ---

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) SaveMessage(ctx context.Context, message domain.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockMessageRepository) FindInbox(ctx context.Context, userID string, page domain.Page) ([]domain.Message, error) {
	args := m.Called(ctx, userID, page)
	var msgs []domain.Message
	if args.Get(0) != nil {
		msgs = args.Get(0).([]domain.Message)
	}
	return msgs, args.Error(1)
}

func (m *MockMessageRepository) FindSent(ctx context.Context, userID string, page domain.Page) ([]domain.Message, error) {
	args := m.Called(ctx, userID, page)
	var msgs []domain.Message
	if args.Get(0) != nil {
		msgs = args.Get(0).([]domain.Message)
	}
	return msgs, args.Error(1)
}

func (m *MockMessageRepository) MarkMessageRead(ctx context.Context, messageID, recipientID string, at time.Time) error {
	return m.Called(ctx, messageID, recipientID, at).Error(0)
}

func (m *MockMessageRepository) CountUnreadMessages(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// --- Templates ---

type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) SaveTemplate(ctx context.Context, template domain.ProjectTemplate) error {
	return m.Called(ctx, template).Error(0)
}

func (m *MockTemplateRepository) FindTemplateByID(ctx context.Context, templateID string) (*domain.ProjectTemplate, error) {
	args := m.Called(ctx, templateID)
	var t *domain.ProjectTemplate
	if args.Get(0) != nil {
		t = args.Get(0).(*domain.ProjectTemplate)
	}
	return t, args.Error(1)
}

func (m *MockTemplateRepository) FindTemplates(ctx context.Context, page domain.Page) ([]domain.ProjectTemplate, error) {
	args := m.Called(ctx, page)
	var ts []domain.ProjectTemplate
	if args.Get(0) != nil {
		ts = args.Get(0).([]domain.ProjectTemplate)
	}
	return ts, args.Error(1)
}

// --- Dashboard ---

type MockDashboardReader struct {
	mock.Mock
}

func (m *MockDashboardReader) SumCounters(ctx context.Context, ownerIDs []string, global bool) ([]domain.KindStats, error) {
	args := m.Called(ctx, ownerIDs, global)
	var stats []domain.KindStats
	if args.Get(0) != nil {
		stats = args.Get(0).([]domain.KindStats)
	}
	return stats, args.Error(1)
}

// --- Fixtures ---

func approvedState(by string) domain.ApprovalState {
	st := domain.ApprovalApproved
	at := time.Now().UTC()
	return domain.ApprovalState{Status: &st, ApprovedBy: &by, ApprovedAt: &at}
}

func pendingState() *domain.ApprovalState {
	st := domain.ApprovalPending
	return &domain.ApprovalState{Status: &st}
}

// activeUser returns an approved, active user managed by manager (empty for none).
func activeUser(id string, role domain.UserRole, manager string) domain.User {
	u := domain.User{
		UserID:   id,
		Username: id,
		Email:    strings.ToLower(id) + "@example.it",
		Name:     "User " + id,
		Role:     role,
		Approval: approvedState("seed"),
		IsActive: true,
	}
	if manager != "" {
		m := manager
		u.ManagedBy = &m
	}
	return u
}

func ptr[T any](v T) *T {
	return &v
}
