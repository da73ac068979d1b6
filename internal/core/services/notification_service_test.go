package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type NotificationServiceTestSuite struct {
	suite.Suite
	repo    *MockNotificationRepository
	users   *MockUserRepository
	outbox  *MockOutboxRepository
	service portssvc.NotificationSvcFacade
	ctx     context.Context
}

func (s *NotificationServiceTestSuite) SetupTest() {
	s.repo = new(MockNotificationRepository)
	s.users = new(MockUserRepository)
	s.outbox = new(MockOutboxRepository)
	s.service = services.NewNotificationService(s.repo, s.users, s.outbox)
	s.ctx = context.Background()
}

func TestNotificationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}

func (s *NotificationServiceTestSuite) TestNotifyEnqueuesRequest() {
	req := domain.NotificationRequest{Title: "Nuova azienda", Type: "company_pending", EntityID: "C1", Recipients: []string{"A1"}}
	var captured domain.OutboxEvent
	s.outbox.On("Enqueue", mock.Anything, mock.AnythingOfType("domain.OutboxEvent")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(domain.OutboxEvent) }).
		Return(nil).Once()

	s.service.Notify(s.ctx, req)

	s.outbox.AssertExpectations(s.T())
	s.Equal(domain.TopicNotificationRequested, captured.Topic)
	s.NotEmpty(captured.EventID)
	var decoded domain.NotificationRequest
	s.Require().NoError(json.Unmarshal(captured.Payload, &decoded))
	s.Equal(req, decoded)
	s.repo.AssertNotCalled(s.T(), "SaveNotification", mock.Anything, mock.Anything)
}

func (s *NotificationServiceTestSuite) TestNotifySwallowsEnqueueFailure() {
	s.outbox.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	s.NotPanics(func() {
		s.service.Notify(s.ctx, domain.NotificationRequest{Title: "x"})
	})
	s.outbox.AssertExpectations(s.T())
}

func (s *NotificationServiceTestSuite) TestDeliverExpandsEmptyRecipientsToPrivilegedUsers() {
	s.users.On("FindPrivilegedUserIDs", mock.Anything).Return([]string{"A1", "SA1"}, nil).Once()
	s.repo.On("SaveNotification", mock.Anything, mock.MatchedBy(func(n domain.Notification) bool {
		return len(n.Recipients) == 2 && n.EntityID != nil && *n.EntityID == "C1" && len(n.ReadBy) == 0
	})).Return(nil).Once()

	n, err := s.service.Deliver(s.ctx, domain.NotificationRequest{Title: "Nuova azienda", EntityID: "C1", Type: "company_pending"})
	s.Require().NoError(err)
	s.Require().NotNil(n)
	s.Equal([]string{"A1", "SA1"}, n.Recipients)
	s.Nil(n.EntityName)
	s.users.AssertExpectations(s.T())
	s.repo.AssertExpectations(s.T())
}

func (s *NotificationServiceTestSuite) TestDeliverDedupesRecipients() {
	s.repo.On("SaveNotification", mock.Anything, mock.Anything).Return(nil).Once()

	n, err := s.service.Deliver(s.ctx, domain.NotificationRequest{Title: "ok", Recipients: []string{"S1", "", "R1", "S1"}})
	s.Require().NoError(err)
	s.Equal([]string{"S1", "R1"}, n.Recipients)
	s.users.AssertNotCalled(s.T(), "FindPrivilegedUserIDs", mock.Anything)
}

func (s *NotificationServiceTestSuite) TestDeliverWithoutAnyRecipientIsDropped() {
	s.users.On("FindPrivilegedUserIDs", mock.Anything).Return([]string{}, nil).Once()

	n, err := s.service.Deliver(s.ctx, domain.NotificationRequest{Title: "nobody"})
	s.NoError(err)
	s.Nil(n)
	s.repo.AssertNotCalled(s.T(), "SaveNotification", mock.Anything, mock.Anything)
}

func (s *NotificationServiceTestSuite) TestDispatchRejectsUnknownTopic() {
	err := s.service.Dispatch(s.ctx, domain.OutboxEvent{EventID: "E1", Topic: "conto.booked", Payload: []byte(`{}`)})
	s.Error(err)
	s.repo.AssertNotCalled(s.T(), "SaveNotification", mock.Anything, mock.Anything)
}

func (s *NotificationServiceTestSuite) TestDispatchRejectsBrokenPayload() {
	err := s.service.Dispatch(s.ctx, domain.OutboxEvent{EventID: "E1", Topic: domain.TopicNotificationRequested, Payload: []byte(`{`)})
	s.Error(err)
}

func (s *NotificationServiceTestSuite) TestDispatchDelivers() {
	payload, err := json.Marshal(domain.NotificationRequest{Title: "t", Recipients: []string{"S1"}})
	s.Require().NoError(err)
	s.repo.On("SaveNotification", mock.Anything, mock.Anything).Return(nil).Once()

	s.NoError(s.service.Dispatch(s.ctx, domain.OutboxEvent{EventID: "E1", Topic: domain.TopicNotificationRequested, Payload: payload}))
	s.repo.AssertExpectations(s.T())
}

func (s *NotificationServiceTestSuite) TestDispatchRedeliveryReusesEventID() {
	payload, err := json.Marshal(domain.NotificationRequest{Title: "t", Recipients: []string{"S1"}})
	s.Require().NoError(err)
	var ids []string
	s.repo.On("SaveNotification", mock.Anything, mock.AnythingOfType("domain.Notification")).
		Run(func(args mock.Arguments) { ids = append(ids, args.Get(1).(domain.Notification).NotificationID) }).
		Return(nil).Twice()

	event := domain.OutboxEvent{EventID: "9b2f4c1e-7d3a-4e0b-8c55-1f6a2d9e7b40", Topic: domain.TopicNotificationRequested, Payload: payload}
	s.Require().NoError(s.service.Dispatch(s.ctx, event))
	s.Require().NoError(s.service.Dispatch(s.ctx, event))

	s.Equal([]string{event.EventID, event.EventID}, ids)
	s.repo.AssertExpectations(s.T())
}

func (s *NotificationServiceTestSuite) TestDeliverAssignsFreshIDs() {
	var ids []string
	s.repo.On("SaveNotification", mock.Anything, mock.AnythingOfType("domain.Notification")).
		Run(func(args mock.Arguments) { ids = append(ids, args.Get(1).(domain.Notification).NotificationID) }).
		Return(nil).Twice()

	_, err := s.service.Deliver(s.ctx, domain.NotificationRequest{Title: "a", Recipients: []string{"S1"}})
	s.Require().NoError(err)
	_, err = s.service.Deliver(s.ctx, domain.NotificationRequest{Title: "b", Recipients: []string{"S1"}})
	s.Require().NoError(err)

	s.Require().Len(ids, 2)
	s.NotEqual(ids[0], ids[1])
}

func (s *NotificationServiceTestSuite) TestMarkReadNamesMissingNotification() {
	s.repo.On("MarkRead", mock.Anything, "N1", "S1", mock.Anything).Return(apperrors.ErrNotFound).Once()

	err := s.service.MarkRead(s.ctx, "N1", "S1")
	s.ErrorIs(err, apperrors.ErrNotFound)
	s.Contains(err.Error(), "notification")
}

func (s *NotificationServiceTestSuite) TestListNormalizesPage() {
	s.repo.On("FindNotificationsForUser", mock.Anything, "S1", domain.Page{Limit: 50, Offset: 0}).
		Return([]domain.Notification{}, nil).Once()

	_, err := s.service.ListForUser(s.ctx, "S1", domain.Page{Limit: 5000, Offset: -3})
	s.NoError(err)
	s.repo.AssertExpectations(s.T())
}

func (s *NotificationServiceTestSuite) TestDeleteRemovesOnlyCaller() {
	s.repo.On("RemoveRecipient", mock.Anything, "N1", "S1").Return(nil).Once()
	s.NoError(s.service.Delete(s.ctx, "N1", "S1"))
	s.repo.AssertExpectations(s.T())
}
