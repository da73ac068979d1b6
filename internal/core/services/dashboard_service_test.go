package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dashboardFixture() (*MockUserRepository, *MockDashboardReader, *MockNotificationRepository, *MockMessageRepository) {
	users := (&MockUserRepository{}).withUsers(
		activeUser("S1", domain.RoleSportelloLavoro, ""),
		activeUser("G1", domain.RoleSegnalatori, "S1"),
	)
	return users, new(MockDashboardReader), new(MockNotificationRepository), new(MockMessageRepository)
}

func TestDashboard_ScopedStatsAreZeroFilled(t *testing.T) {
	users, reader, notifications, messages := dashboardFixture()
	reader.On("SumCounters", mock.Anything, []string{"G1", "S1"}, false).Return([]domain.KindStats{
		{Kind: "company", Total: 3, Pending: 1, Approved: 2},
		{Kind: "user", Total: 1, Approved: 1},
	}, nil).Once()
	notifications.On("CountUnread", mock.Anything, "S1").Return(4, nil).Once()
	messages.On("CountUnreadMessages", mock.Anything, "S1").Return(2, nil).Once()

	svc := services.NewDashboardService(services.NewScopeService(users), reader, notifications, messages)
	stats, err := svc.GetStats(context.Background(), actorFor("S1", domain.RoleSportelloLavoro))
	require.NoError(t, err)

	require.Len(t, stats.Kinds, len(domain.EntityKinds())+1)
	byKind := map[string]domain.KindStats{}
	for _, k := range stats.Kinds {
		byKind[k.Kind] = k
	}
	assert.Equal(t, 3, byKind["company"].Total)
	assert.Equal(t, 1, byKind["company"].Pending)
	assert.Equal(t, domain.KindStats{Kind: "employee"}, byKind["employee"])
	assert.Equal(t, 1, byKind["user"].Approved)
	assert.Equal(t, 4, stats.UnreadNotifications)
	assert.Equal(t, 2, stats.UnreadMessages)
	reader.AssertExpectations(t)
}

func TestDashboard_PrivilegedStatsAreGlobal(t *testing.T) {
	users, reader, notifications, messages := dashboardFixture()
	reader.On("SumCounters", mock.Anything, []string(nil), true).Return([]domain.KindStats{}, nil).Once()
	notifications.On("CountUnread", mock.Anything, "A1").Return(0, nil).Once()
	messages.On("CountUnreadMessages", mock.Anything, "A1").Return(0, nil).Once()

	svc := services.NewDashboardService(services.NewScopeService(users), reader, notifications, messages)
	_, err := svc.GetStats(context.Background(), actorFor("A1", domain.RoleAdmin))
	require.NoError(t, err)
	reader.AssertExpectations(t)
}

func TestDashboard_CounterErrorPropagates(t *testing.T) {
	users, reader, notifications, messages := dashboardFixture()
	boom := errors.New("timeout")
	reader.On("SumCounters", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom).Once()

	svc := services.NewDashboardService(services.NewScopeService(users), reader, notifications, messages)
	_, err := svc.GetStats(context.Background(), actorFor("G1", domain.RoleSegnalatori))
	assert.ErrorIs(t, err, boom)
}
