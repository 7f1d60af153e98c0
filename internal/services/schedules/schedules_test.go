package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockScheduleRepository) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*models.Topic)
	return t, args.Error(1)
}

func (m *MockScheduleRepository) CreateSchedule(ctx context.Context, schedule models.Schedule) (string, error) {
	args := m.Called(ctx, schedule)
	return args.String(0), args.Error(1)
}

func (m *MockScheduleRepository) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Schedule)
	return s, args.Error(1)
}

func (m *MockScheduleRepository) CountSchedules(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockScheduleRepository) ListSchedules(ctx context.Context, userID string) ([]*models.Schedule, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).([]*models.Schedule)
	return s, args.Error(1)
}

func (m *MockScheduleRepository) SetScheduleActive(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockScheduleRepository) ListDeliveries(ctx context.Context, scheduleID string, limit int) ([]*models.NewsDelivery, error) {
	args := m.Called(ctx, scheduleID, limit)
	d, _ := args.Get(0).([]*models.NewsDelivery)
	return d, args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, task models.DeliveryTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func ptr[T any](v T) *T { return &v }

var (
	freeUser = &models.User{ID: "1", SubscriptionTier: models.TierFree}
	paidUser = &models.User{ID: "1", SubscriptionTier: models.TierPaid}
	topic    = &models.Topic{ID: "5", UserID: "1"}
)

func TestValidTimeOfDay(t *testing.T) {
	for _, ok := range []string{"00:00", "09:30", "23:59"} {
		assert.True(t, ValidTimeOfDay(ok), ok)
	}
	for _, bad := range []string{"24:00", "9:30", "09:60", "0930", "09:30:00", ""} {
		assert.False(t, ValidTimeOfDay(bad), bad)
	}
}

func TestScheduleService_Create(t *testing.T) {
	tests := []struct {
		name      string
		input     models.ScheduleInput
		setupMock func(r *MockScheduleRepository)
		wantErr   error
	}{
		{
			name:  "free daily",
			input: models.ScheduleInput{TopicID: "5", Frequency: models.FrequencyDaily, TimeOfDay: ptr("08:00")},
			setupMock: func(r *MockScheduleRepository) {
				r.On("GetTopic", mock.Anything, "5").Return(topic, nil)
				r.On("GetUser", mock.Anything, "1").Return(freeUser, nil)
				r.On("CountSchedules", mock.Anything, "1").Return(2, nil)
				r.On("CreateSchedule", mock.Anything, models.Schedule{
					TopicID: "5", Frequency: models.FrequencyDaily, TimeOfDay: ptr("08:00"), Active: true,
				}).Return("9", nil)
				r.On("GetSchedule", mock.Anything, "9").Return(&models.Schedule{ID: "9", TopicID: "5", Active: true}, nil)
			},
		},
		{
			name:  "paid hourly",
			input: models.ScheduleInput{TopicID: "5", Frequency: models.FrequencyHourly},
			setupMock: func(r *MockScheduleRepository) {
				r.On("GetTopic", mock.Anything, "5").Return(topic, nil)
				r.On("GetUser", mock.Anything, "1").Return(paidUser, nil)
				r.On("CreateSchedule", mock.Anything, mock.Anything).Return("9", nil)
				r.On("GetSchedule", mock.Anything, "9").Return(&models.Schedule{ID: "9"}, nil)
			},
		},
		{
			name:  "foreign topic",
			input: models.ScheduleInput{TopicID: "5", Frequency: models.FrequencyDaily, TimeOfDay: ptr("08:00")},
			setupMock: func(r *MockScheduleRepository) {
				r.On("GetTopic", mock.Anything, "5").Return(&models.Topic{ID: "5", UserID: "2"}, nil)
			},
			wantErr: models.ErrNotFound,
		},
		{
			name:  "free count at limit",
			input: models.ScheduleInput{TopicID: "5", Frequency: models.FrequencyDaily, TimeOfDay: ptr("08:00")},
			setupMock: func(r *MockScheduleRepository) {
				r.On("GetTopic", mock.Anything, "5").Return(topic, nil)
				r.On("GetUser", mock.Anything, "1").Return(freeUser, nil)
				r.On("CountSchedules", mock.Anything, "1").Return(3, nil)
			},
			wantErr: models.ErrQuotaExceeded,
		},
		{
			name:  "free hourly",
			input: models.ScheduleInput{TopicID: "5", Frequency: models.FrequencyHourly},
			setupMock: func(r *MockScheduleRepository) {
				r.On("GetTopic", mock.Anything, "5").Return(topic, nil)
				r.On("GetUser", mock.Anything, "1").Return(freeUser, nil)
				r.On("CountSchedules", mock.Anything, "1").Return(0, nil)
			},
			wantErr: models.ErrHourlyNotAllowed,
		},
		{
			name:  "daily without time",
			input: models.ScheduleInput{TopicID: "5", Frequency: models.FrequencyDaily},
			setupMock: func(r *MockScheduleRepository) {
				r.On("GetTopic", mock.Anything, "5").Return(topic, nil)
				r.On("GetUser", mock.Anything, "1").Return(paidUser, nil)
			},
			wantErr: models.ErrInvalidSchedule,
		},
		{
			name:  "malformed time",
			input: models.ScheduleInput{TopicID: "5", Frequency: models.FrequencyDaily, TimeOfDay: ptr("8am")},
			setupMock: func(r *MockScheduleRepository) {
				r.On("GetTopic", mock.Anything, "5").Return(topic, nil)
				r.On("GetUser", mock.Anything, "1").Return(paidUser, nil)
			},
			wantErr: models.ErrInvalidSchedule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockScheduleRepository)
			tt.setupMock(repo)
			s := NewScheduleService(repo, new(MockPublisher), 3)

			got, err := s.Create(context.Background(), "1", tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "CreateSchedule", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "9", got.ID)
			repo.AssertExpectations(t)
		})
	}
}

func TestHourlyNotAllowedIsQuota(t *testing.T) {
	assert.ErrorIs(t, models.ErrHourlyNotAllowed, models.ErrQuotaExceeded)
}

func TestScheduleService_Deactivate(t *testing.T) {
	repo := new(MockScheduleRepository)
	repo.On("GetSchedule", mock.Anything, "9").Return(&models.Schedule{ID: "9", TopicID: "5", Active: true}, nil)
	repo.On("GetTopic", mock.Anything, "5").Return(topic, nil)
	repo.On("SetScheduleActive", mock.Anything, "9", false).Return(nil).Once()
	s := NewScheduleService(repo, new(MockPublisher), 3)

	got, err := s.Deactivate(context.Background(), "1", "9")
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = s.Deactivate(context.Background(), "2", "9")
	assert.ErrorIs(t, err, models.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestScheduleService_Deliveries(t *testing.T) {
	repo := new(MockScheduleRepository)
	repo.On("GetSchedule", mock.Anything, "9").Return(&models.Schedule{ID: "9", TopicID: "5"}, nil)
	repo.On("GetTopic", mock.Anything, "5").Return(topic, nil)
	repo.On("ListDeliveries", mock.Anything, "9", DefaultDeliveriesLimit).Return(nil, nil)
	repo.On("ListDeliveries", mock.Anything, "9", MaxDeliveriesLimit).Return([]*models.NewsDelivery{{ID: "1"}}, nil)
	s := NewScheduleService(repo, new(MockPublisher), 3)

	got, err := s.Deliveries(context.Background(), "1", "9", 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = s.Deliveries(context.Background(), "1", "9", 5000)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestScheduleService_Trigger(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("publishes manual task", func(t *testing.T) {
		repo := new(MockScheduleRepository)
		pub := new(MockPublisher)
		repo.On("GetSchedule", mock.Anything, "9").Return(&models.Schedule{ID: "9", TopicID: "5"}, nil)
		repo.On("GetTopic", mock.Anything, "5").Return(topic, nil)
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(task models.DeliveryTask) bool {
			_, err := uuid.Parse(task.TaskID)
			return err == nil && task.ScheduleID == "9" && task.Source == models.TaskSourceManual && task.EnqueuedAt.Equal(now)
		})).Return(nil)

		s := NewScheduleService(repo, pub, 3)
		s.now = func() time.Time { return now }

		res, err := s.Trigger(context.Background(), "1", "9")
		require.NoError(t, err)
		assert.Equal(t, TaskStatusScheduled, res.Status)
		_, err = uuid.Parse(res.TaskID)
		assert.NoError(t, err)
		pub.AssertExpectations(t)
	})

	t.Run("foreign schedule", func(t *testing.T) {
		repo := new(MockScheduleRepository)
		pub := new(MockPublisher)
		repo.On("GetSchedule", mock.Anything, "9").Return(&models.Schedule{ID: "9", TopicID: "5"}, nil)
		repo.On("GetTopic", mock.Anything, "5").Return(&models.Topic{ID: "5", UserID: "2"}, nil)

		_, err := NewScheduleService(repo, pub, 3).Trigger(context.Background(), "1", "9")
		assert.ErrorIs(t, err, models.ErrNotFound)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("publish failure", func(t *testing.T) {
		repo := new(MockScheduleRepository)
		pub := new(MockPublisher)
		repo.On("GetSchedule", mock.Anything, "9").Return(&models.Schedule{ID: "9", TopicID: "5"}, nil)
		repo.On("GetTopic", mock.Anything, "5").Return(topic, nil)
		pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		_, err := NewScheduleService(repo, pub, 3).Trigger(context.Background(), "1", "9")
		assert.Error(t, err)
	})
}
