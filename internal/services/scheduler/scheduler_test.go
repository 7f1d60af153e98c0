package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) ListActiveSchedules(ctx context.Context, frequency string) ([]*models.Schedule, error) {
	args := m.Called(ctx, frequency)
	s, _ := args.Get(0).([]*models.Schedule)
	return s, args.Error(1)
}

func (m *MockScheduleRepository) ListDueDailySchedules(ctx context.Context, hour int) ([]*models.Schedule, error) {
	args := m.Called(ctx, hour)
	s, _ := args.Get(0).([]*models.Schedule)
	return s, args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, task models.DeliveryTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func bySchedule(id, source string) any {
	return mock.MatchedBy(func(task models.DeliveryTask) bool {
		return task.ScheduleID == id && task.Source == source && task.TaskID != ""
	})
}

func TestNextTick(t *testing.T) {
	assert.Equal(t,
		time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC),
		NextTick(time.Date(2025, 1, 1, 10, 17, 45, 0, time.UTC)))
	assert.Equal(t,
		time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC),
		NextTick(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)))
}

func TestRunOnce(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		setupMock  func(r *MockScheduleRepository, p *MockPublisher)
		wantHourly int
		wantDaily  int
	}{
		{
			name: "both checks publish",
			setupMock: func(r *MockScheduleRepository, p *MockPublisher) {
				r.On("ListActiveSchedules", mock.Anything, models.FrequencyHourly).
					Return([]*models.Schedule{{ID: "1"}, {ID: "2"}}, nil)
				r.On("ListDueDailySchedules", mock.Anything, 15).
					Return([]*models.Schedule{{ID: "3"}}, nil)
				p.On("Publish", mock.Anything, bySchedule("1", models.TaskSourceHourly)).Return(nil)
				p.On("Publish", mock.Anything, bySchedule("2", models.TaskSourceHourly)).Return(nil)
				p.On("Publish", mock.Anything, bySchedule("3", models.TaskSourceDaily)).Return(nil)
			},
			wantHourly: 2,
			wantDaily:  1,
		},
		{
			name: "hourly failure does not skip daily",
			setupMock: func(r *MockScheduleRepository, p *MockPublisher) {
				r.On("ListActiveSchedules", mock.Anything, models.FrequencyHourly).Return(nil, errors.New("db down"))
				r.On("ListDueDailySchedules", mock.Anything, 15).Return([]*models.Schedule{{ID: "3"}}, nil)
				p.On("Publish", mock.Anything, bySchedule("3", models.TaskSourceDaily)).Return(nil)
			},
			wantDaily: 1,
		},
		{
			name: "daily failure keeps hourly",
			setupMock: func(r *MockScheduleRepository, p *MockPublisher) {
				r.On("ListActiveSchedules", mock.Anything, models.FrequencyHourly).Return([]*models.Schedule{{ID: "1"}}, nil)
				r.On("ListDueDailySchedules", mock.Anything, 15).Return(nil, errors.New("db down"))
				p.On("Publish", mock.Anything, bySchedule("1", models.TaskSourceHourly)).Return(nil)
			},
			wantHourly: 1,
		},
		{
			name: "publish failure does not stop batch",
			setupMock: func(r *MockScheduleRepository, p *MockPublisher) {
				r.On("ListActiveSchedules", mock.Anything, models.FrequencyHourly).
					Return([]*models.Schedule{{ID: "1"}, {ID: "2"}}, nil)
				r.On("ListDueDailySchedules", mock.Anything, 15).Return(nil, nil)
				p.On("Publish", mock.Anything, bySchedule("1", models.TaskSourceHourly)).Return(errors.New("broker down"))
				p.On("Publish", mock.Anything, bySchedule("2", models.TaskSourceHourly)).Return(nil)
			},
			wantHourly: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockScheduleRepository)
			pub := new(MockPublisher)
			tt.setupMock(repo, pub)
			s := NewSchedulerService(repo, pub, newNoopLogger(), time.Hour, time.UTC)

			hourly, daily := s.RunOnce(context.Background(), now)
			assert.Equal(t, tt.wantHourly, hourly)
			assert.Equal(t, tt.wantDaily, daily)
			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestRunOnce_DailyHourInLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	repo := new(MockScheduleRepository)
	pub := new(MockPublisher)
	repo.On("ListActiveSchedules", mock.Anything, models.FrequencyHourly).Return(nil, nil)
	repo.On("ListDueDailySchedules", mock.Anything, 18).Return(nil, nil).Once()

	s := NewSchedulerService(repo, pub, newNoopLogger(), time.Hour, loc)
	s.RunOnce(context.Background(), time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC))
	repo.AssertExpectations(t)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := NewSchedulerService(new(MockScheduleRepository), new(MockPublisher), newNoopLogger(), time.Hour, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
