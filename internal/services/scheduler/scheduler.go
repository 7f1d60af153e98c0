// Package services содержит планировщик, который раз в час выбирает
// подходящие расписания и ставит задачи доставки в очередь.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/metrics"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// ScheduleRepository выборка расписаний к запуску.
type ScheduleRepository interface {
	ListActiveSchedules(ctx context.Context, frequency string) ([]*models.Schedule, error)
	ListDueDailySchedules(ctx context.Context, hour int) ([]*models.Schedule, error)
}

// TaskPublisher ставит задачу доставки в очередь.
type TaskPublisher interface {
	Publish(ctx context.Context, task models.DeliveryTask) error
}

// SchedulerService публикует задачи доставки по расписаниям.
type SchedulerService struct {
	repo      ScheduleRepository
	publisher TaskPublisher
	log       *slog.Logger
	interval  time.Duration
	location  *time.Location
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
// Час ежедневных расписаний сравнивается с текущим часом в location.
func NewSchedulerService(repo ScheduleRepository, publisher TaskPublisher, log *slog.Logger, interval time.Duration, location *time.Location) *SchedulerService {
	if interval <= 0 {
		interval = time.Hour
	}
	if location == nil {
		location = time.UTC
	}
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		interval:  interval,
		location:  location,
		now:       time.Now,
	}
}

// NextTick возвращает начало следующего часа после now.
func NextTick(now time.Time) time.Time {
	return now.Truncate(time.Hour).Add(time.Hour)
}

// Run ждет начала следующего часа, затем запускает проверки с шагом interval до отмены ctx.
func (s *SchedulerService) Run(ctx context.Context) {
	now := s.now()
	timer := time.NewTimer(NextTick(now).Sub(now))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	s.RunOnce(ctx, s.now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx, s.now())
		}
	}
}

// RunOnce выполняет одну итерацию: ежечасная и ежедневная проверки независимы.
// Возвращает число опубликованных задач по каждой проверке.
func (s *SchedulerService) RunOnce(ctx context.Context, now time.Time) (hourly, daily int) {
	hourly = s.checkHourly(ctx, now)
	daily = s.checkDaily(ctx, now)
	s.log.Info("scheduler tick finished",
		slog.Time("tick", now),
		slog.Int("hourly", hourly),
		slog.Int("daily", daily),
	)
	return hourly, daily
}

func (s *SchedulerService) checkHourly(ctx context.Context, now time.Time) int {
	const op = "services.SchedulerService.checkHourly"
	schedules, err := s.repo.ListActiveSchedules(ctx, models.FrequencyHourly)
	if err != nil {
		s.log.Error("failed to list hourly schedules", sl.Op(op), sl.Err(err))
		return 0
	}
	return s.dispatch(ctx, op, schedules, models.TaskSourceHourly, now)
}

func (s *SchedulerService) checkDaily(ctx context.Context, now time.Time) int {
	const op = "services.SchedulerService.checkDaily"
	hour := now.In(s.location).Hour()
	schedules, err := s.repo.ListDueDailySchedules(ctx, hour)
	if err != nil {
		s.log.Error("failed to list daily schedules", sl.Op(op), slog.Int("hour", hour), sl.Err(err))
		return 0
	}
	return s.dispatch(ctx, op, schedules, models.TaskSourceDaily, now)
}

func (s *SchedulerService) dispatch(ctx context.Context, op string, schedules []*models.Schedule, source string, now time.Time) int {
	published := 0
	for _, schedule := range schedules {
		task := models.DeliveryTask{
			TaskID:     uuid.NewString(),
			ScheduleID: schedule.ID,
			Source:     source,
			EnqueuedAt: now.UTC(),
		}
		if err := s.publisher.Publish(ctx, task); err != nil {
			metrics.PublishFailures.Inc()
			s.log.Error("failed to publish delivery task", sl.Op(op), slog.String("schedule_id", schedule.ID), sl.Err(err))
			continue
		}
		metrics.DispatchedTasks.WithLabelValues(source).Inc()
		published++
	}
	return published
}
