// Package services управляет расписаниями доставки и ручным запуском.
package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// Ограничения выборки журнала доставок.
const (
	DefaultDeliveriesLimit = 20
	MaxDeliveriesLimit     = 100
)

// TaskStatusScheduled статус задачи, поставленной в очередь.
const TaskStatusScheduled = "scheduled"

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ScheduleRepository хранилище расписаний и журнала.
type ScheduleRepository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetTopic(ctx context.Context, id string) (*models.Topic, error)
	CreateSchedule(ctx context.Context, schedule models.Schedule) (string, error)
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	CountSchedules(ctx context.Context, userID string) (int, error)
	ListSchedules(ctx context.Context, userID string) ([]*models.Schedule, error)
	SetScheduleActive(ctx context.Context, id string, active bool) error
	ListDeliveries(ctx context.Context, scheduleID string, limit int) ([]*models.NewsDelivery, error)
}

// TaskPublisher ставит задачу доставки в очередь.
type TaskPublisher interface {
	Publish(ctx context.Context, task models.DeliveryTask) error
}

// TriggerResult ответ на ручной запуск.
type TriggerResult struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// ScheduleService операции над расписаниями.
type ScheduleService struct {
	repo      ScheduleRepository
	publisher TaskPublisher
	freeLimit int
	now       func() time.Time
}

// NewScheduleService создает сервис. freeLimit ограничивает число расписаний на бесплатном тарифе.
func NewScheduleService(repo ScheduleRepository, publisher TaskPublisher, freeLimit int) *ScheduleService {
	return &ScheduleService{
		repo:      repo,
		publisher: publisher,
		freeLimit: freeLimit,
		now:       time.Now,
	}
}

// ValidTimeOfDay проверяет формат HH:MM.
func ValidTimeOfDay(s string) bool {
	return timeOfDayRe.MatchString(s)
}

func (s *ScheduleService) ownedTopic(ctx context.Context, op, userID, topicID string) (*models.Topic, error) {
	topic, err := s.repo.GetTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if topic.UserID != userID {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return topic, nil
}

func (s *ScheduleService) owned(ctx context.Context, op, userID, id string) (*models.Schedule, error) {
	schedule, err := s.repo.GetSchedule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.ownedTopic(ctx, op, userID, schedule.TopicID); err != nil {
		return nil, err
	}
	return schedule, nil
}

// Create создает активное расписание для темы пользователя.
func (s *ScheduleService) Create(ctx context.Context, userID string, in models.ScheduleInput) (*models.Schedule, error) {
	const op = "services.ScheduleService.Create"

	if _, err := s.ownedTopic(ctx, op, userID, in.TopicID); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.IsFree() {
		count, err := s.repo.CountSchedules(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if count >= s.freeLimit {
			return nil, fmt.Errorf("%s: %w: free tier limited to %d updates per day", op, models.ErrQuotaExceeded, s.freeLimit)
		}
		if in.Frequency == models.FrequencyHourly {
			return nil, fmt.Errorf("%s: %w", op, models.ErrHourlyNotAllowed)
		}
	}

	switch in.Frequency {
	case models.FrequencyHourly, models.FrequencyDaily:
	default:
		return nil, fmt.Errorf("%s: %w: unknown frequency %q", op, models.ErrInvalidSchedule, in.Frequency)
	}
	if in.TimeOfDay != nil && !ValidTimeOfDay(*in.TimeOfDay) {
		return nil, fmt.Errorf("%s: %w: time_of_day must be HH:MM", op, models.ErrInvalidSchedule)
	}
	if in.Frequency == models.FrequencyDaily && in.TimeOfDay == nil {
		return nil, fmt.Errorf("%s: %w: time_of_day is required for daily schedules", op, models.ErrInvalidSchedule)
	}

	id, err := s.repo.CreateSchedule(ctx, models.Schedule{
		TopicID:   in.TopicID,
		Frequency: in.Frequency,
		TimeOfDay: in.TimeOfDay,
		Active:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	created, err := s.repo.GetSchedule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// List возвращает расписания всех тем пользователя.
func (s *ScheduleService) List(ctx context.Context, userID string) ([]*models.Schedule, error) {
	const op = "services.ScheduleService.List"
	schedules, err := s.repo.ListSchedules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if schedules == nil {
		schedules = []*models.Schedule{}
	}
	return schedules, nil
}

// Deactivate выключает расписание. Выключенное расписание не выбирается планировщиком.
func (s *ScheduleService) Deactivate(ctx context.Context, userID, id string) (*models.Schedule, error) {
	const op = "services.ScheduleService.Deactivate"
	schedule, err := s.owned(ctx, op, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetScheduleActive(ctx, id, false); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	schedule.Active = false
	return schedule, nil
}

// Deliveries возвращает последние записи журнала по расписанию.
func (s *ScheduleService) Deliveries(ctx context.Context, userID, id string, limit int) ([]*models.NewsDelivery, error) {
	const op = "services.ScheduleService.Deliveries"
	if _, err := s.owned(ctx, op, userID, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultDeliveriesLimit
	}
	limit = min(limit, MaxDeliveriesLimit)

	deliveries, err := s.repo.ListDeliveries(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if deliveries == nil {
		deliveries = []*models.NewsDelivery{}
	}
	return deliveries, nil
}

// Trigger ставит в очередь внеплановую доставку по расписанию.
func (s *ScheduleService) Trigger(ctx context.Context, userID, id string) (*TriggerResult, error) {
	const op = "services.ScheduleService.Trigger"
	if _, err := s.owned(ctx, op, userID, id); err != nil {
		return nil, err
	}

	task := models.DeliveryTask{
		TaskID:     uuid.NewString(),
		ScheduleID: id,
		Source:     models.TaskSourceManual,
		EnqueuedAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, task); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &TriggerResult{TaskID: task.TaskID, Status: TaskStatusScheduled}, nil
}
