// Package storage объединяет возможности хранилища, которые нужны сервисам,
// и выбирает реализацию по настройке storage.driver.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/config"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/migrations"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/storage/mongostore"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/storage/repository"
)

// Storage набор операций над пользователями, номерами, темами, расписаниями и журналом.
// Обе реализации, repository и mongostore, возвращают models.ErrNotFound
// для отсутствующих сущностей и models.ErrAlreadyExists при нарушении уникальности.
type Storage interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserTier(ctx context.Context, id, tier string) error

	CreateNumber(ctx context.Context, number models.WhatsAppNumber) (string, error)
	GetNumber(ctx context.Context, id string) (*models.WhatsAppNumber, error)
	ListNumbers(ctx context.Context, userID string) ([]*models.WhatsAppNumber, error)
	CountNumbers(ctx context.Context, userID string) (int, error)
	GetVerifiedNumber(ctx context.Context, userID string) (*models.WhatsAppNumber, error)
	MarkNumberVerified(ctx context.Context, id string, at time.Time) error
	DeleteNumber(ctx context.Context, id string) error

	CreateTopic(ctx context.Context, topic models.Topic) (string, error)
	GetTopic(ctx context.Context, id string) (*models.Topic, error)
	ListTopics(ctx context.Context, userID string, skip, limit int) ([]*models.Topic, error)
	CountTopics(ctx context.Context, userID string) (int, error)
	DeleteTopic(ctx context.Context, id string) error

	CreateSchedule(ctx context.Context, schedule models.Schedule) (string, error)
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	CountSchedules(ctx context.Context, userID string) (int, error)
	ListSchedules(ctx context.Context, userID string) ([]*models.Schedule, error)
	ListActiveSchedules(ctx context.Context, frequency string) ([]*models.Schedule, error)
	ListDueDailySchedules(ctx context.Context, hour int) ([]*models.Schedule, error)
	UpdateScheduleLastRun(ctx context.Context, id string, at time.Time) error
	SetScheduleActive(ctx context.Context, id string, active bool) error

	CreateDelivery(ctx context.Context, delivery models.NewsDelivery) (string, error)
	ListDeliveries(ctx context.Context, scheduleID string, limit int) ([]*models.NewsDelivery, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Storage = (*repository.Storage)(nil)
	_ Storage = (*mongostore.Storage)(nil)
)

// New подключает хранилище, выбранное в cfg. При migrate для PostgreSQL накатываются миграции.
func New(ctx context.Context, cfg config.Storage, migrate bool) (Storage, error) {
	const op = "storage.New"

	switch cfg.StorageDriver {
	case config.DriverMongo:
		s, err := mongostore.New(ctx, cfg.StorageConnectionString, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	case config.DriverPostgres, "":
		s, err := repository.New(cfg.StorageConnectionString)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if migrate {
			if err := migrations.Run(s.DB, cfg.MigrationsPath); err != nil {
				_ = s.Close(ctx)
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%s: unknown driver %q", op, cfg.StorageDriver)
	}
}

// WaitReady опрашивает хранилище, пока оно не станет готово, не более attempts раз.
func WaitReady(ctx context.Context, s Storage, attempts int, delay time.Duration) error {
	const op = "storage.WaitReady"
	var err error
	for range attempts {
		if err = s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%s: database not ready after retries: %w", op, err)
}
