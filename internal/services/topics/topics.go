// Package services управляет темами рассылки пользователя.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// Параметры страницы по умолчанию и время жизни кеша страниц.
const (
	DefaultLimit = 100
	cacheTTL     = 5 * time.Minute
)

// TopicRepository хранилище тем.
type TopicRepository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateTopic(ctx context.Context, topic models.Topic) (string, error)
	GetTopic(ctx context.Context, id string) (*models.Topic, error)
	ListTopics(ctx context.Context, userID string, skip, limit int) ([]*models.Topic, error)
	CountTopics(ctx context.Context, userID string) (int, error)
	DeleteTopic(ctx context.Context, id string) error
}

// Cache кеш страниц списка тем.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// TopicService операции над темами.
type TopicService struct {
	log       *slog.Logger
	repo      TopicRepository
	cache     Cache
	freeLimit int
}

// NewTopicService создает сервис. cache может быть nil.
func NewTopicService(log *slog.Logger, repo TopicRepository, cache Cache, freeLimit int) *TopicService {
	return &TopicService{
		log:       log,
		repo:      repo,
		cache:     cache,
		freeLimit: freeLimit,
	}
}

func userPrefix(userID string) string {
	return "topics:" + userID + ":"
}

func pageKey(userID string, skip, limit int) string {
	return fmt.Sprintf("%s%d:%d", userPrefix(userID), skip, limit)
}

// Create сохраняет тему. Пустые страна и язык заменяются на us и en.
func (s *TopicService) Create(ctx context.Context, userID string, in models.TopicInput) (*models.Topic, error) {
	const op = "services.TopicService.Create"

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.IsFree() {
		count, err := s.repo.CountTopics(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if count >= s.freeLimit {
			return nil, fmt.Errorf("%s: %w: free tier limited to %d topics", op, models.ErrQuotaExceeded, s.freeLimit)
		}
	}

	topic := models.Topic{
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Keywords:    strings.TrimSpace(in.Keywords),
		CountryCode: strings.ToLower(in.CountryCode),
		Language:    strings.ToLower(in.Language),
	}
	if topic.CountryCode == "" {
		topic.CountryCode = models.DefaultCountryCode
	}
	if topic.Language == "" {
		topic.Language = models.DefaultLanguage
	}

	id, err := s.repo.CreateTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op, userID)

	created, err := s.repo.GetTopic(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// List возвращает страницу тем пользователя, по возможности из кеша.
func (s *TopicService) List(ctx context.Context, userID string, skip, limit int) ([]*models.Topic, error) {
	const op = "services.TopicService.List"
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	key := pageKey(userID, skip, limit)
	if s.cache != nil {
		var cached []*models.Topic
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("topic cache read failed", sl.Op(op), sl.Err(err))
		} else if found {
			return cached, nil
		}
	}

	topics, err := s.repo.ListTopics(ctx, userID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if topics == nil {
		topics = []*models.Topic{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, topics, cacheTTL); err != nil {
			s.log.Warn("topic cache write failed", sl.Op(op), sl.Err(err))
		}
	}
	return topics, nil
}

// Get возвращает тему пользователя.
func (s *TopicService) Get(ctx context.Context, userID, id string) (*models.Topic, error) {
	const op = "services.TopicService.Get"
	topic, err := s.repo.GetTopic(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if topic.UserID != userID {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return topic, nil
}

// Remove удаляет тему вместе с ее расписаниями.
func (s *TopicService) Remove(ctx context.Context, userID, id string) error {
	const op = "services.TopicService.Remove"
	if _, err := s.Get(ctx, userID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteTopic(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op, userID)
	return nil
}

func (s *TopicService) invalidate(ctx context.Context, op, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, userPrefix(userID)); err != nil {
		s.log.Warn("topic cache invalidation failed", sl.Op(op), sl.Err(err))
	}
}
