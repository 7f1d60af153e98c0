// Package services реализует доставку новостной сводки по одному расписанию:
// поиск статей, суммаризация, отправка в WhatsApp и запись в журнал.
//
// Ошибки внешних провайдеров не прерывают доставку: вместо статей подставляется
// заглушка, вместо резюме отрывок текста, а неудачная отправка записывается со статусом failed.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/article"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/metrics"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// Тексты сообщения.
const (
	NoNewsPlaceholder = "⚠️ No news found for your topic."
	FallbackPrefix    = "(AI Unavailable) "
	ExcerptLimit      = 100
	DefaultMaxArticles = 3
	blockSeparator    = "\n\n"
)

// Repository хранилище, нужное доставке.
type Repository interface {
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	GetTopic(ctx context.Context, id string) (*models.Topic, error)
	GetVerifiedNumber(ctx context.Context, userID string) (*models.WhatsAppNumber, error)
	UpdateScheduleLastRun(ctx context.Context, id string, at time.Time) error
	CreateDelivery(ctx context.Context, delivery models.NewsDelivery) (string, error)
}

// NewsSearcher поиск статей по теме.
type NewsSearcher interface {
	Search(ctx context.Context, query models.NewsQuery) ([]models.Article, error)
}

// Summarizer однострочное резюме текста.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// MessageSender отправка сообщения в WhatsApp.
type MessageSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// Service выполняет доставку.
type Service struct {
	log         *slog.Logger
	repo        Repository
	news        NewsSearcher
	summarizer  Summarizer
	sender      MessageSender
	maxArticles int
	now         func() time.Time
}

// Option настройка Service.
type Option func(*Service)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMaxArticles задает число статей в сводке.
func WithMaxArticles(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxArticles = n
		}
	}
}

// New создает сервис доставки.
func New(log *slog.Logger, repo Repository, news NewsSearcher, summarizer Summarizer, sender MessageSender, opts ...Option) *Service {
	s := &Service{
		log:         log,
		repo:        repo,
		news:        news,
		summarizer:  summarizer,
		sender:      sender,
		maxArticles: DefaultMaxArticles,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver выполняет доставку по расписанию scheduleID.
// Неактивное или отсутствующее расписание дает models.ErrNotFound без отправки и записи.
func (s *Service) Deliver(ctx context.Context, scheduleID string) (*models.DeliveryResult, error) {
	const op = "services.delivery.Deliver"
	log := s.log.With(sl.Op(op), slog.String("schedule_id", scheduleID))

	schedule, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !schedule.Active {
		return nil, fmt.Errorf("%s: schedule inactive: %w", op, models.ErrNotFound)
	}

	topic, err := s.repo.GetTopic(ctx, schedule.TopicID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	number, err := s.repo.GetVerifiedNumber(ctx, topic.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNoVerifiedEndpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	body := s.compose(ctx, log, topic)

	var sid *string
	messageSID, err := s.sender.Send(ctx, number.PhoneNumber, body)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues(metrics.ProviderWhatsApp).Inc()
		log.Error("failed to send whatsapp message", sl.Err(err))
	} else {
		sid = &messageSID
	}

	now := s.now().UTC()
	if err := s.repo.UpdateScheduleLastRun(ctx, schedule.ID, now); err != nil {
		log.Error("failed to update last run", sl.Err(err))
	}

	status := models.DeliveryStatusFailed
	if sid != nil {
		status = models.DeliveryStatusSuccess
	}
	if _, err := s.repo.CreateDelivery(ctx, models.NewsDelivery{
		ScheduleID:  schedule.ID,
		DeliveredAt: now,
		Status:      status,
		MessageSID:  sid,
		Content:     body,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.Deliveries.WithLabelValues(status).Inc()

	log.Info("delivery finished", slog.String("status", status))
	return &models.DeliveryResult{
		ScheduleID: schedule.ID,
		TopicID:    topic.ID,
		Status:     status,
		MessageSID: sid,
	}, nil
}

func (s *Service) compose(ctx context.Context, log *slog.Logger, topic *models.Topic) string {
	articles, err := s.news.Search(ctx, models.NewsQuery{
		Keywords:    topic.Keywords,
		CountryCode: topic.CountryCode,
		Language:    topic.Language,
	})
	if err != nil {
		metrics.ProviderFailures.WithLabelValues(metrics.ProviderNews).Inc()
		log.Warn("news search failed", sl.Err(err))
		return NoNewsPlaceholder
	}
	if len(articles) == 0 {
		return NoNewsPlaceholder
	}

	if len(articles) > s.maxArticles {
		articles = articles[:s.maxArticles]
	}
	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		blocks = append(blocks, FormatBlock(a, s.summarize(ctx, log, a)))
	}
	return strings.Join(blocks, blockSeparator)
}

func (s *Service) summarize(ctx context.Context, log *slog.Logger, a models.Article) string {
	text := article.Text(a)
	summary, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues(metrics.ProviderSummarize).Inc()
		log.Warn("summarization failed", slog.String("link", a.Link), sl.Err(err))
		return FallbackPrefix + article.Excerpt(text, ExcerptLimit)
	}
	return summary
}

// FormatBlock форматирует одну статью сводки.
func FormatBlock(a models.Article, summary string) string {
	return fmt.Sprintf("🗞️ *%s*\n📌 Summary: %s\n📍 %s | 🕒 %s\n🔗 %s",
		a.Title, summary, article.Source(a), a.PubDate, a.Link)
}
