package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Schedule)
	return s, args.Error(1)
}

func (m *MockRepository) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*models.Topic)
	return t, args.Error(1)
}

func (m *MockRepository) GetVerifiedNumber(ctx context.Context, userID string) (*models.WhatsAppNumber, error) {
	args := m.Called(ctx, userID)
	n, _ := args.Get(0).(*models.WhatsAppNumber)
	return n, args.Error(1)
}

func (m *MockRepository) UpdateScheduleLastRun(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockRepository) CreateDelivery(ctx context.Context, delivery models.NewsDelivery) (string, error) {
	args := m.Called(ctx, delivery)
	return args.String(0), args.Error(1)
}

type MockNews struct {
	mock.Mock
}

func (m *MockNews) Search(ctx context.Context, query models.NewsQuery) ([]models.Article, error) {
	args := m.Called(ctx, query)
	a, _ := args.Get(0).([]models.Article)
	return a, args.Error(1)
}

type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var (
	fixedNow = time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	schedule = &models.Schedule{ID: "1", TopicID: "10", Frequency: models.FrequencyDaily, Active: true}
	topic    = &models.Topic{ID: "10", UserID: "100", Name: "tech", Keywords: "tech", CountryCode: "us", Language: "en"}
	number   = &models.WhatsAppNumber{ID: "7", UserID: "100", PhoneNumber: "+15550001111", Verified: true}
	query    = models.NewsQuery{Keywords: "tech", CountryCode: "us", Language: "en"}
)

type fixture struct {
	repo       *MockRepository
	news       *MockNews
	summarizer *MockSummarizer
	sender     *MockSender
	svc        *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:       new(MockRepository),
		news:       new(MockNews),
		summarizer: new(MockSummarizer),
		sender:     new(MockSender),
	}
	f.svc = New(newNoopLogger(), f.repo, f.news, f.summarizer, f.sender, WithClock(func() time.Time { return fixedNow }))
	return f
}

func (f *fixture) expectRecipient() {
	f.repo.On("GetSchedule", mock.Anything, "1").Return(schedule, nil)
	f.repo.On("GetTopic", mock.Anything, "10").Return(topic, nil)
	f.repo.On("GetVerifiedNumber", mock.Anything, "100").Return(number, nil)
}

func TestDeliver_TwoArticles(t *testing.T) {
	f := newFixture()
	f.expectRecipient()
	f.news.On("Search", mock.Anything, query).Return([]models.Article{
		{Title: "Chip shortage ends", SourceID: "reuters", PubDate: "2025-06-01 10:00:00", Link: "https://a", Content: "<p>Chips are back</p>"},
		{Title: "New phone", PubDate: "2025-06-01 11:00:00", Link: "https://b", Description: "A phone"},
	}, nil)
	f.summarizer.On("Summarize", mock.Anything, "Chips are back").Return("Chips are back in stock.", nil)
	f.summarizer.On("Summarize", mock.Anything, "A phone").Return("A new phone launched.", nil)

	expected := "🗞️ *Chip shortage ends*\n📌 Summary: Chips are back in stock.\n📍 reuters | 🕒 2025-06-01 10:00:00\n🔗 https://a" +
		"\n\n" +
		"🗞️ *New phone*\n📌 Summary: A new phone launched.\n📍 Unknown | 🕒 2025-06-01 11:00:00\n🔗 https://b"

	f.sender.On("Send", mock.Anything, "+15550001111", expected).Return("SM42", nil)
	f.repo.On("UpdateScheduleLastRun", mock.Anything, "1", fixedNow).Return(nil).Once()
	f.repo.On("CreateDelivery", mock.Anything, mock.MatchedBy(func(d models.NewsDelivery) bool {
		return d.ScheduleID == "1" && d.Status == models.DeliveryStatusSuccess &&
			d.MessageSID != nil && *d.MessageSID == "SM42" && d.Content == expected && d.DeliveredAt.Equal(fixedNow)
	})).Return("500", nil).Once()

	res, err := f.svc.Deliver(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusSuccess, res.Status)
	assert.Equal(t, "10", res.TopicID)
	require.NotNil(t, res.MessageSID)
	assert.Equal(t, "SM42", *res.MessageSID)
	f.repo.AssertExpectations(t)
	f.sender.AssertExpectations(t)
}

func TestDeliver_NoResults(t *testing.T) {
	tests := []struct {
		name      string
		articles  []models.Article
		searchErr error
	}{
		{name: "zero results"},
		{name: "provider error", searchErr: errors.New("newsdata: 500")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.expectRecipient()
			f.news.On("Search", mock.Anything, query).Return(tt.articles, tt.searchErr)
			f.sender.On("Send", mock.Anything, "+15550001111", NoNewsPlaceholder).Return("SM1", nil)
			f.repo.On("UpdateScheduleLastRun", mock.Anything, "1", fixedNow).Return(nil)
			f.repo.On("CreateDelivery", mock.Anything, mock.MatchedBy(func(d models.NewsDelivery) bool {
				return d.Content == NoNewsPlaceholder && d.Status == models.DeliveryStatusSuccess
			})).Return("500", nil)

			res, err := f.svc.Deliver(context.Background(), "1")
			require.NoError(t, err)
			assert.Equal(t, models.DeliveryStatusSuccess, res.Status)
			f.summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
		})
	}
}

func TestDeliver_SummarizerFailureFallsBack(t *testing.T) {
	long := strings.Repeat("word ", 40)
	f := newFixture()
	f.expectRecipient()
	f.news.On("Search", mock.Anything, query).Return([]models.Article{
		{Title: "T", SourceID: "s", PubDate: "p", Link: "l", Content: long},
	}, nil)
	f.summarizer.On("Summarize", mock.Anything, mock.Anything).Return("", errors.New("gemini: 429"))

	var sent string
	f.sender.On("Send", mock.Anything, "+15550001111", mock.Anything).
		Run(func(args mock.Arguments) { sent = args.String(2) }).
		Return("SM1", nil)
	f.repo.On("UpdateScheduleLastRun", mock.Anything, "1", fixedNow).Return(nil)
	f.repo.On("CreateDelivery", mock.Anything, mock.Anything).Return("500", nil).Once()

	res, err := f.svc.Deliver(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusSuccess, res.Status)
	assert.NotEmpty(t, sent)
	assert.Contains(t, sent, "📌 Summary: (AI Unavailable) "+strings.TrimSpace(long)[:100]+"...")
	f.repo.AssertExpectations(t)
}

func TestDeliver_SendFailureRecordsFailed(t *testing.T) {
	f := newFixture()
	f.expectRecipient()
	f.news.On("Search", mock.Anything, query).Return(nil, nil)
	f.sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("twilio down"))
	f.repo.On("UpdateScheduleLastRun", mock.Anything, "1", fixedNow).Return(nil).Once()
	f.repo.On("CreateDelivery", mock.Anything, mock.MatchedBy(func(d models.NewsDelivery) bool {
		return d.Status == models.DeliveryStatusFailed && d.MessageSID == nil
	})).Return("500", nil).Once()

	res, err := f.svc.Deliver(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusFailed, res.Status)
	assert.Nil(t, res.MessageSID)
	f.repo.AssertExpectations(t)
}

func TestDeliver_LastRunFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.expectRecipient()
	f.news.On("Search", mock.Anything, query).Return(nil, nil)
	f.sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return("SM1", nil)
	f.repo.On("UpdateScheduleLastRun", mock.Anything, "1", fixedNow).Return(errors.New("db hiccup"))
	f.repo.On("CreateDelivery", mock.Anything, mock.Anything).Return("500", nil).Once()

	_, err := f.svc.Deliver(context.Background(), "1")
	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestDeliver_InactiveSchedule(t *testing.T) {
	f := newFixture()
	f.repo.On("GetSchedule", mock.Anything, "1").Return(&models.Schedule{ID: "1", TopicID: "10", Active: false}, nil)

	res, err := f.svc.Deliver(context.Background(), "1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Nil(t, res)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "CreateDelivery", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "UpdateScheduleLastRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliver_StopsBeforeSending(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		wantErr error
	}{
		{
			name: "missing schedule",
			setup: func(f *fixture) {
				f.repo.On("GetSchedule", mock.Anything, "1").Return(nil, models.ErrNotFound)
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "missing topic",
			setup: func(f *fixture) {
				f.repo.On("GetSchedule", mock.Anything, "1").Return(schedule, nil)
				f.repo.On("GetTopic", mock.Anything, "10").Return(nil, models.ErrNotFound)
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "no verified number",
			setup: func(f *fixture) {
				f.repo.On("GetSchedule", mock.Anything, "1").Return(schedule, nil)
				f.repo.On("GetTopic", mock.Anything, "10").Return(topic, nil)
				f.repo.On("GetVerifiedNumber", mock.Anything, "100").Return(nil, models.ErrNotFound)
			},
			wantErr: models.ErrNoVerifiedEndpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			_, err := f.svc.Deliver(context.Background(), "1")
			assert.ErrorIs(t, err, tt.wantErr)
			f.news.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
			f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
			f.repo.AssertNotCalled(t, "CreateDelivery", mock.Anything, mock.Anything)
		})
	}
}

func TestDeliver_LimitsArticles(t *testing.T) {
	f := newFixture()
	f.svc = New(newNoopLogger(), f.repo, f.news, f.summarizer, f.sender,
		WithClock(func() time.Time { return fixedNow }), WithMaxArticles(2))
	f.expectRecipient()

	articles := make([]models.Article, 5)
	for i := range articles {
		articles[i] = models.Article{Title: "t", Content: "c"}
	}
	f.news.On("Search", mock.Anything, query).Return(articles, nil)
	f.summarizer.On("Summarize", mock.Anything, "c").Return("s", nil)
	f.sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return("SM1", nil)
	f.repo.On("UpdateScheduleLastRun", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.repo.On("CreateDelivery", mock.Anything, mock.Anything).Return("1", nil)

	_, err := f.svc.Deliver(context.Background(), "1")
	require.NoError(t, err)
	f.summarizer.AssertNumberOfCalls(t, "Summarize", 2)
}

func TestFormatBlock(t *testing.T) {
	got := FormatBlock(models.Article{Title: "Title", PubDate: "2025-01-01", Link: "https://x"}, "sum")
	assert.Equal(t, "🗞️ *Title*\n📌 Summary: sum\n📍 Unknown | 🕒 2025-01-01\n🔗 https://x", got)
}
