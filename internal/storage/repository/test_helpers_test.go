package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/migrations"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и накатывает миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for range 10 {
		storage, err = New(dsn)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")
	t.Cleanup(func() { _ = storage.Close(ctx) })

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))

	return storage
}

// testDataFactory создает связанные сущности для тестов.
type testDataFactory struct {
	t       *testing.T
	storage *Storage
}

func newTestDataFactory(t *testing.T, storage *Storage) *testDataFactory {
	return &testDataFactory{t: t, storage: storage}
}

func (f *testDataFactory) user(email, tier string) string {
	id, err := f.storage.CreateUser(context.Background(), models.User{
		Email:            email,
		PasswordHash:     "hash",
		SubscriptionTier: tier,
	})
	require.NoError(f.t, err)
	return id
}

func (f *testDataFactory) topic(userID, name string) string {
	id, err := f.storage.CreateTopic(context.Background(), models.Topic{
		UserID:      userID,
		Name:        name,
		Keywords:    name,
		CountryCode: models.DefaultCountryCode,
		Language:    models.DefaultLanguage,
	})
	require.NoError(f.t, err)
	return id
}

func (f *testDataFactory) schedule(topicID, frequency string, timeOfDay *string, active bool) string {
	id, err := f.storage.CreateSchedule(context.Background(), models.Schedule{
		TopicID:   topicID,
		Frequency: frequency,
		TimeOfDay: timeOfDay,
		Active:    active,
	})
	require.NoError(f.t, err)
	return id
}

func ptr[T any](v T) *T {
	return &v
}
