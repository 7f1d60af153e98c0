package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/config"
)

type pingStorage struct {
	Storage
	failures int
	calls    int
}

func (p *pingStorage) Ping(_ context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("relation schedules does not exist")
	}
	return nil
}

func TestWaitReady(t *testing.T) {
	ctx := context.Background()

	s := &pingStorage{failures: 2}
	require.NoError(t, WaitReady(ctx, s, 5, time.Millisecond))
	assert.Equal(t, 3, s.calls)

	s = &pingStorage{failures: 10}
	err := WaitReady(ctx, s, 3, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedules does not exist")
	assert.Equal(t, 3, s.calls)
}

func TestWaitReady_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitReady(ctx, &pingStorage{failures: 10}, 5, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.Storage{StorageDriver: "sqlite"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
