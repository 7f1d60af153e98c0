// Package scheduler содержит приложение планировщика, которое ставит задачи доставки в очередь.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/config"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/metrics"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/queue"
	schedulerservice "github.com/magabrotheeeer/whatsapp-news-bot/internal/services/scheduler"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/storage"
)

const (
	dbReadyAttempts = 10
	dbReadyDelay    = 3 * time.Second
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	db               storage.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	metricsAddress   string
	logger           *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.scheduler.New"

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect RabbitMQ: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetDeliveryQueues(), cfg.RabbitMQPrefetch)
	if err != nil {
		closeResources(ctx, nil, nil, conn, logger)
		return nil, fmt.Errorf("%s: failed to setup RabbitMQ channel: %w", op, err)
	}

	db, err := storage.New(ctx, cfg.Storage, false)
	if err != nil {
		closeResources(ctx, nil, ch, conn, logger)
		return nil, fmt.Errorf("%s: failed to connect storage: %w", op, err)
	}

	if err := storage.WaitReady(ctx, db, dbReadyAttempts, dbReadyDelay); err != nil {
		closeResources(ctx, db, ch, conn, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	schedulerService := schedulerservice.NewSchedulerService(db, queue.NewPublisher(ch), logger, cfg.TickInterval, cfg.SchedulerLocation())

	return &App{
		schedulerService: schedulerService,
		db:               db,
		conn:             conn,
		ch:               ch,
		metricsAddress:   cfg.MetricsAddress,
		logger:           logger,
	}, nil
}

func closeResources(ctx context.Context, db storage.Storage, ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if db != nil {
		if err := db.Close(ctx); err != nil {
			logger.Error("failed to close storage", sl.Err(err))
		}
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := metrics.Serve(ctx, a.metricsAddress, a.logger); err != nil {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	a.schedulerService.Run(ctx)

	a.logger.Info("shutting down scheduler service")
	closeResources(context.Background(), a.db, a.ch, a.conn, a.logger)

	return nil
}
