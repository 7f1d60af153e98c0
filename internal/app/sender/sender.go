// Package sender содержит воркер, который забирает задачи из очереди и выполняет доставку.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/config"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/gemini"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/metrics"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/newsdata"
	deliveryservice "github.com/magabrotheeeer/whatsapp-news-bot/internal/services/delivery"
	senderservice "github.com/magabrotheeeer/whatsapp-news-bot/internal/services/sender"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/storage"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/whatsapp"
)

const (
	dbReadyAttempts = 10
	dbReadyDelay    = 3 * time.Second
)

type App struct {
	conn           *amqp.Connection
	ch             *amqp.Channel
	db             storage.Storage
	senderService  *senderservice.SenderService
	workers        int
	metricsAddress string
	logger         *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	db, err := storage.New(ctx, cfg.Storage, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := storage.WaitReady(ctx, db, dbReadyAttempts, dbReadyDelay); err != nil {
		closeResources(ctx, db, nil, nil, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		closeResources(ctx, db, nil, nil, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetDeliveryQueues(), cfg.RabbitMQPrefetch)
	if err != nil {
		closeResources(ctx, db, nil, conn, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	deliverer := deliveryservice.New(
		logger,
		db,
		newsdata.NewClient(cfg.NewsData),
		gemini.NewClient(cfg.Gemini),
		whatsapp.NewClient(cfg.Twilio),
		deliveryservice.WithMaxArticles(cfg.NewsDataMaxArticles),
	)
	senderService := senderservice.NewSenderService(deliverer, logger)

	return &App{
		conn:           conn,
		ch:             ch,
		db:             db,
		senderService:  senderService,
		workers:        cfg.RabbitMQWorkers,
		metricsAddress: cfg.MetricsAddress,
		logger:         logger,
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

// Run обрабатывает очередь доставок до отмены ctx или закрытия канала брокером.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := metrics.Serve(ctx, a.metricsAddress, a.logger); err != nil {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.DeliveryQueue, a.workers, a.logger, a.senderService.HandleDeliveryTask)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("delivery consumer stopped", slog.String("queue", rabbitmq.DeliveryQueue), sl.Err(err))
	}

	a.logger.Info("sender service shutting down gracefully")
	closeResources(context.Background(), a.db, a.ch, a.conn, a.logger)

	if ctx.Err() != nil {
		return nil
	}
	return err
}
