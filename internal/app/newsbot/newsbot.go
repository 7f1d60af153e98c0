// Package newsbot собирает HTTP API бота: хранилище, кеш, очередь доставок и маршруты.
package newsbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/cache"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/config"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/jwt"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/queue"
	authservice "github.com/magabrotheeeer/whatsapp-news-bot/internal/services/auth"
	numberservice "github.com/magabrotheeeer/whatsapp-news-bot/internal/services/numbers"
	scheduleservice "github.com/magabrotheeeer/whatsapp-news-bot/internal/services/schedules"
	topicservice "github.com/magabrotheeeer/whatsapp-news-bot/internal/services/topics"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/storage"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/whatsapp"
)

const shutdownTimeout = 15 * time.Second

// App HTTP API бота.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     storage.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает зависимости и собирает роутер. Миграции накатываются здесь.
// Redis необязателен: без него список тем читается напрямую из хранилища.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.newsbot.New"

	db, err := storage.New(ctx, cfg.Storage, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var topicCache topicservice.Cache
	var cacheRedis *cache.Cache
	if cfg.AddressRedis != "" {
		cacheRedis, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("cache not initialized, continuing without it", sl.Err(err))
		} else {
			topicCache = cacheRedis
		}
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		closeResources(ctx, db, cacheRedis, nil, nil, logger)
		return nil, fmt.Errorf("%s: failed to connect RabbitMQ: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetDeliveryQueues(), cfg.RabbitMQPrefetch)
	if err != nil {
		closeResources(ctx, db, cacheRedis, nil, conn, logger)
		return nil, fmt.Errorf("%s: failed to setup RabbitMQ channel: %w", op, err)
	}

	publisher := queue.NewPublisher(ch)
	messenger := whatsapp.NewClient(cfg.Twilio)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	services := Services{
		Auth:      authservice.NewAuthService(db, jwtMaker),
		Numbers:   numberservice.NewNumberService(logger, db, messenger, cfg.FreeMaxNumbers),
		Topics:    topicservice.NewTopicService(logger, db, topicCache, cfg.FreeMaxTopics),
		Schedules: scheduleservice.NewScheduleService(db, publisher, cfg.FreeMaxSchedules),
		Health:    db,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и корректно останавливает его по отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	closeResources(context.Background(), a.db, a.cache, a.ch, a.conn, a.logger)
	return err
}

func closeResources(ctx context.Context, db storage.Storage, c *cache.Cache, ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
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
	if c != nil {
		if err := c.Close(); err != nil {
			logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if db != nil {
		if err := db.Close(ctx); err != nil {
			logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
