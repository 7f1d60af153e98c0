// Package metrics счетчики Prometheus для доставки, провайдеров и планировщика.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Провайдеры для ProviderFailures.
const (
	ProviderNews      = "newsdata"
	ProviderSummarize = "gemini"
	ProviderWhatsApp  = "twilio"
)

var (
	// Deliveries число записанных доставок по статусу.
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbot_deliveries_total",
			Help: "Total number of news deliveries by status",
		},
		[]string{"status"},
	)

	// ProviderFailures ошибки внешних сервисов.
	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbot_provider_failures_total",
			Help: "Total number of external provider failures",
		},
		[]string{"provider"},
	)

	// DispatchedTasks задачи, поставленные планировщиком в очередь.
	DispatchedTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbot_dispatched_tasks_total",
			Help: "Total number of delivery tasks published by frequency",
		},
		[]string{"frequency"},
	)

	PublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsbot_publish_failures_total",
			Help: "Total number of delivery tasks that failed to publish",
		},
	)
)

// Handler отдает метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve отдает /metrics на addr до отмены ctx. Пустой addr выключает сервер.
func Serve(ctx context.Context, addr string, log *slog.Logger) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics server starting", slog.String("address", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
