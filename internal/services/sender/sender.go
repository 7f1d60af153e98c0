// Package services обрабатывает задачи доставки из очереди.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// Deliverer выполняет доставку по расписанию.
type Deliverer interface {
	Deliver(ctx context.Context, scheduleID string) (*models.DeliveryResult, error)
}

// SenderService разбирает задачу и запускает доставку.
type SenderService struct {
	deliverer Deliverer
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(deliverer Deliverer, log *slog.Logger) *SenderService {
	return &SenderService{
		deliverer: deliverer,
		log:       log,
	}
}

// HandleDeliveryTask обрабатывает тело сообщения очереди.
// Ошибка возвращается только для временных сбоев, после которых задачу стоит повторить.
// Битое сообщение, отсутствующее или выключенное расписание и пользователь без
// подтвержденного номера завершают задачу без повтора.
func (s *SenderService) HandleDeliveryTask(ctx context.Context, body []byte) error {
	const op = "services.SenderService.HandleDeliveryTask"

	var task models.DeliveryTask
	if err := json.Unmarshal(body, &task); err != nil {
		s.log.Error("failed to unmarshal delivery task", sl.Op(op), sl.Err(err))
		return nil
	}
	if task.ScheduleID == "" {
		s.log.Error("delivery task without schedule id", sl.Op(op), slog.String("task_id", task.TaskID))
		return nil
	}

	log := s.log.With(
		sl.Op(op),
		slog.String("task_id", task.TaskID),
		slog.String("schedule_id", task.ScheduleID),
		slog.String("source", task.Source),
	)

	res, err := s.deliverer.Deliver(ctx, task.ScheduleID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		log.Warn("schedule not found or inactive, dropping task")
		return nil
	case errors.Is(err, models.ErrNoVerifiedEndpoint):
		log.Warn("no verified whatsapp number, dropping task")
		return nil
	case err != nil:
		log.Error("delivery failed", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("delivery task processed", slog.String("status", res.Status))
	return nil
}
