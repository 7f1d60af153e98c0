// Package trigger ставит внеочередную доставку по расписанию в очередь.
package trigger

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/middlewarectx"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/response"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
	schedules "github.com/magabrotheeeer/whatsapp-news-bot/internal/services/schedules"
)

// Handler обрабатывает POST /trigger-update/{schedule_id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service публикует задачу ручной доставки.
type Service interface {
	Trigger(ctx context.Context, userID, id string) (*schedules.TriggerResult, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Запустить доставку вручную
// @Description Задача выполняется воркером асинхронно.
// @Tags Schedules
// @Produce  json
// @Security BearerAuth
// @Param schedule_id path string true "ID расписания"
// @Success 200 {object} response.Response{data=services.TriggerResult}
// @Failure 404 {object} response.ErrorResponse "Расписание не найдено"
// @Router /trigger-update/{schedule_id} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.trigger"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	id := chi.URLParam(r, "schedule_id")

	res, err := h.service.Trigger(r.Context(), userID, id)
	if err != nil {
		log.Error("failed to trigger delivery", slog.String("schedule_id", id), sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("delivery triggered", slog.String("schedule_id", id), slog.String("task_id", res.TaskID))
	render.JSON(w, r, response.OK(res))
}
