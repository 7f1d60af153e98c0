package deactivate

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
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// Handler обрабатывает POST /schedules/{id}/deactivate.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service выключает расписание.
type Service interface {
	Deactivate(ctx context.Context, userID, id string) (*models.Schedule, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отключить расписание
// @Tags Schedules
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID расписания"
// @Success 200 {object} response.Response{data=models.Schedule}
// @Failure 404 {object} response.ErrorResponse "Расписание не найдено"
// @Router /schedules/{id}/deactivate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.deactivate"

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
	id := chi.URLParam(r, "id")

	schedule, err := h.service.Deactivate(r.Context(), userID, id)
	if err != nil {
		log.Error("failed to deactivate schedule", slog.String("schedule_id", id), sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("schedule deactivated", slog.String("schedule_id", id))
	render.JSON(w, r, response.OK(schedule))
}
