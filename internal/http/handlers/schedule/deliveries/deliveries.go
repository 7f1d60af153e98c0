// Package deliveries отдает журнал доставок расписания.
package deliveries

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/middlewarectx"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/response"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// Handler обрабатывает GET /schedules/{id}/deliveries.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service возвращает последние доставки, новые первыми.
type Service interface {
	Deliveries(ctx context.Context, userID, id string, limit int) ([]*models.NewsDelivery, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Журнал доставок
// @Tags Schedules
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID расписания"
// @Param limit query int false "Количество записей" default(20)
// @Success 200 {object} response.Response{data=[]models.NewsDelivery}
// @Failure 404 {object} response.ErrorResponse "Расписание не найдено"
// @Router /schedules/{id}/deliveries [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.deliveries"

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

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			log.Error("invalid limit", slog.String("limit", raw))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid limit"))
			return
		}
		limit = n
	}

	items, err := h.service.Deliveries(r.Context(), userID, id, limit)
	if err != nil {
		log.Error("failed to list deliveries", slog.String("schedule_id", id), sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}
	if items == nil {
		items = []*models.NewsDelivery{}
	}

	render.JSON(w, r, response.OK(items))
}
