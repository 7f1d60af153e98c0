package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/middlewarectx"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/response"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// Handler обрабатывает GET /schedules.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service возвращает расписания по всем темам пользователя.
type Service interface {
	List(ctx context.Context, userID string) ([]*models.Schedule, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Расписания пользователя
// @Tags Schedules
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Schedule}
// @Router /schedules [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.list"

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

	schedules, err := h.service.List(r.Context(), userID)
	if err != nil {
		log.Error("failed to list schedules", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}
	if schedules == nil {
		schedules = []*models.Schedule{}
	}

	log.Info("list schedules", slog.Int("count", len(schedules)))
	render.JSON(w, r, response.OK(schedules))
}
