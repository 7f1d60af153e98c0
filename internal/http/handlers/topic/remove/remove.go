package remove

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
)

// Handler обрабатывает DELETE /topics/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service удаляет тему вместе с расписаниями.
type Service interface {
	Remove(ctx context.Context, userID, id string) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить тему
// @Tags Topics
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID темы"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Тема не найдена"
// @Router /topics/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.topic.remove"

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

	if err := h.service.Remove(r.Context(), userID, id); err != nil {
		log.Error("failed to delete topic", slog.String("topic_id", id), sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("topic deleted", slog.String("topic_id", id))
	render.JSON(w, r, response.OK(map[string]string{"status": "deleted"}))
}
