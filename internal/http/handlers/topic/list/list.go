// Package list отдает страницу тем пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/middlewarectx"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/response"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

const defaultLimit = 100

// Handler обрабатывает GET /topics.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service возвращает страницу тем.
type Service interface {
	List(ctx context.Context, userID string, skip, limit int) ([]*models.Topic, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// ServeHTTP godoc
// @Summary Темы пользователя
// @Tags Topics
// @Produce  json
// @Security BearerAuth
// @Param skip query int false "Смещение" default(0)
// @Param limit query int false "Размер страницы" default(100)
// @Success 200 {object} response.Response{data=[]models.Topic}
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Router /topics [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.topic.list"

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

	skip, err := intParam(r, "skip", 0)
	if err != nil || skip < 0 {
		log.Error("invalid skip", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid skip"))
		return
	}
	limit, err := intParam(r, "limit", defaultLimit)
	if err != nil || limit <= 0 {
		log.Error("invalid limit", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid limit"))
		return
	}

	topics, err := h.service.List(r.Context(), userID, skip, limit)
	if err != nil {
		log.Error("failed to list topics", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("list topics", slog.Int("count", len(topics)))
	render.JSON(w, r, response.OK(topics))
}
