// Package list отдает номера WhatsApp пользователя.
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

// Handler обрабатывает GET /whatsapp-numbers.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service возвращает номера пользователя.
type Service interface {
	List(ctx context.Context, userID string) ([]*models.WhatsAppNumber, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Номера WhatsApp
// @Tags WhatsApp
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.WhatsAppNumber}
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /whatsapp-numbers [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.number.list"

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

	numbers, err := h.service.List(r.Context(), userID)
	if err != nil {
		log.Error("failed to list numbers", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}
	if numbers == nil {
		numbers = []*models.WhatsAppNumber{}
	}

	render.JSON(w, r, response.OK(numbers))
}
