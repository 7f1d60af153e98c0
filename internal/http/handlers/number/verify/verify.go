// Package verify подтверждает номер WhatsApp кодом из сообщения.
package verify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/middlewarectx"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/response"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
)

// Request код подтверждения.
type Request struct {
	Code string `json:"code" validate:"required"`
}

// Handler обрабатывает POST /whatsapp-numbers/verify/{id}.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service проверяет код.
type Service interface {
	Verify(ctx context.Context, userID, id, code string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Подтвердить номер
// @Tags WhatsApp
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID номера"
// @Param request body Request true "Код"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неверный код"
// @Failure 404 {object} response.ErrorResponse "Номер не найден"
// @Router /whatsapp-numbers/verify/{id} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.number.verify"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.Verify(r.Context(), userID, id, req.Code); err != nil {
		log.Warn("verification failed", slog.String("number_id", id), sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("number verified", slog.String("number_id", id))
	render.JSON(w, r, response.OK(map[string]string{"status": "verified"}))
}
