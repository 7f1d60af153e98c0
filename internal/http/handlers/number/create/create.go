// Package create добавляет номер WhatsApp и отправляет на него код подтверждения.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/middlewarectx"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/response"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/lib/sl"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// Request номер в международном формате.
type Request struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=8,max=20"`
}

// Handler обрабатывает POST /whatsapp-numbers.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service регистрирует номер.
type Service interface {
	Create(ctx context.Context, userID, phone string) (*models.WhatsAppNumber, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Добавить номер WhatsApp
// @Description На бесплатном тарифе доступен один номер. Код подтверждения отправляется в WhatsApp.
// @Tags WhatsApp
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Номер"
// @Success 201 {object} response.Response{data=models.WhatsAppNumber}
// @Failure 400 {object} response.ErrorResponse "Превышен лимит тарифа"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /whatsapp-numbers [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.number.create"

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

	number, err := h.service.Create(r.Context(), userID, req.PhoneNumber)
	if err != nil {
		log.Error("failed to create number", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("whatsapp number created", slog.String("number_id", number.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(number))
}
