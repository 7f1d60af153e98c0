// Package create создает расписание доставки для темы.
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

// Handler обрабатывает POST /schedules.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service создает расписание.
type Service interface {
	Create(ctx context.Context, userID string, in models.ScheduleInput) (*models.Schedule, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Создать расписание
// @Description Ежедневное расписание требует time_of_day в формате HH:MM. Бесплатный тариф допускает только daily и не более трех расписаний.
// @Tags Schedules
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.ScheduleInput true "Расписание"
// @Success 201 {object} response.Response{data=models.Schedule}
// @Failure 400 {object} response.ErrorResponse "Ограничение тарифа или некорректное время"
// @Failure 404 {object} response.ErrorResponse "Тема не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /schedules [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.schedule.create"

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

	var req models.ScheduleInput
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

	schedule, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		log.Error("failed to create schedule", sl.Err(err))
		code, resp := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("schedule created", slog.String("schedule_id", schedule.ID), slog.String("frequency", schedule.Frequency))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(schedule))
}
