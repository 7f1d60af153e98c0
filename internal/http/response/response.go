// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status принимает значения "OK" или "Error".
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// OK возвращает успешный Response с переданными данными.
func OK(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ответ с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Нарушения перечисляются через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s characters", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s characters", err.Field(), err.Param()))
		case "len":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be exactly %s characters", err.Field(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "numeric":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// FromError сопоставляет доменную ошибку с HTTP-статусом и текстом для клиента.
// Неизвестные ошибки скрываются за "internal error".
func FromError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, Error(models.ErrNotFound.Error())
	case errors.Is(err, models.ErrHourlyNotAllowed):
		return http.StatusBadRequest, Error("free tier limited to daily updates")
	case errors.Is(err, models.ErrQuotaExceeded):
		return http.StatusBadRequest, Error(quotaMessage(err))
	case errors.Is(err, models.ErrInvalidVerification):
		return http.StatusBadRequest, Error("invalid verification code")
	case errors.Is(err, models.ErrInvalidSchedule):
		return http.StatusBadRequest, Error(tail(err, models.ErrInvalidSchedule.Error()))
	case errors.Is(err, models.ErrAlreadyExists):
		return http.StatusBadRequest, Error(models.ErrAlreadyExists.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, Error("incorrect email or password")
	default:
		return http.StatusInternalServerError, Error("internal error")
	}
}

func quotaMessage(err error) string {
	return tail(err, models.ErrQuotaExceeded.Error())
}

// tail возвращает часть сообщения, начиная с текста sentinel-ошибки, без префиксов op.
func tail(err error, sentinel string) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel); i >= 0 {
		return msg[i:]
	}
	return sentinel
}
