package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

func TestOKAndError(t *testing.T) {
	assert.Equal(t, Response{Status: StatusOK, Data: 1}, OK(1))
	assert.Equal(t, ErrorResponse{Status: StatusError, Error: "boom"}, Error("boom"))
}

func TestValidationError(t *testing.T) {
	type req struct {
		Email     string `validate:"required,email"`
		Password  string `validate:"min=6"`
		Tier      string `validate:"oneof=free paid"`
		Country   string `validate:"len=2"`
		Something string `validate:"required"`
	}
	err := validator.New().Struct(req{Email: "bad", Password: "123", Tier: "gold", Country: "usa"})
	require.Error(t, err)

	got := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t,
		"field Email must be a valid email, field Password must be at least 6 characters, "+
			"field Tier must be one of: free paid, field Country must be exactly 2 characters, "+
			"field Something is a required field",
		got.Error)
}

func TestFromError(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("services.Op: %w", err) }

	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{name: "not found", err: wrap(models.ErrNotFound), code: http.StatusNotFound, message: "not found"},
		{name: "quota", err: wrap(fmt.Errorf("%w: free tier limited to 3 topics", models.ErrQuotaExceeded)), code: http.StatusBadRequest, message: "quota exceeded: free tier limited to 3 topics"},
		{name: "hourly", err: wrap(models.ErrHourlyNotAllowed), code: http.StatusBadRequest, message: "free tier limited to daily updates"},
		{name: "verification", err: wrap(models.ErrInvalidVerification), code: http.StatusBadRequest, message: "invalid verification code"},
		{name: "schedule", err: wrap(fmt.Errorf("%w: time_of_day must be HH:MM", models.ErrInvalidSchedule)), code: http.StatusBadRequest, message: "invalid schedule: time_of_day must be HH:MM"},
		{name: "exists", err: wrap(models.ErrAlreadyExists), code: http.StatusBadRequest, message: "already exists"},
		{name: "credentials", err: wrap(models.ErrInvalidCredentials), code: http.StatusUnauthorized, message: "incorrect email or password"},
		{name: "internal", err: errors.New("pq: connection refused"), code: http.StatusInternalServerError, message: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := FromError(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, resp.Error)
			assert.Equal(t, StatusError, resp.Status)
		})
	}
}
