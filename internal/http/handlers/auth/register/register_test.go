package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *MockService)
		wantStatus int
		wantError  string
	}{
		{
			name: "success",
			body: `{"email":"a@example.com","password":"secret1"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, "a@example.com", "secret1").Return("1", nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid json",
			body:       `{"email":`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "short password",
			body:       `{"email":"a@example.com","password":"123"}`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "field Password must be at least 6 characters",
		},
		{
			name:       "bad email",
			body:       `{"email":"nope","password":"secret1"}`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "field Email must be a valid email",
		},
		{
			name: "duplicate email",
			body: `{"email":"a@example.com","password":"secret1"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, "a@example.com", "secret1").
					Return("", fmt.Errorf("services.AuthService.Register: %w", models.ErrAlreadyExists))
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "email already registered",
		},
		{
			name: "storage failure",
			body: `{"email":"a@example.com","password":"secret1"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, "Error", got["status"])
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Equal(t, "OK", got["status"])
				data := got["data"].(map[string]any)
				assert.Equal(t, "1", data["id"])
				assert.Equal(t, "free", data["subscription_tier"])
			}
			svc.AssertExpectations(t)
		})
	}
}
