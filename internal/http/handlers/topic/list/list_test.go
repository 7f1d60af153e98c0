package list

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/middlewarectx"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, userID string, skip, limit int) ([]*models.Topic, error) {
	args := m.Called(ctx, userID, skip, limit)
	t, _ := args.Get(0).([]*models.Topic)
	return t, args.Error(1)
}

func TestListTopicsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		url        string
		setupMock  func(m *MockService)
		wantStatus int
		wantCount  int
	}{
		{
			name: "defaults",
			url:  "/topics",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "1", 0, 100).Return([]*models.Topic{{ID: "5"}, {ID: "6"}}, nil)
			},
			wantStatus: http.StatusOK,
			wantCount:  2,
		},
		{
			name: "paging",
			url:  "/topics?skip=10&limit=5",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "1", 10, 5).Return([]*models.Topic{}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad limit",
			url:        "/topics?limit=abc",
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative skip",
			url:        "/topics?skip=-1",
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, "1"))
			rec := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var got struct {
					Data []models.Topic `json:"data"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Len(t, got.Data, tt.wantCount)
			}
			svc.AssertExpectations(t)
		})
	}
}
