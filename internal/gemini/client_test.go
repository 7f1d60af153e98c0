package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/config"
)

func newTestClient(url string) *Client {
	return NewClient(config.Gemini{
		GeminiBaseURL: url,
		GeminiAPIKey:  "key",
		GeminiModel:   "gemini-1.5-flash",
		GeminiTimeout: time.Second,
	})
}

func TestSummarize_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "Summarize the following news article in one line:\n\nGo 1.24 is out", req.Contents[0].Parts[0].Text)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  Go 1.24 "},{"text":"released.\n"}]}}]}`))
	}))
	defer srv.Close()

	summary, err := newTestClient(srv.URL).Summarize(context.Background(), "Go 1.24 is out")
	require.NoError(t, err)
	assert.Equal(t, "Go 1.24 released.", summary)
}

func TestSummarize_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "quota", status: http.StatusTooManyRequests, body: `{"error":{"code":429}}`},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`},
		{name: "blank text", status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`},
		{name: "malformed", status: http.StatusOK, body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			summary, err := newTestClient(srv.URL).Summarize(context.Background(), "text")
			assert.Error(t, err)
			assert.Empty(t, summary)
		})
	}
}

func TestSummarize_Misconfigured(t *testing.T) {
	c := NewClient(config.Gemini{GeminiBaseURL: "http://localhost"})
	_, err := c.Summarize(context.Background(), "text")
	assert.Error(t, err)
}
