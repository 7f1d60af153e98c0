// Package newsdata клиент поиска новостей newsdata.io.
package newsdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/config"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/models"
)

const statusSuccess = "success"

// ErrUnexpectedStatus провайдер ответил не статусом success.
var ErrUnexpectedStatus = errors.New("newsdata: unexpected response status")

// Client обращается к эндпоинту /news.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создает клиент поиска новостей.
func NewClient(cfg config.NewsData) *Client {
	timeout := cfg.NewsDataTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.NewsDataBaseURL, "/"),
		apiKey:     cfg.NewsDataAPIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Status  string          `json:"status"`
	Results json.RawMessage `json:"results"`
}

// Search ищет статьи по ключевым словам, стране и языку темы.
func (c *Client) Search(ctx context.Context, query models.NewsQuery) ([]models.Article, error) {
	const op = "newsdata.Search"

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("q", query.Keywords)
	if query.CountryCode != "" {
		params.Set("country", query.CountryCode)
	}
	if query.Language != "" {
		params.Set("language", query.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/news?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, strings.TrimSpace(string(payload)))
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if body.Status != statusSuccess {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnexpectedStatus, body.Status)
	}
	if len(body.Results) == 0 || string(body.Results) == "null" {
		return nil, nil
	}

	var articles []models.Article
	if err := json.Unmarshal(body.Results, &articles); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return articles, nil
}
