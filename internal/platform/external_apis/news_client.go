package external_apis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	newsAPIEverythingURL = "https://newsapi.org/v2/everything"
	defaultNewsTimeout   = 10 * time.Second
	newsPageSize         = 20
)

// ErrNewsAPIKeyMissing is returned when the client is constructed without
// credentials. The news signal provider downgrades it to an error signal.
var ErrNewsAPIKeyMissing = errors.New("news API key is not configured")

// NewsClient searches the NewsAPI.org full-text index.
type NewsClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func NewNewsClient(apiKey string, timeout time.Duration, logger *slog.Logger) *NewsClient {
	if timeout <= 0 {
		timeout = defaultNewsTimeout
	}
	return &NewsClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    newsAPIEverythingURL,
		logger:     logger,
	}
}

// Search returns articles matching the query within the date window,
// newest first.
func (c *NewsClient) Search(ctx context.Context, query string, from, to time.Time) ([]NewsArticle, error) {
	if c.apiKey == "" {
		return nil, ErrNewsAPIKeyMissing
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("from", from.UTC().Format("2006-01-02"))
	params.Set("to", to.UTC().Format("2006-01-02"))
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")
	params.Set("pageSize", fmt.Sprintf("%d", newsPageSize))

	fullURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create news request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("news API status %d: %s", resp.StatusCode, body)
	}

	var apiResp newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode news response: %w", err)
	}
	if apiResp.Status != "ok" {
		return nil, fmt.Errorf("news API error %s: %s", apiResp.Code, apiResp.Message)
	}

	articles := make([]NewsArticle, 0, len(apiResp.Articles))
	for _, a := range apiResp.Articles {
		art := NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			SourceName:  a.Source.Name,
		}
		if t, perr := time.Parse(time.RFC3339, a.PublishedAt); perr == nil {
			art.PublishedAt = t
		}
		articles = append(articles, art)
	}

	c.logger.Debug("news search completed",
		"query", query,
		"total_results", apiResp.TotalResults,
		"returned", len(articles),
	)
	return articles, nil
}
