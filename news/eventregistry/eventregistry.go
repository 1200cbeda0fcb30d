// Package eventregistry is a client for the EventRegistry article search API.
package eventregistry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Article is one retrieved news article.
type Article struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Date  string `json:"date"`
	URL   string `json:"url"`
}

// Client calls the article search endpoint.
type Client struct {
	APIKey     string
	Endpoint   string
	httpClient *http.Client
}

// NewClient creates an EventRegistry client.
func NewClient(apiKey, endpoint string, timeout time.Duration) *Client {
	return &Client{
		APIKey:     apiKey,
		Endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SearchArticles runs a keyword search sorted by relevance.
func (c *Client) SearchArticles(ctx context.Context, keyword string, count int) ([]Article, error) {
	if count > 100 {
		count = 100
	}
	payload := map[string]interface{}{
		"action":                 "getArticles",
		"keyword":                keyword,
		"articlesPage":           1,
		"articlesCount":          count,
		"articlesSortBy":         "rel",
		"articlesSortByAsc":      false,
		"articlesArticleBodyLen": -1,
		"resultType":             "articles",
		"dataType":               []string{"news"},
		"lang":                   "eng",
		"apiKey":                 c.APIKey,
		"forceMaxDataTimeWindow": 31,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch articles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var searchResp struct {
		Articles struct {
			Results []Article `json:"results"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return searchResp.Articles.Results, nil
}
