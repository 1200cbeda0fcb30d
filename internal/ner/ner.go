// Package ner wraps the named-entity extraction model, consumed as a
// black-box HTTP inference service.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/codertg2/legalai/models"
)

// Entity is one extracted span with its predicted label.
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Extractor is the contract the reranker consumes entity extraction through.
type Extractor interface {
	Extract(ctx context.Context, text string, labels []string) ([]Entity, error)
}

// LabelsFor returns the entity label taxonomy for a corpus. News has no
// associated knowledge graph and therefore no taxonomy.
func LabelsFor(domain models.Domain) []string {
	switch domain {
	case models.DomainBills:
		return []string{"Person", "Legislator", "Committee", "Government Agency", "Bill", "Date", "Topic"}
	case models.DomainOrders:
		return []string{"Person", "Legislator", "Committee", "Government Agency", "Executive Order", "Date", "Topic"}
	case models.DomainOpinions:
		return []string{"Person", "Legislator", "Committee", "Government Agency", "Opinion", "Date", "Topic"}
	}
	return nil
}

// Client calls a GLiNER-style extraction endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an extraction client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Extract returns the entities predicted for text under the given label set.
func (c *Client) Extract(ctx context.Context, text string, labels []string) ([]Entity, error) {
	requestBody := map[string]interface{}{
		"text":   text,
		"labels": labels,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/predict_entities", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var nerResp struct {
		Entities []Entity `json:"entities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&nerResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return nerResp.Entities, nil
}
