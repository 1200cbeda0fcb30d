// Package classifier routes a query to the corpora that can answer it. The
// decision is delegated to the completion service with a fixed enumeration
// prompt; the response is parsed defensively and falls back to all corpora
// when the model returns something unusable.
package classifier

import (
	"context"
	"fmt"
	"log"

	"github.com/codertg2/legalai/internal/llmjson"
	"github.com/codertg2/legalai/models"
)

const domainPrompt = `Choose what domain this query can best be answered by:
1. Congressional Bills
2. Executive Orders
3. Supreme Court Decisions
4. News Articles
Your response should be formatted as a list of strings:
Example 1 - ["Congressional Bills"]
Example 2 - ["Congressional Bills", "Executive Orders"]
Example 3 - ["Congressional Bills", "Executive Orders", "Supreme Court Decisions", "News Articles"]

Query: %s
Answer:
`

// Chatter is the completion call the classifier needs.
type Chatter interface {
	Chat(ctx context.Context, messages []models.ChatMessage, temperature float64) (string, error)
}

// Classifier picks the subset of corpora a query should be searched against.
type Classifier struct {
	provider    Chatter
	temperature float64
	logger      *log.Logger
}

func New(provider Chatter, temperature float64, logger *log.Logger) *Classifier {
	if logger == nil {
		logger = log.New(log.Writer(), "[CLASSIFIER] ", log.LstdFlags)
	}
	return &Classifier{provider: provider, temperature: temperature, logger: logger}
}

// Classify returns the deduplicated set of known domains named by the model.
// A transport error, an unparseable response, or a response naming no known
// domain all degrade to searching every corpus.
func (c *Classifier) Classify(ctx context.Context, query string) []models.Domain {
	raw, err := c.provider.Chat(ctx, []models.ChatMessage{
		{Role: "user", Content: fmt.Sprintf(domainPrompt, query)},
	}, c.temperature)
	if err != nil {
		c.logger.Printf("domain classification failed, searching all corpora: %v", err)
		return models.AllDomains()
	}

	names, err := llmjson.ParseStringList(raw)
	if err != nil {
		c.logger.Printf("unparseable domain list %q, searching all corpora: %v", raw, err)
		return models.AllDomains()
	}

	seen := make(map[models.Domain]bool)
	var domains []models.Domain
	for _, name := range names {
		d, ok := models.ParseDomain(name)
		if !ok {
			c.logger.Printf("ignoring unknown domain %q", name)
			continue
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		domains = append(domains, d)
	}
	if len(domains) == 0 {
		c.logger.Printf("model named no known domain, searching all corpora")
		return models.AllDomains()
	}
	return domains
}
