// Package cache is the semantic response cache: previously accepted answers
// keyed by embedding similarity. Lookup is a full scan by design; the
// contract allows swapping in an index for larger caches.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/codertg2/legalai/internal/vector"
	"github.com/codertg2/legalai/models"
)

// Hit is a successful cache lookup.
type Hit struct {
	Answer     string
	Query      string
	Similarity float64
}

// Cache wraps the cache_entries table.
type Cache struct {
	DB     *sql.DB
	logger *log.Logger
}

// New creates a cache over an existing database handle.
func New(db *sql.DB, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.New(log.Writer(), "[CACHE] ", log.LstdFlags)
	}
	return &Cache{DB: db, logger: logger}
}

// Lookup scans entries labeled good or neutral, computes cosine similarity
// between the query embedding and each stored embedding and keeps the
// maximum. It returns a hit only when that maximum reaches the threshold; an
// empty entry set is an immediate miss.
func (c *Cache) Lookup(ctx context.Context, queryEmbedding []float32, threshold float64) (Hit, bool, error) {
	rows, err := c.DB.QueryContext(ctx, `
SELECT query, answer, embedding
FROM cache_entries
WHERE evaluation IN ('good', 'neutral')
`)
	if err != nil {
		return Hit{}, false, fmt.Errorf("failed to scan cache: %w", err)
	}
	defer rows.Close()

	var best Hit
	for rows.Next() {
		var (
			query, answer string
			embLiteral    string
		)
		if err := rows.Scan(&query, &answer, &embLiteral); err != nil {
			return Hit{}, false, err
		}
		emb, err := decodeEmbedding(embLiteral)
		if err != nil {
			c.logger.Printf("skipping entry with bad embedding for query %q: %v", query, err)
			continue
		}
		similarity := vector.Cosine(queryEmbedding, emb)
		if similarity > best.Similarity {
			best = Hit{Answer: answer, Query: query, Similarity: similarity}
		}
	}
	if err := rows.Err(); err != nil {
		return Hit{}, false, err
	}

	if best.Answer != "" && best.Similarity >= threshold {
		return best, true, nil
	}
	return Hit{}, false, nil
}

// Store appends a new entry. Callers always write label neutral with empty
// feedback; labels change only through the explicit evaluation calls.
// Uniqueness of the full tuple is enforced at the storage layer.
func (c *Cache) Store(ctx context.Context, entry models.CacheEntry) error {
	emb, err := encodeEmbedding(entry.Embedding)
	if err != nil {
		return err
	}
	_, err = c.DB.ExecContext(ctx, `
INSERT INTO cache_entries (query, answer, embedding, evaluation, feedback, created_at)
VALUES ($1,$2,$3,$4,$5,NOW())
`, entry.Query, entry.Answer, emb, string(entry.Evaluation), entry.Feedback)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// UpdateEvaluation relabels the entry matching (query, answer) exactly.
func (c *Cache) UpdateEvaluation(ctx context.Context, query, answer string, evaluation models.Evaluation) error {
	res, err := c.DB.ExecContext(ctx, `
UPDATE cache_entries SET evaluation = $3 WHERE query = $1 AND answer = $2
`, query, answer, string(evaluation))
	if err != nil {
		return fmt.Errorf("failed to update evaluation: %w", err)
	}
	return checkUpdated(res)
}

// UpdateFeedback sets free-text feedback on the entry matching (query,
// answer) exactly.
func (c *Cache) UpdateFeedback(ctx context.Context, query, answer, feedback string) error {
	res, err := c.DB.ExecContext(ctx, `
UPDATE cache_entries SET feedback = $3 WHERE query = $1 AND answer = $2
`, query, answer, feedback)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	return checkUpdated(res)
}

func checkUpdated(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrEntryNotFound
	}
	return nil
}

func encodeEmbedding(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("embedding must not be empty")
	}
	var builder strings.Builder
	builder.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}

func decodeEmbedding(lit string) ([]float32, error) {
	lit = strings.TrimSpace(lit)
	lit = strings.TrimPrefix(lit, "[")
	lit = strings.TrimSuffix(lit, "]")
	if lit == "" {
		return nil, fmt.Errorf("empty embedding literal")
	}
	parts := strings.Split(lit, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid embedding component %q: %w", p, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}
