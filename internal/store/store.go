// Package store provides the Postgres/pgvector backing for the per-corpus
// similarity indices. Chunks are immutable once indexed; the store only
// answers nearest-neighbor queries.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/codertg2/legalai/models"
)

// Store wraps the chunk database.
type Store struct {
	DB         *sql.DB
	dimensions int
}

// ChunkHit is one nearest-neighbor result with the index's raw cosine
// distance (lower is closer). Adapters convert it to similarity-style.
type ChunkHit struct {
	Chunk       models.Chunk
	RawDistance float64
}

// New wraps an existing database handle.
func New(db *sql.DB, dimensions int) *Store {
	return &Store{DB: db, dimensions: dimensions}
}

// NewWithDSN opens a Postgres connection and verifies it.
func NewWithDSN(ctx context.Context, dsn string, dimensions int) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return New(db, dimensions), nil
}

// SearchChunks returns the k nearest chunks for a corpus by cosine distance.
// The query vector's dimensionality must match the configured index
// dimension; a mismatch is a hard precondition failure.
func (s *Store) SearchChunks(ctx context.Context, domain models.Domain, vec []float32, k int) ([]ChunkHit, error) {
	if len(vec) != s.dimensions {
		return nil, fmt.Errorf("%w: got %d, index has %d", models.ErrDimensionMismatch, len(vec), s.dimensions)
	}
	if k <= 0 {
		k = 5
	}
	vecLiteral, err := encodeVectorLiteral(vec)
	if err != nil {
		return nil, err
	}

	switch domain {
	case models.DomainBills:
		return s.searchBills(ctx, vecLiteral, k)
	case models.DomainOrders:
		return s.searchOrders(ctx, vecLiteral, k)
	case models.DomainOpinions:
		return s.searchOpinions(ctx, vecLiteral, k)
	default:
		return nil, fmt.Errorf("no chunk table for corpus %q", domain)
	}
}

func (s *Store) searchBills(ctx context.Context, vecLiteral string, k int) ([]ChunkHit, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, title, congress, bill_number, latest_action, body, embedding::text, embedding <=> $1::vector AS distance
FROM bill_chunks
ORDER BY embedding <=> $1::vector
LIMIT $2
`, vecLiteral, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []ChunkHit
	for rows.Next() {
		var (
			hit  ChunkHit
			meta models.BillMeta
			emb  string
		)
		if err := rows.Scan(&hit.Chunk.ID, &meta.Title, &meta.Congress, &meta.Number, &meta.LatestAction, &hit.Chunk.Text, &emb, &hit.RawDistance); err != nil {
			return nil, err
		}
		hit.Chunk.Domain = models.DomainBills
		hit.Chunk.Bill = &meta
		if hit.Chunk.Embedding, err = decodeVectorLiteral(emb); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (s *Store) searchOrders(ctx context.Context, vecLiteral string, k int) ([]ChunkHit, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, title, signed_at, body, embedding::text, embedding <=> $1::vector AS distance
FROM order_chunks
ORDER BY embedding <=> $1::vector
LIMIT $2
`, vecLiteral, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []ChunkHit
	for rows.Next() {
		var (
			hit  ChunkHit
			meta models.OrderMeta
			emb  string
		)
		if err := rows.Scan(&hit.Chunk.ID, &meta.Title, &meta.Date, &hit.Chunk.Text, &emb, &hit.RawDistance); err != nil {
			return nil, err
		}
		hit.Chunk.Domain = models.DomainOrders
		hit.Chunk.Order = &meta
		if hit.Chunk.Embedding, err = decodeVectorLiteral(emb); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (s *Store) searchOpinions(ctx context.Context, vecLiteral string, k int) ([]ChunkHit, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, decided_at, url, body, embedding::text, embedding <=> $1::vector AS distance
FROM opinion_chunks
ORDER BY embedding <=> $1::vector
LIMIT $2
`, vecLiteral, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []ChunkHit
	for rows.Next() {
		var (
			hit  ChunkHit
			meta models.OpinionMeta
			emb  string
		)
		if err := rows.Scan(&hit.Chunk.ID, &meta.Date, &meta.URL, &hit.Chunk.Text, &emb, &hit.RawDistance); err != nil {
			return nil, err
		}
		hit.Chunk.Domain = models.DomainOpinions
		hit.Chunk.Opinion = &meta
		if hit.Chunk.Embedding, err = decodeVectorLiteral(emb); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func encodeVectorLiteral(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("vector must not be empty")
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

func decodeVectorLiteral(lit string) ([]float32, error) {
	lit = strings.TrimSpace(lit)
	if lit == "" {
		return nil, fmt.Errorf("empty vector literal")
	}
	lit = strings.TrimPrefix(lit, "[")
	lit = strings.TrimSuffix(lit, "]")
	if lit == "" {
		return nil, fmt.Errorf("empty vector literal")
	}
	parts := strings.Split(lit, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}
