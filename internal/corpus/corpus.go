// Package corpus defines the searchable-corpus capability and its adapters:
// a vector adapter over the chunk store, a graph-reranked decorator, and the
// news adapter with its own chunking path.
package corpus

import (
	"context"
	"log"
	"sort"

	"github.com/codertg2/legalai/internal/rerank"
	"github.com/codertg2/legalai/internal/store"
	"github.com/codertg2/legalai/models"
)

// Searcher is the capability every corpus exposes to the pipeline. The query
// embedding must be normalized and match the index dimension.
type Searcher interface {
	Domain() models.Domain
	Search(ctx context.Context, query string, embedding []float32) ([]models.ContextItem, error)
}

// VectorCorpus answers searches from the pgvector chunk store. Raw index
// distance is converted to similarity-style via 1-raw so higher is better.
type VectorCorpus struct {
	domain models.Domain
	store  *store.Store
	k      int
}

// NewVectorCorpus creates a store-backed corpus adapter.
func NewVectorCorpus(domain models.Domain, st *store.Store, k int) *VectorCorpus {
	return &VectorCorpus{domain: domain, store: st, k: k}
}

func (v *VectorCorpus) Domain() models.Domain { return v.domain }

func (v *VectorCorpus) Search(ctx context.Context, _ string, embedding []float32) ([]models.ContextItem, error) {
	hits, err := v.store.SearchChunks(ctx, v.domain, embedding, v.k)
	if err != nil {
		return nil, err
	}
	items := make([]models.ContextItem, 0, len(hits))
	for _, hit := range hits {
		items = append(items, models.ContextItem{
			Chunk:    hit.Chunk,
			Distance: 1 - hit.RawDistance,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Distance > items[j].Distance })
	return items, nil
}

// GraphReranked pipes a corpus's ranked output through the graph reranker
// before returning it, so every item leaves with a fused metric.
type GraphReranked struct {
	inner    Searcher
	reranker *rerank.Reranker
	logger   *log.Logger
}

// NewGraphReranked wraps a corpus with its reranker.
func NewGraphReranked(inner Searcher, reranker *rerank.Reranker, logger *log.Logger) *GraphReranked {
	if logger == nil {
		logger = log.New(log.Writer(), "[CORPUS] ", log.LstdFlags)
	}
	return &GraphReranked{inner: inner, reranker: reranker, logger: logger}
}

func (g *GraphReranked) Domain() models.Domain { return g.inner.Domain() }

func (g *GraphReranked) Search(ctx context.Context, query string, embedding []float32) ([]models.ContextItem, error) {
	items, err := g.inner.Search(ctx, query, embedding)
	if err != nil {
		return nil, err
	}
	return g.reranker.Rerank(ctx, query, items)
}
