// Package rerank blends vector similarity with knowledge-graph evidence so
// that chunks mentioning entities linked to the query rank higher even when
// embedding distance alone is mediocre.
package rerank

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/codertg2/legalai/internal/graph"
	"github.com/codertg2/legalai/internal/ner"
	"github.com/codertg2/legalai/models"
)

// Reranker cross-references extracted entities against one corpus's
// knowledge graph and recomputes each candidate's relevance metric.
type Reranker struct {
	graph     *graph.Graph
	extractor ner.Extractor
	labels    []string
	logger    *log.Logger
}

// New creates a reranker for one corpus. The label taxonomy must match the
// corpus the graph was built from.
func New(g *graph.Graph, extractor ner.Extractor, labels []string, logger *log.Logger) *Reranker {
	if logger == nil {
		logger = log.New(log.Writer(), "[RERANK] ", log.LstdFlags)
	}
	return &Reranker{graph: g, extractor: extractor, labels: labels, logger: logger}
}

// Rerank scores candidates by entity overlap with the query's graph
// neighborhood and returns them sorted descending by metric. An empty
// candidate list returns empty immediately.
func (r *Reranker) Rerank(ctx context.Context, query string, items []models.ContextItem) ([]models.ContextItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	tags, err := r.queryTags(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to extract query entities: %w", err)
	}

	for i := range items {
		entities, err := r.extractor.Extract(ctx, items[i].Chunk.Text, r.labels)
		if err != nil {
			return nil, fmt.Errorf("failed to extract chunk entities: %w", err)
		}
		counter := 0
		for _, e := range entities {
			if _, ok := tags[strings.TrimSpace(e.Text)]; ok {
				counter++
			}
		}
		items[i].Counter = counter
	}

	maxDistance := items[0].Distance
	minDistance := items[0].Distance
	maxCounter := items[0].Counter
	for _, it := range items[1:] {
		if it.Distance > maxDistance {
			maxDistance = it.Distance
		}
		if it.Distance < minDistance {
			minDistance = it.Distance
		}
		if it.Counter > maxCounter {
			maxCounter = it.Counter
		}
	}
	// Degenerate-normalization fallbacks: a zero maximum falls back to the
	// minimum, and a counter maximum that is still zero falls back to 1.
	if maxDistance == 0 {
		maxDistance = minDistance
	}
	if maxDistance == 0 {
		maxDistance = 1
	}
	if maxCounter == 0 {
		maxCounter = 1
	}

	for i := range items {
		items[i].Metric = (items[i].Distance + maxDistance*(float64(items[i].Counter)/float64(maxCounter))) / (2 * maxDistance)
	}

	// Stable sort preserves original relative order for equal metrics.
	sort.SliceStable(items, func(i, j int) bool { return items[i].Metric > items[j].Metric })
	return items, nil
}

// queryTags extracts entities from the query and collects the graph
// neighborhood of every entity that exists as a node. Entities outside the
// graph are silently skipped.
func (r *Reranker) queryTags(ctx context.Context, query string) (map[string]struct{}, error) {
	entities, err := r.extractor.Extract(ctx, query, r.labels)
	if err != nil {
		return nil, err
	}
	tags := make(map[string]struct{})
	for _, e := range entities {
		key := strings.TrimSpace(e.Text)
		if !r.graph.HasNode(key) {
			continue
		}
		for _, neighbor := range r.graph.Neighbors(key) {
			tags[neighbor] = struct{}{}
		}
	}
	return tags, nil
}
