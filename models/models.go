package models

import (
	"errors"
	"time"
)

// ErrDimensionMismatch is returned when a query embedding does not match the
// dimensionality of the index it is searched against.
var ErrDimensionMismatch = errors.New("query embedding dimension must match index dimension")

// ErrEntryNotFound is returned when a cache entry lookup by (query, answer) matches nothing.
var ErrEntryNotFound = errors.New("cache entry not found")

// Domain identifies one of the four document corpora.
type Domain string

const (
	DomainBills    Domain = "Congressional Bills"
	DomainOrders   Domain = "Executive Orders"
	DomainOpinions Domain = "Supreme Court Decisions"
	DomainNews     Domain = "News Articles"
)

// AllDomains returns every corpus in classifier enumeration order.
func AllDomains() []Domain {
	return []Domain{DomainBills, DomainOrders, DomainOpinions, DomainNews}
}

// ParseDomain maps a classifier-returned name onto a known corpus.
func ParseDomain(s string) (Domain, bool) {
	switch Domain(s) {
	case DomainBills, DomainOrders, DomainOpinions, DomainNews:
		return Domain(s), true
	}
	return "", false
}

// BillMeta carries the bill-specific chunk fields.
type BillMeta struct {
	Title        string `json:"title"`
	Congress     string `json:"congress"`
	Number       string `json:"number"`
	LatestAction string `json:"latest_action"`
}

// OrderMeta carries the executive-order-specific chunk fields.
type OrderMeta struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

// OpinionMeta carries the court-opinion-specific chunk fields.
type OpinionMeta struct {
	Date string `json:"date"`
	URL  string `json:"url"`
}

// NewsMeta carries the news-article-specific chunk fields.
type NewsMeta struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	URI   string `json:"uri"`
	URL   string `json:"url"`
}

// Chunk is a retrievable unit of source text. The Domain tag selects which of
// the per-corpus metadata shapes is populated; the others stay nil. Chunks are
// immutable once indexed.
type Chunk struct {
	ID        string       `json:"id"`
	Domain    Domain       `json:"domain"`
	Text      string       `json:"text"`
	Embedding []float32    `json:"embedding,omitempty"`
	Bill      *BillMeta    `json:"bill,omitempty"`
	Order     *OrderMeta   `json:"order,omitempty"`
	Opinion   *OpinionMeta `json:"opinion,omitempty"`
	News      *NewsMeta    `json:"news,omitempty"`
}

// ContextItem pairs a chunk with its per-query ranking scores. Distance is
// similarity-style (higher is better, adapters convert raw index distance via
// 1-raw). Counter is the entity-overlap count set by the graph reranker.
// Metric is the final fused relevance score in [0,1]; every item must carry
// one before cross-corpus comparison.
type ContextItem struct {
	Chunk    Chunk   `json:"chunk"`
	Distance float64 `json:"distance"`
	Counter  int     `json:"counter"`
	Metric   float64 `json:"metric"`
}

// Evaluation is a user-assigned label on a cached answer.
type Evaluation string

const (
	EvaluationGood    Evaluation = "good"
	EvaluationNeutral Evaluation = "neutral"
	EvaluationBad     Evaluation = "bad"
)

// ParseEvaluation validates a user-supplied evaluation label.
func ParseEvaluation(s string) (Evaluation, bool) {
	switch Evaluation(s) {
	case EvaluationGood, EvaluationNeutral, EvaluationBad:
		return Evaluation(s), true
	}
	return "", false
}

// CacheEntry is a persisted answered query. New entries are always written
// with EvaluationNeutral and empty feedback; both fields are mutated later by
// explicit user-evaluation calls keyed on exact (query, answer).
type CacheEntry struct {
	Query      string     `json:"query"`
	Answer     string     `json:"answer"`
	Embedding  []float32  `json:"embedding"`
	Evaluation Evaluation `json:"evaluation"`
	Feedback   string     `json:"feedback"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ConversationTurn is one query/response pair in session history.
type ConversationTurn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// ChatMessage is one role/content message sent to the completion service.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
