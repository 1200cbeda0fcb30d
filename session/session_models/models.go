package session_models

import (
	"time"

	"github.com/codertg2/legalai/models"
)

// AuditEntry records a verifier rejection: the query, the answer that was
// withheld, and which guardrails voted against it.
type AuditEntry struct {
	Query           string    `json:"query"`
	RejectedAnswer  string    `json:"rejected_answer"`
	MetricGuard     bool      `json:"metric_guard"`
	SimilarityGuard bool      `json:"similarity_guard"`
	LLMGuard        bool      `json:"llm_guard"`
	At              time.Time `json:"at"`
}

// HistoryHit is one keyword-search result over a session's conversation
// history.
type HistoryHit struct {
	TurnID  string  `json:"turn_id"`
	Query   string  `json:"query"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}

// ContextRecord is one retrieved context item remembered for follow-up
// similarity scoring.
type ContextRecord struct {
	Item    models.ContextItem `json:"item"`
	AddedAt time.Time          `json:"added_at"`
}
