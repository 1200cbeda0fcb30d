// Package verify is the final accept/reject gate on a generated answer. Two
// vector guardrails and one LLM guardrail combine into the decision; rejection
// surfaces the fixed refusal message instead of the answer.
package verify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/codertg2/legalai/internal/vector"
	"github.com/codertg2/legalai/models"
)

// RefusalMessage is the user-visible terminal outcome when verification
// rejects an answer. Refusal is a normal outcome, not an error.
const RefusalMessage = "I cannot respond to this query based on the provided context. Please try again or ask a different question."

const (
	// metricGuardrailFloor is the minimum best-context metric for guardrail 1.
	metricGuardrailFloor = 0.5
	// answerQueryCeiling is guardrail 2's cutoff on answer-to-query cosine
	// similarity. Lower similarity passes. The polarity looks backwards but is
	// kept as shipped; see the truth-table tests before changing it.
	answerQueryCeiling = 0.5
)

const groundednessPrompt = `Is the following response grounded in the provided context? Answer with a single word: yes or no.

Query: %s
Context: %s
Response: %s
Answer:`

// Chatter is the completion call backing the LLM guardrail.
type Chatter interface {
	Chat(ctx context.Context, messages []models.ChatMessage, temperature float64) (string, error)
}

// Embedder embeds the candidate answer for guardrail 2.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Verifier combines the guardrail signals.
type Verifier struct {
	provider    Chatter
	embedder    Embedder
	temperature float64
	logger      *log.Logger
}

func New(provider Chatter, embedder Embedder, temperature float64, logger *log.Logger) *Verifier {
	if logger == nil {
		logger = log.New(log.Writer(), "[VERIFY] ", log.LstdFlags)
	}
	return &Verifier{provider: provider, embedder: embedder, temperature: temperature, logger: logger}
}

// Decision records how each guardrail voted.
type Decision struct {
	Accept          bool
	MetricGuard     bool
	SimilarityGuard bool
	LLMGuard        bool
}

// Verify evaluates all three guardrails for the answer. Guardrail failures
// from infrastructure (embedding error, LLM error) count as a false vote
// rather than failing the call.
func (v *Verifier) Verify(ctx context.Context, query string, queryEmbedding []float32, ranked []models.ContextItem, formattedContext, answer string) Decision {
	var g1 bool
	if len(ranked) > 0 {
		g1 = ranked[0].Metric >= metricGuardrailFloor
	}

	var g2 bool
	answerEmbedding, err := v.embedder.Embed(ctx, answer)
	if err != nil {
		v.logger.Printf("failed to embed answer for guardrail 2: %v", err)
	} else {
		g2 = vector.Cosine(answerEmbedding, queryEmbedding) <= answerQueryCeiling
	}

	llm := v.llmGuardrail(ctx, query, formattedContext, answer)

	return Decision{
		Accept:          decide(g1, g2, llm),
		MetricGuard:     g1,
		SimilarityGuard: g2,
		LLMGuard:        llm,
	}
}

// decide applies the guardrail combination rule.
func decide(g1, g2, llm bool) bool {
	return (llm && (g1 || g2)) || (g1 && g2)
}

func (v *Verifier) llmGuardrail(ctx context.Context, query, formattedContext, answer string) bool {
	raw, err := v.provider.Chat(ctx, []models.ChatMessage{
		{Role: "user", Content: fmt.Sprintf(groundednessPrompt, query, formattedContext, answer)},
	}, v.temperature)
	if err != nil {
		v.logger.Printf("LLM guardrail unavailable, voting reject: %v", err)
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "yes")
}
