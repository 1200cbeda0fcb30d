// Package evaluator scores a generated answer against its query and retrieved
// context, optionally requesting one redraft before producing the evaluation
// report appended to the user-visible answer.
package evaluator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/codertg2/legalai/internal/vector"
	"github.com/codertg2/legalai/models"
)

// acceptScore is the per-axis cutoff below which a redraft is attempted. The
// boundary is inclusive: three scores of exactly 0.7 accept without drafting.
const acceptScore = 0.7

// Chatter is the completion call the evaluator and drafter need.
type Chatter interface {
	Chat(ctx context.Context, messages []models.ChatMessage, temperature float64) (string, error)
}

// Embedder embeds candidate answers for score computation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Scores are the three quality axes, each on a 0..1 scale, higher is better.
type Scores struct {
	ContextQuery  float64 // top context item vs the query
	AnswerQuery   float64 // answer embedding vs query embedding
	ContextAnswer float64 // answer embedding vs top chunk embedding
}

func (s Scores) pass() bool {
	return s.ContextQuery >= acceptScore && s.AnswerQuery >= acceptScore && s.ContextAnswer >= acceptScore
}

// Evaluator runs the score/redraft loop.
type Evaluator struct {
	embedder Embedder
	drafter  *Drafter
	logger   *log.Logger
}

func New(embedder Embedder, drafter *Drafter, logger *log.Logger) *Evaluator {
	if logger == nil {
		logger = log.New(log.Writer(), "[EVALUATOR] ", log.LstdFlags)
	}
	return &Evaluator{embedder: embedder, drafter: drafter, logger: logger}
}

// Result is the evaluated (possibly redrafted) answer plus its report.
type Result struct {
	Answer    string
	Scores    Scores
	Redrafted bool
	Report    string
}

// Evaluate scores the answer on three axes. When any axis falls below the
// cutoff it requests exactly one redraft and keeps it only if the redraft
// improves at least one of the two answer-dependent scores. The returned
// report is appended to whichever answer wins.
func (e *Evaluator) Evaluate(ctx context.Context, query string, queryEmbedding []float32, ranked []models.ContextItem, formattedContext, answer string) (Result, error) {
	if len(ranked) == 0 {
		return Result{}, fmt.Errorf("cannot evaluate with empty context")
	}
	top := ranked[0]

	answerEmbedding, err := e.embedder.Embed(ctx, answer)
	if err != nil {
		return Result{}, fmt.Errorf("failed to embed answer: %w", err)
	}

	scores := Scores{
		ContextQuery:  top.Distance,
		AnswerQuery:   vector.Cosine(queryEmbedding, answerEmbedding),
		ContextAnswer: vector.Cosine(answerEmbedding, top.Chunk.Embedding),
	}

	if scores.pass() {
		return Result{Answer: answer, Scores: scores, Report: FormatReport(scores)}, nil
	}

	redraft, err := e.drafter.Draft(ctx, query, answer, formattedContext)
	if err != nil || redraft == "" || redraft == answer {
		if err != nil {
			e.logger.Printf("redraft failed, keeping original answer: %v", err)
		}
		return Result{Answer: answer, Scores: scores, Report: FormatReport(scores)}, nil
	}

	redraftEmbedding, err := e.embedder.Embed(ctx, redraft)
	if err != nil {
		e.logger.Printf("failed to embed redraft, keeping original answer: %v", err)
		return Result{Answer: answer, Scores: scores, Report: FormatReport(scores)}, nil
	}

	redraftScores := Scores{
		ContextQuery:  scores.ContextQuery,
		AnswerQuery:   vector.Cosine(queryEmbedding, redraftEmbedding),
		ContextAnswer: vector.Cosine(top.Chunk.Embedding, redraftEmbedding),
	}

	if redraftScores.AnswerQuery > scores.AnswerQuery || redraftScores.ContextAnswer > scores.ContextAnswer {
		return Result{Answer: redraft, Scores: redraftScores, Redrafted: true, Report: FormatReport(redraftScores)}, nil
	}
	return Result{Answer: answer, Scores: scores, Report: FormatReport(scores)}, nil
}

// FormatReport renders the tiered evaluation block appended to the final
// answer text.
func FormatReport(s Scores) string {
	var b strings.Builder
	b.WriteString("\n\n---\n**Evaluation Scores:**\n\n")
	writeTier(&b, "Answer grounded in source", s.ContextAnswer)
	writeTier(&b, "Source relevance to question", s.ContextQuery)
	writeTier(&b, "Answer quality", s.AnswerQuery)
	return b.String()
}

func writeTier(b *strings.Builder, label string, score float64) {
	var tier string
	switch {
	case score >= 0.8:
		tier = "🟢 Excellent"
	case score >= 0.5:
		tier = "🟡 Good"
	case score >= 0.3:
		tier = "🟠 Fair"
	default:
		tier = "🔴 Poor"
	}
	fmt.Fprintf(b, "**%s:** %s - %.3f\n", label, tier, score)
}
