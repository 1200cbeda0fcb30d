package evaluator

import (
	"context"
	"fmt"
	"strings"

	"github.com/codertg2/legalai/internal/llmjson"
	"github.com/codertg2/legalai/models"
)

const assessPrompt = `Analyze this Q&A and determine what improvements are needed. Respond with a JSON object containing boolean flags:

Query: %s
Answer: %s
Available Context: %s

Assess:
1. Is the answer well-grounded in the provided context?
2. Does the answer directly address the query?
3. Is the context sufficient to answer the query?
4. Any other brief suggestions for improvement?

Respond ONLY with JSON:
{
    "needs_grounding": true/false,
    "needs_query_focus": true/false,
    "insufficient_context": true/false,
    "assessment_summary": "brief explanation"
}`

const rewritePrompt = `Answer the following query using the provided context. Make sure to cite any sources you are using.

Query: %s
Context: %s

Instructions:
- Act as an AI assistant.
- State the answer directly with citations, where you give the author, article name, and source.
- Do NOT use phrases like "Based on the provided context" or "According to the documents".
- Focus on improvements: %s

Answer:`

// Assessment is the drafter's structured critique of an answer.
type Assessment struct {
	NeedsGrounding      bool   `json:"needs_grounding"`
	NeedsQueryFocus     bool   `json:"needs_query_focus"`
	InsufficientContext bool   `json:"insufficient_context"`
	AssessmentSummary   string `json:"assessment_summary"`
}

func (a Assessment) needsWork() bool {
	return a.NeedsGrounding || a.NeedsQueryFocus || a.InsufficientContext
}

// Drafter requests one rewrite of a weak answer from the completion service.
type Drafter struct {
	provider    Chatter
	temperature float64
}

func NewDrafter(provider Chatter, temperature float64) *Drafter {
	return &Drafter{provider: provider, temperature: temperature}
}

// Assess asks the completion service to flag deficiencies in the answer. An
// unparseable response degrades to a clean assessment so the original answer
// survives untouched.
func (d *Drafter) Assess(ctx context.Context, query, answer, formattedContext string) Assessment {
	raw, err := d.provider.Chat(ctx, []models.ChatMessage{
		{Role: "system", Content: "You are an expert evaluator. Return only valid JSON."},
		{Role: "user", Content: fmt.Sprintf(assessPrompt, query, answer, formattedContext)},
	}, d.temperature)
	if err != nil {
		return Assessment{AssessmentSummary: "assessment unavailable"}
	}
	var a Assessment
	if err := llmjson.Unmarshal(raw, &a); err != nil {
		return Assessment{AssessmentSummary: "Error parsing assessment"}
	}
	return a
}

// Draft assesses the answer and, when any deficiency is flagged, requests a
// rewrite emphasizing the deficient axes. A clean assessment returns the
// answer unchanged.
func (d *Drafter) Draft(ctx context.Context, query, answer, formattedContext string) (string, error) {
	assessment := d.Assess(ctx, query, answer, formattedContext)
	if answer != "" && !assessment.needsWork() {
		return answer, nil
	}

	var focus []string
	if assessment.NeedsGrounding {
		focus = append(focus, "Better ground the answer in the provided context")
	}
	if assessment.NeedsQueryFocus {
		focus = append(focus, "Make the answer more directly responsive to the query")
	}
	if assessment.AssessmentSummary != "" {
		focus = append(focus, assessment.AssessmentSummary)
	}

	rewritten, err := d.provider.Chat(ctx, []models.ChatMessage{
		{Role: "system", Content: "You are an expert in United States law. Provide clear, well-grounded answers."},
		{Role: "user", Content: fmt.Sprintf(rewritePrompt, query, formattedContext, strings.Join(focus, ", "))},
	}, d.temperature)
	if err != nil {
		return "", fmt.Errorf("failed to redraft answer: %w", err)
	}
	return rewritten, nil
}
