package evaluator

import (
	"context"
	"strings"
	"testing"

	"github.com/codertg2/legalai/models"
)

type mapEmbedder struct {
	vectors map[string][]float32
}

func (m *mapEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0}, nil
}

type scriptedChatter struct {
	responses []string
	calls     int
}

func (s *scriptedChatter) Chat(context.Context, []models.ChatMessage, float64) (string, error) {
	if s.calls >= len(s.responses) {
		return "", nil
	}
	r := s.responses[s.calls]
	s.calls++
	return r, nil
}

func rankedWith(distance float64, embedding []float32) []models.ContextItem {
	return []models.ContextItem{{
		Chunk:    models.Chunk{ID: "top", Domain: models.DomainBills, Embedding: embedding},
		Distance: distance,
		Metric:   distance,
	}}
}

func TestScoresBoundaryInclusive(t *testing.T) {
	if !(Scores{ContextQuery: 0.7, AnswerQuery: 0.7, ContextAnswer: 0.7}).pass() {
		t.Fatal("scores of exactly 0.7 must pass")
	}
	if (Scores{ContextQuery: 0.7, AnswerQuery: 0.7, ContextAnswer: 0.69}).pass() {
		t.Fatal("any score below 0.7 must fail")
	}
}

func TestEvaluateAcceptsAtBoundaryDistance(t *testing.T) {
	// Top context distance sits exactly on the cutoff; the two answer scores
	// are 1.0 because answer, query and chunk embeddings all align.
	chatter := &scriptedChatter{}
	emb := &mapEmbedder{vectors: map[string][]float32{"the answer": {1, 0}}}
	ev := New(emb, NewDrafter(chatter, 0), nil)

	res, err := ev.Evaluate(context.Background(), "q", []float32{1, 0}, rankedWith(0.7, []float32{1, 0}), "ctx", "the answer")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Redrafted {
		t.Fatal("boundary scores must not trigger a redraft")
	}
	if chatter.calls != 0 {
		t.Fatalf("drafter invoked %d times, want 0", chatter.calls)
	}
	if res.Answer != "the answer" {
		t.Fatalf("answer changed: %q", res.Answer)
	}
}

func TestEvaluateKeepsOriginalWhenRedraftNoBetter(t *testing.T) {
	chatter := &scriptedChatter{responses: []string{
		`{"needs_grounding": true, "needs_query_focus": false, "insufficient_context": false, "assessment_summary": "weak"}`,
		"a worse redraft",
	}}
	emb := &mapEmbedder{vectors: map[string][]float32{
		"original":        {0.9, 0.43588989}, // cosine with [1,0] = 0.9
		"a worse redraft": {0.1, 0.99498744}, // cosine with [1,0] = 0.1
	}}
	ev := New(emb, NewDrafter(chatter, 0), nil)

	res, err := ev.Evaluate(context.Background(), "q", []float32{1, 0}, rankedWith(0.2, []float32{1, 0}), "ctx", "original")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Redrafted || res.Answer != "original" {
		t.Fatalf("redraft kept despite no score improvement: %+v", res)
	}
}

func TestEvaluateKeepsRedraftOnImprovement(t *testing.T) {
	chatter := &scriptedChatter{responses: []string{
		`{"needs_grounding": true, "needs_query_focus": true, "insufficient_context": false, "assessment_summary": "off topic"}`,
		"better redraft",
	}}
	emb := &mapEmbedder{vectors: map[string][]float32{
		"original":       {0, 1}, // orthogonal to query
		"better redraft": {1, 0}, // aligned with query
	}}
	ev := New(emb, NewDrafter(chatter, 0), nil)

	res, err := ev.Evaluate(context.Background(), "q", []float32{1, 0}, rankedWith(0.9, []float32{1, 0}), "ctx", "original")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !res.Redrafted || res.Answer != "better redraft" {
		t.Fatalf("improving redraft not kept: %+v", res)
	}
	if chatter.calls != 2 {
		t.Fatalf("chat calls = %d, want assess + rewrite", chatter.calls)
	}
}

func TestEvaluateEmptyContext(t *testing.T) {
	ev := New(&mapEmbedder{}, NewDrafter(&scriptedChatter{}, 0), nil)
	if _, err := ev.Evaluate(context.Background(), "q", []float32{1, 0}, nil, "", "a"); err == nil {
		t.Fatal("expected error for empty context")
	}
}

func TestFormatReportTiers(t *testing.T) {
	report := FormatReport(Scores{ContextQuery: 0.8, AnswerQuery: 0.5, ContextAnswer: 0.29})
	for _, want := range []string{
		"**Evaluation Scores:**",
		"**Answer grounded in source:** 🔴 Poor - 0.290",
		"**Source relevance to question:** 🟢 Excellent - 0.800",
		"**Answer quality:** 🟡 Good - 0.500",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}

func TestAssessFallsBackOnGarbage(t *testing.T) {
	d := NewDrafter(&scriptedChatter{responses: []string{"not json at all"}}, 0)
	a := d.Assess(context.Background(), "q", "a", "ctx")
	if a.needsWork() {
		t.Fatalf("garbage assessment must not flag deficiencies: %+v", a)
	}
}
