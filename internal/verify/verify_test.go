package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/codertg2/legalai/models"
)

func TestDecideTruthTable(t *testing.T) {
	cases := []struct {
		g1, g2, llm bool
		want        bool
	}{
		{false, false, false, false},
		{false, false, true, false},
		{false, true, false, false},
		{false, true, true, true},
		{true, false, false, false},
		{true, false, true, true},
		{true, true, false, true},
		{true, true, true, true},
	}
	for _, tc := range cases {
		if got := decide(tc.g1, tc.g2, tc.llm); got != tc.want {
			t.Errorf("decide(%v, %v, %v) = %v, want %v", tc.g1, tc.g2, tc.llm, got, tc.want)
		}
	}
}

type fixedChatter struct {
	response string
	err      error
}

func (f *fixedChatter) Chat(context.Context, []models.ChatMessage, float64) (string, error) {
	return f.response, f.err
}

type fixedEmbedder struct {
	vec []float32
	err error
}

func (f *fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vec, f.err
}

func ranked(metric float64) []models.ContextItem {
	return []models.ContextItem{{Chunk: models.Chunk{ID: "top"}, Metric: metric}}
}

func TestVerifyGuardrailSenses(t *testing.T) {
	// Metric at the floor passes guardrail 1; an answer orthogonal to the
	// query passes guardrail 2 (lower similarity passes).
	v := New(&fixedChatter{response: "Yes"}, &fixedEmbedder{vec: []float32{0, 1}}, 0, nil)
	d := v.Verify(context.Background(), "q", []float32{1, 0}, ranked(0.5), "ctx", "a")
	if !d.MetricGuard || !d.SimilarityGuard || !d.LLMGuard || !d.Accept {
		t.Fatalf("decision = %+v, want all guards true", d)
	}

	// An answer aligned with the query fails guardrail 2.
	v = New(&fixedChatter{response: "no"}, &fixedEmbedder{vec: []float32{1, 0}}, 0, nil)
	d = v.Verify(context.Background(), "q", []float32{1, 0}, ranked(0.4), "ctx", "a")
	if d.MetricGuard || d.SimilarityGuard || d.LLMGuard || d.Accept {
		t.Fatalf("decision = %+v, want all guards false", d)
	}
}

func TestVerifyEmptyContextFailsMetricGuard(t *testing.T) {
	v := New(&fixedChatter{response: "yes"}, &fixedEmbedder{vec: []float32{0, 1}}, 0, nil)
	d := v.Verify(context.Background(), "q", []float32{1, 0}, nil, "", "a")
	if d.MetricGuard {
		t.Fatal("empty context must fail the metric guardrail")
	}
	// llm && g2 alone still accepts.
	if !d.Accept {
		t.Fatalf("decision = %+v, want accept via llm+similarity", d)
	}
}

func TestVerifyInfrastructureErrorsVoteReject(t *testing.T) {
	v := New(
		&fixedChatter{err: errors.New("upstream down")},
		&fixedEmbedder{err: errors.New("embedder down")},
		0, nil,
	)
	d := v.Verify(context.Background(), "q", []float32{1, 0}, ranked(0.9), "ctx", "a")
	if d.SimilarityGuard || d.LLMGuard {
		t.Fatalf("errored guardrails must vote false: %+v", d)
	}
	if d.Accept {
		t.Fatal("metric guard alone must not accept")
	}
}
