package classifier

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/codertg2/legalai/models"
)

type scriptedChatter struct {
	response string
	err      error
}

func (s *scriptedChatter) Chat(context.Context, []models.ChatMessage, float64) (string, error) {
	return s.response, s.err
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		response string
		err      error
		want     []models.Domain
	}{
		{
			name:     "single domain",
			response: `["Congressional Bills"]`,
			want:     []models.Domain{models.DomainBills},
		},
		{
			name:     "fenced response with duplicates",
			response: "```json\n[\"News Articles\", \"News Articles\", \"Executive Orders\"]\n```",
			want:     []models.Domain{models.DomainNews, models.DomainOrders},
		},
		{
			name:     "unknown names dropped",
			response: `["Tax Law", "Supreme Court Decisions"]`,
			want:     []models.Domain{models.DomainOpinions},
		},
		{
			name:     "malformed response falls back to all corpora",
			response: "I think this is about bills.",
			want:     models.AllDomains(),
		},
		{
			name:     "only unknown names falls back to all corpora",
			response: `["Tax Law"]`,
			want:     models.AllDomains(),
		},
		{
			name: "provider error falls back to all corpora",
			err:  errors.New("upstream unavailable"),
			want: models.AllDomains(),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(&scriptedChatter{response: tc.response, err: tc.err}, 0, nil)
			got := c.Classify(context.Background(), "what passed last week?")
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Classify = %v, want %v", got, tc.want)
			}
		})
	}
}
