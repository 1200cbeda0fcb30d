package session_object

import (
	"testing"
	"time"

	"github.com/codertg2/legalai/models"
	"github.com/codertg2/legalai/session/session_models"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession("test-session", time.Hour)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestAppendTurnAndKeywordSearch(t *testing.T) {
	s := newSession(t)
	turns := []models.ConversationTurn{
		{Query: "what did the clean energy bill change", Response: "It expanded solar tax credits."},
		{Query: "who signed the border order", Response: "The president signed it in March."},
	}
	for _, turn := range turns {
		if err := s.AppendTurn(turn); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}
	if got := s.Turns(); len(got) != 2 {
		t.Fatalf("Turns = %d, want 2", len(got))
	}

	hits, err := s.KeywordSearch("solar", 5)
	if err != nil {
		t.Fatalf("KeywordSearch: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Query != "what did the clean energy bill change" {
		t.Fatalf("hit query = %q", hits[0].Query)
	}
	if hits[0].Rank != 1 {
		t.Fatalf("hit rank = %d, want 1", hits[0].Rank)
	}
}

func TestContextHistoryAccumulates(t *testing.T) {
	s := newSession(t)
	s.AddContext([]models.ContextItem{
		{Chunk: models.Chunk{ID: "a", Domain: models.DomainBills}, Metric: 0.9},
	})
	s.AddContext([]models.ContextItem{
		{Chunk: models.Chunk{ID: "b", Domain: models.DomainNews}, Metric: 0.4},
	})
	history := s.ContextHistory()
	if len(history) != 2 {
		t.Fatalf("history = %d records, want 2", len(history))
	}
	if history[0].Item.Chunk.ID != "a" || history[1].Item.Chunk.ID != "b" {
		t.Fatalf("history order wrong: %+v", history)
	}
}

func TestClearDropsEverything(t *testing.T) {
	s := newSession(t)
	if err := s.AppendTurn(models.ConversationTurn{Query: "q", Response: "r"}); err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}
	s.AddContext([]models.ContextItem{{Chunk: models.Chunk{ID: "a"}}})
	s.AddAudit(session_models.AuditEntry{Query: "q", RejectedAnswer: "r", At: time.Now()})

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(s.Turns()) != 0 || len(s.ContextHistory()) != 0 || len(s.Audit()) != 0 {
		t.Fatal("Clear left state behind")
	}
	hits, err := s.KeywordSearch("q", 5)
	if err != nil {
		t.Fatalf("KeywordSearch after Clear: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("index not reset, got %d hits", len(hits))
	}
}
