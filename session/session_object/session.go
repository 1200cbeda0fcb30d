package session_object

import (
	"fmt"
	"sync"
	"time"

	"github.com/blevesearch/bleve"

	"github.com/codertg2/legalai/models"
	"github.com/codertg2/legalai/session/session_models"
)

// Session holds one conversation's state: turns, retrieved context history
// and the verifier audit trail. Mutation is serialized by a single lock;
// the pipeline appends, follow-up reads.
type Session struct {
	id        string
	expiresAt time.Time
	bleve     bleve.Index
	turns     []models.ConversationTurn
	context   []session_models.ContextRecord
	audit     []session_models.AuditEntry
	mu        sync.RWMutex
}

type indexedTurn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

func NewSession(id string, ttl time.Duration) (*Session, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Session{
		id:        id,
		expiresAt: time.Now().Add(ttl),
		bleve:     index,
	}, nil
}

func (s *Session) ID() string               { return s.id }
func (s *Session) Expire(ttl time.Duration) { s.expiresAt = time.Now().Add(ttl) }

// AppendTurn records an accepted query/response pair and indexes it for
// keyword search.
func (s *Session) AppendTurn(turn models.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	turnID := fmt.Sprintf("turn-%d", len(s.turns))
	return s.bleve.Index(turnID, indexedTurn{Query: turn.Query, Response: turn.Response})
}

func (s *Session) Turns() []models.ConversationTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ConversationTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// AddContext remembers the context items used to answer a query so follow-up
// handling can score new queries against them.
func (s *Session) AddContext(items []models.ContextItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, item := range items {
		s.context = append(s.context, session_models.ContextRecord{Item: item, AddedAt: now})
	}
}

func (s *Session) ContextHistory() []session_models.ContextRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]session_models.ContextRecord, len(s.context))
	copy(out, s.context)
	return out
}

// AddAudit records a verifier rejection.
func (s *Session) AddAudit(entry session_models.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, entry)
}

func (s *Session) Audit() []session_models.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]session_models.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

// KeywordSearch runs a query-string search over the session's indexed turns.
func (s *Session) KeywordSearch(q string, k int) ([]session_models.HistoryHit, error) {
	query := bleve.NewQueryStringQuery(q)
	searchReq := bleve.NewSearchRequestOptions(query, k, 0, false)
	res, err := s.bleve.Search(searchReq)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []session_models.HistoryHit
	for i, hit := range res.Hits {
		var turnQuery, snippet string
		var idx int
		if _, err := fmt.Sscanf(hit.ID, "turn-%d", &idx); err == nil && idx >= 1 && idx <= len(s.turns) {
			turn := s.turns[idx-1]
			turnQuery = turn.Query
			snippet = clip(turn.Response)
		}
		out = append(out, session_models.HistoryHit{
			TurnID:  hit.ID,
			Query:   turnQuery,
			Snippet: snippet,
			Score:   hit.Score,
			Rank:    i + 1,
		})
	}
	return out, nil
}

// Clear drops all turns, context history and audit entries and resets the
// keyword index.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return err
	}
	s.turns = nil
	s.context = nil
	s.audit = nil
	s.bleve = index
	return nil
}

func clip(s string) string {
	if len(s) <= 300 {
		return s
	}
	return s[:300] + "…"
}
