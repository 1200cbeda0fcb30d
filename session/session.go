// Package session holds per-conversation state: query/response turns, the
// context items retrieved for them, and the verifier audit trail. Sessions
// are process-lifetime and single-writer per session.
package session

import (
	"time"

	"github.com/codertg2/legalai/models"
	"github.com/codertg2/legalai/session/session_models"
)

// Store manages session lifecycle.
type Store interface {
	EnsureSession(id string, ttl time.Duration) (Session, error)
	GetSession(id string) (Session, error)
}

// Session is one conversation's mutable state.
type Session interface {
	ID() string
	Expire(ttl time.Duration)
	AppendTurn(turn models.ConversationTurn) error
	Turns() []models.ConversationTurn
	AddContext(items []models.ContextItem)
	ContextHistory() []session_models.ContextRecord
	AddAudit(entry session_models.AuditEntry)
	Audit() []session_models.AuditEntry
	KeywordSearch(q string, k int) ([]session_models.HistoryHit, error)
	Clear() error
}
