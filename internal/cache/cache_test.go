package cache

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/codertg2/legalai/models"
)

var lookupQuery = regexp.QuoteMeta(`
SELECT query, answer, embedding
FROM cache_entries
WHERE evaluation IN ('good', 'neutral')
`)

func newTestCache(t *testing.T) (*Cache, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return New(db, nil), mock, func() { db.Close() }
}

func TestLookupIdenticalEmbeddingScoresOne(t *testing.T) {
	c, mock, done := newTestCache(t)
	defer done()

	rows := sqlmock.NewRows([]string{"query", "answer", "embedding"}).
		AddRow("old question", "old answer", "[0.6,0.8]").
		AddRow("other question", "other answer", "[1,0]")
	mock.ExpectQuery(lookupQuery).WillReturnRows(rows)

	hit, ok, err := c.Lookup(context.Background(), []float32{0.6, 0.8}, 0.85)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if hit.Answer != "old answer" || hit.Query != "old question" {
		t.Fatalf("hit = %+v", hit)
	}
	if hit.Similarity < 0.9999 {
		t.Fatalf("similarity = %f, want 1.0", hit.Similarity)
	}
}

func TestLookupEmptyEntrySetIsMiss(t *testing.T) {
	c, mock, done := newTestCache(t)
	defer done()

	mock.ExpectQuery(lookupQuery).WillReturnRows(sqlmock.NewRows([]string{"query", "answer", "embedding"}))

	_, ok, err := c.Lookup(context.Background(), []float32{1, 0}, 0.85)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Fatal("expected miss on empty entry set")
	}
}

func TestLookupThresholdAboveOneAlwaysMisses(t *testing.T) {
	c, mock, done := newTestCache(t)
	defer done()

	rows := sqlmock.NewRows([]string{"query", "answer", "embedding"}).
		AddRow("q", "a", "[1,0]")
	mock.ExpectQuery(lookupQuery).WillReturnRows(rows)

	_, ok, err := c.Lookup(context.Background(), []float32{1, 0}, 1.5)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Fatal("expected miss for threshold above 1.0")
	}
}

func TestLookupBelowThresholdIsMiss(t *testing.T) {
	c, mock, done := newTestCache(t)
	defer done()

	rows := sqlmock.NewRows([]string{"query", "answer", "embedding"}).
		AddRow("q", "a", "[0,1]")
	mock.ExpectQuery(lookupQuery).WillReturnRows(rows)

	_, ok, err := c.Lookup(context.Background(), []float32{1, 0}, 0.85)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Fatal("expected miss for orthogonal embedding")
	}
}

func TestStoreWritesNeutralEntry(t *testing.T) {
	c, mock, done := newTestCache(t)
	defer done()

	insert := regexp.QuoteMeta(`
INSERT INTO cache_entries (query, answer, embedding, evaluation, feedback, created_at)
VALUES ($1,$2,$3,$4,$5,NOW())
`)
	mock.ExpectExec(insert).
		WithArgs("q", "a", "[0.5,0.5]", "neutral", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := c.Store(context.Background(), models.CacheEntry{
		Query:      "q",
		Answer:     "a",
		Embedding:  []float32{0.5, 0.5},
		Evaluation: models.EvaluationNeutral,
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateEvaluationRoundTrip(t *testing.T) {
	// An entry stored neutral and later relabeled good stays inside the
	// lookup label filter {good, neutral} either way.
	c, mock, done := newTestCache(t)
	defer done()

	update := regexp.QuoteMeta(`
UPDATE cache_entries SET evaluation = $3 WHERE query = $1 AND answer = $2
`)
	mock.ExpectExec(update).
		WithArgs("q", "a", "good").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := c.UpdateEvaluation(context.Background(), "q", "a", models.EvaluationGood); err != nil {
		t.Fatalf("UpdateEvaluation: %v", err)
	}

	rows := sqlmock.NewRows([]string{"query", "answer", "embedding"}).
		AddRow("q", "a", "[1,0]")
	mock.ExpectQuery(lookupQuery).WillReturnRows(rows)

	hit, ok, err := c.Lookup(context.Background(), []float32{1, 0}, 0.85)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok || hit.Answer != "a" {
		t.Fatalf("relabeled entry not found: ok=%v hit=%+v", ok, hit)
	}
}

func TestUpdateEvaluationMissingEntry(t *testing.T) {
	c, mock, done := newTestCache(t)
	defer done()

	update := regexp.QuoteMeta(`
UPDATE cache_entries SET evaluation = $3 WHERE query = $1 AND answer = $2
`)
	mock.ExpectExec(update).
		WithArgs("missing", "missing", "bad").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := c.UpdateEvaluation(context.Background(), "missing", "missing", models.EvaluationBad)
	if !errors.Is(err, models.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestUpdateFeedback(t *testing.T) {
	c, mock, done := newTestCache(t)
	defer done()

	update := regexp.QuoteMeta(`
UPDATE cache_entries SET feedback = $3 WHERE query = $1 AND answer = $2
`)
	mock.ExpectExec(update).
		WithArgs("q", "a", "too vague").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := c.UpdateFeedback(context.Background(), "q", "a", "too vague"); err != nil {
		t.Fatalf("UpdateFeedback: %v", err)
	}
}
