// Package engine wires the query-resolution pipeline: classify, consult the
// semantic cache, fan out per-corpus retrieval, fuse, generate, evaluate,
// verify, then update session state and the cache.
package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codertg2/legalai/internal/cache"
	"github.com/codertg2/legalai/internal/corpus"
	"github.com/codertg2/legalai/internal/evaluator"
	"github.com/codertg2/legalai/internal/fusion"
	"github.com/codertg2/legalai/internal/telemetry"
	"github.com/codertg2/legalai/internal/vector"
	"github.com/codertg2/legalai/internal/verify"
	"github.com/codertg2/legalai/models"
	"github.com/codertg2/legalai/session"
	"github.com/codertg2/legalai/session/session_models"
)

const generatePrompt = `Answer the following query using the provided context:
If you cannot answer the query using the provided context, respond with "I cannot respond to this query based on the provided context. Please try again or ask a different question."
Query: %s
Context: %s
Answer:`

const sufficiencyPrompt = `Is the following context sufficient to answer the query? Answer with a single word: yes or no.

Query: %s
Context: %s
Answer:`

// directAnswerSimilarityFloor gates follow-up direct answering: a top
// "relevant" similarity below it answers from history without a re-search.
// The comparison direction is kept as shipped; the follow-up tests pin it.
const directAnswerSimilarityFloor = 0.5

// followUpContextSize is how many historical context items back a follow-up.
const followUpContextSize = 5

// Classifier picks the corpora a query is routed to.
type Classifier interface {
	Classify(ctx context.Context, query string) []models.Domain
}

// Embedder produces normalized-comparable embeddings for queries and answers.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Chatter is the completion call used for generation.
type Chatter interface {
	Chat(ctx context.Context, messages []models.ChatMessage, temperature float64) (string, error)
}

// ResponseCache is the semantic cache surface the engine consumes.
type ResponseCache interface {
	Lookup(ctx context.Context, queryEmbedding []float32, threshold float64) (cache.Hit, bool, error)
	Store(ctx context.Context, entry models.CacheEntry) error
	UpdateEvaluation(ctx context.Context, query, answer string, evaluation models.Evaluation) error
	UpdateFeedback(ctx context.Context, query, answer, feedback string) error
}

// AnswerEvaluator runs the score/redraft loop.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, query string, queryEmbedding []float32, ranked []models.ContextItem, formattedContext, answer string) (evaluator.Result, error)
}

// AnswerVerifier is the final accept/reject gate.
type AnswerVerifier interface {
	Verify(ctx context.Context, query string, queryEmbedding []float32, ranked []models.ContextItem, formattedContext, answer string) verify.Decision
}

// Params collects the engine's collaborators and tunables.
type Params struct {
	Classifier     Classifier
	Cache          ResponseCache
	Embedder       Embedder
	Provider       Chatter
	Corpora        []corpus.Searcher
	Evaluator      AnswerEvaluator
	Verifier       AnswerVerifier
	Sessions       session.Store
	CacheThreshold float64
	TopContext     int
	Temperature    float64
	SessionTTL     time.Duration
	Logger         *log.Logger
}

// Engine resolves queries end to end.
type Engine struct {
	classifier     Classifier
	cache          ResponseCache
	embedder       Embedder
	provider       Chatter
	corpora        map[models.Domain]corpus.Searcher
	evaluator      AnswerEvaluator
	verifier       AnswerVerifier
	sessions       session.Store
	cacheThreshold float64
	topContext     int
	temperature    float64
	sessionTTL     time.Duration
	logger         *log.Logger
}

func New(p Params) *Engine {
	if p.Logger == nil {
		p.Logger = log.New(log.Writer(), "[ENGINE] ", log.LstdFlags)
	}
	if p.TopContext <= 0 {
		p.TopContext = 5
	}
	if p.SessionTTL <= 0 {
		p.SessionTTL = time.Hour
	}
	corpora := make(map[models.Domain]corpus.Searcher, len(p.Corpora))
	for _, c := range p.Corpora {
		corpora[c.Domain()] = c
	}
	return &Engine{
		classifier:     p.Classifier,
		cache:          p.Cache,
		embedder:       p.Embedder,
		provider:       p.Provider,
		corpora:        corpora,
		evaluator:      p.Evaluator,
		verifier:       p.Verifier,
		sessions:       p.Sessions,
		cacheThreshold: p.CacheThreshold,
		topContext:     p.TopContext,
		temperature:    p.Temperature,
		sessionTTL:     p.SessionTTL,
		logger:         p.Logger,
	}
}

// Response is the user-visible outcome of a search or follow-up.
type Response struct {
	Answer       string  `json:"answer"`
	SessionID    string  `json:"session_id"`
	Refused      bool    `json:"refused"`
	Cached       bool    `json:"cached"`
	MatchedQuery string  `json:"matched_query,omitempty"`
	Similarity   float64 `json:"similarity,omitempty"`
	Redrafted    bool    `json:"redrafted"`
}

// Search resolves a fresh query through the full pipeline.
func (e *Engine) Search(ctx context.Context, sessionID, query string) (Response, error) {
	start := time.Now()
	defer telemetry.ObservePipeline(start)
	telemetry.IncQuery("search")

	sess, err := e.sessions.EnsureSession(sessionID, e.sessionTTL)
	if err != nil {
		return Response{}, fmt.Errorf("failed to open session: %w", err)
	}

	queryEmbedding, err := e.embedQuery(ctx, query)
	if err != nil {
		return Response{}, err
	}

	// Nothing proceeds past the cache lookup until it completes.
	if hit, ok := e.lookupCache(ctx, queryEmbedding); ok {
		if err := sess.AppendTurn(models.ConversationTurn{Query: query, Response: hit.Answer}); err != nil {
			e.logger.Printf("failed to append cached turn: %v", err)
		}
		return Response{
			Answer:       hit.Answer,
			SessionID:    sess.ID(),
			Cached:       true,
			MatchedQuery: hit.Query,
			Similarity:   hit.Similarity,
		}, nil
	}

	domains := e.classifier.Classify(ctx, query)
	fused := e.retrieve(ctx, domains, query, queryEmbedding)
	return e.respond(ctx, sess, query, queryEmbedding, fused)
}

// respond runs generation, evaluation and verification over fused context and
// finalizes session and cache state.
func (e *Engine) respond(ctx context.Context, sess session.Session, query string, queryEmbedding []float32, fused []models.ContextItem) (Response, error) {
	if len(fused) == 0 {
		e.logger.Printf("no context retrieved for query, refusing")
		return e.refuse(sess, query, "", verify.Decision{}), nil
	}

	formatted := fusion.Render(fused)

	answer, err := e.provider.Chat(ctx, []models.ChatMessage{
		{Role: "user", Content: fmt.Sprintf(generatePrompt, query, formatted)},
	}, e.temperature)
	if err != nil {
		return Response{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	result, err := e.evaluator.Evaluate(ctx, query, queryEmbedding, fused, formatted, answer)
	if err != nil {
		e.logger.Printf("evaluation failed, keeping raw answer: %v", err)
		result = evaluator.Result{Answer: answer}
	}
	if result.Redrafted {
		telemetry.IncRedraft()
	}

	decision := e.verifier.Verify(ctx, query, queryEmbedding, fused, formatted, result.Answer)
	if !decision.Accept {
		return e.refuse(sess, query, result.Answer, decision), nil
	}
	telemetry.IncVerdict("accept")

	final := result.Answer + result.Report
	if err := sess.AppendTurn(models.ConversationTurn{Query: query, Response: final}); err != nil {
		e.logger.Printf("failed to append turn: %v", err)
	}
	sess.AddContext(fused)

	// Cache writes are fire-and-forget; a failure never fails the response.
	go func() {
		cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		entry := models.CacheEntry{
			Query:      query,
			Answer:     final,
			Embedding:  queryEmbedding,
			Evaluation: models.EvaluationNeutral,
		}
		if err := e.cache.Store(cctx, entry); err != nil {
			e.logger.Printf("failed to store cache entry: %v", err)
		}
	}()

	return Response{Answer: final, SessionID: sess.ID(), Redrafted: result.Redrafted}, nil
}

func (e *Engine) refuse(sess session.Session, query, rejected string, decision verify.Decision) Response {
	telemetry.IncVerdict("refuse")
	sess.AddAudit(session_models.AuditEntry{
		Query:           query,
		RejectedAnswer:  rejected,
		MetricGuard:     decision.MetricGuard,
		SimilarityGuard: decision.SimilarityGuard,
		LLMGuard:        decision.LLMGuard,
		At:              time.Now(),
	})
	return Response{Answer: verify.RefusalMessage, SessionID: sess.ID(), Refused: true}
}

// retrieve fans out over the classified corpora and fuses the results. A
// corpus failure degrades to an empty result set for that corpus.
func (e *Engine) retrieve(ctx context.Context, domains []models.Domain, query string, queryEmbedding []float32) []models.ContextItem {
	lists := make([][]models.ContextItem, len(domains))
	var wg sync.WaitGroup
	for i, domain := range domains {
		searcher, ok := e.corpora[domain]
		if !ok {
			e.logger.Printf("no corpus registered for domain %q", domain)
			continue
		}
		wg.Add(1)
		go func(i int, domain models.Domain, searcher corpus.Searcher) {
			defer wg.Done()
			items, err := searcher.Search(ctx, query, queryEmbedding)
			if err != nil {
				e.logger.Printf("retrieval failed for %q, continuing without it: %v", domain, err)
				telemetry.IncCorpusFailure(string(domain))
				return
			}
			lists[i] = items
		}(i, domain, searcher)
	}
	wg.Wait()
	return fusion.Fuse(lists, e.topContext)
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	emb, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vector.Normalize(emb), nil
}

func (e *Engine) lookupCache(ctx context.Context, queryEmbedding []float32) (cache.Hit, bool) {
	hit, ok, err := e.cache.Lookup(ctx, queryEmbedding, e.cacheThreshold)
	if err != nil {
		e.logger.Printf("cache lookup failed, treating as miss: %v", err)
		telemetry.IncCacheLookup("error")
		return cache.Hit{}, false
	}
	if ok {
		telemetry.IncCacheLookup("hit")
	} else {
		telemetry.IncCacheLookup("miss")
	}
	return hit, ok
}

// scoredRecord pairs a historical context item with its similarity to the
// follow-up query.
type scoredRecord struct {
	Item       models.ContextItem
	Similarity float64
}

// FollowUp answers a query against session history. It selects the
// followUpContextSize least-similar historical items as "relevant" (ascending
// sort, kept as shipped) and answers directly from history when the model
// deems that context sufficient or the top similarity is below the floor;
// otherwise the query re-enters the full pipeline.
func (e *Engine) FollowUp(ctx context.Context, sessionID, query string) (Response, error) {
	telemetry.IncQuery("follow_up")

	sess, err := e.sessions.EnsureSession(sessionID, e.sessionTTL)
	if err != nil {
		return Response{}, fmt.Errorf("failed to open session: %w", err)
	}

	history := sess.ContextHistory()
	if len(history) == 0 {
		return e.Search(ctx, sess.ID(), query)
	}

	queryEmbedding, err := e.embedQuery(ctx, query)
	if err != nil {
		return Response{}, err
	}

	scored := make([]scoredRecord, 0, len(history))
	for _, record := range history {
		scored = append(scored, scoredRecord{
			Item:       record.Item,
			Similarity: vector.Cosine(queryEmbedding, record.Item.Chunk.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity < scored[j].Similarity })
	if len(scored) > followUpContextSize {
		scored = scored[:followUpContextSize]
	}

	relevant := make([]models.ContextItem, len(scored))
	for i, s := range scored {
		relevant[i] = s.Item
	}
	formatted := fusion.Render(relevant)

	if e.contextSufficient(ctx, query, formatted) || scored[0].Similarity < directAnswerSimilarityFloor {
		answer, err := e.answerFromHistory(ctx, sess, query, formatted)
		if err != nil {
			return Response{}, err
		}
		if err := sess.AppendTurn(models.ConversationTurn{Query: query, Response: answer}); err != nil {
			e.logger.Printf("failed to append follow-up turn: %v", err)
		}
		return Response{Answer: answer, SessionID: sess.ID()}, nil
	}

	domains := e.classifier.Classify(ctx, query)
	fused := e.retrieve(ctx, domains, query, queryEmbedding)
	return e.respond(ctx, sess, query, queryEmbedding, fused)
}

func (e *Engine) contextSufficient(ctx context.Context, query, formatted string) bool {
	raw, err := e.provider.Chat(ctx, []models.ChatMessage{
		{Role: "user", Content: fmt.Sprintf(sufficiencyPrompt, query, formatted)},
	}, e.temperature)
	if err != nil {
		e.logger.Printf("sufficiency check failed, re-searching: %v", err)
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "yes")
}

func (e *Engine) answerFromHistory(ctx context.Context, sess session.Session, query, formatted string) (string, error) {
	messages := []models.ChatMessage{
		{Role: "system", Content: "You are a legal research assistant. Answer follow-up questions using the conversation so far and the provided context."},
	}
	for _, turn := range sess.Turns() {
		messages = append(messages,
			models.ChatMessage{Role: "user", Content: turn.Query},
			models.ChatMessage{Role: "assistant", Content: turn.Response},
		)
	}
	messages = append(messages, models.ChatMessage{
		Role:    "user",
		Content: fmt.Sprintf("Context: %s\n\nQuestion: %s", formatted, query),
	})

	answer, err := e.provider.Chat(ctx, messages, e.temperature)
	if err != nil {
		return "", fmt.Errorf("failed to answer follow-up: %w", err)
	}
	return answer, nil
}

// UpdateEvaluation relabels the cached (query, answer) entry with a
// user-assigned evaluation.
func (e *Engine) UpdateEvaluation(ctx context.Context, query, answer, evaluation string) error {
	label, ok := models.ParseEvaluation(evaluation)
	if !ok {
		return fmt.Errorf("unknown evaluation label %q", evaluation)
	}
	return e.cache.UpdateEvaluation(ctx, query, answer, label)
}

// UpdateFeedback attaches free-text feedback to the cached (query, answer)
// entry.
func (e *Engine) UpdateFeedback(ctx context.Context, query, answer, feedback string) error {
	return e.cache.UpdateFeedback(ctx, query, answer, feedback)
}

// CleanHistory drops a session's conversation, context history and audit
// trail. An unknown session is a no-op.
func (e *Engine) CleanHistory(ctx context.Context, sessionID string) error {
	sess, err := e.sessions.GetSession(sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	return sess.Clear()
}

// SearchHistory keyword-searches a session's conversation turns.
func (e *Engine) SearchHistory(ctx context.Context, sessionID, q string, k int) ([]session_models.HistoryHit, error) {
	sess, err := e.sessions.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if k <= 0 {
		k = 10
	}
	return sess.KeywordSearch(q, k)
}
