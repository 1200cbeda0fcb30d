package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codertg2/legalai/internal/vector"
	"github.com/codertg2/legalai/models"
	"github.com/codertg2/legalai/news/eventregistry"
	"github.com/codertg2/legalai/provider"
)

// Embedder is the embedding capability the news corpus needs to re-embed
// sentence groups.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// ArticleSearcher is the slice of the EventRegistry client the corpus uses.
type ArticleSearcher interface {
	SearchArticles(ctx context.Context, keyword string, count int) ([]eventregistry.Article, error)
}

// NewsCorpus retrieves articles by LLM-generated keyword queries, chunks
// them into sentence groups and ranks the groups against the query
// embedding. There is no knowledge graph for news, so each item's metric is
// its similarity-style distance.
type NewsCorpus struct {
	api               ArticleSearcher
	provider          provider.Provider
	embedder          Embedder
	rdb               *redis.Client
	maxArticles       int
	sentencesPerChunk int
	cacheTTL          time.Duration
	temperature       float64
	logger            *log.Logger
}

// NewNewsCorpus creates the news adapter. rdb may be nil; article caching is
// then disabled.
func NewNewsCorpus(api ArticleSearcher, prov provider.Provider, embedder Embedder, rdb *redis.Client, maxArticles, sentencesPerChunk int, cacheTTL time.Duration, temperature float64, logger *log.Logger) *NewsCorpus {
	if logger == nil {
		logger = log.New(log.Writer(), "[NEWS] ", log.LstdFlags)
	}
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	return &NewsCorpus{
		api:               api,
		provider:          prov,
		embedder:          embedder,
		rdb:               rdb,
		maxArticles:       maxArticles,
		sentencesPerChunk: sentencesPerChunk,
		cacheTTL:          cacheTTL,
		temperature:       temperature,
		logger:            logger,
	}
}

func (n *NewsCorpus) Domain() models.Domain { return models.DomainNews }

func (n *NewsCorpus) Search(ctx context.Context, query string, embedding []float32) ([]models.ContextItem, error) {
	queries := n.keywordQueries(ctx, query)

	var articles []eventregistry.Article
	for _, q := range queries {
		found, err := n.searchCached(ctx, q)
		if err != nil {
			n.logger.Printf("article search failed for %q: %v", q, err)
			continue
		}
		articles = append(articles, found...)
	}

	articles = dedupeByURI(articles)

	var items []models.ContextItem
	for _, article := range articles {
		chunks, err := n.chunkArticle(ctx, article, embedding)
		if err != nil {
			n.logger.Printf("failed to chunk article %q: %v", article.URI, err)
			continue
		}
		items = append(items, chunks...)
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Distance > items[j].Distance })
	return items, nil
}

// keywordQueries asks the completion service for up to 3 keyword queries
// derived from the question, falling back to the raw query on any failure.
func (n *NewsCorpus) keywordQueries(ctx context.Context, query string) []string {
	prompt := fmt.Sprintf(`Given the following question, generate a list of keywords that could be used to retrieve information from a database of articles.
The retrieved information will be used to answer the original question.
Stay relevant to the question itself.

The question to create queries based off of is:
%s

Return the output as a list of 3 queries only with no punctuation or numbering. Just have the questions in separate lines.
Example Query: "What is the latest news on climate change?"
Example Output: climate change latest news
Example Query: "Who won the best actor Oscar in 2023?"
Example Output: best actor Oscar 2023`, query)

	response, err := n.provider.Chat(ctx, []models.ChatMessage{
		{Role: "system", Content: "You are an expert in breaking down queries into search terms."},
		{Role: "user", Content: prompt},
	}, n.temperature)
	if err != nil {
		n.logger.Printf("keyword generation failed, using raw query: %v", err)
		return []string{query}
	}

	var queries []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			queries = append(queries, line)
		}
	}
	if len(queries) == 0 {
		return []string{query}
	}
	if len(queries) > 3 {
		queries = queries[:3]
	}
	return queries
}

// searchCached consults the Redis article cache before hitting the API.
// Cache failures degrade to a direct fetch.
func (n *NewsCorpus) searchCached(ctx context.Context, keyword string) ([]eventregistry.Article, error) {
	key := "news:articles:" + keyword
	if n.rdb != nil {
		if raw, err := n.rdb.Get(ctx, key).Result(); err == nil {
			var cached []eventregistry.Article
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	articles, err := n.api.SearchArticles(ctx, keyword, n.maxArticles)
	if err != nil {
		return nil, err
	}

	if n.rdb != nil {
		if raw, err := json.Marshal(articles); err == nil {
			if err := n.rdb.Set(ctx, key, raw, n.cacheTTL).Err(); err != nil {
				n.logger.Printf("failed to cache articles for %q: %v", keyword, err)
			}
		}
	}
	return articles, nil
}

// chunkArticle splits an article body into fixed-size sentence groups,
// re-embeds each group and scores it against the query embedding.
func (n *NewsCorpus) chunkArticle(ctx context.Context, article eventregistry.Article, queryEmbedding []float32) ([]models.ContextItem, error) {
	texts := SplitSentenceGroups(article.Body, n.sentencesPerChunk)
	if len(texts) == 0 {
		return nil, nil
	}

	vecs, err := n.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed article chunks: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d chunks", len(vecs), len(texts))
	}

	items := make([]models.ContextItem, 0, len(texts))
	for i, text := range texts {
		similarity := vector.Cosine(vecs[i], queryEmbedding)
		items = append(items, models.ContextItem{
			Chunk: models.Chunk{
				ID:        fmt.Sprintf("%s#%d", article.URI, i),
				Domain:    models.DomainNews,
				Text:      text,
				Embedding: vecs[i],
				News: &models.NewsMeta{
					Title: article.Title,
					Date:  article.Date,
					URI:   article.URI,
					URL:   article.URL,
				},
			},
			Distance: similarity,
			Metric:   similarity,
		})
	}
	return items, nil
}

// SplitSentenceGroups splits text into groups of sentencesPerChunk
// sentences, terminating each group with a period.
func SplitSentenceGroups(text string, sentencesPerChunk int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	sentences := strings.Split(text, ". ")
	var groups []string
	for i := 0; i < len(sentences); i += sentencesPerChunk {
		end := i + sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunk := strings.Join(sentences[i:end], ". ")
		if chunk != "" && !strings.HasSuffix(chunk, ".") {
			chunk += "."
		}
		groups = append(groups, chunk)
	}
	return groups
}

// dedupeByURI drops repeated articles. Articles without a URI cannot be
// deduplicated and are kept unconditionally.
func dedupeByURI(articles []eventregistry.Article) []eventregistry.Article {
	seen := make(map[string]struct{}, len(articles))
	out := articles[:0]
	for _, a := range articles {
		if a.URI == "" {
			out = append(out, a)
			continue
		}
		if _, ok := seen[a.URI]; ok {
			continue
		}
		seen[a.URI] = struct{}{}
		out = append(out, a)
	}
	return out
}
