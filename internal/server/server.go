// Package server exposes the query-resolution pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/codertg2/legalai/config"
	"github.com/codertg2/legalai/internal/cache"
	"github.com/codertg2/legalai/internal/classifier"
	"github.com/codertg2/legalai/internal/corpus"
	"github.com/codertg2/legalai/internal/engine"
	"github.com/codertg2/legalai/internal/evaluator"
	"github.com/codertg2/legalai/internal/graph"
	"github.com/codertg2/legalai/internal/ner"
	"github.com/codertg2/legalai/internal/rerank"
	"github.com/codertg2/legalai/internal/store"
	"github.com/codertg2/legalai/internal/verify"
	"github.com/codertg2/legalai/models"
	"github.com/codertg2/legalai/news/eventregistry"
	"github.com/codertg2/legalai/provider"
	"github.com/codertg2/legalai/session/inmemory"
	"github.com/codertg2/legalai/tools/embedding"
)

// Run builds the full pipeline from configuration and serves it until the
// listener fails.
func Run(cfgPath, addr string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Session-ID"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()
	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
		baseLogger.Printf("migrations not applied: %v", err)
	}

	eng, err := BuildEngine(ctx, cfg, dsn)
	if err != nil {
		return err
	}

	h := &Handler{Engine: eng, Logger: baseLogger}
	h.Register(e.Group("/api"))

	if addr == "" {
		addr = cfg.Server.Address
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// BuildEngine wires every pipeline collaborator from configuration.
func BuildEngine(ctx context.Context, cfg *config.Config, dsn string) (*engine.Engine, error) {
	st, err := store.NewWithDSN(ctx, dsn, cfg.Embedding.Dimensions)
	if err != nil {
		return nil, err
	}

	prov, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}

	embedder := embedding.NewClient(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions, cfg.Embedding.Timeout)
	extractor := ner.NewClient(cfg.NER.BaseURL, cfg.NER.Timeout)

	corpora, err := buildCorpora(cfg, st, prov, embedder, extractor)
	if err != nil {
		return nil, err
	}

	drafter := evaluator.NewDrafter(prov, cfg.LLM.Temperature)
	return engine.New(engine.Params{
		Classifier:     classifier.New(prov, cfg.LLM.Temperature, nil),
		Cache:          cache.New(st.DB, nil),
		Embedder:       embedder,
		Provider:       prov,
		Corpora:        corpora,
		Evaluator:      evaluator.New(embedder, drafter, nil),
		Verifier:       verify.New(prov, embedder, cfg.LLM.Temperature, nil),
		Sessions:       inmemory.NewInMemorySessionStore(),
		CacheThreshold: cfg.Retrieval.CacheThreshold,
		TopContext:     cfg.Retrieval.TopContext,
		Temperature:    cfg.LLM.Temperature,
	}), nil
}

// buildCorpora assembles the three graph-reranked vector corpora and the
// news corpus.
func buildCorpora(cfg *config.Config, st *store.Store, prov provider.Provider, embedder *embedding.Client, extractor ner.Extractor) ([]corpus.Searcher, error) {
	graphPaths := map[models.Domain]string{
		models.DomainBills:    cfg.Graphs.Bills,
		models.DomainOrders:   cfg.Graphs.Orders,
		models.DomainOpinions: cfg.Graphs.Opinions,
	}

	var corpora []corpus.Searcher
	for _, domain := range []models.Domain{models.DomainBills, models.DomainOrders, models.DomainOpinions} {
		g, err := graph.Load(graphPaths[domain])
		if err != nil {
			return nil, fmt.Errorf("failed to load knowledge graph for %s: %w", domain, err)
		}
		reranker := rerank.New(g, extractor, ner.LabelsFor(domain), nil)
		vc := corpus.NewVectorCorpus(domain, st, cfg.Retrieval.GraphK)
		corpora = append(corpora, corpus.NewGraphReranked(vc, reranker, nil))
	}

	var rdb *redis.Client
	if cfg.Storage.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
	}
	news := eventregistry.NewClient(cfg.News.APIKey, cfg.News.Endpoint, cfg.News.Timeout)
	corpora = append(corpora, corpus.NewNewsCorpus(
		news, prov, embedder, rdb,
		cfg.News.MaxArticles, cfg.News.SentencesPerChunk,
		cfg.News.ArticleCacheTTL, cfg.LLM.Temperature, nil,
	))

	return corpora, nil
}
