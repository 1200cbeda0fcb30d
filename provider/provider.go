package provider

import (
	"context"
	"errors"

	"github.com/codertg2/legalai/config"
	"github.com/codertg2/legalai/models"
	groq_provider "github.com/codertg2/legalai/provider/groq"
	openrouter_provider "github.com/codertg2/legalai/provider/openrouter"
)

// Client represents different LLM providers.
type Client string

const (
	OpenRouter Client = "openrouter"
	Groq       Client = "groq"
)

// Provider is the interface the external completion service is consumed
// through. Implementations are non-deterministic and possibly slow; callers
// parse structured output defensively.
type Provider interface {
	Chat(ctx context.Context, messages []models.ChatMessage, temperature float64) (string, error)
}

// NewProvider creates a new LLM client based on the provided configuration.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch Client(cfg.Provider) {
	case OpenRouter:
		if cfg.OpenRouter.APIKey == "" {
			return nil, errors.New("OPENROUTER_API_KEY not set")
		}
		return openrouter_provider.NewClient(cfg.OpenRouter.APIKey, cfg.OpenRouter.BaseURL, cfg.OpenRouter.Model, cfg.Timeout), nil
	case Groq:
		if cfg.Groq.APIKey == "" {
			return nil, errors.New("GROQ_API_KEY not set")
		}
		return groq_provider.NewClient(cfg.Groq.APIKey, cfg.Groq.BaseURL, cfg.Groq.Model, cfg.Timeout), nil
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
