package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the query-resolution pipeline.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	NER       NERConfig       `mapstructure:"ner"`
	News      NewsConfig      `mapstructure:"news"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Graphs    GraphsConfig    `mapstructure:"graphs"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig selects and configures the external completion service.
type LLMConfig struct {
	Provider    string         `mapstructure:"provider"` // openrouter, groq
	OpenRouter  ProviderConfig `mapstructure:"openrouter"`
	Groq        ProviderConfig `mapstructure:"groq"`
	Temperature float64        `mapstructure:"temperature"`
	Timeout     time.Duration  `mapstructure:"timeout"`
}

// ProviderConfig is a single chat completion endpoint.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// EmbeddingConfig points at the embedding model service. The same model and
// dimensionality must have been used to build every index and the cache.
type EmbeddingConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	Dimensions int           `mapstructure:"dimensions"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// NERConfig points at the named-entity extraction service.
type NERConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// NewsConfig contains the news retrieval API settings.
type NewsConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	Endpoint          string        `mapstructure:"endpoint"`
	MaxArticles       int           `mapstructure:"max_articles"`
	SentencesPerChunk int           `mapstructure:"sentences_per_chunk"`
	Timeout           time.Duration `mapstructure:"timeout"`
	ArticleCacheTTL   time.Duration `mapstructure:"article_cache_ttl"`
}

// RetrievalConfig contains ranking and cache thresholds.
type RetrievalConfig struct {
	GraphK         int     `mapstructure:"graph_k"`         // k for graph-reranked corpora
	CacheK         int     `mapstructure:"cache_k"`         // k for cache lookups
	CacheThreshold float64 `mapstructure:"cache_threshold"` // semantic cache similarity threshold
	TopContext     int     `mapstructure:"top_context"`     // fused context size
}

// GraphsConfig points at the per-corpus knowledge graph files.
type GraphsConfig struct {
	Bills    string `mapstructure:"bills"`
	Orders   string `mapstructure:"orders"`
	Opinions string `mapstructure:"opinions"`
}

// StorageConfig contains storage and persistence settings.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings.
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DSN builds a connection string from the configured parts.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("legalai")
	viper.SetConfigType("json")
	if path != "" {
		viper.AddConfigPath(path)
	}
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("LEGALAI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Config file is optional - defaults plus env are enough to run.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	overrideFromEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "120s")

	viper.SetDefault("server.address", ":3000")

	viper.SetDefault("llm.provider", "openrouter")
	viper.SetDefault("llm.openrouter.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("llm.openrouter.model", "tngtech/deepseek-r1t-chimera:free")
	viper.SetDefault("llm.groq.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("llm.groq.model", "llama-3.3-70b-versatile")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.timeout", "120s")

	viper.SetDefault("embedding.base_url", "http://localhost:8080")
	viper.SetDefault("embedding.model", "all-MiniLM-L6-v2")
	viper.SetDefault("embedding.dimensions", 384)
	viper.SetDefault("embedding.timeout", "30s")

	viper.SetDefault("ner.base_url", "http://localhost:8081")
	viper.SetDefault("ner.timeout", "30s")

	viper.SetDefault("news.endpoint", "https://eventregistry.org/api/v1/article/getArticles")
	viper.SetDefault("news.max_articles", 2)
	viper.SetDefault("news.sentences_per_chunk", 5)
	viper.SetDefault("news.timeout", "30s")
	viper.SetDefault("news.article_cache_ttl", "1h")

	viper.SetDefault("retrieval.graph_k", 15)
	viper.SetDefault("retrieval.cache_k", 5)
	viper.SetDefault("retrieval.cache_threshold", 0.85)
	viper.SetDefault("retrieval.top_context", 5)

	viper.SetDefault("graphs.bills", "assets/bills.graph.json")
	viper.SetDefault("graphs.orders", "assets/orders.graph.json")
	viper.SetDefault("graphs.opinions", "assets/opinions.graph.json")

	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", 5432)
	viper.SetDefault("storage.postgres.sslmode", "disable")
	viper.SetDefault("storage.postgres.timeout", "5s")
	viper.SetDefault("storage.redis.host", "")
	viper.SetDefault("storage.redis.port", 6379)
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.redis.timeout", "5s")
}

// overrideFromEnv overrides configuration with well-known environment variables.
func overrideFromEnv() {
	if apiKey := os.Getenv("OPENROUTER_API_KEY"); apiKey != "" {
		viper.Set("llm.openrouter.api_key", apiKey)
	}
	if apiKey := os.Getenv("GROQ_API_KEY"); apiKey != "" {
		viper.Set("llm.groq.api_key", apiKey)
	}
	if apiKey := os.Getenv("NEWS_API_KEY"); apiKey != "" {
		viper.Set("news.api_key", apiKey)
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		viper.Set("storage.postgres.url", url)
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		viper.Set("storage.redis.host", host)
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			viper.Set("storage.redis.port", p)
		}
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		viper.Set("storage.redis.password", password)
	}
}

func validateConfig(config *Config) error {
	switch config.LLM.Provider {
	case "openrouter", "groq":
	default:
		return fmt.Errorf("unsupported llm provider %q", config.LLM.Provider)
	}
	if config.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be > 0")
	}
	if config.Retrieval.CacheThreshold < 0 {
		return fmt.Errorf("retrieval.cache_threshold must be >= 0")
	}
	if config.Retrieval.GraphK <= 0 || config.Retrieval.CacheK <= 0 || config.Retrieval.TopContext <= 0 {
		return fmt.Errorf("retrieval k values must be > 0")
	}
	return nil
}
