package embedder

import (
	"fmt"
	"os"
	"strings"
)

// EnvProvider selects the embedding provider explicitly.
const EnvProvider = "CODECTX_EMBEDDING_PROVIDER"

// Config holds embedder construction parameters.
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	CacheSize  int
	RetryCount int
}

// New creates a provider from explicit configuration. An empty provider
// name falls back to environment detection.
func New(cfg Config) (Client, error) {
	cache := NewCache(cfg.CacheSize)

	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = DetectProvider()
	}

	switch provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cache, cfg.RetryCount)
	case ProviderJina:
		return NewJinaProvider(cfg.APIKey, cfg.Model, cache, cfg.RetryCount)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}

// NewFromEnv creates a provider from the environment alone.
func NewFromEnv() (Client, error) {
	return New(Config{})
}

// DetectProvider returns the provider the environment selects: an explicit
// CODECTX_EMBEDDING_PROVIDER wins, then available API keys, then local.
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}
	return ProviderLocal
}
