package embedder

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const (
	ProviderOpenAI     = "openai"
	DefaultOpenAIModel = "text-embedding-3-small"
	OpenAIDimensions   = 1536

	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// openaiModelDimensions maps supported models to their vector sizes.
var openaiModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIProvider implements Client over the OpenAI embeddings API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	dims   int
	cache  *Cache
	retry  RetryConfig
}

// NewOpenAIProvider creates an OpenAI embedding client. An empty apiKey
// falls back to the OPENAI_API_KEY environment variable; an empty model
// selects text-embedding-3-small.
func NewOpenAIProvider(apiKey, model string, cache *Cache, retries int) (*OpenAIProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	dims, ok := openaiModelDimensions[model]
	if !ok {
		return nil, fmt.Errorf("%w: unknown openai model %s", ErrUnsupportedProvider, model)
	}

	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  model,
		dims:   dims,
		cache:  cache,
		retry:  retryConfigFor(retries),
	}, nil
}

func (o *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	return embedCached(ctx, o.cache, texts, func(ctx context.Context, missing []string) ([][]float32, error) {
		vectors, err := retryWithBackoff(ctx, o.retry, func() ([][]float32, error) {
			return o.callAPI(ctx, missing)
		})
		if err != nil {
			return nil, fmt.Errorf("%w after %d attempts: %v", ErrProviderFailed, o.retry.MaxRetries, err)
		}
		return vectors, nil
	})
}

func (o *OpenAIProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(o.model),
	})
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = data.Embedding
	}
	return vectors, nil
}

func (o *OpenAIProvider) ProviderName() string { return ProviderOpenAI }

func (o *OpenAIProvider) Dimensions() int { return o.dims }

func (o *OpenAIProvider) Close() error { return nil }
