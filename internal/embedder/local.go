package embedder

import (
	"context"
	"crypto/sha256"
)

const (
	ProviderLocal   = "local"
	LocalModel      = "local-hash-embeddings"
	LocalDimensions = 384
)

// LocalProvider produces deterministic vectors derived from the content
// hash. It needs no credentials or network and backs tests and offline
// deployments. Identical texts always produce identical vectors.
type LocalProvider struct {
	cache *Cache
}

// NewLocalProvider creates the deterministic local embedder.
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{cache: cache}, nil
}

func (l *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := validateBatch(texts); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return embedCached(ctx, l.cache, texts, func(_ context.Context, missing []string) ([][]float32, error) {
		vectors := make([][]float32, len(missing))
		for i, text := range missing {
			vectors[i] = hashVector(text)
		}
		return vectors, nil
	})
}

// hashVector expands a SHA-256 chain over the full dimensionality and
// normalizes to unit length so cosine scores stay in [-1, 1].
func hashVector(text string) []float32 {
	vec := make([]float32, LocalDimensions)
	sum := sha256.Sum256([]byte(text))

	for i := 0; i < LocalDimensions; {
		for j := 0; j < len(sum) && i < LocalDimensions; j++ {
			vec[i] = float32(sum[j])/127.5 - 1
			i++
		}
		sum = sha256.Sum256(sum[:])
	}

	return NormalizeVector(vec)
}

func (l *LocalProvider) ProviderName() string { return ProviderLocal }

func (l *LocalProvider) Dimensions() int { return LocalDimensions }

func (l *LocalProvider) Close() error { return nil }
