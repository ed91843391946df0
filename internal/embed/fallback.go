package embed

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
)

// FallbackDimensions is the vector size produced by the local fallback,
// matching the all-MiniLM family so stored vectors stay comparable.
const FallbackDimensions = 384

// FallbackEmbedder generates deterministic pseudo-embeddings without any
// external service. The same text always yields the same vector, so
// similarity search over fallback vectors is stable across runs even though
// the vectors carry no semantic signal.
type FallbackEmbedder struct {
	dims int
}

// NewFallback creates a fallback embedder producing vectors of dims size.
func NewFallback(dims int) *FallbackEmbedder {
	if dims <= 0 {
		dims = FallbackDimensions
	}
	return &FallbackEmbedder{dims: dims}
}

// Embed returns a unit-length vector seeded by a hash of the text.
func (f *FallbackEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := int64(h.Sum64() % 10000)

	rng := rand.New(rand.NewSource(seed))
	vec := make([]float64, f.dims)
	var norm float64
	for i := range vec {
		vec[i] = rng.NormFloat64()
		norm += vec[i] * vec[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, f.dims)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// EmbedBatch embeds each text independently.
func (f *FallbackEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// Dimensions returns the configured vector size.
func (f *FallbackEmbedder) Dimensions() int {
	return f.dims
}
