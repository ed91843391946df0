// Package embed turns invoice text into embedding vectors.
//
// Vectors come from an OpenAI-compatible embeddings API when one is
// configured and reachable. Initialization is time-boxed: if the service does
// not answer a probe within the deadline, the package degrades to a
// deterministic local fallback so ingestion never blocks on a model server.
package embed

import (
	"context"
	"log/slog"
	"time"
)

// Embedder generates embedding vectors from text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// DefaultInitTimeout bounds how long service probing may take before the
// fallback embedder is used.
const DefaultInitTimeout = 10 * time.Second

// New returns an Embedder for the given configuration. A nil config skips
// the service entirely. Otherwise the service is probed once under
// initTimeout; on any failure the deterministic fallback is returned, and
// the degradation is logged, never surfaced as an error.
func New(config *Config, initTimeout time.Duration) Embedder {
	if initTimeout <= 0 {
		initTimeout = DefaultInitTimeout
	}
	if config == nil {
		return NewFallback(FallbackDimensions)
	}

	client, err := NewClient(config)
	if err != nil {
		slog.Warn("embedding service unavailable, using local fallback", "error", err)
		return NewFallback(FallbackDimensions)
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	type probeResult struct {
		dims int
		err  error
	}
	ch := make(chan probeResult, 1)
	go func() {
		vec, err := client.Embed(ctx, "connection probe")
		ch <- probeResult{dims: len(vec), err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			slog.Warn("embedding service probe failed, using local fallback",
				"provider", config.Provider, "error", res.err)
			return NewFallback(FallbackDimensions)
		}
		slog.Info("embedding service ready",
			"provider", config.Provider, "model", config.Model, "dimensions", res.dims)
		return client
	case <-ctx.Done():
		slog.Warn("embedding service probe timed out, using local fallback",
			"provider", config.Provider, "timeout", initTimeout)
		return NewFallback(FallbackDimensions)
	}
}
