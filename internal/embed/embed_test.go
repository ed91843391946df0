package embed

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFallbackDeterminism(t *testing.T) {
	f := NewFallback(FallbackDimensions)
	ctx := context.Background()

	a, err := f.Embed(ctx, "Invoice No: INV-001 ALR Music Ltd")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := f.Embed(ctx, "Invoice No: INV-001 ALR Music Ltd")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(a) != FallbackDimensions {
		t.Fatalf("got %d dims, want %d", len(a), FallbackDimensions)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("dim %d differs between identical texts: %v vs %v", i, a[i], b[i])
		}
	}

	c, err := f.Embed(ctx, "completely different text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestFallbackUnitNorm(t *testing.T) {
	f := NewFallback(64)
	vec, err := f.Embed(context.Background(), "some invoice text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("vector norm = %v, want 1.0", norm)
	}
}

func TestParseEmbedFlag(t *testing.T) {
	tests := []struct {
		flag         string
		wantProvider string
		wantModel    string
		wantErr      bool
	}{
		{"ollama/nomic-embed-text", "ollama", "nomic-embed-text", false},
		{"openai/text-embedding-3-small", "openai", "text-embedding-3-small", false},
		{"ollama/org/model:tag", "ollama", "org/model:tag", false},
		{"noslash", "", "", true},
		{"/model", "", "", true},
		{"ollama/", "", "", true},
		{"unknown/model", "", "", true},
	}
	for _, tt := range tests {
		cfg, err := ParseEmbedFlag(tt.flag)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseEmbedFlag(%q) expected error", tt.flag)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseEmbedFlag(%q): %v", tt.flag, err)
			continue
		}
		if cfg.Provider != tt.wantProvider || cfg.Model != tt.wantModel {
			t.Errorf("ParseEmbedFlag(%q) = %s/%s, want %s/%s",
				tt.flag, cfg.Provider, cfg.Model, tt.wantProvider, tt.wantModel)
		}
	}
}

func TestClientEmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2],"index":0},{"embedding":[0.3,0.4],"index":1}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(&Config{
		Provider: "ollama", Model: "test-model", Endpoint: srv.URL,
		MaxRetries: 0, TimeoutSecs: 5,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	vecs, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 2 {
		t.Fatalf("got %d vectors, want 2 of 2 dims", len(vecs))
	}
	if vecs[1][0] != 0.3 {
		t.Errorf("second vector = %v, want index-mapped result", vecs[1])
	}
	if client.Dimensions() != 2 {
		t.Errorf("Dimensions = %d, want 2", client.Dimensions())
	}
}

func TestNewFallsBackOnUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no model loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := &Config{
		Provider: "ollama", Model: "test-model", Endpoint: srv.URL,
		MaxRetries: 0, TimeoutSecs: 1,
	}
	e := New(cfg, 2*time.Second)
	if _, ok := e.(*FallbackEmbedder); !ok {
		t.Fatalf("got %T, want fallback when probe fails", e)
	}
	if e.Dimensions() != FallbackDimensions {
		t.Errorf("Dimensions = %d, want %d", e.Dimensions(), FallbackDimensions)
	}
}

func TestNewNilConfigUsesFallback(t *testing.T) {
	e := New(nil, time.Second)
	if _, ok := e.(*FallbackEmbedder); !ok {
		t.Fatalf("got %T, want fallback for nil config", e)
	}
}
