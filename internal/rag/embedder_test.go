package rag

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dvloznov/taxease/internal/ollama"
)

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(32)
	vecs, err := e.Embed(context.Background(), []string{"Home Loan", "home loan", ""})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vecs) != 3 || len(vecs[0]) != 32 {
		t.Fatalf("Embed() shape = %d x %d, want 3 x 32", len(vecs), len(vecs[0]))
	}
	if cosineDistance(vecs[0], vecs[1]) > 1e-9 {
		t.Error("identical text after case folding should have zero distance")
	}
	if vectorNorm(vecs[2]) != 0 {
		t.Error("empty text should embed to the zero vector")
	}
	if e.Model() != "hash-32" {
		t.Errorf("Model() = %q", e.Model())
	}
}

func TestOllamaEmbedder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding":[1,0,0]}`))
	}))
	defer server.Close()

	e := NewOllamaEmbedder(ollama.NewClient(server.URL, time.Second), "nomic-embed-text")
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vecs) != 2 {
		t.Errorf("got %d vectors, want 2", len(vecs))
	}
}

func TestOllamaEmbedder_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no model", http.StatusNotFound)
	}))
	defer server.Close()

	e := NewOllamaEmbedder(ollama.NewClient(server.URL, time.Second, ollama.WithRetry(1, time.Millisecond)), "missing")
	if _, err := e.Embed(context.Background(), []string{"a"}); !errors.Is(err, ErrEmbeddingProvider) {
		t.Errorf("Embed() error = %v, want ErrEmbeddingProvider", err)
	}
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2}, []float64{1, 2}, 0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, 2},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineDistance(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}
