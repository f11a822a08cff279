package rag

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// ErrEmbeddingProvider is wrapped by every error caused by the embedding
// backend. Chat callers treat it as non-fatal and continue without context.
var ErrEmbeddingProvider = errors.New("embedding provider unavailable")

// Embedder turns texts into fixed-length vectors. Implementations must return
// one vector per input, in input order, with the same dimensionality for
// every call, and be deterministic for identical input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	// Model identifies the embedding space; a persisted index built under a
	// different model is not reused.
	Model() string
}

func providerError(err error) error {
	if err == nil || errors.Is(err, ErrEmbeddingProvider) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrEmbeddingProvider, err)
}

// HashEmbedder is an offline embedder that hashes lower-cased word tokens
// into a fixed number of buckets and L2-normalizes the counts. It needs no
// network and is the default when no embedding service is configured.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a HashEmbedder with dim buckets (256 when dim <= 0).
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Model() string {
	return fmt.Sprintf("hash-%d", h.dim)
}

func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, providerError(err)
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *HashEmbedder) vector(text string) []float64 {
	v := make([]float64, h.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		f := fnv.New32a()
		f.Write([]byte(w))
		v[int(f.Sum32()%uint32(h.dim))]++
	}
	norm := vectorNorm(v)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = v[i] / norm
	}
	return v
}
