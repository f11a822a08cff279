package rag

import (
	"context"
	"fmt"

	"github.com/dvloznov/taxease/internal/ollama"
)

// OllamaEmbedder embeds texts through a local Ollama server, one request per
// text.
type OllamaEmbedder struct {
	client *ollama.Client
	model  string
}

// NewOllamaEmbedder creates an embedder for model on client.
func NewOllamaEmbedder(client *ollama.Client, model string) *OllamaEmbedder {
	return &OllamaEmbedder{client: client, model: model}
}

func (e *OllamaEmbedder) Model() string {
	return "ollama/" + e.model
}

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for i, text := range texts {
		vec, err := e.client.Embed(ctx, e.model, text)
		if err != nil {
			return nil, providerError(fmt.Errorf("OllamaEmbedder.Embed: text %d: %w", i, err))
		}
		out = append(out, vec)
	}
	return out, nil
}
