package rag

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiEmbeddingModel is used when no model is configured.
const DefaultGeminiEmbeddingModel = "text-embedding-004"

// geminiBatchSize bounds the number of texts sent per EmbedContent call.
const geminiBatchSize = 100

// GeminiEmbedder embeds texts with the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates an embedder using an existing genai client.
func NewGeminiEmbedder(client *genai.Client, model string) *GeminiEmbedder {
	if model == "" {
		model = DefaultGeminiEmbeddingModel
	}
	return &GeminiEmbedder{client: client, model: model}
}

func (e *GeminiEmbedder) Model() string {
	return "gemini/" + e.model
}

func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += geminiBatchSize {
		end := min(start+geminiBatchSize, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: text}},
			})
		}

		resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
		if err != nil {
			return nil, providerError(fmt.Errorf("GeminiEmbedder.Embed: calling EmbedContent: %w", err))
		}
		if len(resp.Embeddings) != end-start {
			return nil, providerError(fmt.Errorf("GeminiEmbedder.Embed: got %d embeddings for %d texts", len(resp.Embeddings), end-start))
		}

		for _, emb := range resp.Embeddings {
			vec := make([]float64, len(emb.Values))
			for i, v := range emb.Values {
				vec[i] = float64(v)
			}
			out = append(out, vec)
		}
	}
	return out, nil
}
