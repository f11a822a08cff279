package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/dvloznov/taxease/internal/ollama"
)

// DefaultOllamaModel is used when no model is configured.
const DefaultOllamaModel = "llama3"

// Ollama generates replies with a local Ollama server.
type Ollama struct {
	client *ollama.Client
	model  string
}

// NewOllama creates a provider for model on client.
func NewOllama(client *ollama.Client, model string) *Ollama {
	if model == "" {
		model = DefaultOllamaModel
	}
	return &Ollama{client: client, model: model}
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Generate(ctx context.Context, prompt, system string) (string, error) {
	text, err := o.client.Generate(ctx, o.model, prompt, system)
	if err != nil {
		return "", unavailable(o.Name(), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", unavailable(o.Name(), errors.New("empty response"))
	}
	return text, nil
}
