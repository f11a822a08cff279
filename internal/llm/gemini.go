package llm

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini generates replies with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a provider using an existing genai client.
func NewGemini(client *genai.Client, model string) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Generate(ctx context.Context, prompt, system string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	cfg := &genai.GenerateContentConfig{MaxOutputTokens: DefaultMaxTokens}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", unavailable(g.Name(), err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", unavailable(g.Name(), errors.New("empty response"))
	}
	return text, nil
}
