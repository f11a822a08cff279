package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/taxease/internal/domain"
	"github.com/rs/zerolog"
)

// Request is one generation call through the chain.
type Request struct {
	Prompt string
	System string
	// Question is the raw user question, used by the scripted fallback.
	Question string
	Summary  *domain.Summary
}

// Reply is the chain output. Scripted is set when no provider answered.
type Reply struct {
	Text     string
	Provider string
	Scripted bool
}

// Chain tries providers in order and falls back to the scripted reply when
// all of them are unavailable.
type Chain struct {
	providers []Provider
	scripted  ScriptedFunc
	log       zerolog.Logger
}

// NewChain creates a chain. scripted may be nil, in which case Generate
// fails with ErrProviderUnavailable when no provider answers.
func NewChain(log zerolog.Logger, scripted ScriptedFunc, providers ...Provider) *Chain {
	return &Chain{providers: providers, scripted: scripted, log: log}
}

// HasProviders reports whether at least one real provider is configured.
func (c *Chain) HasProviders() bool {
	return len(c.providers) > 0
}

// Providers returns the provider names in the order they are tried.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Generate returns the first successful provider reply.
func (c *Chain) Generate(ctx context.Context, req Request) (Reply, error) {
	var errs []error
	for _, p := range c.providers {
		text, err := p.Generate(ctx, req.Prompt, req.System)
		if err == nil {
			return Reply{Text: text, Provider: p.Name()}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Reply{}, fmt.Errorf("Generate: %w", ctxErr)
		}
		c.log.Warn().Err(err).Str("provider", p.Name()).Msg("LLM provider failed, trying next")
		errs = append(errs, err)
	}

	if c.scripted != nil {
		question := req.Question
		if question == "" {
			question = req.Prompt
		}
		return Reply{Text: c.scripted(question, req.Summary), Provider: "scripted", Scripted: true}, nil
	}

	if len(errs) == 0 {
		return Reply{}, fmt.Errorf("Generate: no provider configured: %w", ErrProviderUnavailable)
	}
	return Reply{}, fmt.Errorf("Generate: all providers failed: %w", errors.Join(errs...))
}
