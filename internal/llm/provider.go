// Package llm wraps the text-generation backends behind one Provider
// interface and chains them with a scripted fallback.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrProviderUnavailable is wrapped by every provider failure.
var ErrProviderUnavailable = errors.New("llm provider unavailable")

// DefaultMaxTokens bounds each reply.
const DefaultMaxTokens = 800

// Provider generates a reply for prompt under an optional system prompt.
// The reply is returned as-is; callers never interpret it.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt, system string) (string, error)
}

func unavailable(name string, err error) error {
	return fmt.Errorf("%s: %w: %w", name, ErrProviderUnavailable, err)
}
