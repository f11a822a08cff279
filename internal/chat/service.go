// Package chat answers user questions about an uploaded statement using the
// knowledge index and the LLM chain.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/taxease/internal/domain"
	"github.com/dvloznov/taxease/internal/llm"
	"github.com/dvloznov/taxease/internal/logger"
	"github.com/dvloznov/taxease/internal/rag"
	"github.com/dvloznov/taxease/internal/session"
)

// ErrNoProvider means no model answered and no scripted fallback exists.
var ErrNoProvider = errors.New("no language model provider available")

// ErrEmptyMessage is returned for a blank question.
var ErrEmptyMessage = errors.New("message must not be empty")

// Retriever finds knowledge chunks for a question.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]rag.Result, error)
}

// Generator produces the reply text.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (llm.Reply, error)
	HasProviders() bool
}

// Options tunes a Service.
type Options struct {
	// TopK is the number of chunks retrieved per question. Defaults to 3.
	TopK int
	// Timeout bounds the model call. Zero means no extra deadline.
	Timeout time.Duration
}

// Request is one user turn.
type Request struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// Response is the assistant turn.
type Response struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
	Provider  string `json:"provider,omitempty"`
}

// Service runs the chat flow against a session store.
type Service struct {
	store     session.Store
	retriever Retriever
	gen       Generator
	opts      Options
	log       zerolog.Logger
}

// NewService builds a Service. retriever may be nil, which disables
// knowledge lookup.
func NewService(store session.Store, retriever Retriever, gen Generator, opts Options, log zerolog.Logger) *Service {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	return &Service{store: store, retriever: retriever, gen: gen, opts: opts, log: log}
}

// Chat records the question, answers it and records the answer.
func (s *Service) Chat(ctx context.Context, req Request) (Response, error) {
	question := strings.TrimSpace(req.Message)
	if question == "" {
		return Response{}, ErrEmptyMessage
	}

	sess, err := s.store.EnsureSession(ctx, req.SessionID)
	if err != nil {
		return Response{}, fmt.Errorf("Chat: ensuring session: %w", err)
	}
	log := logger.WithSession(s.log, sess.ID)

	if _, err := s.store.AppendMessage(ctx, sess.ID, domain.RoleUser, question); err != nil {
		return Response{}, fmt.Errorf("Chat: storing user message: %w", err)
	}

	summary, err := s.store.GetSummary(ctx, sess.ID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			return Response{}, fmt.Errorf("Chat: loading summary: %w", err)
		}
		summary = nil
	}

	results, err := s.retrieve(ctx, question)
	if err != nil {
		if !errors.Is(err, rag.ErrEmbeddingProvider) {
			return Response{}, fmt.Errorf("Chat: retrieving context: %w", err)
		}
		log.Warn().Err(err).Msg("Knowledge retrieval failed, answering without context")
		results = nil
	}
	knowledge := rag.Assemble(results)

	var reply llm.Reply
	if !s.gen.HasProviders() && len(results) > 0 {
		reply = llm.Reply{Text: knowledge, Provider: "context", Scripted: true}
	} else {
		reply, err = s.generate(ctx, llm.Request{
			Prompt:   BuildPrompt(knowledge, summary, question),
			System:   SystemPrompt,
			Question: question,
			Summary:  summary,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Response{}, fmt.Errorf("Chat: %w", ctxErr)
			}
			return Response{}, fmt.Errorf("Chat: %w: %w", ErrNoProvider, err)
		}
	}

	if _, err := s.store.AppendMessage(ctx, sess.ID, domain.RoleAssistant, reply.Text); err != nil {
		return Response{}, fmt.Errorf("Chat: storing assistant message: %w", err)
	}

	log.Info().
		Str("provider", reply.Provider).
		Bool("scripted", reply.Scripted).
		Int("chunks", len(results)).
		Msg("Chat answered")

	return Response{Reply: reply.Text, SessionID: sess.ID, Provider: reply.Provider}, nil
}

// History returns the stored messages of a session in order.
func (s *Service) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	msgs, err := s.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	return msgs, nil
}

func (s *Service) retrieve(ctx context.Context, question string) ([]rag.Result, error) {
	if s.retriever == nil {
		return nil, nil
	}
	return s.retriever.Query(ctx, question, s.opts.TopK)
}

func (s *Service) generate(ctx context.Context, req llm.Request) (llm.Reply, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	return s.gen.Generate(ctx, req)
}
