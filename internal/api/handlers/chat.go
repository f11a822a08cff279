package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/dvloznov/taxease/internal/api/middleware"
	"github.com/dvloznov/taxease/internal/chat"
	"github.com/dvloznov/taxease/internal/domain"
	"github.com/dvloznov/taxease/internal/session"
)

const maxChatBody = 64 << 10

// chatRequestSchema describes the POST /api/chat body.
var chatRequestSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"session_id": map[string]any{"type": []string{"string", "null"}},
		"message":    map[string]any{"type": "string", "minLength": 1},
	},
	"required": []string{"message"},
}

// ChatService answers questions and returns conversation history.
type ChatService interface {
	Chat(ctx context.Context, req chat.Request) (chat.Response, error)
	History(ctx context.Context, sessionID string) ([]domain.Message, error)
}

// ChatHandler handles chat endpoints.
type ChatHandler struct {
	svc    ChatService
	schema *gojsonschema.Schema
	log    zerolog.Logger
}

// NewChatHandler compiles the request schema and creates the handler.
func NewChatHandler(svc ChatService, log zerolog.Logger) (*ChatHandler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(chatRequestSchema))
	if err != nil {
		return nil, err
	}
	return &ChatHandler{svc: svc, schema: schema, log: log}, nil
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxChatBody))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg, ok := h.validate(body); !ok {
		middleware.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	var req chat.Request
	if err := json.Unmarshal(body, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.svc.Chat(r.Context(), req)
	switch {
	case err == nil:
		middleware.WriteJSON(w, http.StatusOK, resp)
	case errors.Is(err, chat.ErrEmptyMessage):
		middleware.WriteError(w, http.StatusBadRequest, "Message is required")
	case errors.Is(err, chat.ErrNoProvider):
		h.log.Warn().Err(err).Msg("No language model available")
		middleware.WriteError(w, http.StatusServiceUnavailable, "No language model provider available")
	default:
		h.log.Error().Err(err).Msg("Chat failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate reply")
	}
}

// Messages handles GET /api/messages?session_id=
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	msgs, err := h.svc.History(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Session not found")
			return
		}
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to list messages")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   msgs,
		"count":      len(msgs),
	})
}

func (h *ChatHandler) validate(body []byte) (string, bool) {
	result, err := h.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return "Invalid request body", false
	}
	if result.Valid() {
		return "", true
	}
	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return "Invalid request: " + strings.Join(errs, ", "), false
}
