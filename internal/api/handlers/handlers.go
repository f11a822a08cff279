// Package handlers implements the TaxEase HTTP endpoints.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/taxease/internal/api/middleware"
	"github.com/dvloznov/taxease/internal/domain"
	"github.com/dvloznov/taxease/internal/pipeline"
	"github.com/dvloznov/taxease/internal/session"
	"github.com/dvloznov/taxease/internal/statement"
)

// MaxUploadBytes caps the size of an uploaded statement.
const MaxUploadBytes = 10 << 20

// Uploader runs an upload through the pipeline.
type Uploader interface {
	Run(ctx context.Context, state *pipeline.PipelineState) error
}

// SummaryReader loads the summary of a session.
type SummaryReader interface {
	GetSummary(ctx context.Context, sessionID string) (*domain.Summary, error)
}

// UploadResponse is the parsed summary plus the session it was stored under.
type UploadResponse struct {
	domain.Summary
	SessionID string   `json:"session_id"`
	Warnings  []string `json:"warnings,omitempty"`
}

// StatementsHandler handles statement upload and summary endpoints.
type StatementsHandler struct {
	uploader Uploader
	store    SummaryReader
	log      zerolog.Logger
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(uploader Uploader, store SummaryReader, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		uploader: uploader,
		store:    store,
		log:      log,
	}
}

// Upload handles POST /api/upload (multipart "file", optional "session_id").
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		middleware.WriteError(w, http.StatusBadRequest, "Only CSV files are supported")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	state := &pipeline.PipelineState{
		SessionID: r.FormValue("session_id"),
		Filename:  header.Filename,
		Raw:       data,
	}
	if err := h.uploader.Run(r.Context(), state); err != nil {
		var perr *statement.ParseError
		if errors.As(err, &perr) {
			middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse CSV: %s", perr.Error()))
			return
		}
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to process upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}

	h.log.Info().
		Str("session_id", state.SessionID).
		Str("filename", header.Filename).
		Int("transactions", len(state.Summary.Transactions)).
		Msg("Statement uploaded")

	middleware.WriteJSON(w, http.StatusOK, UploadResponse{
		Summary:   *state.Summary,
		SessionID: state.SessionID,
		Warnings:  state.Warnings,
	})
}

// Summary handles GET /api/summary?session_id=
func (h *StatementsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	summary, err := h.store.GetSummary(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Summary not found for session")
			return
		}
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load summary")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, summary)
}
