package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvloznov/taxease/internal/api/middleware"
	"github.com/dvloznov/taxease/internal/jobs"
)

// JobsHandler handles index rebuild and job status endpoints.
type JobsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	source    string
	log       zerolog.Logger
}

// NewJobsHandler creates a new jobs handler. source names the corpus
// location recorded on rebuild jobs.
func NewJobsHandler(publisher jobs.Publisher, store jobs.JobStore, source string, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		publisher: publisher,
		store:     store,
		source:    source,
		log:       log,
	}
}

// RebuildIndex handles POST /api/index/rebuild
func (h *JobsHandler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	job := &jobs.RebuildIndexJob{
		Source:      h.source,
		RequestedBy: r.URL.Query().Get("session_id"),
	}
	if err := h.publisher.PublishRebuildIndex(r.Context(), job); err != nil {
		if errors.Is(err, jobs.ErrQueueClosed) {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Job queue is not accepting work")
			return
		}
		h.log.Error().Err(err).Msg("Failed to enqueue index rebuild")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue index rebuild")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Msg("Index rebuild enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, job)
}

// Jobs handles GET /api/jobs?id= for one job, or lists jobs filtered by
// status, limit and offset.
func (h *JobsHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	if id := query.Get("id"); id != "" {
		job, err := h.store.GetJob(ctx, id)
		if err != nil {
			if errors.Is(err, jobs.ErrJobNotFound) {
				middleware.WriteError(w, http.StatusNotFound, "Job not found")
				return
			}
			h.log.Error().Err(err).Str("job_id", id).Msg("Failed to get job")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, job)
		return
	}

	filter := jobs.JobFilter{Status: jobs.JobStatus(query.Get("status"))}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	list, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"jobs":  list,
		"count": len(list),
	})
}
