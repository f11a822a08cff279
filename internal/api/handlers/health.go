package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/taxease/internal/api/middleware"
)

// IndexStats reports the size of the published knowledge index.
type IndexStats interface {
	Len() int
}

// HealthHandler reports liveness and what the service is running with.
type HealthHandler struct {
	index     IndexStats
	providers []string
	store     string
}

// NewHealthHandler creates a health handler. index may be nil.
func NewHealthHandler(index IndexStats, providers []string, store string) *HealthHandler {
	return &HealthHandler{index: index, providers: providers, store: store}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	chunks := 0
	if h.index != nil {
		chunks = h.index.Len()
	}
	providers := h.providers
	if len(providers) == 0 {
		providers = []string{"scripted"}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"time":         time.Now().Format(time.RFC3339),
		"store":        h.store,
		"index_chunks": chunks,
		"providers":    providers,
	})
}
