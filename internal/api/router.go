// Package api assembles the HTTP routes and middleware of the TaxEase
// service.
package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/taxease/internal/api/handlers"
	"github.com/dvloznov/taxease/internal/api/middleware"
)

// Handlers groups the endpoint handlers the router dispatches to.
type Handlers struct {
	Statements *handlers.StatementsHandler
	Chat       *handlers.ChatHandler
	Jobs       *handlers.JobsHandler
	Health     *handlers.HealthHandler
}

// NewRouter registers every route and wraps the mux in the middleware
// chain.
func NewRouter(h Handlers, corsOrigin string, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/upload", method(http.MethodPost, h.Statements.Upload))
	mux.HandleFunc("/api/summary", method(http.MethodGet, h.Statements.Summary))
	mux.HandleFunc("/api/chat", method(http.MethodPost, h.Chat.Chat))
	mux.HandleFunc("/api/messages", method(http.MethodGet, h.Chat.Messages))
	mux.HandleFunc("/api/index/rebuild", method(http.MethodPost, h.Jobs.RebuildIndex))
	mux.HandleFunc("/api/jobs", method(http.MethodGet, h.Jobs.Jobs))
	mux.HandleFunc("/health", method(http.MethodGet, h.Health.Health))

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.CORS(corsOrigin),
	)
}

func method(want string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != want {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		fn(w, r)
	}
}
