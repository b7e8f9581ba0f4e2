// Package routes exposes the registry's read surface over HTTP. Mutating
// operations stay on the transaction path; this API only serves queries.
package routes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"channeld/native/assets"
	"channeld/native/channel"
)

// Config wires the router to the state it reads from.
type Config struct {
	Registry *channel.Registry
	Store    *assets.Store
	// Network is echoed by the health endpoint.
	Network string
	// MetricsHandler, when set, is mounted at /metrics.
	MetricsHandler http.Handler
}

// New assembles the query router.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"network": cfg.Network,
		})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	qr := &queryRoutes{registry: cfg.Registry, store: cfg.Store}
	r.Route("/v1", qr.mount)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
