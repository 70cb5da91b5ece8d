package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"overseastax/pkg/overseastax"
)

// NewRouter builds the HTTP API router.
func NewRouter(core *overseastax.Core) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLoggingMiddleware(core.Logger()))
	r.Use(recoveryLoggingMiddleware(core.Logger()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	h := &handler{core: core}

	r.Get("/api/health", h.health)

	// Exchange rates
	r.Get("/api/rates", h.getRates)
	r.Put("/api/rates", h.setRateOverride)
	r.Delete("/api/rates/{year}", h.deleteRateOverride)

	// Tax calculation
	r.Post("/api/calculate", h.calculate)
	r.Post("/api/export/csv", h.exportCSV)
	r.Post("/api/report", h.renderReport)

	// Saved runs
	r.Get("/api/runs", h.listRuns)
	r.Get("/api/runs/{id}", h.getRun)
	r.Delete("/api/runs/{id}", h.deleteRun)

	// AI
	r.Get("/api/ai-settings", h.getAISettings)
	r.Put("/api/ai-settings", h.setAISettings)
	r.Post("/api/explain", h.explain)

	return r
}

type handler struct {
	core *overseastax.Core
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	noteErrorMessage(w, message)
	writeJSON(w, status, map[string]string{"error": message})
}

// noteErrorMessage records the error on the logging writer so the request
// log line carries it.
func noteErrorMessage(w http.ResponseWriter, message string) {
	if setter, ok := w.(interface{ SetErrorMessage(string) }); ok {
		setter.SetErrorMessage(message)
	}
}
