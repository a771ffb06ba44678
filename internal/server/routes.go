package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /project", h.ProcessVideo)
	mux.HandleFunc("GET /timeline", h.GetTimeline)
	mux.HandleFunc("GET /config", h.GetConfig)
	mux.HandleFunc("PUT /config", h.UpdateConfig)
	mux.HandleFunc("POST /analysis", h.RerunAnalysis)
	mux.HandleFunc("GET /waveform", h.GetWaveform)
	mux.HandleFunc("PUT /softness", h.SetSoftness)

	mux.HandleFunc("GET /segments/at", h.SegmentAt)
	mux.HandleFunc("POST /segments/exclude-silence", h.ExcludeSilence)
	mux.HandleFunc("POST /segments/{index}/toggle", h.ToggleSegment)
	mux.HandleFunc("POST /segments/{index}/merge", h.MergeSegments)
	mux.HandleFunc("PUT /segments/{index}/boundary", h.AdjustBoundary)
	mux.HandleFunc("DELETE /segments/{index}", h.RemoveSegment)

	mux.HandleFunc("POST /export", h.Export)

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
