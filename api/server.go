package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"metasearch/metrics"
	"metasearch/query"
	"metasearch/search"
)

// Server exposes the aggregation core over HTTP.
type Server struct {
	service  *search.Service
	registry *metrics.Registry
	port     string
	logger   *zap.Logger
}

// NewServer creates a new API server. registry may be nil, in which
// case /metrics returns an empty object.
func NewServer(service *search.Service, registry *metrics.Registry, port string, logger *zap.Logger) *Server {
	return &Server{
		service:  service,
		registry: registry,
		port:     port,
		logger:   logger,
	}
}

// Handler returns the route table; split out so tests can drive it
// through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/search", s.searchHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", zap.String("port", s.port))
	return http.ListenAndServe(":"+s.port, s.Handler())
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := r.URL.Query().Get("q")
	mode := query.ParseMode(r.URL.Query().Get("mode"))
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			http.Error(w, "invalid page parameter", http.StatusBadRequest)
			return
		}
		page = parsed
	}

	resp, err := s.service.Search(r.Context(), raw, mode, page)
	if err != nil {
		if errors.Is(err, query.ErrInvalidQuery) {
			http.Error(w, "invalid query", http.StatusBadRequest)
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, resp)
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		writeJSON(w, map[string]any{})
		return
	}
	writeJSON(w, s.registry.Snapshot())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
