// Package api exposes the drilling data service over HTTP+JSON: a filtered,
// paginated retrieval endpoint with aggregate statistics, a CSV ingestion
// endpoint, and the combined-schema playback variant.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/drillhub/drillview/config"
	"github.com/drillhub/drillview/storage"
	"github.com/drillhub/drillview/types"
)

// Ingestor is the ingestion capability the upload endpoint delegates to.
type Ingestor interface {
	Ingest(ctx context.Context, r io.Reader, filename string, size int64) (*types.IngestSummary, error)
}

// Server provides the HTTP API for drilling data access.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
}

type server struct {
	cfg        config.ServerConfig
	maxIngest  time.Duration
	store      storage.Store
	ingestor   Ingestor
	log        logrus.FieldLogger
	httpServer *http.Server
}

// NewServer creates a new API server instance.
func NewServer(cfg config.ServerConfig, maxIngest time.Duration, store storage.Store, ingestor Ingestor, log logrus.FieldLogger) Server {
	return &server{
		cfg:       cfg,
		maxIngest: maxIngest,
		store:     store,
		ingestor:  ingestor,
		log:       log.WithField("component", "api-server"),
	}
}

// Start initializes and starts the HTTP API server.
func (s *server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	go func() {
		s.log.WithField("addr", s.httpServer.Addr).Info("API server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("API server failed")
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP API server.
func (s *server) Stop() error {
	s.log.Info("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.WithError(err).Error("Failed to shutdown API server gracefully")
		return err
	}

	s.log.Info("API server stopped")
	return nil
}

// setupRoutes configures all HTTP routes and middleware.
func (s *server) setupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.Use(s.enableCORS)
	router.Use(s.loggingMiddleware)
	router.Use(s.errorHandlingMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/drilling-data", s.handleGetDrillingData).Methods("GET", "OPTIONS")
	api.HandleFunc("/wits-data", s.handleGetWitsData).Methods("GET", "OPTIONS")
	api.HandleFunc("/upload-csv", s.handleUploadCSV).Methods("POST", "OPTIONS")
	api.HandleFunc("/health", s.handleHealth).Methods("GET", "OPTIONS")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	return router
}

// enableCORS adds CORS headers so the visualization UI can call from any
// origin.
func (s *server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests.
func (s *server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		requestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(wrapper.statusCode)).Inc()
		s.log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapper.statusCode,
			"duration_ms": duration.Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request processed")
	})
}

// errorHandlingMiddleware recovers from handler panics.
func (s *server) errorHandlingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.WithField("error", err).Error("Panic in HTTP handler")
				s.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", "")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status codes.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeJSONResponse writes a JSON response with the given status code.
func (s *server) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeErrorResponse writes a failure payload; details carries the
// underlying error text when one exists.
func (s *server) writeErrorResponse(w http.ResponseWriter, statusCode int, message, details string) {
	resp := map[string]interface{}{
		"success": false,
		"error":   message,
	}
	if details != "" {
		resp["details"] = details
	}

	s.writeJSONResponse(w, statusCode, resp)
}
