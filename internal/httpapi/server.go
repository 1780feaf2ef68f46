// Package httpapi implements the admin HTTP surface: health, metrics
// exposition, and per-run debug inspection, grounded on the teacher's
// internal/app HTTP server wiring and routed with gorilla/mux the way
// the teacher mounts its API handlers.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/LarjGit/edinburgh-finds-core/internal/resource"
	"github.com/LarjGit/edinburgh-finds-core/internal/store"
	"github.com/LarjGit/edinburgh-finds-core/internal/tracing"
)

// Server is the admin HTTP surface (spec.md §6: health/metrics/debug
// endpoints alongside the CLI).
type Server struct {
	httpServer *http.Server
	logger     *logrus.Logger
}

// Config configures the admin surface.
type Config struct {
	Addr        string
	MetricsPath string
}

// New builds a Server. resourceMonitor may be nil (health degrades to
// "ok" without resource detail); tracer may be the no-op tracer.
func New(cfg Config, runs store.OrchestrationRunStore, resourceMonitor *resource.ResourceMonitor, tracer oteltrace.Tracer, logger *logrus.Logger) *Server {
	router := mux.NewRouter()

	router.Handle("/healthz", tracing.HTTPMiddleware(tracer, "httpapi.healthz")(healthHandler(resourceMonitor))).Methods(http.MethodGet)
	if cfg.MetricsPath != "" {
		router.Handle(cfg.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)
	}
	router.Handle("/debug/runs/{id}", tracing.HTTPMiddleware(tracer, "httpapi.debug_run")(debugRunHandler(runs))).Methods(http.MethodGet)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start launches the HTTP server in the background. Listen errors other
// than a clean shutdown are logged, matching the teacher's fire-and-log
// pattern for its own admin server.
func (s *Server) Start() {
	go func() {
		s.logger.WithField("addr", s.httpServer.Addr).Info("starting admin http server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("admin http server error")
		}
	}()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(resourceMonitor *resource.ResourceMonitor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		body := map[string]interface{}{"status": status}

		if resourceMonitor != nil {
			if !resourceMonitor.IsHealthy() {
				status = "degraded"
				body["status"] = status
			}
			body["resources"] = resourceMonitor.GetStats()
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(body)
	})
}

func debugRunHandler(runs store.OrchestrationRunStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		run, found, err := runs.Get(r.Context(), id)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		if !found {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "run not found"})
			return
		}

		json.NewEncoder(w).Encode(run)
	})
}
