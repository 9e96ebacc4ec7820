package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/district-stress-dashboard/internal/dashboard"
	"github.com/couchcryptid/district-stress-dashboard/internal/domain"
	"github.com/couchcryptid/district-stress-dashboard/internal/observability"
)

// OrdersFilename is the download name of the deployment schedule export.
const OrdersFilename = "UIDAI_Orders_2026.csv"

// OrderPublisher sends a deployment schedule downstream.
type OrderPublisher interface {
	PublishOrders(ctx context.Context, region string, scenario domain.Scenario, orders []domain.District) (int, error)
}

// Server exposes the dashboard API alongside health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	dashboard  *dashboard.Service
	publisher  OrderPublisher
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the health, metrics and /api/v1 routes.
// A nil publisher disables the publish endpoint.
func NewServer(addr string, ready sharedobs.ReadinessChecker, svc *dashboard.Service, publisher OrderPublisher, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dashboard: svc,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/regions", s.handleRegions)
	mux.HandleFunc("GET /api/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/v1/districts/{district}", s.handleDistrict)
	mux.HandleFunc("GET /api/v1/orders.csv", s.handleOrdersCSV)
	mux.HandleFunc("POST /api/v1/orders/publish", s.handlePublishOrders)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// writeError maps domain errors to status codes and writes {"error": ...}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidScenario):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dashboard.ErrNotReady):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
