package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Forecaster runs dashboard submissions against the prediction API.
type Forecaster interface {
	sharedobs.ReadinessChecker
	SubmitCSV(ctx context.Context, sub domain.CSVSubmission) (domain.ForecastResult, error)
	SubmitRaw(ctx context.Context, sub domain.CSVSubmission) (domain.ForecastResult, error)
	SubmitManual(ctx context.Context, sub domain.ManualSubmission) (domain.ForecastResult, error)
	Live(ctx context.Context, siteID int) (domain.ForecastResult, error)
	Live24h(ctx context.Context, siteID int) (domain.ForecastResult, error)
	Latest(sessionKey string) (domain.ForecastResult, bool)
	Sites() []domain.Site
	Site(siteID int) (domain.Site, error)
}

// ModelCatalog reports on the trained models and the observations behind them.
type ModelCatalog interface {
	ModelDetail(ctx context.Context, siteID int) (domain.ModelDetailResponse, error)
	ModelsHealth(ctx context.Context) (domain.ModelHealthResponse, error)
	ModelMetrics(ctx context.Context) (domain.ModelMetrics, error)
	Historical(ctx context.Context, siteID int, q domain.HistoricalQuery) (domain.HistoricalDataResponse, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr           string
	MaxUploadBytes int64
	AllowedOrigins []string
}

// Server exposes the forecast API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	forecaster Forecaster
	models     ModelCatalog
	maxUpload  int64
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the forecast routes and /healthz,
// /readyz, and /metrics.
func NewServer(opts Options, f Forecaster, models ModelCatalog, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr: opts.Addr,
			Handler: cors.Handler(cors.Options{
				AllowedOrigins: opts.AllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type", sessionHeader},
				MaxAge:         300,
			})(mux),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		forecaster: f,
		models:     models,
		maxUpload:  opts.MaxUploadBytes,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(f))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/sites", s.handleSites)
	mux.HandleFunc("GET /api/v1/sites/{siteID}/model", s.handleModel)
	mux.HandleFunc("GET /api/v1/sites/{siteID}/live", s.handleLive)
	mux.HandleFunc("GET /api/v1/sites/{siteID}/live/24h", s.handleLive24h)
	mux.HandleFunc("GET /api/v1/sites/{siteID}/historical", s.handleHistorical)
	mux.HandleFunc("GET /api/v1/models", s.handleModels)
	mux.HandleFunc("GET /api/v1/models/metrics", s.handleModelMetrics)
	mux.HandleFunc("POST /api/v1/forecast/{siteID}/upload", s.handleUpload)
	mux.HandleFunc("POST /api/v1/forecast/{siteID}/raw", s.handleRaw)
	mux.HandleFunc("POST /api/v1/forecast/{siteID}/manual", s.handleManual)
	mux.HandleFunc("GET /api/v1/sessions/{key}/latest", s.handleLatest)

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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
