package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/radio-sampler/internal/metrics"
	"github.com/RyanBlaney/radio-sampler/internal/sampler"
	"github.com/RyanBlaney/radio-sampler/pkg/catalog"
)

const (
	shutdownTimeout = 10 * time.Second

	// writeMargin is reserved out of WriteTimeout for writing the response
	writeMargin = 5 * time.Second
)

// Service is the recognition boundary served over HTTP
type Service interface {
	Recognize(ctx context.Context, stationID string) (*sampler.Outcome, error)
	DownloadSample(ctx context.Context, stationID string) (*sampler.Sample, error)
}

// StationLister lists the catalog for GET /api/stations
type StationLister interface {
	Stations() []catalog.Station
}

// Config holds the listener settings
type Config struct {
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// Server exposes recognize, download-sample and the station listing as JSON endpoints
type Server struct {
	config    Config
	service   Service
	stations  StationLister
	collector *metrics.Collector
	logger    logging.Logger
	handler   http.Handler
}

// New builds the server and its routes. collector may be nil, in which case
// /metrics is not mounted.
func New(config Config, service Service, stations StationLister, collector *metrics.Collector, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	s := &Server{
		config:    config,
		service:   service,
		stations:  stations,
		collector: collector,
		logger:    logger.WithFields(logging.Fields{"component": "http_server"}),
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/recognize", s.handleRecognize)
	mux.HandleFunc("POST /api/download-sample", s.handleDownloadSample)
	mux.HandleFunc("GET /api/stations", s.handleStations)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	var api http.Handler = mux
	if s.collector != nil {
		api = s.collector.InFlight(mux)
	}

	root := http.NewServeMux()
	if s.collector != nil {
		root.Handle("GET /metrics", s.collector.Handler())
	}
	root.Handle("/", s.withRecovery(s.withRequestID(api)))

	return root
}

// requestContext bounds a request so it finishes before the server's write
// deadline and the caller still receives a JSON response
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.config.WriteTimeout <= 0 {
		return context.WithCancel(r.Context())
	}

	timeout := s.config.WriteTimeout - writeMargin
	if timeout <= 0 {
		timeout = s.config.WriteTimeout / 2
	}
	return context.WithTimeout(r.Context(), timeout)
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logging.Fields{
			"address": s.config.ListenAddress,
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
