package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server serves the Prometheus scrape endpoint
type Server struct {
	listenAddr string
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a metrics server. An empty listenAddr disables it.
func NewServer(listenAddr string, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	return &Server{
		listenAddr: listenAddr,
		gatherer:   gatherer,
		logger:     logger,
	}
}

// Enabled reports whether the server has an address to listen on
func (s *Server) Enabled() bool {
	return s.listenAddr != ""
}

// Start starts serving /metrics in the background
func (s *Server) Start() error {
	if !s.Enabled() {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.server = &http.Server{
		Addr:              s.listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Metrics server starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the server down
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
