package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/kizu/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = 8080

	shutdownTimeout = 5 * time.Second
)

type Config struct {
	Log         log.Logger
	HealthzAddr string
	MetricsAddr string
}

// DefaultConfig serves healthz on 0.0.0.0:8080 and metrics on the given
// host and port.
func DefaultConfig(logger log.Logger, metricsHost string, metricsPort int) Config {
	return Config{
		Log:         logger,
		HealthzAddr: net.JoinHostPort(HealthzHost, strconv.Itoa(HealthzPort)),
		MetricsAddr: net.JoinHostPort(metricsHost, strconv.Itoa(metricsPort)),
	}
}

// Service exposes the healthz and prometheus endpoints while a run is in
// progress.
type Service struct {
	log     log.Logger
	cfg     Config
	Healthz *HealthzServer
	Metrics *MetricsServer
}

func New(cfg Config) *Service {
	logger := cfg.Log
	if logger == nil {
		logger = log.Root()
	}
	logger = logger.New("component", "service")
	return &Service{
		log:     logger,
		cfg:     cfg,
		Healthz: NewHealthzServer(logger),
		Metrics: &MetricsServer{},
	}
}

// Start binds both servers and serves them in the background.
func (s *Service) Start(ctx context.Context) error {
	s.log.Info("service starting")

	if err := s.Healthz.Listen(ctx, s.cfg.HealthzAddr); err != nil {
		metrics.RecordErrorDetails("healthz", err)
		return fmt.Errorf("failed to start healthz server: %w", err)
	}
	if err := s.Metrics.Listen(ctx, s.cfg.MetricsAddr); err != nil {
		metrics.RecordErrorDetails("metrics", err)
		_ = s.Healthz.Shutdown(ctx)
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	go func() {
		s.log.Info("starting healthz server", "addr", s.Healthz.Addr())
		if err := s.Healthz.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("error running healthz server", "err", err)
			metrics.RecordErrorDetails("healthz", err)
		}
	}()

	go func() {
		s.log.Info("starting metrics server", "addr", s.Metrics.Addr())
		if err := s.Metrics.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("error running metrics server", "err", err)
			metrics.RecordErrorDetails("metrics", err)
		}
	}()

	s.log.Info("service started")
	return nil
}

func (s *Service) Shutdown() {
	s.log.Info("service shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	_ = s.Healthz.Shutdown(ctx)
	s.log.Info("healthz stopped")

	_ = s.Metrics.Shutdown(ctx)
	s.log.Info("metrics stopped")

	s.log.Info("service stopped")
}
