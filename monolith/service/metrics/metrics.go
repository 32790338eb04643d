package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsEndpoint = "/metrics"

// Service exposes collected metrics for scraping. It satisfies the
// service.Service interface.
type Service struct {
	config Config
	mux    *http.ServeMux
}

// New creates and returns a fully configured metrics service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("metrics service: config validation failed: %w", err)
	}

	svc := &Service{
		config: config,
		mux:    http.NewServeMux(),
	}

	svc.mux.Handle(metricsEndpoint, promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{
		ErrorLog: config.Logger,
	}))

	return svc, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "metrics" }

// Run executes the service and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", svc.config.ListenAddr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	srv := &http.Server{
		Addr:    svc.config.ListenAddr,
		Handler: svc.mux,
	}

	go func() {
		<-ctx.Done()

		_ = srv.Close()
	}()

	svc.config.Logger.WithField("addr", svc.config.ListenAddr).Info("started service")

	if err = srv.Serve(l); err == http.ErrServerClosed {
		err = nil
	}

	return err
}
