package service

import (
	"context"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsServer struct {
	server   *http.Server
	listener net.Listener
}

// Listen binds addr. Serve must be called afterwards.
func (m *MetricsServer) Listen(ctx context.Context, addr string) error {
	hdlr := http.NewServeMux()
	hdlr.Handle("/metrics", promhttp.Handler())
	m.server = &http.Server{
		Handler:     hdlr,
		Addr:        addr,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	m.listener = listener
	return nil
}

func (m *MetricsServer) Serve() error {
	return m.server.Serve(m.listener)
}

// Addr is the bound address, valid after Listen.
func (m *MetricsServer) Addr() string {
	return m.listener.Addr().String()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	err := m.server.Shutdown(ctx)
	if m.listener != nil {
		// Not tracked by the server when Serve was never called.
		_ = m.listener.Close()
	}
	return err
}
