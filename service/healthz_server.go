package service

import (
	"context"
	"net"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"
)

type HealthzServer struct {
	log      log.Logger
	server   *http.Server
	listener net.Listener
}

func NewHealthzServer(logger log.Logger) *HealthzServer {
	return &HealthzServer{log: logger}
}

// Listen binds addr. Serve must be called afterwards.
func (h *HealthzServer) Listen(ctx context.Context, addr string) error {
	hdlr := http.NewServeMux()
	hdlr.HandleFunc("/healthz", h.Handle)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	h.server = &http.Server{
		Handler:     c.Handler(hdlr),
		Addr:        addr,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	h.listener = listener
	return nil
}

func (h *HealthzServer) Serve() error {
	return h.server.Serve(h.listener)
}

// Addr is the bound address, valid after Listen.
func (h *HealthzServer) Addr() string {
	return h.listener.Addr().String()
}

func (h *HealthzServer) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	err := h.server.Shutdown(ctx)
	if h.listener != nil {
		// Not tracked by the server when Serve was never called.
		_ = h.listener.Close()
	}
	return err
}

func (h *HealthzServer) Handle(w http.ResponseWriter, r *http.Request) {
	h.log.Debug("Received health check request", "path", r.URL.Path)
	w.Write([]byte("OK")) //nolint:errcheck
}
