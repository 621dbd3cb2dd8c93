package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/wolfman30/pathlab/pkg/logging"
)

// Server owns the HTTP listener.
type Server struct {
	srv    *http.Server
	logger *logging.Logger
	addr   string
	errs   chan error
}

// writeMargin covers rendering, artifact write and store time on top of the
// backend and mechanism bounds.
const writeMargin = 30 * time.Second

// submitWriteTimeout is the longest a synchronous submission may take: every
// PDF backend and both network delivery mechanisms hitting their timeouts.
func submitWriteTimeout(pdfBackends int, pdfTimeout time.Duration, networkMechanisms int, deliveryTimeout time.Duration) time.Duration {
	return time.Duration(pdfBackends)*pdfTimeout + time.Duration(networkMechanisms)*deliveryTimeout + writeMargin
}

// NewServer builds the server. writeTimeout must cover a full submission.
func NewServer(addr string, handler http.Handler, writeTimeout time.Duration, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Default()
	}
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: writeTimeout,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		addr:   addr,
		errs:   make(chan error, 1),
	}
}

// Start binds the listener and serves in the background. Bind failures are
// returned directly.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()
	return nil
}

// Addr is the bound address once Start has returned.
func (s *Server) Addr() string {
	return s.addr
}

// Errors delivers a fatal serve error.
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
