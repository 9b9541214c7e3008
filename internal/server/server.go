// Package server runs the gallery's HTTP server as a supervised service.
package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"
)

const DefaultShutdownTimeout = 10 * time.Second

// Server is a suture.Service around an http.Server. Each call to Serve
// listens afresh, so a supervisor can restart it after a failure.
type Server struct {
	addr            string
	handler         http.Handler
	shutdownTimeout time.Duration
	listen          func() (net.Listener, error)
}

type Option func(*Server)

func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = timeout }
}

// WithListener serves on l instead of listening on the address. The
// listener is closed when Serve returns, so it serves only once.
func WithListener(l net.Listener) Option {
	return func(s *Server) {
		s.addr = l.Addr().String()
		s.listen = func() (net.Listener, error) { return l, nil }
	}
}

func New(
	addr string,
	handler http.Handler,
	opts ...Option,
) *Server {
	s := &Server{
		addr:            addr,
		handler:         handler,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	s.listen = func() (net.Listener, error) { return net.Listen("tcp", s.addr) }
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Addr() string {
	return s.addr
}

// Serve accepts connections until ctx is done, then shuts down gracefully,
// giving in-flight requests up to the shutdown timeout.
func (s *Server) Serve(ctx context.Context) error {
	l, err := s.listen()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(l) }()
	log.Printf("Serving http://%s\n", l.Addr())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shut down cleanly: %v\n", err)
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Printf("Stopped serving http://%s\n", l.Addr())
	return ctx.Err()
}

func (s *Server) String() string {
	return "http server " + s.addr
}
