// Package server runs the HTTP server over a pluggable security layer.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
)

var _ model.Server = (*HTTPServer)(nil)

// HTTPServer serves the API over a listener produced by a SecurityLayer.
type HTTPServer struct {
	addr   string
	srv    *http.Server
	logger *logger.Logger
}

func NewHTTPServer(addr string, handler http.Handler, logger *logger.Logger) *HTTPServer {
	return &HTTPServer{
		addr:   addr,
		srv:    &http.Server{Handler: handler},
		logger: logger,
	}
}

// Start blocks serving requests until Stop is called or the listener
// fails.
func (s *HTTPServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.logger.Info("HTTP server: listening",
		"addr", s.addr)

	if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped unexpectedly: %w", err)
	}

	return nil
}

// Stop gracefully drains in-flight requests.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *HTTPServer) Address() string {
	return s.addr
}
