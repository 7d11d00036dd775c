// Package server exposes the chat and market data services over HTTP
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/vnstock-chat/internal/app"
	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/signals"
)

// Server wraps the HTTP server and application reference.
type Server struct {
	app          *app.App
	server       *http.Server
	logger       *common.Logger
	indicators   *signals.Computer
	shutdownChan chan struct{}
}

// SetShutdownChannel sets the channel that will be signaled when HTTP shutdown is requested.
func (s *Server) SetShutdownChannel(ch chan struct{}) {
	s.shutdownChan = ch
}

// NewServer creates a new HTTP REST API server.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:        a,
		logger:     a.Logger,
		indicators: signals.NewComputer(),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := chain(mux,
		withRecovery(a.Logger),
		withCORS,
		withCorrelationID,
		withAccessLog(a.Logger),
		withBodyLimit(maxBodyBytes),
	)

	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler: handler,
		// completions can take up to the AI timeout
		ReadTimeout:  30 * time.Second,
		WriteTimeout: a.Config.AI.GetTimeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
