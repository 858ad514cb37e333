package webadmin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/zurustar/confsync/internal/logging"
)

// Server implements the WebAdminServer interface
type Server struct {
	backend Backend
	metrics http.Handler
	logger  logging.Logger
	server  *http.Server

	statusHandler     *StatusHandler
	conferenceHandler *ConferenceHandler
}

// NewServer creates a new web admin server. metrics may be nil, in which
// case /metrics is not served.
func NewServer(backend Backend, metrics http.Handler, logger logging.Logger) *Server {
	return &Server{
		backend:           backend,
		metrics:           metrics,
		logger:            logger,
		statusHandler:     &StatusHandler{status: backend},
		conferenceHandler: &ConferenceHandler{controller: backend},
	}
}

// Start starts the web admin server on the specified port. The listener
// is bound before returning so a busy port is reported to the caller.
func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	s.logger.Info("Starting web admin server", logging.IntField("port", port))

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Web admin server error", logging.ErrorField(err))
		}
	}()

	return nil
}

// Stop stops the web admin server
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("Stopping web admin server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Handler returns the routes without starting a listener
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutesOnMux(mux)
	return mux
}

// registerRoutesOnMux registers HTTP routes on the provided mux
func (s *Server) registerRoutesOnMux(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.statusHandler.HandleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}

	// Status API endpoints
	mux.HandleFunc("/api/accounts", s.statusHandler.HandleAccounts)
	mux.HandleFunc("/api/conferences", s.statusHandler.HandleConferences)
	mux.HandleFunc("/api/network", s.statusHandler.HandleNetwork)

	// Hosted conference endpoints
	mux.HandleFunc("/api/conferences/participants", s.conferenceHandler.HandleParticipants)
	mux.HandleFunc("/api/conferences/devices", s.conferenceHandler.HandleDevices)
	mux.HandleFunc("/api/conferences/subject", s.conferenceHandler.HandleSubject)
}
