package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/aleister1102/faleproxy/internal/common/errorwrapper"
	"github.com/aleister1102/faleproxy/internal/config"
	"github.com/aleister1102/faleproxy/internal/models"
	"github.com/gorilla/mux"
	"github.com/aleister1102/faleproxy/internal/logger"
	"github.com/rs/zerolog"
)

// FetchService is the pipeline behind POST /fetch.
type FetchService interface {
	Fetch(ctx context.Context, req models.FetchRequest) (*models.FetchResponse, error)
}

// Server exposes the fetch pipeline over HTTP.
type Server struct {
	config     config.ServerConfig
	service    FetchService
	logger     zerolog.Logger
	router     *mux.Router
	httpServer *http.Server
}

// NewServer creates a server and registers its routes. Nothing listens until Start.
func NewServer(cfg config.ServerConfig, service FetchService, zLogger zerolog.Logger) *Server {
	if cfg.MaxRequestBodyBytes <= 0 {
		cfg.MaxRequestBodyBytes = config.DefaultServerMaxRequestBodyBytes
	}

	s := &Server{
		config:  cfg,
		service: service,
		logger:  logger.Component(zLogger, "Server"),
		router:  mux.NewRouter(),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSecs) * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/fetch", s.handleFetch).Methods(http.MethodPost)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)
}

// Handler returns the routed handler wrapped in the logging middleware.
func (s *Server) Handler() http.Handler {
	return middlewareChain(s.logger, s.router)
}

// Start listens on the configured address and serves until Shutdown is called.
// It returns nil after a clean shutdown.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errorwrapper.WrapError(err, "failed to listen on "+s.httpServer.Addr)
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info().Str("address", listener.Addr().String()).Msg("HTTP server listening")

	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errorwrapper.WrapError(err, "HTTP server failed")
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errorwrapper.WrapError(err, "HTTP server shutdown failed")
	}
	return nil
}
