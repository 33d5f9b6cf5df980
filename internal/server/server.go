package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gtech-mulearn/mulearn/internal/bootstrap"
	"github.com/gtech-mulearn/mulearn/internal/config"
	"github.com/gtech-mulearn/mulearn/internal/pkg/helpers"
	"github.com/gtech-mulearn/mulearn/internal/pkg/logger"
)

// Server holds the state for the HTTP server.
type Server struct {
	config *config.Config
	router *gin.Engine
	dbPool *pgxpool.Pool
	deps   *bootstrap.Dependencies
	logger zerolog.Logger
	http   *http.Server

	// stopBackground ends the hub and websocket listeners
	stopBackground context.CancelFunc
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer(cfg *config.Config, lgr zerolog.Logger) (*Server, error) {
	dbPool, err := bootstrap.SetupDatabase(cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	provider, err := bootstrap.SetupMetrics(context.Background(), cfg)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to setup metrics: %w", err)
	}

	bus, err := bootstrap.SetupEventBus(cfg, provider, lgr)
	if err != nil {
		dbPool.Close()
		_ = provider.Shutdown(context.Background())
		return nil, err
	}

	deps, err := bootstrap.BuildDependencies(cfg, dbPool, bus, provider, lgr)
	if err != nil {
		_ = bus.Close()
		_ = provider.Shutdown(context.Background())
		dbPool.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := bootstrap.StartBackground(ctx, deps); err != nil {
		cancel()
		_ = bus.Close()
		_ = provider.Shutdown(context.Background())
		dbPool.Close()
		return nil, err
	}

	return &Server{
		config:         cfg,
		router:         bootstrap.SetupRouter(cfg, deps, lgr),
		dbPool:         dbPool,
		deps:           deps,
		logger:         lgr,
		stopBackground: cancel,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown.
func (s *Server) Run() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server...")

	s.http = &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// Shutdown stops accepting requests, drains background work and closes
// resources in reverse order of creation.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := helpers.ParseDuration(s.config.Server.ShutdownTimeout, 15*time.Second)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			errs = append(errs, err)
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	s.stopBackground()

	if err := s.deps.Bus.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Event bus close error")
		errs = append(errs, err)
	}
	s.deps.LiveCounts.Wait()

	if err := s.deps.Metrics.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Metrics shutdown error")
		errs = append(errs, err)
	}

	if s.deps.RollbarEnabled {
		logger.CloseRollbar()
	}

	if s.dbPool != nil {
		s.logger.Info().Msg("Closing database connection pool...")
		s.dbPool.Close()
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	return errors.Join(errs...)
}
