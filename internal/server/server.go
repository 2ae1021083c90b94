// Package server exposes the pitch detector, tuning analyzer and session
// journal over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/himanishpuri/AudibleTuner/configs"
	"github.com/himanishpuri/AudibleTuner/internal/spectral"
	"github.com/himanishpuri/AudibleTuner/internal/tuning"
	"github.com/himanishpuri/AudibleTuner/pkg/logger"
	"github.com/himanishpuri/AudibleTuner/pkg/models"
)

const shutdownTimeout = 5 * time.Second

// ErrNoJournal is returned by the session endpoints when the server was
// started without a journal.
var ErrNoJournal = errors.New("session journal is not enabled")

// Sessions is the read side of the session journal.
type Sessions interface {
	Get(id string) (*models.SessionRecord, error)
	List(limit int) ([]models.SessionRecord, error)
	ListByString(stringNumber, limit int) ([]models.SessionRecord, error)
	Delete(id string) error
	Stats() ([]models.StringStats, error)
}

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	cfg      *configs.Config
	log      *logger.Logger
	sessions Sessions
	detector *spectral.Analyzer
	analyzer *tuning.Analyzer
	started  time.Time
}

// New builds a server from a validated config. sessions may be nil.
func New(cfg *configs.Config, log *logger.Logger, sessions Sessions) (*Server, error) {
	sc, err := cfg.SpectralConfig()
	if err != nil {
		return nil, err
	}
	detector, err := spectral.New(sc)
	if err != nil {
		return nil, err
	}
	analyzer, err := cfg.Analyzer()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		cfg:      cfg,
		log:      log,
		sessions: sessions,
		detector: detector,
		analyzer: analyzer,
		started:  time.Now(),
	}, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	h := s.setupRoutes()
	if s.cfg.Server.LogRequests {
		h = loggingMiddleware(s.log)(h)
	}
	return corsMiddleware(s.cfg.Server.AllowedOrigins)(h)
}

// Run serves on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Infof("🚀 AudibleTuner API listening on %s", s.cfg.Server.Addr)
	s.log.Infof("   Sample Rate: %d Hz, block %d, FFT %d",
		s.cfg.Audio.SampleRate, s.cfg.Audio.BlockSize, s.cfg.Audio.FFTSize)
	s.log.Infof("   CORS Origins: %v", s.cfg.Server.AllowedOrigins)
	if s.sessions == nil {
		s.log.Infof("   Journal: disabled")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.log.Infof("server stopped")
	return nil
}
