// Package server exposes archive jobs over HTTP: jobs are submitted with
// POST /scrape, polled with GET /status/{id}, listed with GET /results/{id}
// and their mirrors are served below /downloads/.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/KASSWRH/Website-Archiver/internal/crawler"
	"github.com/KASSWRH/Website-Archiver/internal/jobs"
)

const shutdownTimeout = 10 * time.Second

// JobService is the part of jobs.Manager the handlers use
type JobService interface {
	Submit(req jobs.Request) (string, error)
	Status(id string) (crawler.Snapshot, error)
	Result(id string) (*jobs.Result, error)
}

var _ JobService = (*jobs.Manager)(nil)

// Server routes HTTP requests to a JobService
type Server struct {
	jobs         JobService
	downloadsDir string
	logger       *slog.Logger
	handler      http.Handler
}

// New creates a server. downloadsDir is the directory job output roots
// live in; it is served read-only under /downloads/.
func New(svc JobService, downloadsDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		jobs:         svc,
		downloadsDir: downloadsDir,
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /scrape", s.handleScrape)
	mux.HandleFunc("GET /status/{id}", s.handleStatus)
	mux.HandleFunc("GET /results/{id}", s.handleResults)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /downloads/", http.StripPrefix("/downloads/", http.FileServer(http.Dir(downloadsDir))))
	mux.HandleFunc("/", s.handleNotFound)

	s.handler = s.recoverPanics(s.logRequests(mux))
	return s
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
