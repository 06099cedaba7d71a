// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ricardonunez-io/loganalyser/internal/analyzer"
	"github.com/ricardonunez-io/loganalyser/internal/config"
	"github.com/ricardonunez-io/loganalyser/internal/model"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

type Analyzer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (*analyzer.Outcome, error)
}

type Server struct {
	cfg      config.ServerConfig
	router   *chi.Mux
	analyzer Analyzer
	card     AgentCard
}

func New(cfg config.ServerConfig, a Analyzer) *Server {
	s := &Server{
		cfg:      cfg,
		router:   chi.NewRouter(),
		analyzer: a,
		card:     NewAgentCard(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/logs", func(r chi.Router) {
		r.Post("/search-and-analyze-raw", s.handleAnalyzeRaw)
		r.Post("/search-and-analyze-env", s.handleAnalyzeEnv)
		r.Post("/digest", s.handleDigest)
	})

	s.router.Route("/api/agent", func(r chi.Router) {
		r.Get("/card", s.handleCard)
		r.Get("/.well-known/agent-card", s.handleCard)
		r.Post("/analyze", s.handleAgentAnalyze)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("requestId", middleware.GetReqID(r.Context())).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("HTTP request")
		}()
		next.ServeHTTP(ww, r)
	})
}
