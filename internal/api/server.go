// Package api exposes the journal and the exploration engine over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/explore"
	"github.com/julianstephens/daylog/internal/journal"
	"github.com/julianstephens/daylog/internal/logger"
	"github.com/julianstephens/daylog/internal/utils"
)

type Server struct {
	journal  *journal.Store
	engine   *explore.Engine
	gatherer prometheus.Gatherer
	timezone string
}

// New returns a server over store and engine. gatherer backs /metrics and
// defaults to the global prometheus registry.
func New(store *journal.Store, engine *explore.Engine, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{journal: store, engine: engine, gatherer: gatherer, timezone: "UTC"}
}

// SetTimezone sets the zone whose calendar day is used when a request omits
// ?date=.
func (s *Server) SetTimezone(tz string) error {
	if !utils.ValidateTimezone(tz) {
		return fmt.Errorf("invalid timezone %q", tz)
	}
	s.timezone = tz
	return nil
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/journal", func(r chi.Router) {
		r.Get("/questions", s.handleQuestions)
		r.Get("/entry", s.handleEntry)
		r.Get("/exists", s.handleExists)
		r.Post("/draft", s.handleCreateDraft)
		r.Patch("/draft", s.handleUpdateDraft)
		r.Post("/submit", s.handleSubmit)
		r.Get("/search", s.handleSearch)
		r.Get("/explore", s.handleExplore)
		r.Get("/dashboard", s.handleDashboard)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.APIShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		log := logger.With("request_id", middleware.GetReqID(r.Context()))
		defer func() {
			log.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start))
		}()
		next.ServeHTTP(ww, r)
	})
}
