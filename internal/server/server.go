// Package server exposes habit tracking and the reminder trigger over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/tracker"
)

type Server struct {
	cfg        *config.Config
	tracker    *tracker.Service
	dispatcher *reminder.Dispatcher
	now        func() time.Time
}

func New(cfg *config.Config, t *tracker.Service, d *reminder.Dispatcher) *Server {
	return &Server{
		cfg:        cfg,
		tracker:    t,
		dispatcher: d,
		now:        time.Now,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireUser)
		r.Get("/habits", s.handleListHabits)
		r.Get("/habits/{habitID}/progress", s.handleProgress)
		r.Post("/habits/{habitID}/register", s.handleRegister)
		r.Post("/habits/{habitID}/unregister", s.handleUnregister)
	})

	// Without a secret the trigger stays unmounted.
	if s.cfg.CronSecret != "" {
		r.With(s.requireCronSecret).Post("/internal/send-notification-if-time", s.handleSendNotifications)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "addr", s.cfg.Listen)
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

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownPeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.tracker.List(userID(r.Context()), s.now())
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"habits": statuses})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	pending := false
	if v := r.URL.Query().Get("pending"); v != "" {
		var err error
		if pending, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid pending flag")
			return
		}
	}
	status, err := s.tracker.Status(userID(r.Context()), chi.URLParam(r, "habitID"), s.now(), pending)
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	status, err := s.tracker.Register(userID(r.Context()), chi.URLParam(r, "habitID"), s.now())
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	status, err := s.tracker.Unregister(userID(r.Context()), chi.URLParam(r, "habitID"), s.now())
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSendNotifications(w http.ResponseWriter, r *http.Request) {
	bypass, _ := strconv.ParseBool(r.URL.Query().Get("bypass"))
	result, err := s.dispatcher.Run(r.Context(), s.now(), bypass)
	if err != nil {
		logger.Error("Reminder dispatch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeTrackerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "habit not found")
	case errors.Is(err, tracker.ErrNothingToUnregister):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// instrument records request latency by route pattern and logs the request.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.RecordHTTPRequestDuration(r.Method, route, strconv.Itoa(status), elapsed)
		logger.Debug("HTTP request", "method", r.Method, "route", route, "status", status, "duration", elapsed)
	})
}
