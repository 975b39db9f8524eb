// Package http exposes the bot status over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// StatsProvider reports the driver counters.
type StatsProvider interface {
	Stats() service.DriverStats
}

// StatusHandler serves /healthz and /stats.
type StatusHandler struct {
	stats     StatsProvider
	startedAt time.Time
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(stats StatsProvider) *StatusHandler {
	return &StatusHandler{stats: stats, startedAt: time.Now()}
}

// Routes returns the chi router with the status endpoints.
func (h *StatusHandler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/healthz", h.Health)
	router.Get("/stats", h.Stats)
	return router
}

// Health reports that the process is alive.
func (h *StatusHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Stats reports sessions, generation jobs in flight and tracked chats.
func (h *StatusHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	stats := h.stats.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime_sec":     int64(time.Since(h.startedAt).Seconds()),
		"sessions":       stats.Sessions,
		"jobs_in_flight": stats.JobsInFlight,
		"chats":          stats.Chats,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

// Server runs the status endpoints on addr until Shutdown.
type Server struct {
	server *http.Server
}

// NewServer creates a status server bound to addr.
func NewServer(addr string, handler *StatusHandler) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start listens in the background; listen errors other than a closed server are logged.
func (s *Server) Start() {
	go func() {
		logrus.Infof("Status server listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("Status server failed")
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
