// Package api serves the latest meter update over HTTP and websockets and
// exposes the session and demo controls.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 1000
)

// NewHandler builds the router. Hub, Demo and Session are required.
func NewHandler(opts Options) http.Handler {
	s := &server{
		Options: opts,
		logger:  opts.Logger.With().Str("component", "api").Logger(),
	}
	if s.Gatherer == nil {
		s.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Get("/", s.index)
	r.Get("/latest", s.latest)
	r.Get("/ws", s.Hub.ServeWS)
	r.Get("/session", s.sessionStatus)
	r.Post("/session/start", s.startSession)
	r.Post("/session/stop", s.stopSession)
	r.Get("/demo", s.demoStatus)
	r.Put("/demo", s.setDemo)
	r.Get("/indicator", s.indicator)
	r.Get("/congestion/events", s.congestionEvents)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	return r
}

func (s *server) index(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "P1 Plus Monitor API",
		"status":  "running",
		"session": s.Session.State().String(),
	})
}

func (s *server) latest(w http.ResponseWriter, r *http.Request) {
	update := s.Hub.Latest()
	if update == nil {
		s.writeError(w, http.StatusNotFound, "No readings available yet")
		return
	}
	s.writeJSON(w, http.StatusOK, update)
}

func (s *server) sessionStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.status())
}

func (s *server) startSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.Start(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Start session failed")
		s.writeJSON(w, http.StatusServiceUnavailable, s.status())
		return
	}
	s.writeJSON(w, http.StatusOK, s.status())
}

func (s *server) stopSession(w http.ResponseWriter, r *http.Request) {
	s.Session.Stop()
	s.writeJSON(w, http.StatusOK, s.status())
}

func (s *server) status() sessionStatus {
	st := sessionStatus{State: s.Session.State().String()}
	if err := s.Session.Err(); err != nil {
		st.Error = err.Error()
	}
	return st
}

func (s *server) demoStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, demoStatus{Enabled: s.Demo.DemoEnabled()})
}

func (s *server) setDemo(w http.ResponseWriter, r *http.Request) {
	var body demoRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		s.writeError(w, http.StatusBadRequest, `Expected {"enabled": true|false}`)
		return
	}
	s.Demo.Set(*body.Enabled)
	s.logger.Info().Bool("enabled", *body.Enabled).Msg("Demo mode changed")
	s.writeJSON(w, http.StatusOK, demoStatus{Enabled: *body.Enabled})
}

func (s *server) indicator(w http.ResponseWriter, r *http.Request) {
	if s.Indicator == nil {
		s.writeError(w, http.StatusNotFound, "No indicator attached")
		return
	}
	s.writeJSON(w, http.StatusOK, s.Indicator.Current())
}

func (s *server) congestionEvents(w http.ResponseWriter, r *http.Request) {
	if s.Events == nil {
		s.writeError(w, http.StatusNotFound, "Congestion log is disabled")
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := s.Events.RecentEvents(limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Reading congestion events failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug().Err(err).Msg("Response encode failed")
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
