// Package api exposes the HTTP surface: health and status, active alerts,
// the persisted alert listing, zone and vehicle inventories, captured logs,
// config reload and the websocket alert stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepseaguard/insight-engine/internal/alerter"
	"github.com/deepseaguard/insight-engine/internal/collector"
	"github.com/deepseaguard/insight-engine/internal/metrics"
	"github.com/deepseaguard/insight-engine/internal/pipeline"
	"github.com/deepseaguard/insight-engine/internal/state"
	"github.com/deepseaguard/insight-engine/internal/store"
)

// ReloadFunc is called when a config reload is requested.
type ReloadFunc func() error

// FeedHealthFunc reports telemetry feed health for /status.
type FeedHealthFunc func() collector.FeedHealth

// Server provides the HTTP API.
type Server struct {
	logger    zerolog.Logger
	port      string
	engine    *alerter.Engine
	pipe      *pipeline.Pipeline
	vehicles  *state.Store
	hub       *Hub
	startTime time.Time

	logBuffer  *LogBuffer
	alertStore *store.PostgresStore
	reloadFunc ReloadFunc
	feedHealth FeedHealthFunc
	version    string
	commit     string

	srv *http.Server
}

// NewServer creates an API server.
func NewServer(logger zerolog.Logger, port string, engine *alerter.Engine, pipe *pipeline.Pipeline, vehicles *state.Store, hub *Hub) *Server {
	return &Server{
		logger:    logger.With().Str("component", "api").Logger(),
		port:      port,
		engine:    engine,
		pipe:      pipe,
		vehicles:  vehicles,
		hub:       hub,
		startTime: time.Now(),
	}
}

// SetLogBuffer enables the /api/logs endpoint.
func (s *Server) SetLogBuffer(lb *LogBuffer) { s.logBuffer = lb }

// SetAlertStore enables the /api/alerts/recent endpoint.
func (s *Server) SetAlertStore(st *store.PostgresStore) { s.alertStore = st }

// SetReloadFunc enables the /api/reload endpoint.
func (s *Server) SetReloadFunc(fn ReloadFunc) { s.reloadFunc = fn }

// SetFeedHealth wires feed health into /status.
func (s *Server) SetFeedHealth(fn FeedHealthFunc) { s.feedHealth = fn }

// SetVersion sets the version info reported by /status.
func (s *Server) SetVersion(version, commit string) {
	s.version = version
	s.commit = commit
}

// Start runs the server until Shutdown.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/alerts", s.handleActiveAlerts)
	mux.HandleFunc("/api/alerts/recent", s.handleRecentAlerts)
	mux.HandleFunc("/api/zones", s.handleZones)
	mux.HandleFunc("/api/vehicles", s.handleVehicles)
	mux.HandleFunc("/api/logs", s.handleLogs)
	mux.HandleFunc("/api/reload", s.handleReload)
	mux.HandleFunc("/metrics", metrics.HandleMetrics)
	mux.HandleFunc("/ws/alerts", s.hub.HandleWS)

	addr := ":" + s.port
	s.srv = &http.Server{Addr: addr, Handler: mux}

	s.logger.Info().Str("address", addr).Msg("Starting API server")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"active_alerts": s.engine.ActiveCount(),
		"vehicles":      s.vehicles.Len(),
		"zones":         s.pipe.Zones().Len(),
		"uptime":        time.Since(s.startTime).Round(time.Second).String(),
		"time":          time.Now().UTC().Format(time.RFC3339),
		"version":       s.version,
		"commit":        s.commit,
	}
	if s.feedHealth != nil {
		status["telemetry_feed"] = s.feedHealth()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleActiveAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": s.engine.ActiveAlerts(),
	})
}

func (s *Server) handleRecentAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alertStore == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "alert persistence is not configured",
		})
		return
	}

	q := r.URL.Query()
	filter := store.AlertFilter{
		VehicleID: q.Get("auv_id"),
		Kind:      q.Get("type"),
		Cursor:    q.Get("cursor"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("since"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			filter.Since = &ts
		} else {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "since must be RFC3339",
			})
			return
		}
	}

	page, err := s.alertStore.RecentAlerts(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("Recent alerts query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "query failed",
		})
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"zones": s.pipe.Zones().Zones(),
	})
}

func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vehicles": s.vehicles.Snapshots(),
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logBuffer == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"logs": []LogEntry{}})
		return
	}
	n := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs": s.logBuffer.Recent(n),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"error": "POST required",
		})
		return
	}
	if s.reloadFunc == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "reload not configured",
		})
		return
	}
	if err := s.reloadFunc(); err != nil {
		s.logger.Error().Err(err).Msg("Config reload failed")
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}
