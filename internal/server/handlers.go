package server

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/nadir/internal/models"
	"github.com/woozymasta/nadir/internal/report"
	"github.com/woozymasta/nadir/internal/retention"
	"github.com/woozymasta/nadir/internal/tps"
	"github.com/woozymasta/nadir/internal/vars"
)

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleServers returns all known servers.
func (s *Server) handleServers(w http.ResponseWriter, _ *http.Request) {
	servers, err := s.reports.Servers()
	if err != nil {
		s.internalError(w, err, "Failed to fetch servers")
		return
	}

	if servers == nil {
		servers = []models.Server{}
	}

	writeJSON(w, http.StatusOK, servers)
}

// handleServer returns the performance overview of one server.
// Query params: ?uuid=...
func (s *Server) handleServer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("uuid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing uuid")
		return
	}

	rep, err := s.reports.Server(id, s.now())
	if errors.Is(err, report.ErrServerNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, err, "Failed to build server report")
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// handleNetwork returns players online of all installed servers.
// Query params: ?exclude=... (optional)
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	var exclude uuid.UUID
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid exclude uuid")
			return
		}
		exclude = id
	}

	online, err := s.reports.Network(s.now(), exclude)
	if err != nil {
		s.internalError(w, err, "Failed to build network report")
		return
	}

	byID := make(map[string][]tps.Point, len(online))
	for id, points := range online {
		byID[id.String()] = points
	}

	writeJSON(w, http.StatusOK, byID)
}

// handlePlayers returns the engagement overview.
func (s *Server) handlePlayers(w http.ResponseWriter, _ *http.Request) {
	rep, err := s.reports.Players(s.now())
	if err != nil {
		s.internalError(w, err, "Failed to build players report")
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// handleRetention returns recently registered players that are likely to stay.
func (s *Server) handleRetention(w http.ResponseWriter, _ *http.Request) {
	rep, err := s.reports.Retention(s.now())
	if errors.Is(err, retention.ErrNoComparableCohort) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, err, "Failed to build retention report")
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, vars.Info())
}

func (s *Server) internalError(w http.ResponseWriter, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, "database error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, statusResponse{Status: "error", Error: msg})
}
