package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/nadir/internal/metrics"
	"github.com/woozymasta/nadir/internal/models"
	"github.com/woozymasta/nadir/internal/storage"
)

var (
	errNoServer     = errors.New("server_uuid is required")
	errNoPlayer     = errors.New("player_uuid is required")
	errPort         = errors.New("port out of range")
	errSessionOrder = errors.New("session ends before it starts")
)

// handleTPS accepts one performance sample from a server plugin.
// Samples of a server arriving within the soft limit of the previous one are ignored.
func (s *Server) handleTPS(w http.ResponseWriter, r *http.Request) {
	ip := GetRealIP(r, s.trustProxy)

	var req models.TPSRequest
	if !s.decode(w, r, kindTPS, ip, &req) {
		return
	}

	if err := validateTPS(req); err != nil {
		s.reject(w, kindTPS, ip, http.StatusBadRequest, err.Error())
		return
	}
	if !s.allowed(req.Application) {
		s.reject(w, kindTPS, ip, http.StatusForbidden, "application not allowed")
		return
	}

	// Soft Limit
	softKey := xxhash.Sum64String(ip + "|" + req.ServerUUID.String())
	now := s.now()
	if val, ok := s.seenCache.Load(softKey); ok {
		if lastSeen, ok := val.(time.Time); ok && now.Sub(lastSeen) < s.softLimitDur {
			log.Trace().
				Str("ip", ip).
				Str("server", req.ServerUUID.String()).
				Msg("Dropped by soft limit hit")

			metrics.IngestRequests.WithLabelValues(string(kindTPS), metrics.ResultThrottle).Inc()
			writeJSON(w, http.StatusOK, statusResponse{Status: "ignored"})
			return
		}
	}

	// a sample dropped on a full queue must not hold the soft limit for its retry
	if s.enqueue(w, ingestJob{Kind: kindTPS, IP: ip, Received: now, TPS: &req}) {
		s.seenCache.Store(softKey, now)
	}
}

// handleSession accepts a finished player session.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ip := GetRealIP(r, s.trustProxy)

	var req models.SessionRequest
	if !s.decode(w, r, kindSession, ip, &req) {
		return
	}

	if err := validateSession(req); err != nil {
		s.reject(w, kindSession, ip, http.StatusBadRequest, err.Error())
		return
	}
	if !s.allowed(req.Application) {
		s.reject(w, kindSession, ip, http.StatusForbidden, "application not allowed")
		return
	}

	s.enqueue(w, ingestJob{Kind: kindSession, IP: ip, Received: s.now(), Session: &req})
}

// decode checks the content type and reads a size limited JSON body into dst.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, kind jobKind, ip string, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if s.expectedCT != "" && !strings.HasPrefix(ct, s.expectedCT) {
		log.Debug().
			Str("content_type", ct).
			Str("expected", s.expectedCT).
			Msg("Invalid Content-Type")

		s.reject(w, kind, ip, http.StatusUnsupportedMediaType, "unsupported content type")
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Debug().
			Err(err).
			Str("ip", ip).
			Msg("Invalid JSON")

		s.reject(w, kind, ip, http.StatusBadRequest, "invalid JSON body")
		return false
	}

	return true
}

// allowed checks the application name against the hashed allow list.
// An empty list allows everything.
func (s *Server) allowed(app string) bool {
	if len(s.allowedApps) == 0 {
		return true
	}
	_, ok := s.allowedApps[xxhash.Sum64String(app)]

	return ok
}

func (s *Server) reject(w http.ResponseWriter, kind jobKind, ip string, status int, msg string) {
	log.Debug().
		Str("ip", ip).
		Str("kind", string(kind)).
		Int("status", status).
		Msg(msg)

	metrics.IngestRequests.WithLabelValues(string(kind), metrics.ResultRejected).Inc()
	writeError(w, status, msg)
}

// enqueue hands the job to the workers and reports whether it was accepted.
func (s *Server) enqueue(w http.ResponseWriter, job ingestJob) bool {
	select {
	case s.queue <- job:
		metrics.QueueLength.Inc()
		metrics.IngestRequests.WithLabelValues(string(job.Kind), metrics.ResultQueued).Inc()
		log.Trace().
			Str("ip", job.IP).
			Str("kind", string(job.Kind)).
			Msg("Job queued")

		writeJSON(w, http.StatusAccepted, statusResponse{Status: "queued"})
		return true
	default:
		metrics.IngestRequests.WithLabelValues(string(job.Kind), metrics.ResultDropped).Inc()
		log.Warn().
			Str("ip", job.IP).
			Str("kind", string(job.Kind)).
			Msg("Queue full, job dropped")

		writeError(w, http.StatusServiceUnavailable, "queue full")
		return false
	}
}

// worker is a background goroutine that processes jobs from the ingestion queue.
func (s *Server) worker() {
	defer s.wg.Done()

	for job := range s.queue {
		metrics.QueueLength.Dec()
		s.processJob(job)
	}
}

// processJob persists a single ingestion job.
func (s *Server) processJob(job ingestJob) {
	var err error
	switch job.Kind {
	case kindTPS:
		err = s.storeSample(job)
	case kindSession:
		err = s.storeSession(job)
	}

	if err != nil {
		metrics.JobFailures.WithLabelValues(string(job.Kind)).Inc()
		log.Error().Err(err).Str("kind", string(job.Kind)).Msg("Failed to save job to DB")
		return
	}

	metrics.JobsProcessed.WithLabelValues(string(job.Kind)).Inc()
}

func (s *Server) storeSample(job ingestJob) error {
	req := job.TPS
	if err := s.storage.UpsertServer(models.Server{
		UUID:      req.ServerUUID,
		Name:      req.ServerName,
		Address:   job.IP,
		Port:      req.Port,
		Installed: true,
		FirstSeen: job.Received,
		LastSeen:  job.Received,
	}); err != nil {
		return err
	}

	if err := s.storage.InsertSample(models.PerformanceSample{
		ServerUUID:    req.ServerUUID,
		Date:          job.Received,
		TPS:           req.TPS,
		PlayersOnline: req.PlayersOnline,
		CPUUsage:      req.CPUUsage,
		RAMUsage:      req.RAMUsage,
		Entities:      req.Entities,
		ChunksLoaded:  req.ChunksLoaded,
		FreeDiskSpace: req.FreeDiskSpace,
	}); err != nil {
		return err
	}

	log.Debug().
		Str("server", req.ServerUUID.String()).
		Float64("tps", req.TPS).
		Int("online", req.PlayersOnline).
		Msg("Sample saved")

	return nil
}

func (s *Server) storeSession(job ingestJob) error {
	req := job.Session
	end := req.End
	if end.IsZero() {
		end = job.Received
	}

	rec := storage.SessionRecord{
		Player: models.PlayerRecord{
			UUID:       req.PlayerUUID,
			Name:       req.PlayerName,
			Registered: req.Start,
			Operator:   req.Operator,
		},
		Session: models.Session{
			ServerUUID: req.ServerUUID,
			Start:      req.Start,
			End:        end,
			AFKTime:    time.Duration(req.AFKSeconds) * time.Second,
			Deaths:     req.Deaths,
			MobKills:   req.MobKills,
		},
		Geo: s.geoip.Locate(req.PlayerIP, models.GeoRecord{Date: req.Start}),
	}

	if req.PingAvg > 0 || req.PingMax > 0 {
		rec.Ping = &models.PingSample{
			ServerUUID: req.ServerUUID,
			Date:       end,
			Avg:        req.PingAvg,
			Min:        req.PingMin,
			Max:        req.PingMax,
		}
	}

	if err := s.storage.SaveSession(rec); err != nil {
		return err
	}

	log.Debug().
		Str("player", req.PlayerUUID.String()).
		Str("server", req.ServerUUID.String()).
		Dur("length", rec.Session.Length()).
		Msg("Session saved")

	return nil
}

func validateTPS(req models.TPSRequest) error {
	if req.ServerUUID == uuid.Nil {
		return errNoServer
	}
	if req.Port < 0 || req.Port > 65535 {
		return errPort
	}

	return nil
}

func validateSession(req models.SessionRequest) error {
	switch {
	case req.ServerUUID == uuid.Nil:
		return errNoServer
	case req.PlayerUUID == uuid.Nil:
		return errNoPlayer
	case req.Start.IsZero():
		return errors.New("start is required")
	case !req.End.IsZero() && req.End.Before(req.Start):
		return errSessionOrder
	}

	return nil
}
