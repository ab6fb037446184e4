// Package server implements the HTTP server, middleware, and request handlers for the application.
package server

import (
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/woozymasta/nadir/internal/config"
	"github.com/woozymasta/nadir/internal/geoip"
	"github.com/woozymasta/nadir/internal/report"
)

// New creates a new Server instance with the provided storage, report engine, GeoIP provider, and configuration.
func New(store Store, reports *report.Engine, geo *geoip.Provider, cfg *config.Config) *Server {
	appMap := make(map[uint64]struct{})
	for _, app := range cfg.Server.AllowedApps {
		hash := xxhash.Sum64String(app)
		appMap[hash] = struct{}{}
	}

	queueSize := cfg.Server.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	return &Server{
		storage:        store,
		reports:        reports,
		geoip:          geo,
		authToken:      cfg.Server.AuthToken,
		allowedApps:    appMap,
		maxBody:        cfg.Server.MaxBodySize,
		trustProxy:     cfg.Server.TrustProxy,
		expectedCT:     cfg.Server.ContentType,
		workers:        cfg.Server.Workers,
		hardLimitCount: cfg.RateLimit.HardLimitCount,
		hardLimitWin:   cfg.RateLimit.HardLimitWin,
		softLimitDur:   cfg.RateLimit.SoftLimitDur,
		now:            time.Now,

		queue:    make(chan ingestJob, queueSize),
		shutdown: make(chan struct{}),
	}
}

// StartWorkers initializes the background worker pool for processing ingestion jobs
// and the cache cleanup routine.
func (s *Server) StartWorkers() {
	workers := s.workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	go s.gcSoftLimitCache()
}

// StopWorkers stops the background goroutines after the queued jobs are done.
func (s *Server) StopWorkers() {
	close(s.shutdown)
	close(s.queue)
	s.wg.Wait()
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	// one limiter shared by both ingestion endpoints
	ingest := http.NewServeMux()
	ingest.HandleFunc("POST /api/tps", s.handleTPS)
	ingest.HandleFunc("POST /api/session", s.handleSession)
	limited := s.RateLimitMiddleware(ingest)
	mux.Handle("POST /api/tps", limited)
	mux.Handle("POST /api/session", limited)

	admin := func(h http.HandlerFunc) http.Handler { return AdminAuthMiddleware(s.authToken, h) }
	mux.Handle("GET /api/servers", admin(s.handleServers))
	mux.Handle("GET /api/server", admin(s.handleServer))
	mux.Handle("GET /api/network", admin(s.handleNetwork))
	mux.Handle("GET /api/players", admin(s.handlePlayers))
	mux.Handle("GET /api/retention", admin(s.handleRetention))
	mux.Handle("GET /api/version", http.HandlerFunc(s.handleVersion))

	mux.Handle("GET /metrics", promhttp.Handler())

	return s.LoggingMiddleware(mux)
}

// gcSoftLimitCache periodically cleans up expired entries from the soft rate-limit cache.
func (s *Server) gcSoftLimitCache() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.expireSeen(s.now())
		}
	}
}

func (s *Server) expireSeen(now time.Time) {
	s.seenCache.Range(func(key, value any) bool {
		if t, ok := value.(time.Time); !ok || now.Sub(t) > s.softLimitDur {
			s.seenCache.Delete(key)
		}
		return true
	})
}
