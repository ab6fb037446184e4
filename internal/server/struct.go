package server

import (
	"sync"
	"time"

	"github.com/woozymasta/nadir/internal/geoip"
	"github.com/woozymasta/nadir/internal/models"
	"github.com/woozymasta/nadir/internal/report"
	"github.com/woozymasta/nadir/internal/storage"
)

// Store is the write side of the repository used by ingestion workers.
type Store interface {
	UpsertServer(s models.Server) error
	InsertSample(s models.PerformanceSample) error
	SaveSession(rec storage.SessionRecord) error
}

// Server holds the dependencies, configuration, and runtime state required
// to handle HTTP requests and background ingestion.
type Server struct {
	// storage persists ingested samples and sessions.
	storage Store

	// reports computes the read API responses.
	reports *report.Engine

	// geoip resolves player addresses to countries. It can be nil.
	geoip *geoip.Provider

	// allowedApps is a set of hashed plugin application names (xxhash)
	// authorized to submit data.
	allowedApps map[uint64]struct{}

	// queue passes ingestion jobs from HTTP handlers to background workers.
	queue chan ingestJob

	// shutdown broadcasts the stop signal to background goroutines.
	shutdown chan struct{}

	// now is the clock used for reports and received timestamps.
	now func() time.Time

	// seenCache tracks when each server last reported a sample (soft rate limit).
	seenCache sync.Map

	// authToken is the secret required by the read API.
	authToken string

	// expectedCT expected Content-Type header
	expectedCT string

	wg sync.WaitGroup

	// maxBody specifies the maximum allowed size (in bytes) for incoming request bodies.
	maxBody int64

	// hardLimitCount is the number of requests allowed per IP within hardLimitWin.
	hardLimitCount int

	hardLimitWin time.Duration

	// softLimitDur is the period within which repeated samples of a server are ignored.
	softLimitDur time.Duration

	workers int

	// trustProxy indicates whether X-Forwarded-For or CF-Connecting-IP are trusted.
	trustProxy bool
}

type jobKind string

const (
	kindTPS     jobKind = "tps"
	kindSession jobKind = "session"
)

// ingestJob is a unit of work for background workers.
type ingestJob struct {
	// Received is when the request arrived; samples are dated by it.
	Received time.Time

	TPS     *models.TPSRequest
	Session *models.SessionRequest

	// IP is the resolved address of the reporting server plugin.
	IP string

	Kind jobKind
}
