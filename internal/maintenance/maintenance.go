// Package maintenance provide tools for clean and update database
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/nadir/internal/config"
	"github.com/woozymasta/nadir/internal/game"
	"github.com/woozymasta/nadir/internal/logger"
	"github.com/woozymasta/nadir/internal/metrics"
	"github.com/woozymasta/nadir/internal/models"
	"golang.org/x/time/rate"
)

const workers = 10

// Store is the part of the repository maintenance works on.
type Store interface {
	PruneSamples(before time.Time) (int64, error)
	GetServers() ([]models.Server, error)
	SetInstalled(id uuid.UUID, installed bool) error
	DeleteServer(id uuid.UUID) error
}

// ProbeFunc checks whether a server answers queries.
type ProbeFunc func(models.Server) (bool, error)

// Run checks if any maintenance flags are set and executes the corresponding tasks.
// Returns true if a maintenance task was executed (indicating the program should exit).
func Run(ctx context.Context, cfg *config.Config, store Store) bool {
	if cfg.Storage.PruneSamples > 0 {
		before := time.Now().Add(-cfg.Storage.PruneSamples)
		log.Info().Time("before", before).Msg("Pruning performance samples...")

		count, err := PruneSamples(store, before)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune samples")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}

		return true
	}

	if cfg.Storage.DeleteServer != "" {
		if err := DeleteServer(store, cfg.Storage.DeleteServer); err != nil {
			log.Error().Err(err).Str("server", cfg.Storage.DeleteServer).Msg("Failed to delete server")
		} else {
			log.Info().Str("server", cfg.Storage.DeleteServer).Msg("Server deleted")
		}

		return true
	}

	if !cfg.Storage.CheckServers {
		return false
	}

	probe := func(srv models.Server) (bool, error) {
		status, err := game.Probe(srv, cfg.A2S)
		return status.Reachable, err
	}

	log.Info().Msgf("Starting server check with %d workers...", workers)
	checked, err := CheckServers(ctx, store, probe, cfg.A2S.Rate)
	if err != nil {
		log.Error().Err(err).Msg("Server check failed")
		return true
	}
	log.Info().Int("count", checked).Msg("Maintenance task completed")

	return true
}

// PruneSamples deletes performance samples taken before the given time.
func PruneSamples(store Store, before time.Time) (int64, error) {
	count, err := store.PruneSamples(before)
	if err != nil {
		return 0, err
	}
	metrics.SamplesPruned.Add(float64(count))

	return count, nil
}

// DeleteServer removes a server and its samples. Sessions played on it are kept.
func DeleteServer(store Store, raw string) error {
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid server uuid %q: %w", raw, err)
	}

	return store.DeleteServer(id)
}

// CheckServers probes every stored server and updates its installed flag.
// Probes are paced to perSecond; a non-positive value disables pacing.
// It returns the number of servers checked.
func CheckServers(ctx context.Context, store Store, probe ProbeFunc, perSecond float64) (int, error) {
	servers, err := store.GetServers()
	if err != nil {
		return 0, err
	}
	if len(servers) == 0 {
		log.Info().Msg("No servers found for maintenance")
		return 0, nil
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}

	jobs := make(chan models.Server, len(servers))
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		checked int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for srv := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				processServer(srv, store, probe)

				mu.Lock()
				checked++
				mu.Unlock()
			}
		}()
	}

	for _, srv := range servers {
		jobs <- srv
	}
	close(jobs)

	wg.Wait()

	return checked, ctx.Err()
}

func processServer(srv models.Server, store Store, probe ProbeFunc) {
	logCtx := logger.Component("maintenance").With().
		Str("server", srv.UUID.String()).
		Str("ip", srv.Address).
		Int("port", srv.Port).
		Logger()

	reachable, err := probe(srv)
	if err != nil {
		logCtx.Debug().Err(err).Msg("Server unreachable")
	}

	if reachable {
		metrics.ServerProbes.WithLabelValues("true").Inc()
	} else {
		metrics.ServerProbes.WithLabelValues("false").Inc()
	}

	if reachable == srv.Installed {
		logCtx.Trace().Bool("installed", reachable).Msg("Server state unchanged")
		return
	}

	if err := store.SetInstalled(srv.UUID, reachable); err != nil {
		logCtx.Error().Err(err).Msg("Failed to update server")
		return
	}

	logCtx.Info().Bool("installed", reachable).Msg("Server state updated")
}
