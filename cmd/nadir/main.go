// main is the entry point of the Nadir application.
// It initializes the configuration, logger, database, GeoIP provider, and starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/nadir/internal/config"
	"github.com/woozymasta/nadir/internal/fake"
	"github.com/woozymasta/nadir/internal/geoip"
	"github.com/woozymasta/nadir/internal/logger"
	"github.com/woozymasta/nadir/internal/maintenance"
	"github.com/woozymasta/nadir/internal/report"
	"github.com/woozymasta/nadir/internal/server"
	"github.com/woozymasta/nadir/internal/storage"
	"github.com/woozymasta/nadir/internal/vars"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)
	log.Info().Str("version", vars.Version).Msg("Starting nadir service...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// data generation or database maintenance
	if cfg.Storage.GenerateCount > 0 {
		fake.GenerateData(store, cfg.Storage.GenerateCount)
		return
	} else if maintenance.Run(ctx, cfg, store) {
		return
	}

	// GeoIP Update
	log.Info().Msg("Checking GeoIP database...")
	if err := geoip.EnsureDB(cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
		log.Error().Err(err).Msg("Failed to download GeoIP database")
	}

	geoProvider, err := geoip.Open(cfg.GeoIP.Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open GeoIP database, geolocation disabled")
		geoProvider = nil
	} else {
		defer func() {
			if err := geoProvider.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing GeoIP provider")
			}
		}()

		go geoip.Watch(ctx, cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval, func() {
			if err := geoProvider.Reload(); err != nil {
				log.Error().Err(err).Msg("Failed to reload GeoIP database")
			}
		})
	}

	opts, err := report.NewOptions(cfg.Analytics)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid analytics options")
	}

	// Init server
	srvHandler := server.New(store, report.New(store, opts), geoProvider, cfg)

	// Background queue
	srvHandler.StartWorkers()

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srvHandler.Run(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop workers (wait queue done)
	srvHandler.StopWorkers()

	log.Info().Msg("Server exited")
}
