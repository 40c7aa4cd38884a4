// Package serve starts the HTTP API server.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/wingman2025/birdtarifa/internal/api"
	"github.com/wingman2025/birdtarifa/internal/birdinfo"
	"github.com/wingman2025/birdtarifa/internal/conf"
	"github.com/wingman2025/birdtarifa/internal/datastore"
	"github.com/wingman2025/birdtarifa/internal/ebird"
	"github.com/wingman2025/birdtarifa/internal/logging"
	"github.com/wingman2025/birdtarifa/internal/observability"
	"github.com/wingman2025/birdtarifa/internal/photostore"
	"github.com/wingman2025/birdtarifa/internal/prediction"
)

// Command returns the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Bird Tarifa API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}
	cmd.Flags().StringVarP(&settings.Server.Port, "port", "p", settings.Server.Port, "Port to listen on")
	return cmd
}

func runServer(settings *conf.Settings) error {
	logger := logging.ForService("serve")

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database backend enabled, configure database.sqlite or database.mysql")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	// The eBird tier is optional: without an API key resolution simply
	// stops after the rule cascade.
	var ebirdClient *ebird.Client
	var source prediction.ObservationSource
	if settings.EBird.APIKey != "" {
		clientConfig := ebird.DefaultConfig()
		clientConfig.APIKey = settings.EBird.APIKey
		if settings.EBird.BaseURL != "" {
			clientConfig.BaseURL = settings.EBird.BaseURL
		}
		if settings.EBird.Timeout > 0 {
			clientConfig.Timeout = time.Duration(settings.EBird.Timeout) * time.Second
		}
		ebirdClient, err = ebird.NewClient(clientConfig, metrics)
		if err != nil {
			return fmt.Errorf("initializing eBird client: %w", err)
		}
		defer ebirdClient.Close()
		source = ebirdClient
	} else {
		logger.Warn("ebird API key not configured, live observation fallback disabled")
	}

	resolver := prediction.NewResolver(store, source, prediction.GeoDefaults{
		Latitude:   settings.EBird.Geo.Latitude,
		Longitude:  settings.EBird.Geo.Longitude,
		DistanceKm: settings.EBird.Geo.DistanceKm,
		BackDays:   settings.EBird.Geo.BackDays,
		MaxResults: settings.EBird.Geo.MaxResults,
	}, metrics)

	infoService := birdinfo.NewService(birdinfo.NewWikipediaProvider(settings), nil, metrics)

	var photos *photostore.Store
	if settings.Media.StoragePath != "" {
		photos, err = photostore.NewStore(settings)
		if err != nil {
			return fmt.Errorf("initializing photo storage: %w", err)
		}
	} else {
		logger.Warn("media storage path not configured, photo uploads disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	controller := api.New(e, store, settings, resolver, ebirdClient, infoService, photos, metrics)
	defer controller.Shutdown()

	errChan := make(chan error, 1)
	go func() {
		addr := ":" + settings.Server.Port
		logger.Info("starting server", "addr", addr, "env", settings.Main.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
