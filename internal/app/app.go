// Package app wires together the broker, catalog, metrics and transport.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	stdhttp "net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/minevox/minevox-server/internal/config"
	"github.com/minevox/minevox-server/internal/core"
	"github.com/minevox/minevox-server/internal/metrics"
	"github.com/minevox/minevox-server/internal/store"
	"github.com/minevox/minevox-server/internal/store/sqlite"
	transporthttp "github.com/minevox/minevox-server/internal/transport/http"
)

// App holds the assembled server components.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	broker          *core.Broker
	catalog         store.Catalog
	log             *zerolog.Logger
}

// New constructs the application with the provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	catalog, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("world catalog opened")

	if err := seedDefaultWorld(catalog, cfg.DefaultWorld); err != nil {
		catalog.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	broker := core.NewBroker(logger, m)
	server := transporthttp.NewServer(broker, catalog, m, registry, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		broker:          broker,
		catalog:         catalog,
		log:             logger,
	}, nil
}

// seedDefaultWorld makes sure the configured default world has a catalog
// definition before the first client asks for it.
func seedDefaultWorld(catalog store.Catalog, name string) error {
	if name == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := catalog.CreateWorld(ctx, name, rand.Int64(), store.GeneratorFlat, "default world")
	if err != nil && !errors.Is(err, store.ErrWorldExists) {
		return fmt.Errorf("seed default world: %w", err)
	}
	return nil
}

// Run starts the broker and the HTTP server, blocking until context
// cancellation or a fatal server error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.broker.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

func (a *App) cleanup() {
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close catalog")
		} else {
			a.log.Info().Msg("catalog closed")
		}
	}
}
