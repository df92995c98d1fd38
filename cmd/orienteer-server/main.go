// Command orienteer-server serves round-trip route queries over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/api"
	"github.com/persistorai/orienteer/internal/config"
	"github.com/persistorai/orienteer/internal/db"
	"github.com/persistorai/orienteer/internal/domain"
	"github.com/persistorai/orienteer/internal/search"
	"github.com/persistorai/orienteer/internal/service"
	"github.com/persistorai/orienteer/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := store.Open(ctx, store.Options{
		Backend:     store.Backend(cfg.StoreBackend),
		BadgerDir:   cfg.BadgerDir,
		DatabaseURL: cfg.DatabaseURL.Value(),
		MaxConns:    cfg.DBMaxConns,
		CacheSize:   cfg.NodeCacheSize,
		Log:         log,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			log.WithError(cerr).Error("closing route store")
		}
	}()

	walker := search.NewWalker(h.Store, cfg.MaxDistanceKm, log)
	weights := search.NewWeightSearch(walker, search.WeightConfig{
		DefaultWeight: cfg.DefaultWeight,
		StartWeight:   cfg.StartWeight,
	}, nil, log)
	finder := search.NewFinder(h.Store, weights, search.FinderConfig{
		MaxDistance: cfg.MaxDistanceKm,
		MaxRuns:     cfg.MaxRuns,
	}, log)

	routes := service.NewRouteService(finder, cfg.DefaultRuns, log)
	graph := service.NewGraphService(h.Store, cfg.MaxDistanceKm, log)

	// Origins are connected with the configured radius, so a graph pruned with
	// another one would silently return different routes.
	if err := graph.Verify(ctx); err != nil {
		return fmt.Errorf("%w; rebuild the graph or set MAX_DISTANCE_KM to match", err)
	}

	if stats, serr := graph.Stats(ctx); serr != nil {
		log.WithError(serr).Warn("reading graph stats")
	} else if stats.Nodes == 0 {
		log.Warn("graph is empty; run `orienteer build` against this store")
	}

	deps := &api.RouterDeps{
		Log:         log,
		Routes:      routes,
		Graph:       graph,
		Backend:     string(h.Backend),
		CORSOrigins: cfg.CORSOrigins,
		Version:     config.Version,
		RateLimit:   cfg.RateLimit,
		RateBurst:   cfg.RateBurst,
	}
	if h.Backend == store.BackendPostgres {
		deps.SchemaVersion = db.SchemaVersion()
	}
	if hc, ok := h.Store.(domain.HealthChecker); ok {
		deps.Store = hc
	}

	router := api.NewRouter(ctx, deps)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":    cfg.Addr(),
			"backend": h.Backend,
			"version": config.Version,
		}).Info("server listening")

		if serr := srv.ListenAndServe(); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
