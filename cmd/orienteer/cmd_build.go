package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/persistorai/orienteer/internal/ingest"
	"github.com/persistorai/orienteer/internal/models"
	"github.com/persistorai/orienteer/internal/service"
	"github.com/persistorai/orienteer/internal/store"
)

const defaultMaxDistanceKm = 1000

type buildOptions struct {
	points, coords, items string
	store                 string
	badgerDir             string
	databaseURL           string
	maxDistance           float64
	keep                  bool
	verbose               bool
}

// buildReport is the build command's output.
type buildReport struct {
	Backend string            `json:"backend"`
	Ingest  ingest.Stats      `json:"ingest"`
	Graph   models.GraphStats `json:"graph"`
}

func newBuildCmd() *cobra.Command {
	var o buildOptions
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build and persist the location graph from CSV exports",
		Long: "Join the points, coordinates and items CSV files into located nodes, connect every " +
			"pair within the distance limit and write the graph to the configured store. The store " +
			"is cleared first unless --keep is given.",
		Args: cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			o.applyDefaults(cmd, fileCfg.Build)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runBuild(cmd.Context(), o, newBuildLogger(o.verbose))
			if err != nil {
				return err
			}
			return output(report, func() { printBuildTable(report) }, strconv.Itoa(report.Graph.Nodes))
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.points, "pois", "", "CSV of points: id,name,...")
	f.StringVar(&o.coords, "coords", "", "CSV of coordinates: _,id,lat,lon,...")
	f.StringVar(&o.items, "items", "", "CSV of items: _,id,label,...")
	f.StringVar(&o.store, "store", string(store.BackendBadger), "Store backend: badger|postgres|memory")
	f.StringVar(&o.badgerDir, "badger-dir", "./data/graph", "Badger data directory")
	f.StringVar(&o.databaseURL, "database-url", "", "PostgreSQL URL (env: DATABASE_URL)")
	f.Float64Var(&o.maxDistance, "max-distance", defaultMaxDistanceKm, "Neighbor radius in km")
	f.BoolVar(&o.keep, "keep", false, "Do not clear the store before writing")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Log progress to stderr")

	for _, name := range []string{"pois", "coords", "items"} {
		_ = cmd.MarkFlagRequired(name) //nolint:errcheck // flag is defined above.
	}

	return cmd
}

// applyDefaults fills flags the user did not set from the config file and env.
func (o *buildOptions) applyDefaults(cmd *cobra.Command, d buildDefaults) {
	f := cmd.Flags()
	if !f.Changed("store") && d.Store != "" {
		o.store = d.Store
	}
	if !f.Changed("badger-dir") && d.BadgerDir != "" {
		o.badgerDir = d.BadgerDir
	}
	if !f.Changed("max-distance") && d.MaxDistanceKm > 0 {
		o.maxDistance = d.MaxDistanceKm
	}
	if !f.Changed("database-url") {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			o.databaseURL = v
		} else if d.DatabaseURL != "" {
			o.databaseURL = d.DatabaseURL
		}
	}
}

func newBuildLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func runBuild(ctx context.Context, o buildOptions, log *logrus.Logger) (*buildReport, error) {
	if o.maxDistance <= 0 {
		return nil, models.ErrInvalidMaxDistance
	}

	nodes, stats, err := ingest.LoadFiles(ctx, ingest.Files{Items: o.items, Coords: o.coords, Points: o.points})
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	log.WithFields(logrus.Fields{
		"nodes":   stats.Nodes,
		"skipped": stats.SkippedRows,
		"dropped": stats.DroppedNodes,
	}).Info("ingest complete")

	h, err := store.Open(ctx, store.Options{
		Backend:     store.Backend(o.store),
		BadgerDir:   o.badgerDir,
		DatabaseURL: o.databaseURL,
		Log:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	report, err := buildInto(ctx, h, o, nodes, log)
	report.Ingest = stats

	if cerr := h.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close store: %w", cerr))
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func buildInto(ctx context.Context, h *store.Handle, o buildOptions, nodes []models.Node, log *logrus.Logger) (*buildReport, error) {
	report := &buildReport{Backend: string(h.Backend)}

	if !o.keep {
		if err := h.Reset(ctx); err != nil {
			return report, fmt.Errorf("reset store: %w", err)
		}
	}

	stats, err := service.NewGraphService(h.Store, o.maxDistance, log).Build(ctx, nodes)
	if err != nil {
		return report, fmt.Errorf("build graph: %w", err)
	}
	report.Graph = *stats

	return report, nil
}

func printBuildTable(r *buildReport) {
	formatTable(
		[]string{"BACKEND", "NODES", "EDGES", "MAX KM", "SKIPPED ROWS", "DROPPED"},
		[][]string{{
			r.Backend,
			strconv.Itoa(r.Graph.Nodes),
			strconv.Itoa(r.Graph.Edges),
			km(r.Graph.MaxDistance),
			strconv.Itoa(r.Ingest.SkippedRows),
			strconv.Itoa(r.Ingest.DroppedNodes),
		}},
	)
}
