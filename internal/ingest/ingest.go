// Package ingest joins the three CSV source tables into route graph nodes.
//
// Column layout (extra columns are ignored):
//
//	items:  _, entity_id, label
//	coords: _, entity_id, latitude, longitude
//	points: entity_id, name
//
// A node is produced for every point row whose entity has at least one item and
// a valid coordinate pair. Output keeps point-table row order.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/persistorai/orienteer/internal/geo"
	"github.com/persistorai/orienteer/internal/models"
)

// Sources holds the three input tables.
type Sources struct {
	Items  io.Reader
	Coords io.Reader
	Points io.Reader
}

// Stats counts what a load read and dropped.
type Stats struct {
	ItemRows     int `json:"item_rows"`
	CoordRows    int `json:"coord_rows"`
	PointRows    int `json:"point_rows"`
	SkippedRows  int `json:"skipped_rows"`
	Nodes        int `json:"nodes"`
	DroppedNodes int `json:"dropped_nodes"`
}

type coord struct {
	lat, lon float64
}

type point struct {
	id, name string
}

// table is one parsed source; skipped counts rows with missing or unusable columns.
type table struct {
	rows    int
	skipped int
}

// Load parses the three sources concurrently and joins them on entity id.
func Load(ctx context.Context, src Sources) ([]models.Node, Stats, error) {
	var (
		items            map[string][]string
		coords           map[string]coord
		points           []point
		itemT, coordT, p table
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		items, itemT, err = readItems(gctx, src.Items)

		return wrap("items", err)
	})
	g.Go(func() error {
		var err error
		coords, coordT, err = readCoords(gctx, src.Coords)

		return wrap("coords", err)
	})
	g.Go(func() error {
		var err error
		points, p, err = readPoints(gctx, src.Points)

		return wrap("points", err)
	})

	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{
		ItemRows:    itemT.rows,
		CoordRows:   coordT.rows,
		PointRows:   p.rows,
		SkippedRows: itemT.skipped + coordT.skipped + p.skipped,
	}

	nodes := make([]models.Node, 0, len(points))
	seen := make(map[string]struct{}, len(points))

	for _, pt := range points {
		labels, hasItems := items[pt.id]
		c, hasCoords := coords[pt.id]
		_, dup := seen[pt.id]

		if !hasItems || !hasCoords || dup {
			stats.DroppedNodes++

			continue
		}

		seen[pt.id] = struct{}{}
		nodes = append(nodes, models.NewNode(pt.id, pt.name, c.lat, c.lon, labels...))
	}

	stats.Nodes = len(nodes)

	return nodes, stats, nil
}

// Files names the three source files on disk.
type Files struct {
	Items  string
	Coords string
	Points string
}

// LoadFiles opens the named files and calls Load.
func LoadFiles(ctx context.Context, files Files) ([]models.Node, Stats, error) {
	paths := []string{files.Items, files.Coords, files.Points}
	handles := make([]*os.File, 0, len(paths))

	defer func() {
		for _, f := range handles {
			f.Close() //nolint:errcheck // read-only.
		}
	}()

	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("opening %s: %w", p, err)
		}

		handles = append(handles, f)
	}

	return Load(ctx, Sources{Items: handles[0], Coords: handles[1], Points: handles[2]})
}

func wrap(name string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("reading %s: %w", name, err)
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	return cr
}

// eachRecord calls fn for every record, checking ctx between rows.
func eachRecord(ctx context.Context, r io.Reader, fn func(rec []string)) error {
	if r == nil {
		return errors.New("no source")
	}

	cr := newReader(r)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}

		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return fmt.Errorf("line %d: %w", perr.Line, err)
		}

		if err != nil {
			return err
		}

		fn(rec)
	}
}

func field(rec []string, i int) string {
	return strings.TrimSpace(rec[i])
}

func readItems(ctx context.Context, r io.Reader) (map[string][]string, table, error) {
	items := make(map[string][]string)

	var t table

	err := eachRecord(ctx, r, func(rec []string) {
		t.rows++

		if len(rec) < 3 || field(rec, 1) == "" || field(rec, 2) == "" {
			t.skipped++

			return
		}

		id := field(rec, 1)
		items[id] = append(items[id], field(rec, 2))
	})

	return items, t, err
}

func readCoords(ctx context.Context, r io.Reader) (map[string]coord, table, error) {
	coords := make(map[string]coord)

	var t table

	err := eachRecord(ctx, r, func(rec []string) {
		t.rows++

		if len(rec) < 4 {
			t.skipped++

			return
		}

		lat, errLat := strconv.ParseFloat(field(rec, 2), 64)
		lon, errLon := strconv.ParseFloat(field(rec, 3), 64)

		if errLat != nil || errLon != nil || !geo.Valid(lat, lon) {
			t.skipped++

			return
		}

		// A later row for the same entity replaces an earlier one.
		coords[field(rec, 1)] = coord{lat: lat, lon: lon}
	})

	return coords, t, err
}

func readPoints(ctx context.Context, r io.Reader) ([]point, table, error) {
	var (
		points []point
		t      table
	)

	err := eachRecord(ctx, r, func(rec []string) {
		t.rows++

		if len(rec) < 2 || field(rec, 0) == "" {
			t.skipped++

			return
		}

		points = append(points, point{id: field(rec, 0), name: field(rec, 1)})
	})

	return points, t, err
}
