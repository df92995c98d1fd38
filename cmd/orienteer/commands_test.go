package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/persistorai/orienteer/client"
)

var sampleRoute = client.Route{
	Path: []client.Stop{
		{ID: "origin-x", Latitude: 35, Longitude: 2},
		{ID: "1", Name: "One", Latitude: 34, Longitude: 2},
		{ID: "origin-x", Latitude: 35, Longitude: 2},
	},
	Items:    []string{"ale"},
	Distance: []float64{0, 111.195, 111.195},
}

// recordingServer serves find-path and records request paths.
type recordingServer struct {
	mu    sync.Mutex
	paths []string
}

func (s *recordingServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.paths = append(s.paths, r.URL.Path)
	s.mu.Unlock()
	jsonResponse(w, http.StatusOK, sampleRoute)
}

func (s *recordingServer) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.paths) == 0 {
		return ""
	}
	return s.paths[len(s.paths)-1]
}

func TestFindCmd(t *testing.T) {
	isolate(t)
	rec := &recordingServer{}
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/find-path/": rec.handler,
	})

	tests := []struct {
		name     string
		args     []string
		wantPath string
		want     string
	}{
		{
			name:     "quiet default runs",
			args:     []string{"find", "35", "2", "--format", "quiet"},
			wantPath: "/api/v1/find-path/35/2",
			want:     "origin-x 1 origin-x\n",
		},
		{
			name:     "explicit runs",
			args:     []string{"find", "35", "2", "--runs", "4", "--format", "quiet"},
			wantPath: "/api/v1/find-path/35/2/4",
			want:     "origin-x 1 origin-x\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := captureStdout(t)
			if err := execute(t, append([]string{"--url", srv.URL}, tc.args...)...); err != nil {
				t.Fatalf("execute: %v", err)
			}
			if got := rec.last(); got != tc.wantPath {
				t.Errorf("request path = %q, want %q", got, tc.wantPath)
			}
			if buf.String() != tc.want {
				t.Errorf("output = %q, want %q", buf.String(), tc.want)
			}
		})
	}
}

func TestFindCmd_Table(t *testing.T) {
	isolate(t)
	rec := &recordingServer{}
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/find-path/": rec.handler,
	})

	buf := captureStdout(t)
	if err := execute(t, "--url", srv.URL, "--format", "table", "find", "35", "2"); err != nil {
		t.Fatalf("execute: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"LEG KM", "One", "111.195", "1 items, 222.390 km"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestFindCmd_Args(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing longitude", args: []string{"find", "35"}},
		{name: "too many args", args: []string{"find", "35", "2", "3"}},
		{name: "bad latitude", args: []string{"find", "north", "2"}},
		{name: "bad longitude", args: []string{"find", "35", "east"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			// Unroutable URL: argument errors must surface before any request.
			if err := execute(t, append([]string{"--url", "http://127.0.0.1:1"}, tc.args...)...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFindCmd_ServerError(t *testing.T) {
	isolate(t)
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/find-path/": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, http.StatusTooManyRequests, map[string]string{"code": "rate_limited", "message": "slow down"})
		},
	})

	captureStdout(t)
	err := execute(t, "--url", srv.URL, "find", "35", "2")
	if !client.IsRateLimited(err) {
		t.Errorf("err = %v, want rate limited", err)
	}
}

func TestStatsCmd(t *testing.T) {
	isolate(t)
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/graph/stats": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, http.StatusOK, client.GraphStats{Nodes: 42, MaxDistance: 1000})
		},
	})

	buf := captureStdout(t)
	if err := execute(t, "--url", srv.URL, "--format", "quiet", "stats"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if buf.String() != "42\n" {
		t.Errorf("output = %q, want 42", buf.String())
	}
}

func writeCSV(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestBuildCmd_Memory(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	points := writeCSV(t, dir, "points.csv", "id,name\n10,Riverside\n20,Hilltop\n30,Faraway\n")
	coords := writeCSV(t, dir, "coords.csv", "id,point_id,lat,lon\n1,10,51.5,-0.12\n2,20,51.6,-0.10\n3,30,-33.86,151.2\n")
	items := writeCSV(t, dir, "items.csv", "id,point_id,label\n1,10,Pale Ale\n2,20,Stout\n3,30,Lager\n")

	buf := captureStdout(t)
	err := execute(t, "build", "--store", "memory", "--pois", points, "--coords", coords, "--items", items, "--max-distance", "100")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var report buildReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if report.Backend != "memory" {
		t.Errorf("backend = %q, want memory", report.Backend)
	}
	if report.Graph.Nodes != 3 || report.Graph.Edges != 1 {
		t.Errorf("graph = %+v, want 3 nodes and 1 edge", report.Graph)
	}
	if report.Graph.MaxDistance != 100 {
		t.Errorf("max distance = %v, want 100", report.Graph.MaxDistance)
	}
	if report.Ingest.Nodes != 3 {
		t.Errorf("ingest = %+v", report.Ingest)
	}
}

func TestBuildCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	f := writeCSV(t, dir, "a.csv", "x\n")

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing flags", args: []string{"build", "--store", "memory"}},
		{name: "missing file", args: []string{"build", "--store", "memory", "--pois", f, "--coords", f, "--items", filepath.Join(dir, "nope.csv")}},
		{name: "unknown backend", args: []string{"build", "--store", "floppy", "--pois", f, "--coords", f, "--items", f}},
		{name: "bad distance", args: []string{"build", "--store", "memory", "--pois", f, "--coords", f, "--items", f, "--max-distance", "0"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			captureStdout(t)
			if err := execute(t, tc.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBuildCmd_ConfigDefaults(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "build:\n  store: memory\n  max_distance_km: 5\n")

	dir := t.TempDir()
	points := writeCSV(t, dir, "points.csv", "10,Riverside\n20,Hilltop\n")
	coords := writeCSV(t, dir, "coords.csv", "1,10,51.5,-0.12\n2,20,51.6,-0.10\n")
	items := writeCSV(t, dir, "items.csv", "1,10,Pale Ale\n2,20,Stout\n")

	buf := captureStdout(t)
	if err := execute(t, "build", "--pois", points, "--coords", coords, "--items", items); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var report buildReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	// The two points are about 11 km apart, beyond the configured 5 km radius.
	if report.Backend != "memory" || report.Graph.Edges != 0 || report.Graph.MaxDistance != 5 {
		t.Errorf("report = %+v", report)
	}
}

func TestDoctorCmd(t *testing.T) {
	healthy := func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, client.HealthResponse{Status: "ok", Version: "0.3.0", Backend: "badger", Store: "connected"})
	}

	tests := []struct {
		name    string
		ready   http.HandlerFunc
		wantErr bool
		want    string
	}{
		{
			name: "all good",
			ready: func(w http.ResponseWriter, _ *http.Request) {
				jsonResponse(w, http.StatusOK, client.ReadyResponse{Status: "ready", Checks: map[string]string{"graph": "ok"}})
			},
			want: "All checks passed",
		},
		{
			name: "empty graph",
			ready: func(w http.ResponseWriter, _ *http.Request) {
				jsonResponse(w, http.StatusServiceUnavailable, client.ReadyResponse{Status: "not_ready", Checks: map[string]string{"graph": "empty"}})
			},
			wantErr: true,
			want:    "orienteer build",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			srv := newTestServer(t, map[string]http.HandlerFunc{
				"GET /api/v1/health": healthy,
				"GET /api/v1/ready":  tc.ready,
			})

			buf := captureStdout(t)
			err := execute(t, "--url", srv.URL, "doctor")
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if !strings.Contains(buf.String(), tc.want) {
				t.Errorf("output missing %q:\n%s", tc.want, buf.String())
			}
		})
	}
}

func TestDoctorCmd_Unreachable(t *testing.T) {
	isolate(t)
	buf := captureStdout(t)

	if err := execute(t, "--url", "http://127.0.0.1:1", "doctor"); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(buf.String(), "Server reachable") {
		t.Errorf("output = %s", buf.String())
	}
}
