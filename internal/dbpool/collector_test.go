package dbpool

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fixedStats poolSnapshot

func (f fixedStats) snapshot() poolSnapshot { return poolSnapshot(f) }

func TestCollector(t *testing.T) {
	c := &Collector{src: fixedStats{acquired: 3, idle: 2, max: 21, acquires: 40, waitSeconds: 0.5}}

	if n := testutil.CollectAndCount(c); n != 6 {
		t.Errorf("collected %d metrics, want 6", n)
	}

	want := `
# HELP orienteer_db_pool_connections Connections in the route store pool by state.
# TYPE orienteer_db_pool_connections gauge
orienteer_db_pool_connections{state="acquired"} 3
orienteer_db_pool_connections{state="constructing"} 0
orienteer_db_pool_connections{state="idle"} 2
# HELP orienteer_db_pool_max_connections Configured connection limit of the route store pool.
# TYPE orienteer_db_pool_max_connections gauge
orienteer_db_pool_max_connections 21
`
	err := testutil.CollectAndCompare(c, strings.NewReader(want),
		"orienteer_db_pool_connections", "orienteer_db_pool_max_connections")
	if err != nil {
		t.Error(err)
	}
}
