package dbpool

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	connsDesc = prometheus.NewDesc(
		"orienteer_db_pool_connections",
		"Connections in the route store pool by state.",
		[]string{"state"}, nil,
	)
	maxConnsDesc = prometheus.NewDesc(
		"orienteer_db_pool_max_connections",
		"Configured connection limit of the route store pool.",
		nil, nil,
	)
	acquiresDesc = prometheus.NewDesc(
		"orienteer_db_pool_acquires_total",
		"Connections acquired from the route store pool.",
		nil, nil,
	)
	waitDesc = prometheus.NewDesc(
		"orienteer_db_pool_acquire_wait_seconds_total",
		"Time spent waiting for a pool connection.",
		nil, nil,
	)
)

// statter is satisfied by *Pool; tests substitute fixed snapshots.
type statter interface {
	snapshot() poolSnapshot
}

type poolSnapshot struct {
	acquired, idle, constructing int32
	max                          int32
	acquires                     int64
	waitSeconds                  float64
}

func (p *Pool) snapshot() poolSnapshot {
	s := p.Stat()

	return poolSnapshot{
		acquired:     s.AcquiredConns(),
		idle:         s.IdleConns(),
		constructing: s.ConstructingConns(),
		max:          s.MaxConns(),
		acquires:     s.AcquireCount(),
		waitSeconds:  s.AcquireDuration().Seconds(),
	}
}

// Collector exports pool statistics at scrape time.
type Collector struct {
	src statter
}

// NewCollector returns a prometheus.Collector over p.
func NewCollector(p *Pool) *Collector {
	return &Collector{src: p}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- connsDesc
	ch <- maxConnsDesc
	ch <- acquiresDesc
	ch <- waitDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.snapshot()

	ch <- prometheus.MustNewConstMetric(connsDesc, prometheus.GaugeValue, float64(s.acquired), "acquired")
	ch <- prometheus.MustNewConstMetric(connsDesc, prometheus.GaugeValue, float64(s.idle), "idle")
	ch <- prometheus.MustNewConstMetric(connsDesc, prometheus.GaugeValue, float64(s.constructing), "constructing")
	ch <- prometheus.MustNewConstMetric(maxConnsDesc, prometheus.GaugeValue, float64(s.max))
	ch <- prometheus.MustNewConstMetric(acquiresDesc, prometheus.CounterValue, float64(s.acquires))
	ch <- prometheus.MustNewConstMetric(waitDesc, prometheus.CounterValue, s.waitSeconds)
}
