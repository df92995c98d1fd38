package client

// Stop is one visited location on a route.
type Stop struct {
	Name      string  `json:"name"`
	ID        string  `json:"id"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"long"`
}

// Route is a round trip from the query origin back to itself.
// Distance[i] is the leg length in kilometres ending at Path[i].
type Route struct {
	Path     []Stop    `json:"path"`
	Items    []string  `json:"items"`
	Distance []float64 `json:"distance"`
}

// Empty reports whether the server found no route, e.g. for rejected input.
func (r *Route) Empty() bool {
	return len(r.Path) == 0
}

// Total returns the route length in kilometres.
func (r *Route) Total() float64 {
	var sum float64
	for _, d := range r.Distance {
		sum += d
	}
	return sum
}

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Backend       string  `json:"backend"`
	Store         string  `json:"store"`
	SchemaVersion int     `json:"schema_version,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadyResponse is returned by the readiness endpoint.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// GraphStats summarizes the server's location graph.
type GraphStats struct {
	Nodes       int     `json:"nodes"`
	Edges       int     `json:"edges,omitempty"`
	MaxDistance float64 `json:"max_distance_km"`
}
