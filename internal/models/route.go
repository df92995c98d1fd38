package models

import "encoding/json"

// Route is a candidate round trip. Path starts at the origin; Distances runs in
// parallel with Path, its first entry is always 0 and each later entry is the hop
// that reached the matching path element. A closed route has the return leg to the
// origin appended to both slices.
type Route struct {
	Path      []Node
	Distances []float64
	Items     []string
	Closed    bool

	collected map[string]struct{}
}

// EmptyRoute returns the reset result: no points, no items and a single zero distance.
func EmptyRoute() *Route {
	return &Route{
		Path:      []Node{},
		Distances: []float64{0},
		Items:     []string{},
		collected: map[string]struct{}{},
	}
}

// NewRoute starts an open route at the origin.
func NewRoute(origin Node) *Route {
	r := EmptyRoute()
	r.Path = append(r.Path, origin)

	return r
}

// IsEmpty reports whether the route holds no points.
func (r *Route) IsEmpty() bool {
	return r == nil || len(r.Path) == 0
}

// Current returns the last node on the path.
func (r *Route) Current() Node {
	return r.Path[len(r.Path)-1]
}

// Extend appends a hop to node and merges the node's items into the collected set.
func (r *Route) Extend(node Node, hopKm float64) {
	r.Path = append(r.Path, node)
	r.Distances = append(r.Distances, hopKm)
	r.collect(node.Items)
}

// Close appends the return leg to the origin. A route that never left the origin
// stays a single point with distance list [0].
func (r *Route) Close(returnKm float64) {
	if r.Closed {
		return
	}

	r.Closed = true
	if len(r.Path) < 2 {
		return
	}

	r.Path = append(r.Path, r.Path[0])
	r.Distances = append(r.Distances, returnKm)
}

// TotalDistance sums every hop, including the return leg once closed.
func (r *Route) TotalDistance() float64 {
	var total float64
	for _, d := range r.Distances {
		total += d
	}

	return total
}

// ItemCount returns the number of distinct items collected.
func (r *Route) ItemCount() int {
	if r == nil {
		return 0
	}

	return len(r.Items)
}

// Clone returns an independent copy that can be extended without touching r.
func (r *Route) Clone() *Route {
	c := &Route{
		Path:      make([]Node, len(r.Path)),
		Distances: make([]float64, len(r.Distances)),
		Items:     make([]string, len(r.Items)),
		Closed:    r.Closed,
		collected: make(map[string]struct{}, len(r.Items)),
	}
	copy(c.Path, r.Path)
	copy(c.Distances, r.Distances)
	copy(c.Items, r.Items)

	for _, item := range r.Items {
		c.collected[item] = struct{}{}
	}

	return c
}

func (r *Route) collect(items []string) {
	if r.collected == nil {
		r.collected = make(map[string]struct{}, len(r.Items)+len(items))
		for _, item := range r.Items {
			r.collected[item] = struct{}{}
		}
	}

	for _, item := range items {
		if _, ok := r.collected[item]; ok {
			continue
		}

		r.collected[item] = struct{}{}
		r.Items = append(r.Items, item)
	}
}

// RoutePoint is the wire form of one visited node.
type RoutePoint struct {
	Name      string  `json:"name"`
	ID        string  `json:"id"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"long"`
}

// RouteResult is the wire form of a route.
type RouteResult struct {
	Path     []RoutePoint `json:"path"`
	Items    []string     `json:"items"`
	Distance []float64    `json:"distance"`
}

// Result converts the route to its wire form.
func (r *Route) Result() RouteResult {
	if r.IsEmpty() {
		r = EmptyRoute()
	}

	res := RouteResult{
		Path:     make([]RoutePoint, 0, len(r.Path)),
		Items:    make([]string, len(r.Items)),
		Distance: make([]float64, len(r.Distances)),
	}
	copy(res.Items, r.Items)
	copy(res.Distance, r.Distances)

	for i := range r.Path {
		n := &r.Path[i]
		res.Path = append(res.Path, RoutePoint{
			Name:      n.Name,
			ID:        n.ID,
			Latitude:  n.Latitude,
			Longitude: n.Longitude,
		})
	}

	return res
}

// MarshalJSON encodes the route in its wire form.
func (r *Route) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Result())
}
