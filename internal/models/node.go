// Package models defines data types for the point-of-interest graph and route results.
package models

// maxIDLength caps node identifiers; origin ids are generated well below it.
const maxIDLength = 255

// Catalog is a located collection of item labels. Items is a growable list and
// may hold duplicates when the source data repeats a label.
type Catalog struct {
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"long"`
	Items     []string `json:"items"`
}

// DistinctItems returns how many different labels the catalog offers.
func (c *Catalog) DistinctItems() int {
	if len(c.Items) < 2 {
		return len(c.Items)
	}

	seen := make(map[string]struct{}, len(c.Items))
	for _, item := range c.Items {
		seen[item] = struct{}{}
	}

	return len(seen)
}

// Node is a point of interest in the route graph.
type Node struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Catalog
}

// NewNode returns a node with its own item slice, never sharing the caller's backing array.
func NewNode(id, name string, lat, lon float64, items ...string) Node {
	owned := make([]string, len(items))
	copy(owned, items)

	return Node{
		ID:   id,
		Name: name,
		Catalog: Catalog{
			Latitude:  lat,
			Longitude: lon,
			Items:     owned,
		},
	}
}

// Validate checks that the node can be persisted.
func (n *Node) Validate() error {
	if n.ID == "" {
		return ErrMissingID
	}

	if len(n.ID) > maxIDLength {
		return ErrFieldTooLong("id", maxIDLength)
	}

	return nil
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() Node {
	return NewNode(n.ID, n.Name, n.Latitude, n.Longitude, n.Items...)
}

// GraphStats summarizes the persisted graph.
type GraphStats struct {
	Nodes int `json:"nodes"`
	// Edges counts undirected edges; it is only known right after a build.
	Edges       int     `json:"edges,omitempty"`
	MaxDistance float64 `json:"max_distance_km"`
}

// BuildInfo identifies one persisted build of the graph.
type BuildInfo struct {
	// ID is fresh for every build.
	ID          string  `json:"id"`
	MaxDistance float64 `json:"max_distance_km"`
}
