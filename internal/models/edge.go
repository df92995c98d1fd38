package models

// Edge is one adjacency entry: the neighbor id and the great-circle distance to it.
// Edges are stored per node, so an undirected connection appears once in each
// endpoint's list.
type Edge struct {
	NeighborID string  `json:"neighbor_id"`
	LengthKm   float64 `json:"length_km"`
}
