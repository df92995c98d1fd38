// Package geo computes great-circle distances between points of interest.
package geo

import (
	"math"
	"sync"

	"github.com/golang/geo/s2"

	"github.com/persistorai/orienteer/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Distance returns the haversine distance in kilometres between two coordinates
// given in degrees, rounded to three decimal places.
func Distance(latA, lonA, latB, lonB float64) float64 {
	dLat := radians(latB - latA)
	dLon := radians(lonB - lonA)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	// The cosine product is formed first so swapping A and B yields bit-identical results.
	cosProduct := math.Cos(radians(latA)) * math.Cos(radians(latB))
	a := sinLat*sinLat + sinLon*sinLon*cosProduct

	// Floating-point overshoot near identical or antipodal points can push a outside [0,1].
	a = math.Max(0, math.Min(1, a))

	c := 2 * math.Asin(math.Sqrt(a))

	return round3(EarthRadiusKm * c)
}

// Between returns the distance between two nodes' coordinates.
func Between(a, b *models.Node) float64 {
	return Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// Valid reports whether lat/lon lie within [-90,90] and [-180,180]. NaN is invalid.
func Valid(lat, lon float64) bool {
	if math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}

	return s2.LatLngFromDegrees(lat, lon).IsValid()
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// pairKey is an unordered node-id pair normalized so that lo <= hi.
type pairKey struct {
	lo, hi string
}

func newPairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}

	return pairKey{lo: a, hi: b}
}

// DistanceCache memoizes node-pair distances by id, so each unordered pair is
// computed once no matter which direction asks first.
type DistanceCache struct {
	mu     sync.Mutex
	values map[pairKey]float64
	misses int
}

// NewDistanceCache creates an empty cache.
func NewDistanceCache() *DistanceCache {
	return &DistanceCache{values: make(map[pairKey]float64)}
}

// Between returns the cached distance for the pair, computing it on first use.
func (c *DistanceCache) Between(a, b *models.Node) float64 {
	key := newPairKey(a.ID, b.ID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.values[key]; ok {
		return d
	}

	d := Between(a, b)
	c.values[key] = d
	c.misses++

	return d
}

// Len returns the number of cached pairs.
func (c *DistanceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.values)
}

// Computations returns how many distances were actually evaluated.
func (c *DistanceCache) Computations() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.misses
}
