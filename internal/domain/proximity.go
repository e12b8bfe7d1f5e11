package domain

import (
	"math"
	"sort"
)

const (
	// kmPerDegree converts planar degree distance to kilometers. No latitude
	// correction is applied.
	kmPerDegree = 111.0

	// DefaultNearestLimit is the number of stations returned when no limit is given.
	DefaultNearestLimit = 3
)

// DistanceResult is a station ranked by distance from a district centroid.
type DistanceResult struct {
	Station    Station `json:"station"`
	DistanceKM float64 `json:"distance_km"` // rounded to one decimal
}

// RepresentativeRing returns the outer ring used for the centroid: the only
// outer ring of a Polygon, or the outer ring with the most vertices of a
// MultiPolygon (earliest wins ties). Area is not considered.
func RepresentativeRing(g *Geometry) Ring {
	if g == nil {
		return nil
	}
	var best Ring
	for _, p := range g.Polygons {
		if len(p) == 0 {
			continue
		}
		if len(p[0]) > len(best) {
			best = p[0]
		}
		if g.Type != GeometryMultiPolygon {
			break
		}
	}
	return best
}

// Centroid is the arithmetic mean of the representative ring's vertices.
// Returns false for a nil or empty geometry.
func Centroid(g *Geometry) (Point, bool) {
	ring := RepresentativeRing(g)
	if len(ring) == 0 {
		return Point{}, false
	}
	var sumLon, sumLat float64
	for _, p := range ring {
		sumLon += p.Lon
		sumLat += p.Lat
	}
	n := float64(len(ring))
	return Point{Lon: sumLon / n, Lat: sumLat / n}, true
}

// PlanarDistanceKM is the Euclidean distance in degrees times 111, rounded to
// one decimal.
func PlanarDistanceKM(a, b Point) float64 {
	d := math.Hypot(b.Lat-a.Lat, b.Lon-a.Lon) * kmPerDegree
	return math.Round(d*10) / 10
}

// NearestStations ranks located stations by planar distance from centroid and
// returns at most limit of them (DefaultNearestLimit when limit <= 0). Equal
// distances keep input order.
func NearestStations(centroid Point, stations []Station, limit int) []DistanceResult {
	if limit <= 0 {
		limit = DefaultNearestLimit
	}
	results := make([]DistanceResult, 0, len(stations))
	for _, s := range stations {
		if s.Location == nil {
			continue
		}
		results = append(results, DistanceResult{
			Station:    s,
			DistanceKM: PlanarDistanceKM(centroid, *s.Location),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceKM < results[j].DistanceKM
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Contains reports whether p lies inside the geometry using the even-odd rule:
// inside some polygon's outer ring and outside all of that polygon's holes.
func (g *Geometry) Contains(p Point) bool {
	if g == nil {
		return false
	}
	for _, poly := range g.Polygons {
		if len(poly) == 0 || !ringContains(poly[0], p) {
			continue
		}
		inHole := false
		for _, hole := range poly[1:] {
			if ringContains(hole, p) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

func ringContains(ring Ring, p Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) &&
			p.Lon < (b.Lon-a.Lon)*(p.Lat-a.Lat)/(b.Lat-a.Lat)+a.Lon {
			inside = !inside
		}
	}
	return inside
}
