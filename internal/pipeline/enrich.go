package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/couchcryptid/crime-map-service/internal/domain"
	"github.com/couchcryptid/crime-map-service/internal/observability"
)

// StationGeocoder fills in locations for stations whose feature had no usable
// geometry. It implements Enricher.
type StationGeocoder struct {
	geocoder domain.Geocoder
	region   string
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewStationGeocoder creates a StationGeocoder that scopes every query to region.
func NewStationGeocoder(geocoder domain.Geocoder, region string, metrics *observability.Metrics, logger *slog.Logger) *StationGeocoder {
	return &StationGeocoder{
		geocoder: geocoder,
		region:   region,
		metrics:  metrics,
		logger:   logger,
	}
}

// Enrich geocodes each unlocated station in place and returns how many were
// located. A failed or empty lookup leaves the station unlocated; it then has
// no marker and no containing district, which reconciliation tolerates.
func (g *StationGeocoder) Enrich(ctx context.Context, stations []domain.Station) int {
	if g.geocoder == nil {
		return 0
	}
	located := 0
	for i := range stations {
		s := &stations[i]
		if s.Location != nil {
			continue
		}
		if ctx.Err() != nil {
			return located
		}
		query := StationQuery(*s)
		if query == "" {
			continue
		}

		result, err := g.geocoder.ForwardGeocode(ctx, query, g.region)
		if err != nil {
			g.logger.Warn("station geocoding failed",
				"station", s.Name,
				"query", query,
				"error", err,
			)
			g.metrics.StationsGeocoded.WithLabelValues("failed").Inc()
			continue
		}
		if !result.Found() {
			g.logger.Debug("station not found by geocoder", "station", s.Name, "query", query)
			g.metrics.StationsGeocoded.WithLabelValues("empty").Inc()
			continue
		}

		s.Location = &domain.Point{Lon: result.Lon, Lat: result.Lat}
		g.metrics.StationsGeocoded.WithLabelValues("located").Inc()
		located++
	}
	return located
}

// StationQuery is the free-text address sent to the geocoder: the station name
// followed by its address lines, skipping blanks and lines equal to the name.
func StationQuery(s domain.Station) string {
	parts := make([]string, 0, 4)
	if name := strings.TrimSpace(s.Name); name != "" {
		parts = append(parts, name)
	}
	for _, line := range []string{s.Address1, s.Address2, s.Address3} {
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, s.Name) {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, ", ")
}
