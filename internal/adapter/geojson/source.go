package geojson

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/crime-map-service/internal/config"
	"github.com/couchcryptid/crime-map-service/internal/domain"
)

// maxBodySize caps a single dataset download.
const maxBodySize = 64 << 20

// Source loads the three datasets from local files or http(s) URLs.
// It implements pipeline.Source.
type Source struct {
	districts   string
	stations    string
	crimeLevels string

	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewSource creates a Source for the configured dataset locations.
func NewSource(cfg *config.Config, logger *slog.Logger) *Source {
	return &Source{
		districts:   cfg.DistrictsSource,
		stations:    cfg.StationsSource,
		crimeLevels: cfg.CrimeLevelsSource,
		httpClient:  &http.Client{Timeout: cfg.FetchTimeout},
		clock:       clockwork.NewRealClock(),
		logger:      logger,
	}
}

// Load fetches and decodes all three datasets concurrently. Any failure fails
// the whole load.
func (s *Source) Load(ctx context.Context) (domain.Dataset, error) {
	var ds domain.Dataset
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := s.fetch(ctx, s.districts)
		if err != nil {
			return err
		}
		ds.Districts, err = DecodeDistricts(data)
		return err
	})
	g.Go(func() error {
		data, err := s.fetch(ctx, s.stations)
		if err != nil {
			return err
		}
		ds.Stations, err = DecodeStations(data)
		return err
	})
	g.Go(func() error {
		data, err := s.fetch(ctx, s.crimeLevels)
		if err != nil {
			return err
		}
		ds.CrimeLevels, err = DecodeCrimeLevels(data)
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.Dataset{}, err
	}
	ds.FetchedAt = s.clock.Now()
	s.logger.Debug("datasets loaded",
		"districts", len(ds.Districts),
		"stations", len(ds.Stations),
		"table_districts", ds.CrimeLevels.Len(),
	)
	return ds, nil
}

func (s *Source) fetch(ctx context.Context, location string) ([]byte, error) {
	start := s.clock.Now()
	var (
		data []byte
		err  error
	)
	if isURL(location) {
		data, err = s.fetchHTTP(ctx, location)
	} else {
		data, err = os.ReadFile(location)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	s.logger.Debug("dataset fetched", "source", location, "bytes", len(data), "duration", s.clock.Since(start))
	return data, nil
}

func (s *Source) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/geo+json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
