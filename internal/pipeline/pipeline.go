package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/crime-map-service/internal/domain"
	"github.com/couchcryptid/crime-map-service/internal/observability"
)

// Source fetches and parses the district, station and crime-level datasets.
type Source interface {
	Load(ctx context.Context) (domain.Dataset, error)
}

// Enricher fills in missing station data before reconciliation.
type Enricher interface {
	Enrich(ctx context.Context, stations []domain.Station) int
}

// Publisher distributes a freshly reconciled atlas.
type Publisher interface {
	Publish(ctx context.Context, atlas *domain.Atlas) error
}

// Options configures the optional stages of a Pipeline.
type Options struct {
	Enricher  Enricher             // nil disables station geocoding
	Publisher Publisher            // nil disables publishing
	Overrides domain.OverrideTable // nil means domain.DefaultOverrides
	Interval  time.Duration        // <= 0 loads once
	Clock     clockwork.Clock      // nil means real time
}

// Pipeline orchestrates the load-reconcile-publish loop and serves the most
// recent atlas to readers.
type Pipeline struct {
	source    Source
	enricher  Enricher
	publisher Publisher
	overrides domain.OverrideTable
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	atlas   atomic.Pointer[domain.Atlas]
	lastErr atomic.Pointer[error]
}

// New creates a Pipeline with the given source and observability.
func New(source Source, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Overrides == nil {
		opts.Overrides = domain.DefaultOverrides
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		source:    source,
		enricher:  opts.Enricher,
		publisher: opts.Publisher,
		overrides: opts.Overrides,
		interval:  opts.Interval,
		clock:     opts.Clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Current returns the atlas being served, or nil before the first successful
// refresh.
func (p *Pipeline) Current() *domain.Atlas {
	return p.atlas.Load()
}

// CheckReadiness returns nil once an atlas has been loaded, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.atlas.Load() != nil {
		return nil
	}
	if err := p.lastErr.Load(); err != nil {
		return fmt.Errorf("no atlas loaded: %w", *err)
	}
	return errors.New("no atlas loaded yet")
}

// Run refreshes once and then on every interval tick until the context is
// cancelled. A failed refresh is not retried early: the previous atlas keeps
// serving until the next tick.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("refresh pipeline started", "interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	_ = p.Refresh(ctx)

	if p.interval <= 0 {
		<-ctx.Done()
		p.logger.Info("refresh pipeline stopping", "reason", ctx.Err())
		return nil
	}

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("refresh pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			_ = p.Refresh(ctx)
		}
	}
}

// Refresh runs one cycle: load, geocode unlocated stations, reconcile, swap
// the served atlas and publish. The atlas is swapped before publishing, so a
// publish failure still serves the new data.
func (p *Pipeline) Refresh(ctx context.Context) error {
	start := p.clock.Now()

	ds, err := p.source.Load(ctx)
	if err != nil {
		return p.fail(ctx, "load", fmt.Errorf("load datasets: %w", err))
	}

	if p.enricher != nil {
		if n := p.enricher.Enrich(ctx, ds.Stations); n > 0 {
			p.logger.Info("stations geocoded", "located", n)
		}
	}

	atlas := domain.Reconcile(ds.Districts, ds.Stations, ds.CrimeLevels, p.overrides)
	p.atlas.Store(atlas)
	p.lastErr.Store(nil)
	p.logReport(atlas.Report())
	p.metrics.ObserveReport(atlas.Report())
	p.metrics.LastRefresh.Set(float64(atlas.ReconciledAt().Unix()))

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, atlas); err != nil {
			return p.fail(ctx, "publish", fmt.Errorf("publish atlas: %w", err))
		}
	}

	p.metrics.Refreshes.WithLabelValues("success").Inc()
	p.metrics.RefreshDuration.Observe(p.clock.Since(start).Seconds())
	return nil
}

func (p *Pipeline) fail(ctx context.Context, stage string, err error) error {
	p.metrics.Refreshes.WithLabelValues("error").Inc()
	p.metrics.RefreshErrors.WithLabelValues(stage).Inc()
	p.lastErr.Store(&err)
	if ctx.Err() == nil {
		p.logger.Error("refresh failed", "stage", stage, "error", err)
	}
	return err
}

func (p *Pipeline) logReport(r domain.ReconcileReport) {
	p.logger.Info("atlas refreshed",
		"districts", r.Districts,
		"matched", r.Matched,
		"overridden", r.Overridden,
		"stations", r.Stations,
		"stations_assigned", r.StationsAssigned,
	)
	if len(r.Unmatched) > 0 {
		p.logger.Warn("districts without a crime-level entry", "districts", r.Unmatched)
	}
	if len(r.UnusedTableKeys) > 0 {
		p.logger.Warn("crime-level entries without a district polygon", "districts", r.UnusedTableKeys)
	}
	for _, inv := range r.InvalidLevels {
		p.logger.Warn("unrecognized crime level", "district", inv.District, "station", inv.Station, "value", inv.Value)
	}
}
