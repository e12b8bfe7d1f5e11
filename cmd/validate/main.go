// Command validate reconciles the district, station and crime-level datasets
// offline and reports every inconsistency between them: polygons with no
// crime-level entry, table districts with no polygon, unrecognized levels,
// stations that cannot be placed, and overrides that match nothing.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -districts data/districts.geojson \
//	  -stations data/stations.geojson \
//	  -crime-levels data/crime_levels.json \
//	  -map-out build/map.geojson
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/crime-map-service/internal/adapter/geojson"
	"github.com/couchcryptid/crime-map-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	districtsPath := flag.String("districts", "", "path to the district boundaries GeoJSON")
	stationsPath := flag.String("stations", "", "path to the station points GeoJSON")
	levelsPath := flag.String("crime-levels", "", "path to the crime-level table JSON")
	mapOut := flag.String("map-out", "", "optional path for the decorated district GeoJSON")
	flag.Parse()

	if *districtsPath == "" || *stationsPath == "" || *levelsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*districtsPath, *stationsPath, *levelsPath, *mapOut); code != 0 {
		os.Exit(code)
	}
}

func run(districtsPath, stationsPath, levelsPath, mapOut string) int {
	// Fixed clock so the decorated map output is reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Println("=== Crime Map Data Validation ===")
	fmt.Println()

	ds, err := loadDataset(districtsPath, stationsPath, levelsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	atlas := domain.Reconcile(ds.Districts, ds.Stations, ds.CrimeLevels, domain.DefaultOverrides)
	report := atlas.Report()

	phases := []*phase{
		validateDistrictMatching(report),
		validateTableCoverage(report),
		validateStationPlacement(atlas),
		validateOverrides(atlas, domain.DefaultOverrides),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Districts: %d polygons, %d matched, %d overridden, %d table entries\n",
		report.Districts, report.Matched, report.Overridden, ds.CrimeLevels.Len())
	fmt.Printf("Stations: %d features, %d located, %d assigned to a district\n",
		report.Stations, report.StationsLocated, report.StationsAssigned)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if mapOut != "" {
		if err := writeMap(mapOut, atlas); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: write map: %v\n", err)
			return 1
		}
		fmt.Printf("\nDecorated map written to %s\n", mapOut)
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadDataset(districtsPath, stationsPath, levelsPath string) (domain.Dataset, error) {
	var ds domain.Dataset

	data, err := os.ReadFile(districtsPath)
	if err != nil {
		return ds, fmt.Errorf("read districts: %w", err)
	}
	if ds.Districts, err = geojson.DecodeDistricts(data); err != nil {
		return ds, err
	}

	if data, err = os.ReadFile(stationsPath); err != nil {
		return ds, fmt.Errorf("read stations: %w", err)
	}
	if ds.Stations, err = geojson.DecodeStations(data); err != nil {
		return ds, err
	}

	if data, err = os.ReadFile(levelsPath); err != nil {
		return ds, fmt.Errorf("read crime levels: %w", err)
	}
	if ds.CrimeLevels, err = geojson.DecodeCrimeLevels(data); err != nil {
		return ds, err
	}
	return ds, nil
}

func writeMap(path string, atlas *domain.Atlas) error {
	data, err := geojson.EncodeDistricts(atlas.Districts())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ── Phase 1: District Matching ──
// Every polygon should find a crime-level entry.

func validateDistrictMatching(r domain.ReconcileReport) *phase {
	p := &phase{name: "Phase 1: District Matching (polygons)"}
	for _, name := range r.Unmatched {
		p.errorf("polygon %q has no crime-level entry", name)
	}
	return p
}

// ── Phase 2: Table Coverage ──
// Every table district should be drawn and every level recognized.

func validateTableCoverage(r domain.ReconcileReport) *phase {
	p := &phase{name: "Phase 2: Table Coverage (crime levels)"}
	for _, name := range r.UnusedTableKeys {
		p.errorf("table district %q matches no polygon", name)
	}
	for _, inv := range r.InvalidLevels {
		p.errorf("%s / %s: unrecognized level %q", inv.District, inv.Station, inv.Value)
	}
	return p
}

// ── Phase 3: Station Placement ──
// Every station should be located and resolve to a crime level.

func validateStationPlacement(atlas *domain.Atlas) *phase {
	p := &phase{name: "Phase 3: Station Placement (points)"}
	for _, s := range atlas.Stations() {
		if s.Location == nil {
			p.errorf("station %q has no location", s.DisplayName())
			continue
		}
		if r := atlas.ResolveStation(s.Name, ""); r.Source == domain.SourceDefault {
			p.errorf("station %q at (%.5f, %.5f) has no crime level", s.DisplayName(), s.Location.Lon, s.Location.Lat)
		}
	}
	return p
}

// ── Phase 4: Overrides ──
// Every override pattern should match at least one station or district.

func validateOverrides(atlas *domain.Atlas, overrides domain.OverrideTable) *phase {
	p := &phase{name: "Phase 4: Overrides (curated levels)"}

	var names []string
	for _, s := range atlas.Stations() {
		names = append(names, s.Name)
	}
	names = append(names, atlas.Table().Districts()...)
	for _, e := range atlas.Table().Entries() {
		names = append(names, e.Stations.Names()...)
	}

	for _, o := range overrides {
		if !matchesAny(domain.OverrideTable{o}, names) {
			p.errorf("override %q (%s) matches no station or district", o.Pattern, o.Level)
		}
	}
	return p
}

func matchesAny(t domain.OverrideTable, names []string) bool {
	for _, n := range names {
		if _, ok := t.Match(n); ok {
			return true
		}
	}
	return false
}
