package domain

import (
	"sort"
	"strings"
	"time"
)

// UnnamedStation is shown for station features without a name.
const UnnamedStation = "Unnamed Station"

// ResolutionSource names the tier that produced a station's level.
type ResolutionSource string

const (
	SourceOverride ResolutionSource = "override"
	SourceDistrict ResolutionSource = "district"
	SourceScan     ResolutionSource = "scan"
	SourceDefault  ResolutionSource = "default"
)

// StationResolution is the outcome of a station level lookup.
type StationResolution struct {
	Station  string           `json:"station"`
	District string           `json:"district,omitempty"` // table district the level came from, if any
	Level    Classification   `json:"level"`
	Source   ResolutionSource `json:"source"`
}

// Atlas answers classification queries over one reconciled dataset. It is
// read-only after Reconcile returns and safe for concurrent readers.
type Atlas struct {
	districts []District
	stations  []Station
	table     *CrimeLevelTable
	overrides OverrideTable

	// stationDistrict[i] is the table district of the polygon containing
	// stations[i], or "".
	stationDistrict []string

	report       ReconcileReport
	reconciledAt time.Time
}

// Districts returns the decorated districts.
func (a *Atlas) Districts() []District { return a.districts }

// Stations returns the stations in source order.
func (a *Atlas) Stations() []Station { return a.stations }

// Table returns the crime-level table the atlas was built from.
func (a *Atlas) Table() *CrimeLevelTable { return a.table }

// Report returns the reconciliation summary.
func (a *Atlas) Report() ReconcileReport { return a.report }

// ReconciledAt is when Reconcile produced this atlas.
func (a *Atlas) ReconciledAt() time.Time { return a.reconciledAt }

// assignStations places every located station in the first district polygon
// that contains it and has a matched table district.
func (a *Atlas) assignStations(report *ReconcileReport) {
	a.stationDistrict = make([]string, len(a.stations))
	for i, s := range a.stations {
		if s.Location == nil {
			continue
		}
		report.StationsLocated++
		for j := range a.districts {
			d := &a.districts[j]
			if d.Derived.MatchedDistrict == "" || !d.Geometry.Contains(*s.Location) {
				continue
			}
			a.stationDistrict[i] = d.Derived.MatchedDistrict
			report.StationsAssigned++
			break
		}
	}
}

// FindDistrict returns the first district whose matched table district, Name
// or District_N equals name.
func (a *Atlas) FindDistrict(name string) (*District, bool) {
	if name == "" {
		return nil, false
	}
	for i := range a.districts {
		d := &a.districts[i]
		if d.Derived.MatchedDistrict == name || d.Name == name || d.DistrictN == name {
			return d, true
		}
	}
	return nil, false
}

// CanonicalDistrict maps any known name of a district to its matched table
// district. Unknown or unmatched names come back unchanged.
func (a *Atlas) CanonicalDistrict(name string) string {
	if d, ok := a.FindDistrict(name); ok && d.Derived.MatchedDistrict != "" {
		return d.Derived.MatchedDistrict
	}
	return name
}

// IsDistrict reports whether name is a table district or a known polygon name.
func (a *Atlas) IsDistrict(name string) bool {
	if _, ok := a.table.Stations(name); ok {
		return true
	}
	_, ok := a.FindDistrict(name)
	return ok
}

// DistrictClassification resolves a district's headline level: override,
// then the aggregate of an exact table entry, then the decorated polygon,
// then Average.
func (a *Atlas) DistrictClassification(name string) Classification {
	if level, ok := a.overrides.Resolve(name); ok {
		return level
	}
	if levels, ok := a.table.Stations(name); ok {
		return Aggregate(levels)
	}
	if d, ok := a.FindDistrict(name); ok {
		return d.Derived.Classification.OrDefault()
	}
	return Average
}

// ClassificationFor resolves a district or station name. District names take
// precedence; anything else is treated as a station.
func (a *Atlas) ClassificationFor(name string) Classification {
	if a.IsDistrict(name) {
		return a.DistrictClassification(name)
	}
	return a.ResolveStation(name, "").Level
}

// ResolveStation finds a station's level through four tiers, stopping at the
// first that yields a recognized level:
//
//  1. the override table;
//  2. an exact key in district's table entry. With district empty, the
//     district whose polygon contains the station is used;
//  3. every table district in order: exact key first, then a case-insensitive
//     containment match in either direction;
//  4. Average.
func (a *Atlas) ResolveStation(name, district string) StationResolution {
	res := StationResolution{Station: name}

	if level, ok := a.overrides.Resolve(name); ok {
		res.Level, res.Source = level, SourceOverride
		res.District = district
		return res
	}

	if district == "" {
		district = a.assignedDistrict(name)
	}
	if levels, ok := a.table.Stations(district); ok {
		if level, ok := levels.Lookup(name); ok && level.Valid() {
			res.Level, res.Source, res.District = level, SourceDistrict, district
			return res
		}
	}

	if d, level, ok := a.scan(name); ok {
		res.Level, res.Source, res.District = level, SourceScan, d
		return res
	}

	res.Level, res.Source, res.District = Average, SourceDefault, district
	return res
}

func (a *Atlas) assignedDistrict(station string) string {
	for i, s := range a.stations {
		if s.Name == station && station != "" {
			return a.stationDistrict[i]
		}
	}
	return ""
}

func (a *Atlas) scan(station string) (string, Classification, bool) {
	if station == "" {
		return "", "", false
	}
	for _, e := range a.table.Entries() {
		if level, ok := e.Stations.Lookup(station); ok && level.Valid() {
			return e.District, level, true
		}
		for _, r := range e.Stations {
			if r.Level.Valid() && includesFold(station, r.Station) {
				return e.District, r.Level, true
			}
		}
	}
	return "", "", false
}

// includesFold is case-insensitive containment in either direction.
func includesFold(a, b string) bool {
	return containsEither(strings.ToLower(a), strings.ToLower(b))
}

// FindStation returns the first station whose name equals name or contains
// or is contained by it, ignoring case.
func (a *Atlas) FindStation(name string) (Station, bool) {
	if name == "" {
		return Station{}, false
	}
	for _, s := range a.stations {
		if s.Name == name || includesFold(s.Name, name) {
			return s, true
		}
	}
	return Station{}, false
}

// DisplayName is the station name, or UnnamedStation.
func (s Station) DisplayName() string {
	if s.Name == "" {
		return UnnamedStation
	}
	return s.Name
}

// DistrictSummary is one sidebar row.
type DistrictSummary struct {
	Name     string         `json:"name"`
	Level    Classification `json:"level"`
	Color    string         `json:"color"`
	Stations int            `json:"stations"`
}

// DistrictSummaries lists the table districts alphabetically with their
// resolved levels.
func (a *Atlas) DistrictSummaries() []DistrictSummary {
	names := a.table.Districts()
	sort.Strings(names)
	out := make([]DistrictSummary, 0, len(names))
	for _, n := range names {
		levels, _ := a.table.Stations(n)
		level := a.DistrictClassification(n)
		out = append(out, DistrictSummary{Name: n, Level: level, Color: level.Color(), Stations: len(levels)})
	}
	return out
}

// StationSummary is a station row within a district.
type StationSummary struct {
	Name   string           `json:"name"`
	Level  Classification   `json:"level"`
	Color  string           `json:"color"`
	Source ResolutionSource `json:"source"`
}

// Subdistricts lists a table district's stations alphabetically with
// override-aware levels. Unknown districts yield an empty list.
func (a *Atlas) Subdistricts(district string) []StationSummary {
	levels, ok := a.table.Stations(a.CanonicalDistrict(district))
	if !ok {
		return []StationSummary{}
	}
	names := levels.Names()
	sort.Strings(names)
	out := make([]StationSummary, 0, len(names))
	for _, n := range names {
		r := a.ResolveStation(n, a.CanonicalDistrict(district))
		out = append(out, StationSummary{Name: n, Level: r.Level, Color: r.Level.Color(), Source: r.Source})
	}
	return out
}

// StationMarker is a located station with its resolved level.
type StationMarker struct {
	Station  Station          `json:"-"`
	Name     string           `json:"name"`
	Location Point            `json:"location"`
	Level    Classification   `json:"level"`
	Color    string           `json:"color"`
	District string           `json:"district,omitempty"`
	Source   ResolutionSource `json:"source"`
}

// StationMarkers resolves every located station.
func (a *Atlas) StationMarkers() []StationMarker {
	out := make([]StationMarker, 0, len(a.stations))
	for _, s := range a.stations {
		if s.Location == nil {
			continue
		}
		r := a.ResolveStation(s.Name, "")
		out = append(out, StationMarker{
			Station:  s,
			Name:     s.DisplayName(),
			Location: *s.Location,
			Level:    r.Level,
			Color:    r.Level.Color(),
			District: r.District,
			Source:   r.Source,
		})
	}
	return out
}

// NearestStation is a DistanceResult with the station's resolved level.
type NearestStation struct {
	DistanceResult
	Level    Classification `json:"level"`
	District string         `json:"district,omitempty"`
}

// NearestStations ranks stations around the centroid of the named district.
// Unknown districts and districts without geometry yield nil.
func (a *Atlas) NearestStations(district string, limit int) []NearestStation {
	d, ok := a.FindDistrict(district)
	if !ok {
		return nil
	}
	centroid, ok := Centroid(d.Geometry)
	if !ok {
		return nil
	}
	ranked := NearestStations(centroid, a.stations, limit)
	out := make([]NearestStation, 0, len(ranked))
	for _, r := range ranked {
		res := a.ResolveStation(r.Station.Name, "")
		out = append(out, NearestStation{DistanceResult: r, Level: res.Level, District: res.District})
	}
	return out
}
