package domain

import "time"

// Point is a WGS-84 coordinate in GeoJSON [lon, lat] order.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Ring is an ordered list of vertices. GeoJSON rings repeat the first vertex
// at the end; that vertex is kept and counted like any other.
type Ring []Point

// Polygon is an outer ring followed by zero or more holes.
type Polygon []Ring

// GeometryType distinguishes single from multi-part boundaries.
type GeometryType string

const (
	GeometryPolygon      GeometryType = "Polygon"
	GeometryMultiPolygon GeometryType = "MultiPolygon"
)

// Geometry is a district boundary. A Polygon geometry has exactly one entry
// in Polygons.
type Geometry struct {
	Type     GeometryType
	Polygons []Polygon
}

// DistrictAttributes are the values Reconcile derives for a district.
type DistrictAttributes struct {
	Classification  Classification `json:"classification"`
	MatchedDistrict string         `json:"matched_district,omitempty"` // "" when unmatched
	Stations        []string       `json:"stations"`
	StationLevels   StationLevels  `json:"station_levels"`
	Overridden      bool           `json:"overridden,omitempty"`
}

// District is one boundary feature. Only Derived is written by this package.
type District struct {
	Name       string         // "Name" property
	DistrictN  string         // "District_N" property
	Station    string         // optional "Station" property
	Division   string         // optional "Division" property
	Geometry   *Geometry      // nil when the feature has no geometry
	Properties map[string]any // raw property bag, passed through untouched

	Derived DistrictAttributes
}

// DisplayName is the first non-empty of Name and District_N.
func (d *District) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.DistrictN
}

// Label is the name shown to users: the matched table district when there is
// one, otherwise the display name.
func (d *District) Label() string {
	if d.Derived.MatchedDistrict != "" {
		return d.Derived.MatchedDistrict
	}
	return d.DisplayName()
}

// Station is a point feature. Contact fields are opaque to reconciliation.
type Station struct {
	Name     string `json:"name"`
	Location *Point `json:"location,omitempty"` // nil when the feature has no usable geometry
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	Address3 string `json:"address3,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// StationRating is one station's raw entry in the crime-level table. Level is
// kept as published and may be unrecognized.
type StationRating struct {
	Station string         `json:"station"`
	Level   Classification `json:"level"`
}

// StationLevels is a district's ratings in source order.
type StationLevels []StationRating

// Names returns the station names in source order.
func (s StationLevels) Names() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = r.Station
	}
	return out
}

// Lookup finds a station by exact name.
func (s StationLevels) Lookup(station string) (Classification, bool) {
	for _, r := range s {
		if r.Station == station {
			return r.Level, true
		}
	}
	return "", false
}

// Clone returns an independent copy.
func (s StationLevels) Clone() StationLevels {
	if s == nil {
		return nil
	}
	out := make(StationLevels, len(s))
	copy(out, s)
	return out
}

// DistrictEntry is one top-level key of the crime-level table.
type DistrictEntry struct {
	District string
	Stations StationLevels
}

// CrimeLevelTable maps district → station → level and remembers the order in
// which districts and stations were published. Matching depends on that order.
type CrimeLevelTable struct {
	entries []DistrictEntry
	index   map[string]int
}

// NewCrimeLevelTable builds a table from entries in source order. A repeated
// district name replaces the earlier entry's stations but keeps its position.
func NewCrimeLevelTable(entries ...DistrictEntry) *CrimeLevelTable {
	t := &CrimeLevelTable{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		t.Add(e.District, e.Stations)
	}
	return t
}

// Add appends or replaces a district entry.
func (t *CrimeLevelTable) Add(district string, stations StationLevels) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[district]; ok {
		t.entries[i].Stations = stations
		return
	}
	t.index[district] = len(t.entries)
	t.entries = append(t.entries, DistrictEntry{District: district, Stations: stations})
}

// Districts returns the district names in source order.
func (t *CrimeLevelTable) Districts() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.District
	}
	return out
}

// Entries returns the entries in source order. Callers must not modify them.
func (t *CrimeLevelTable) Entries() []DistrictEntry {
	if t == nil {
		return nil
	}
	return t.entries
}

// Stations returns the ratings for an exact district key.
func (t *CrimeLevelTable) Stations(district string) (StationLevels, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.index[district]
	if !ok {
		return nil, false
	}
	return t.entries[i].Stations, true
}

// Len is the number of districts.
func (t *CrimeLevelTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Dataset bundles the three fetched sources.
type Dataset struct {
	Districts   []District
	Stations    []Station
	CrimeLevels *CrimeLevelTable
	FetchedAt   time.Time
}
