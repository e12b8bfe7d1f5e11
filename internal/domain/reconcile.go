package domain

// InvalidLevel records a table rating that is not one of the five levels.
type InvalidLevel struct {
	District string `json:"district"`
	Station  string `json:"station"`
	Value    string `json:"value"`
}

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	Districts        int            `json:"districts"`
	Matched          int            `json:"matched"`
	Overridden       int            `json:"overridden"`
	Unmatched        []string       `json:"unmatched,omitempty"`
	UnusedTableKeys  []string       `json:"unused_table_keys,omitempty"`
	InvalidLevels    []InvalidLevel `json:"invalid_levels,omitempty"`
	Stations         int            `json:"stations"`
	StationsLocated  int            `json:"stations_located"`
	StationsAssigned int            `json:"stations_assigned"`
}

// Reconcile decorates every district in place and returns an Atlas for
// queries over the reconciled data. Per district:
//
//  1. take the display name (Name, else District_N);
//  2. match it against the table districts in order; on a match aggregate that
//     district's ratings, otherwise use Average;
//  3. let an override on the display name replace the headline level;
//  4. store the matched key, station names and ratings whether or not an
//     override applied.
//
// Derived attributes are rebuilt from scratch, so reconciling the same data
// twice yields identical districts. A nil table reconciles everything to
// Average.
func Reconcile(districts []District, stations []Station, table *CrimeLevelTable, overrides OverrideTable) *Atlas {
	if table == nil {
		table = NewCrimeLevelTable()
	}
	keys := table.Districts()
	report := ReconcileReport{Districts: len(districts), Stations: len(stations)}
	used := make(map[string]bool, len(keys))

	for i := range districts {
		d := &districts[i]
		d.Derived = decorate(d.DisplayName(), keys, table, overrides)
		if d.Derived.MatchedDistrict != "" {
			report.Matched++
			used[d.Derived.MatchedDistrict] = true
		} else {
			report.Unmatched = append(report.Unmatched, d.DisplayName())
		}
		if d.Derived.Overridden {
			report.Overridden++
		}
	}

	for _, e := range table.Entries() {
		if !used[e.District] {
			report.UnusedTableKeys = append(report.UnusedTableKeys, e.District)
		}
		for _, r := range e.Stations {
			if !r.Level.Valid() {
				report.InvalidLevels = append(report.InvalidLevels, InvalidLevel{
					District: e.District, Station: r.Station, Value: string(r.Level),
				})
			}
		}
	}

	a := &Atlas{
		districts:    districts,
		stations:     stations,
		table:        table,
		overrides:    overrides,
		reconciledAt: clock.Now(),
	}
	a.assignStations(&report)
	a.report = report
	return a
}

func decorate(name string, keys []string, table *CrimeLevelTable, overrides OverrideTable) DistrictAttributes {
	attrs := DistrictAttributes{Classification: Average}

	if matched, ok := MatchDistrict(name, keys); ok {
		levels, _ := table.Stations(matched)
		attrs.MatchedDistrict = matched
		attrs.Classification = Aggregate(levels)
		attrs.Stations = levels.Names()
		attrs.StationLevels = levels.Clone()
	}

	if level, ok := overrides.Resolve(name); ok {
		attrs.Classification = level
		attrs.Overridden = true
	}
	return attrs
}
