// Package domain reconciles district boundaries, station locations and a
// district → station crime-level table into classified districts.
//
// # Data Sources
//
// Three datasets are published independently and never share identifiers:
//
//	district_shape.geojson  Polygon/MultiPolygon features, properties Name or
//	                        District_N (optionally Station, Division).
//	garda_station.geojson   Point features, properties Station, Address1-3, Phone.
//	garda_heat.json         {"<district>": {"<station>": "<level>", ...}, ...}
//
// Names drift between the three: "Kevin Street" vs "Kevin St", "D.M.R. South
// Central" vs "DMR South Central", trailing digits, stray punctuation.
//
// # Name Normalization
//
// Two normalizers exist and are not interchangeable:
//
//	NormalizeLight   lowercase, street→st, road→rd, avenue→ave, drop whitespace.
//	                 Used for override matching.
//	NormalizeStrict  same abbreviations, then keep only a-z. Used for matching
//	                 polygon names to table districts.
//
// Both matchers accept equality or containment in either direction and take the
// first candidate in declaration order. First-match is the canonical policy:
// given table keys ["North", "North Central"], a polygon named "North" resolves
// to "North".
//
// # Classification
//
// Five ordinal levels with weights used for averaging:
//
//	very low 1 | low 2 | average 3 | high 4 | very high 5
//
// A district's level is the mean weight of its station ratings bucketed at
// half-integers (≤1.5, ≤2.5, ≤3.5, ≤4.5, above). Unknown rating strings are
// skipped. "average" is the fallback whenever nothing matched.
//
// Curated overrides always win over table-derived values for the headline
// classification, but never rewrite the stored per-station breakdown.
//
// # Distance
//
// Distances are planar: Euclidean distance in degrees multiplied by 111 km,
// without latitude correction, rounded to one decimal. Good enough to rank the
// nearest stations of a city-scale district.
package domain
