package domain

// MatchDistrict links a polygon name to a crime-level table district. Names are
// compared in strict-normalized form; the first table name that equals,
// contains or is contained by the polygon name wins, in the order given.
// Returns false when nothing matches or the polygon name normalizes to "".
func MatchDistrict(polygonName string, tableNames []string) (string, bool) {
	n := NormalizeStrict(polygonName)
	if n == "" {
		return "", false
	}
	for _, candidate := range tableNames {
		if containsEither(n, NormalizeStrict(candidate)) {
			return candidate, true
		}
	}
	return "", false
}
