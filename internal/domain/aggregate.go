package domain

// Upper bounds (inclusive) of the mean weight for each bucket. Anything above
// the last bound is VeryHigh.
var bucketBounds = []struct {
	max   float64
	level Classification
}{
	{1.5, VeryLow},
	{2.5, Low},
	{3.5, Average},
	{4.5, High},
}

// Aggregate reduces per-station ratings to one district level: the mean of the
// recognized weights, bucketed at half-integers. Unrecognized ratings are
// skipped; with none left the result is Average.
func Aggregate(levels StationLevels) Classification {
	total, count := 0, 0
	for _, r := range levels {
		if w := r.Level.Weight(); w > 0 {
			total += w
			count++
		}
	}
	if count == 0 {
		return Average
	}
	return bucket(float64(total) / float64(count))
}

func bucket(mean float64) Classification {
	for _, b := range bucketBounds {
		if mean <= b.max {
			return b.level
		}
	}
	return VeryHigh
}
