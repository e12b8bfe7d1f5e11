package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ratings(levels ...Classification) StationLevels {
	out := make(StationLevels, len(levels))
	for i, l := range levels {
		out[i] = StationRating{Station: fmt.Sprintf("s%d", i), Level: l}
	}
	return out
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name   string
		levels StationLevels
		want   Classification
	}{
		{"empty", nil, Average},
		{"single very low", ratings(VeryLow), VeryLow},
		{"extremes average out", ratings(VeryLow, VeryHigh), Average},
		{"high high very high is 4.33", ratings(High, High, VeryHigh), High},
		{"boundary 1.5 is very low", ratings(VeryLow, Low), VeryLow},
		{"boundary 2.5 is low", ratings(Low, Average), Low},
		{"boundary 3.5 is average", ratings(Average, High), Average},
		{"boundary 4.5 is high", ratings(High, VeryHigh), High},
		{"all very high", ratings(VeryHigh, VeryHigh), VeryHigh},
		{"just above 1.5", ratings(VeryLow, Low, Low), Low},
		{"unknown values skipped", ratings(VeryHigh, "extreme", ""), VeryHigh},
		{"only unknown values", ratings("extreme", "HIGH"), Average},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.levels))
		})
	}
}

func TestAggregate_Monotonic(t *testing.T) {
	values := append([]Classification{"unknown"}, Levels...)

	var sets []StationLevels
	for _, a := range values {
		sets = append(sets, ratings(a))
		for _, b := range values {
			sets = append(sets, ratings(a, b))
			for _, c := range values {
				sets = append(sets, ratings(a, b, c))
			}
		}
	}

	for _, set := range sets {
		before := Aggregate(set).Weight()
		for i := range set {
			if !set[i].Level.Valid() {
				continue // unrecognized ratings have no ordinal to raise
			}
			for _, higher := range Levels {
				if higher.Weight() <= set[i].Level.Weight() {
					continue
				}
				raised := set.Clone()
				raised[i].Level = higher
				after := Aggregate(raised).Weight()
				assert.GreaterOrEqual(t, after, before, "raising %v[%d] to %s", set, i, higher)
			}
		}
	}
}
