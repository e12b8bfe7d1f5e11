package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverrideTable_Resolve(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   Classification
		wantOK bool
	}{
		{"exact pattern", "Bridewell", VeryHigh, true},
		{"street spelled out", "Kevin Street", VeryHigh, true},
		{"name contains pattern", "Tallaght Garda Station", High, true},
		{"pattern contains name", "Lucan", High, true},
		{"case and spacing", "  dun   LAOGHAIRE ", Low, true},
		{"no match", "Swords", "", false},
		{"empty name", "", "", false},
		{"whitespace only", "   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DefaultOverrides.Resolve(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOverrideTable_FirstDeclaredWins(t *testing.T) {
	table := OverrideTable{
		{"Raheny", Low},
		{"Raheny Village", VeryHigh},
	}

	got, ok := table.Resolve("Raheny Village")
	assert.True(t, ok)
	assert.Equal(t, Low, got, "earlier entry wins even though the later one is exact")
}

func TestOverrideTable_ShortPatternOverMatches(t *testing.T) {
	// Containment is checked in both directions; a short pattern captures
	// every longer name that contains it.
	table := OverrideTable{{"South", VeryHigh}}

	got, ok := table.Resolve("DMR South Central")
	assert.True(t, ok)
	assert.Equal(t, VeryHigh, got)
}

func TestOverrideTable_InvalidLevelFallsBackToAverage(t *testing.T) {
	table := OverrideTable{{"Swords", Classification("extreme")}}

	got, ok := table.Resolve("Swords")
	assert.True(t, ok)
	assert.Equal(t, Average, got)
}

func TestOverrideTable_Match(t *testing.T) {
	o, ok := DefaultOverrides.Match("Store St")
	assert.True(t, ok)
	assert.Equal(t, "Store Street", o.Pattern)

	_, ok = OverrideTable(nil).Match("Store St")
	assert.False(t, ok)
}
