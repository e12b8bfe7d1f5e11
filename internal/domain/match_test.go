package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchDistrict(t *testing.T) {
	keys := []string{"D.M.R. North Central", "D.M.R. South Central", "Kevin Street", "Tallaght"}

	tests := []struct {
		name    string
		polygon string
		want    string
		wantOK  bool
	}{
		{"punctuation differs", "DMR North Central", "D.M.R. North Central", true},
		{"abbreviation differs", "Kevin St", "Kevin Street", true},
		{"polygon contains key", "Tallaght District 2", "Tallaght", true},
		{"key contains polygon", "South Central", "D.M.R. South Central", true},
		{"no match", "Balbriggan", "", false},
		{"empty polygon name", "", "", false},
		{"digits only", "42", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchDistrict(tt.polygon, keys)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchDistrict_FirstMatchWins(t *testing.T) {
	got, ok := MatchDistrict("North", []string{"North", "North Central"})
	assert.True(t, ok)
	assert.Equal(t, "North", got)

	// Order decides, not specificity.
	got, ok = MatchDistrict("North", []string{"North Central", "North"})
	assert.True(t, ok)
	assert.Equal(t, "North Central", got)
}

func TestMatchDistrict_EmptyTableKeyNeverMatches(t *testing.T) {
	got, ok := MatchDistrict("Crumlin", []string{"---", "Crumlin"})
	assert.True(t, ok)
	assert.Equal(t, "Crumlin", got)
}

func TestMatchDistrict_NoCandidates(t *testing.T) {
	_, ok := MatchDistrict("Crumlin", nil)
	assert.False(t, ok)
}
