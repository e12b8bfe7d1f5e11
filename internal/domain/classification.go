package domain

import (
	"fmt"
	"strings"
)

// Classification is the five-level ordinal crime rating.
type Classification string

const (
	VeryLow  Classification = "very low"
	Low      Classification = "low"
	Average  Classification = "average"
	High     Classification = "high"
	VeryHigh Classification = "very high"
)

// Levels lists every classification in ascending order.
var Levels = []Classification{VeryLow, Low, Average, High, VeryHigh}

var weights = map[Classification]int{
	VeryLow:  1,
	Low:      2,
	Average:  3,
	High:     4,
	VeryHigh: 5,
}

var colors = map[Classification]string{
	VeryLow:  "#4ade80",
	Low:      "#a3e635",
	Average:  "#fcd34d",
	High:     "#fb923c",
	VeryHigh: "#ef4444",
}

var indexRanges = map[Classification]string{
	VeryLow:  "0-20",
	Low:      "21-40",
	Average:  "41-60",
	High:     "61-80",
	VeryHigh: "81-100",
}

// ParseClassification accepts the lowercase, space-separated form used by the
// crime-level table. Surrounding whitespace and case are ignored.
func ParseClassification(s string) (Classification, bool) {
	c := Classification(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", false
	}
	return c, true
}

// Valid reports whether c is one of the five recognized levels.
func (c Classification) Valid() bool {
	_, ok := weights[c]
	return ok
}

// Weight returns the averaging weight (1-5), or 0 for unrecognized values.
func (c Classification) Weight() int {
	return weights[c]
}

// OrDefault returns c when valid and Average otherwise.
func (c Classification) OrDefault() Classification {
	if c.Valid() {
		return c
	}
	return Average
}

// Color is the choropleth fill for the level.
func (c Classification) Color() string {
	return colors[c.OrDefault()]
}

// IndexRange is the legend bucket label, e.g. "41-60".
func (c Classification) IndexRange() string {
	return indexRanges[c.OrDefault()]
}

// Title capitalizes the first letter: "very high" -> "Very high".
func (c Classification) Title() string {
	s := string(c.OrDefault())
	return strings.ToUpper(s[:1]) + s[1:]
}

// Describe returns the detail-panel sentence for a place at this level.
func (c Classification) Describe(place string) string {
	switch c {
	case VeryHigh:
		return fmt.Sprintf("%s has a very high crime rate compared to other areas. Residents and visitors should take extra precautions, especially at night.", place)
	case High:
		return fmt.Sprintf("%s has a higher than average crime rate. While many areas are safe, awareness of your surroundings is recommended.", place)
	case Average:
		return fmt.Sprintf("%s has an average crime rate. Standard urban safety precautions are advised.", place)
	case Low:
		return fmt.Sprintf("%s has a relatively low crime rate and is considered one of the safer areas.", place)
	case VeryLow:
		return fmt.Sprintf("%s has a very low crime rate and is among the safest neighborhoods.", place)
	default:
		return fmt.Sprintf("Crime data is not specifically available for %s.", place)
	}
}

// LegendEntry is one row of the choropleth legend.
type LegendEntry struct {
	Level Classification `json:"level"`
	Label string         `json:"label"`
	Color string         `json:"color"`
	Range string         `json:"range"`
}

// Legend returns the legend rows in ascending order.
func Legend() []LegendEntry {
	out := make([]LegendEntry, 0, len(Levels))
	for _, l := range Levels {
		out = append(out, LegendEntry{Level: l, Label: l.Title(), Color: l.Color(), Range: l.IndexRange()})
	}
	return out
}
