package domain

// Override pins a classification for any name matching Pattern.
type Override struct {
	Pattern string
	Level   Classification
}

// OverrideTable is an ordered list of overrides. Order is policy: the first
// matching entry wins.
//
// Matching uses containment in both directions, so a short pattern such as
// "South" would capture every name containing "south". Keep patterns specific.
type OverrideTable []Override

// DefaultOverrides are the curated station-level corrections.
var DefaultOverrides = OverrideTable{
	{"Bridewell", VeryHigh},
	{"Kevin St", VeryHigh},
	{"Pearse St", VeryHigh},
	{"Dun Laoghaire", Low},
	{"Blackrock", Low},
	{"Blanchardstown", Average},
	{"Lucan", High},
	{"Clondalkin", VeryHigh},
	{"Fitzgibbon Street", High},
	{"Store Street", High},
	{"Raheny", Low},
	{"Balbriggan", Average},
	{"Coolock", Low},
	{"Tallaght", High},
	{"Donnybrook", Average},
	{"Terenure", Low},
	{"Ballymun", Average},
	{"Crumlin", High},
}

// Resolve returns the level of the first override whose light-normalized
// pattern equals, contains or is contained by the light-normalized name.
func (t OverrideTable) Resolve(name string) (Classification, bool) {
	o, ok := t.Match(name)
	if !ok {
		return "", false
	}
	return o.Level.OrDefault(), true
}

// Match returns the first matching override entry.
func (t OverrideTable) Match(name string) (Override, bool) {
	n := NormalizeLight(name)
	if n == "" {
		return Override{}, false
	}
	for _, o := range t {
		if containsEither(n, NormalizeLight(o.Pattern)) {
			return o, true
		}
	}
	return Override{}, false
}
