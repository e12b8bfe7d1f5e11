package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned for a selection change the current state
// does not allow. The session is left unchanged.
var ErrInvalidTransition = errors.New("invalid selection transition")

// SelectionState is the browsing state shared by map, sidebar and detail panel.
type SelectionState int

const (
	NoSelection SelectionState = iota
	DistrictSelected
	SubdistrictSelected
)

func (s SelectionState) String() string {
	switch s {
	case NoSelection:
		return "none"
	case DistrictSelected:
		return "district"
	case SubdistrictSelected:
		return "subdistrict"
	default:
		return fmt.Sprintf("SelectionState(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s SelectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Transition describes a completed selection change.
type Transition struct {
	From     SelectionState
	To       SelectionState
	District string
	Station  string
}

// Session holds one user's selection over an Atlas. It is not safe for
// concurrent use; each UI owns its own session.
//
//	none ──SelectDistrict──▶ district ──SelectSubdistrict──▶ subdistrict
//	  ▲                        ▲  ▲                              │
//	  └────────Reset───────────┘  └───────CloseSubdistrict───────┘
//
// SelectDistrict is valid from every state and clears any subdistrict; Reset
// returns to none from every state.
type Session struct {
	atlas        *Atlas
	state        SelectionState
	district     string
	station      string
	nearestLimit int
	listeners    []func(Transition)
}

// NewSession starts a session with nothing selected.
func NewSession(atlas *Atlas) *Session {
	return &Session{atlas: atlas}
}

// SetNearestLimit sets how many nearby stations the district view lists.
// Values <= 0 use DefaultNearestLimit.
func (s *Session) SetNearestLimit(n int) {
	s.nearestLimit = n
}

// State returns the current state.
func (s *Session) State() SelectionState { return s.state }

// District returns the selected district, or "".
func (s *Session) District() string { return s.district }

// Station returns the selected subdistrict station, or "".
func (s *Session) Station() string { return s.station }

// OnTransition registers fn to be called after every successful transition.
func (s *Session) OnTransition(fn func(Transition)) {
	s.listeners = append(s.listeners, fn)
}

// SelectDistrict selects a district by any of its known names. The stored
// name is the matched table district when one exists.
func (s *Session) SelectDistrict(name string) error {
	if name == "" {
		return fmt.Errorf("select district: empty name: %w", ErrInvalidTransition)
	}
	s.move(DistrictSelected, s.atlas.CanonicalDistrict(name), "")
	return nil
}

// SelectSubdistrict selects a station within the selected district.
func (s *Session) SelectSubdistrict(station string) error {
	if s.state != DistrictSelected {
		return fmt.Errorf("select subdistrict from %s: %w", s.state, ErrInvalidTransition)
	}
	if station == "" {
		return fmt.Errorf("select subdistrict: empty name: %w", ErrInvalidTransition)
	}
	s.move(SubdistrictSelected, s.district, station)
	return nil
}

// CloseSubdistrict returns from a station to its district.
func (s *Session) CloseSubdistrict() error {
	if s.state != SubdistrictSelected {
		return fmt.Errorf("close subdistrict from %s: %w", s.state, ErrInvalidTransition)
	}
	s.move(DistrictSelected, s.district, "")
	return nil
}

// Reset clears the selection.
func (s *Session) Reset() {
	s.move(NoSelection, "", "")
}

func (s *Session) move(to SelectionState, district, station string) {
	t := Transition{From: s.state, To: to, District: district, Station: station}
	s.state, s.district, s.station = to, district, station
	for _, fn := range s.listeners {
		fn(t)
	}
}

// View is everything the UI needs to render the current state.
type View struct {
	State       SelectionState    `json:"state"`
	Legend      []LegendEntry     `json:"legend"`
	Districts   []DistrictSummary `json:"districts"`
	District    *DistrictView     `json:"district,omitempty"`
	Subdistrict *SubdistrictView  `json:"subdistrict,omitempty"`
}

// DistrictView is the detail panel for a selected district.
type DistrictView struct {
	Name        string           `json:"name"`
	Level       Classification   `json:"level"`
	Color       string           `json:"color"`
	Description string           `json:"description"`
	Stations    []StationSummary `json:"stations"`
	Nearest     []NearestStation `json:"nearest"`
}

// SubdistrictView is the detail panel for a selected station.
type SubdistrictView struct {
	Name        string           `json:"name"`
	District    string           `json:"district"`
	Level       Classification   `json:"level"`
	Color       string           `json:"color"`
	Source      ResolutionSource `json:"source"`
	Station     *Station         `json:"station,omitempty"` // nil when no station feature matched
	Description string           `json:"description"`
}

// View resolves the data bundle for the current state.
func (s *Session) View() View {
	v := View{
		State:     s.state,
		Legend:    Legend(),
		Districts: s.atlas.DistrictSummaries(),
	}
	if s.state == NoSelection {
		return v
	}

	v.District = s.atlas.DistrictView(s.district, s.nearestLimit)
	if s.state == SubdistrictSelected {
		v.Subdistrict = s.atlas.SubdistrictView(s.district, s.station)
	}
	return v
}

// DistrictView builds the district detail panel.
func (a *Atlas) DistrictView(district string, nearestLimit int) *DistrictView {
	level := a.DistrictClassification(district)
	return &DistrictView{
		Name:        district,
		Level:       level,
		Color:       level.Color(),
		Description: level.Describe(district),
		Stations:    a.Subdistricts(district),
		Nearest:     a.NearestStations(district, nearestLimit),
	}
}

// SubdistrictView builds the station detail panel.
func (a *Atlas) SubdistrictView(district, station string) *SubdistrictView {
	r := a.ResolveStation(station, district)
	v := &SubdistrictView{
		Name:        station,
		District:    district,
		Level:       r.Level,
		Color:       r.Level.Color(),
		Source:      r.Source,
		Description: fmt.Sprintf("Part of the %s district.", district),
	}
	if st, ok := a.FindStation(station); ok {
		v.Station = &st
	}
	return v
}
