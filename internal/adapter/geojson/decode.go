package geojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/twpayne/go-geom"
	geomjson "github.com/twpayne/go-geom/encoding/geojson"

	"github.com/couchcryptid/crime-map-service/internal/domain"
)

// ErrUnsupportedGeometry is returned when a feature's geometry is not one the
// collection can hold. Decoders drop such geometries and keep the feature.
var ErrUnsupportedGeometry = errors.New("unsupported geometry")

// DecodeDistricts parses a district FeatureCollection. Features whose geometry
// is missing or not a Polygon/MultiPolygon keep a nil Geometry.
func DecodeDistricts(data []byte) ([]domain.District, error) {
	var fc geomjson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode district collection: %w", err)
	}

	districts := make([]domain.District, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		d := domain.District{
			Name:       stringProp(f.Properties, "Name"),
			DistrictN:  stringProp(f.Properties, "District_N"),
			Station:    stringProp(f.Properties, "Station"),
			Division:   stringProp(f.Properties, "Division"),
			Properties: f.Properties,
		}
		if g, err := districtGeometry(f.Geometry); err == nil {
			d.Geometry = g
		}
		districts = append(districts, d)
	}
	return districts, nil
}

// DecodeStations parses a station FeatureCollection. Features without a Point
// geometry keep a nil Location.
func DecodeStations(data []byte) ([]domain.Station, error) {
	var fc geomjson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode station collection: %w", err)
	}

	stations := make([]domain.Station, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		s := domain.Station{
			Name:     stringProp(f.Properties, "Station"),
			Address1: stringProp(f.Properties, "Address1"),
			Address2: stringProp(f.Properties, "Address2"),
			Address3: stringProp(f.Properties, "Address3"),
			Phone:    stringProp(f.Properties, "Phone"),
		}
		if p, err := stationLocation(f.Geometry); err == nil {
			s.Location = p
		}
		stations = append(stations, s)
	}
	return stations, nil
}

// DecodeCrimeLevels parses the district → station → level object, keeping
// the document order of both levels. Recognized levels are canonicalized;
// anything else is kept verbatim so it can be reported. A district whose value
// is not an object has no ratings.
func DecodeCrimeLevels(data []byte) (*domain.CrimeLevelTable, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("decode crime levels: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("decode crime levels: expected an object, got %s", root.Type)
	}

	table := domain.NewCrimeLevelTable()
	root.ForEach(func(district, stations gjson.Result) bool {
		var levels domain.StationLevels
		if stations.IsObject() {
			levels = domain.StationLevels{}
			stations.ForEach(func(station, level gjson.Result) bool {
				levels = append(levels, domain.StationRating{
					Station: station.String(),
					Level:   parseLevel(level),
				})
				return true
			})
		}
		table.Add(district.String(), levels)
		return true
	})
	return table, nil
}

func parseLevel(v gjson.Result) domain.Classification {
	if v.Type != gjson.String {
		return domain.Classification(v.Raw)
	}
	if c, ok := domain.ParseClassification(v.Str); ok {
		return c
	}
	return domain.Classification(v.Str)
}

func districtGeometry(g geom.T) (*domain.Geometry, error) {
	switch g := g.(type) {
	case *geom.Polygon:
		return &domain.Geometry{
			Type:     domain.GeometryPolygon,
			Polygons: []domain.Polygon{toPolygon(g.Coords())},
		}, nil
	case *geom.MultiPolygon:
		coords := g.Coords()
		polys := make([]domain.Polygon, len(coords))
		for i, p := range coords {
			polys[i] = toPolygon(p)
		}
		return &domain.Geometry{Type: domain.GeometryMultiPolygon, Polygons: polys}, nil
	case nil:
		return nil, fmt.Errorf("district: missing geometry: %w", ErrUnsupportedGeometry)
	default:
		return nil, fmt.Errorf("district: %T: %w", g, ErrUnsupportedGeometry)
	}
}

func stationLocation(g geom.T) (*domain.Point, error) {
	p, ok := g.(*geom.Point)
	if !ok || p == nil {
		return nil, fmt.Errorf("station: %T: %w", g, ErrUnsupportedGeometry)
	}
	if p.Empty() {
		return nil, fmt.Errorf("station: empty point: %w", ErrUnsupportedGeometry)
	}
	return &domain.Point{Lon: p.X(), Lat: p.Y()}, nil
}

func toPolygon(rings [][]geom.Coord) domain.Polygon {
	out := make(domain.Polygon, len(rings))
	for i, ring := range rings {
		r := make(domain.Ring, len(ring))
		for j, c := range ring {
			r[j] = domain.Point{Lon: c.X(), Lat: c.Y()}
		}
		out[i] = r
	}
	return out
}

// stringProp reads a property as text. Numbers are formatted without
// exponent; anything else reads as "".
func stringProp(props map[string]any, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
