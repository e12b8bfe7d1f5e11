package geojson

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/twpayne/go-geom"
	geomjson "github.com/twpayne/go-geom/encoding/geojson"

	"github.com/couchcryptid/crime-map-service/internal/domain"
)

// Property keys added to every feature by EncodeDistricts.
const (
	PropLabel           = "label"
	PropClassification  = "classification"
	PropColor           = "color"
	PropMatchedDistrict = "matched_district"
	PropStations        = "stations"
	PropStationLevels   = "station_levels"
	PropOverridden      = "overridden"
)

// EncodeDistricts renders decorated districts as a FeatureCollection for the
// map layer. The original properties are kept and the derived attributes are
// added alongside them.
func EncodeDistricts(districts []domain.District) ([]byte, error) {
	fc := geomjson.FeatureCollection{Features: make([]*geomjson.Feature, 0, len(districts))}
	for i := range districts {
		d := &districts[i]
		g, err := toGeom(d.Geometry)
		if err != nil {
			return nil, fmt.Errorf("encode district %q: %w", d.Label(), err)
		}
		fc.Features = append(fc.Features, &geomjson.Feature{
			Geometry:   g,
			Properties: decoratedProperties(d),
		})
	}
	data, err := json.Marshal(&fc)
	if err != nil {
		return nil, fmt.Errorf("encode district collection: %w", err)
	}
	return data, nil
}

func decoratedProperties(d *domain.District) map[string]any {
	props := make(map[string]any, len(d.Properties)+7)
	maps.Copy(props, d.Properties)

	stations := d.Derived.Stations
	if stations == nil {
		stations = []string{}
	}
	levels := d.Derived.StationLevels
	if levels == nil {
		levels = domain.StationLevels{}
	}
	var matched any
	if d.Derived.MatchedDistrict != "" {
		matched = d.Derived.MatchedDistrict
	}

	props[PropLabel] = d.Label()
	props[PropClassification] = d.Derived.Classification.OrDefault()
	props[PropColor] = d.Derived.Classification.Color()
	props[PropMatchedDistrict] = matched
	props[PropStations] = stations
	props[PropStationLevels] = levels
	props[PropOverridden] = d.Derived.Overridden
	return props
}

func toGeom(g *domain.Geometry) (geom.T, error) {
	if g == nil || len(g.Polygons) == 0 {
		return nil, nil
	}
	switch g.Type {
	case domain.GeometryPolygon:
		p, err := geom.NewPolygon(geom.XY).SetCoords(fromPolygon(g.Polygons[0]))
		if err != nil {
			return nil, err
		}
		return p, nil
	case domain.GeometryMultiPolygon:
		coords := make([][][]geom.Coord, len(g.Polygons))
		for i, p := range g.Polygons {
			coords[i] = fromPolygon(p)
		}
		mp, err := geom.NewMultiPolygon(geom.XY).SetCoords(coords)
		if err != nil {
			return nil, err
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("%s: %w", g.Type, ErrUnsupportedGeometry)
	}
}

func fromPolygon(p domain.Polygon) [][]geom.Coord {
	out := make([][]geom.Coord, len(p))
	for i, ring := range p {
		r := make([]geom.Coord, len(ring))
		for j, pt := range ring {
			r[j] = geom.Coord{pt.Lon, pt.Lat}
		}
		out[i] = r
	}
	return out
}
