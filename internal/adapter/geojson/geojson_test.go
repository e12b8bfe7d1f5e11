package geojson

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/twpayne/go-geom"

	"github.com/couchcryptid/crime-map-service/internal/config"
	"github.com/couchcryptid/crime-map-service/internal/domain"
)

const districtsJSON = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{"Name":"Dublin North Central","District_N":"DMR North Central","Division":"DMR North"},
	 "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}},
	{"type":"Feature","properties":{"District_N":42},
	 "geometry":{"type":"MultiPolygon","coordinates":[[[[2,0],[3,0],[3,1],[2,0]]],[[[5,5],[6,5],[6,6],[5,6],[5,5]]]]}},
	{"type":"Feature","properties":{"Name":"Roadway"},"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}},
	{"type":"Feature","properties":{"Name":"Nowhere"},"geometry":null}
]}`

const stationsJSON = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{"Station":"Mountjoy","Address1":"Mountjoy","Address2":"Dublin 1","Phone":"01 666 8600"},
	 "geometry":{"type":"Point","coordinates":[0.5,0.5]}},
	{"type":"Feature","properties":{"Station":"Rathmines","Address1":"Rathmines Road Lower"},"geometry":null}
]}`

const crimeLevelsJSON = `{
	"North Central": {"Mountjoy": "Very High", "Bridewell": " low "},
	"South": {"Rathmines": "bogus", "Kilmainham": 3},
	"West": "n/a",
	"North Central": {"Store Street": "high"}
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecodeDistricts(t *testing.T) {
	ds, err := DecodeDistricts([]byte(districtsJSON))
	require.NoError(t, err)
	require.Len(t, ds, 4)

	assert.Equal(t, "Dublin North Central", ds[0].Name)
	assert.Equal(t, "DMR North Central", ds[0].DistrictN)
	assert.Equal(t, "DMR North", ds[0].Division)
	require.NotNil(t, ds[0].Geometry)
	assert.Equal(t, domain.GeometryPolygon, ds[0].Geometry.Type)
	assert.Equal(t, domain.Ring{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 0, Lat: 1}, {Lon: 0, Lat: 0}}, ds[0].Geometry.Polygons[0][0])

	assert.Equal(t, "42", ds[1].DistrictN, "numeric properties read as text")
	assert.Equal(t, "42", ds[1].DisplayName())
	require.NotNil(t, ds[1].Geometry)
	assert.Equal(t, domain.GeometryMultiPolygon, ds[1].Geometry.Type)
	assert.Len(t, ds[1].Geometry.Polygons, 2)
	assert.Len(t, ds[1].Geometry.Polygons[1][0], 5)

	assert.Nil(t, ds[2].Geometry, "line strings are dropped")
	assert.Nil(t, ds[3].Geometry)
	assert.Equal(t, map[string]any{"Name": "Nowhere"}, ds[3].Properties)
}

func TestDecodeDistricts_Invalid(t *testing.T) {
	_, err := DecodeDistricts([]byte(`{"type":"Feature"}`))
	require.Error(t, err)

	_, err = DecodeDistricts([]byte(`not json`))
	require.Error(t, err)
}

func TestDecodeStations(t *testing.T) {
	ss, err := DecodeStations([]byte(stationsJSON))
	require.NoError(t, err)
	require.Len(t, ss, 2)

	assert.Equal(t, domain.Station{
		Name:     "Mountjoy",
		Location: &domain.Point{Lon: 0.5, Lat: 0.5},
		Address1: "Mountjoy",
		Address2: "Dublin 1",
		Phone:    "01 666 8600",
	}, ss[0])
	assert.Nil(t, ss[1].Location)
	assert.Equal(t, "Rathmines Road Lower", ss[1].Address1)
}

func TestDecodeCrimeLevels(t *testing.T) {
	table, err := DecodeCrimeLevels([]byte(crimeLevelsJSON))
	require.NoError(t, err)

	assert.Equal(t, []string{"North Central", "South", "West"}, table.Districts(), "document order, duplicates keep first position")

	nc, ok := table.Stations("North Central")
	require.True(t, ok)
	assert.Equal(t, domain.StationLevels{{Station: "Store Street", Level: domain.High}}, nc, "later duplicate wins")

	south, ok := table.Stations("South")
	require.True(t, ok)
	assert.Equal(t, domain.StationLevels{
		{Station: "Rathmines", Level: "bogus"},
		{Station: "Kilmainham", Level: "3"},
	}, south)

	west, ok := table.Stations("West")
	require.True(t, ok)
	assert.Empty(t, west)
}

func TestDecodeCrimeLevels_Canonicalizes(t *testing.T) {
	table, err := DecodeCrimeLevels([]byte(`{"A":{"x":"Very High","y":" low "}}`))
	require.NoError(t, err)

	levels, _ := table.Stations("A")
	assert.Equal(t, domain.StationLevels{{Station: "x", Level: domain.VeryHigh}, {Station: "y", Level: domain.Low}}, levels)
}

func TestDecodeCrimeLevels_Invalid(t *testing.T) {
	_, err := DecodeCrimeLevels([]byte(`{"A":`))
	require.Error(t, err)

	_, err = DecodeCrimeLevels([]byte(`["A"]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected an object")
}

func TestDistrictGeometry_Unsupported(t *testing.T) {
	_, err := districtGeometry(geom.NewLineString(geom.XY))
	assert.True(t, errors.Is(err, ErrUnsupportedGeometry))

	_, err = districtGeometry(nil)
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)

	_, err = stationLocation(geom.NewPolygon(geom.XY))
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
}

func TestEncodeDistricts(t *testing.T) {
	districts, err := DecodeDistricts([]byte(districtsJSON))
	require.NoError(t, err)
	table, err := DecodeCrimeLevels([]byte(crimeLevelsJSON))
	require.NoError(t, err)
	domain.Reconcile(districts, nil, table, domain.DefaultOverrides)

	data, err := EncodeDistricts(districts)
	require.NoError(t, err)

	doc := gjson.ParseBytes(data)
	assert.Equal(t, "FeatureCollection", doc.Get("type").String())
	assert.Equal(t, int64(4), doc.Get("features.#").Int())

	first := doc.Get("features.0.properties")
	assert.Equal(t, "Dublin North Central", first.Get("Name").String(), "source properties kept")
	assert.Equal(t, "North Central", first.Get(PropLabel).String())
	assert.Equal(t, "high", first.Get(PropClassification).String())
	assert.Equal(t, "#fb923c", first.Get(PropColor).String())
	assert.Equal(t, "North Central", first.Get(PropMatchedDistrict).String())
	assert.Equal(t, `["Store Street"]`, first.Get(PropStations).Raw)
	assert.Equal(t, "Store Street", first.Get(PropStationLevels+".0.station").String())
	assert.False(t, first.Get(PropOverridden).Bool())

	last := doc.Get("features.3")
	assert.Equal(t, gjson.Null, last.Get("properties."+PropMatchedDistrict).Type)
	assert.Equal(t, "average", last.Get("properties."+PropClassification).String())
	assert.Equal(t, "[]", last.Get("properties."+PropStations).Raw)

	roundTrip, err := DecodeDistricts(data)
	require.NoError(t, err)
	assert.Equal(t, districts[0].Geometry, roundTrip[0].Geometry)
	assert.Equal(t, districts[1].Geometry, roundTrip[1].Geometry)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSource_Load(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/levels.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(crimeLevelsJSON))
	}))
	defer srv.Close()

	fetchedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	src := NewSource(&config.Config{
		DistrictsSource:   writeFile(t, dir, "districts.geojson", districtsJSON),
		StationsSource:    writeFile(t, dir, "stations.geojson", stationsJSON),
		CrimeLevelsSource: srv.URL + "/levels.json",
		FetchTimeout:      5 * time.Second,
	}, discardLogger())
	src.clock = clockwork.NewFakeClockAt(fetchedAt)

	ds, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, ds.Districts, 4)
	assert.Len(t, ds.Stations, 2)
	assert.Equal(t, 3, ds.CrimeLevels.Len())
	assert.Equal(t, fetchedAt, ds.FetchedAt)
}

func TestSource_LoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	src := NewSource(&config.Config{
		DistrictsSource:   filepath.Join(dir, "missing.geojson"),
		StationsSource:    writeFile(t, dir, "stations.geojson", stationsJSON),
		CrimeLevelsSource: writeFile(t, dir, "levels.json", crimeLevelsJSON),
		FetchTimeout:      time.Second,
	}, discardLogger())

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "missing.geojson")
}

func TestSource_LoadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	dir := t.TempDir()
	src := NewSource(&config.Config{
		DistrictsSource:   writeFile(t, dir, "districts.geojson", districtsJSON),
		StationsSource:    srv.URL + "/stations.geojson",
		CrimeLevelsSource: writeFile(t, dir, "levels.json", crimeLevelsJSON),
		FetchTimeout:      time.Second,
	}, discardLogger())

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSource_LoadDecodeError(t *testing.T) {
	dir := t.TempDir()
	src := NewSource(&config.Config{
		DistrictsSource:   writeFile(t, dir, "districts.geojson", districtsJSON),
		StationsSource:    writeFile(t, dir, "stations.geojson", stationsJSON),
		CrimeLevelsSource: writeFile(t, dir, "levels.json", `[]`),
		FetchTimeout:      time.Second,
	}, discardLogger())

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crime levels")
}
