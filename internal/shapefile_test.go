package internal

import (
	"archive/zip"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	spatialindex "region-index/spatial-index"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

var pumas = LoadOptions{IDField: "PUMACE10", NameField: "NAMELSAD10", NamePrefix: "Chicago City", ZeroPad: 5}

// clockwise square, an outer ring under the ESRI convention
func cwSquare(minX, minY, maxX, maxY float64) []shp.Point {
	return []shp.Point{{X: minX, Y: minY}, {X: minX, Y: maxY}, {X: maxX, Y: maxY}, {X: maxX, Y: minY}, {X: minX, Y: minY}}
}

// counter-clockwise square, a hole
func ccwSquare(minX, minY, maxX, maxY float64) []shp.Point {
	return []shp.Point{{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: maxY}, {X: minX, Y: maxY}, {X: minX, Y: minY}}
}

func writePumaShapefile(t *testing.T, dir string) string {
	t.Helper()
	filename := filepath.Join(dir, "pumas.shp")

	w, err := shp.Create(filename, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("PUMACE10", 5),
		shp.StringField("NAMELSAD10", 80),
	}))

	rows := []struct {
		id    string
		name  string
		parts [][]shp.Point
	}{
		{
			id:    "3165",
			name:  "Chicago City (South)--Chicago Lawn",
			parts: [][]shp.Point{cwSquare(0, 0, 4, 4), ccwSquare(1, 1, 3, 3), cwSquare(5, 0, 6, 1)},
		},
		{id: "3520", name: "Cook County (Northwest)--Palatine", parts: [][]shp.Point{cwSquare(10, 10, 11, 11)}},
		{id: "3502", name: "Chicago City (North)--Rogers Park", parts: [][]shp.Point{cwSquare(0, 5, 2, 7)}},
	}
	for i, row := range rows {
		polygon := shp.Polygon(*shp.NewPolyLine(row.parts))
		w.Write(&polygon)
		require.NoError(t, w.WriteAttribute(i, 0, row.id))
		require.NoError(t, w.WriteAttribute(i, 1, row.name))
	}
	w.Close()
	return filename
}

func requirePumas(t *testing.T, regions []spatialindex.Region) {
	t.Helper()
	require.Len(t, regions, 2, "non-Chicago PUMA filtered out by name prefix")
	require.Equal(t, "03165", regions[0].ID)
	require.Equal(t, "Chicago City (South)--Chicago Lawn", regions[0].Name)
	require.Len(t, regions[0].Polygon, 2, "multi-part polygon")
	require.Len(t, regions[0].Polygon[0], 2, "hole attached to first part")
	require.Equal(t, "03502", regions[1].ID)

	idx, err := spatialindex.BuildIndex(regions, spatialindex.WithCapacity(1))
	require.NoError(t, err)

	testCases := []struct {
		point    orb.Point
		expected []string
	}{
		{point: orb.Point{0.5, 0.5}, expected: []string{"03165"}},
		{point: orb.Point{2, 2}, expected: []string{}},
		{point: orb.Point{5.5, 0.5}, expected: []string{"03165"}},
		{point: orb.Point{1, 6}, expected: []string{"03502"}},
		{point: orb.Point{10.5, 10.5}, expected: []string{}},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, idx.Query(tc.point), tc.point)
	}
}

func TestLoadShapefile(t *testing.T) {
	filename := writePumaShapefile(t, t.TempDir())

	regions, err := LoadRegions(filename, pumas)
	require.NoError(t, err)
	requirePumas(t, regions)
}

func TestLoadShapefile_UnknownIDField(t *testing.T) {
	filename := writePumaShapefile(t, t.TempDir())

	_, err := LoadShapefile(filename, LoadOptions{IDField: "GEOID10"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "has no 'GEOID10' field")
}

func TestLoadShapefile_MissingDBF(t *testing.T) {
	src := writePumaShapefile(t, t.TempDir())

	dir := t.TempDir()
	for _, ext := range []string{".shp", ".shx"} {
		copyFile(t, src[:len(src)-4]+ext, filepath.Join(dir, "pumas"+ext))
	}

	_, err := LoadShapefile(filepath.Join(dir, "pumas.shp"), pumas)
	require.Error(t, err)
	require.Contains(t, err.Error(), "has no attribute table")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func zipShapefile(t *testing.T, shpfile string) string {
	t.Helper()
	bundle := filepath.Join(t.TempDir(), "tl_2010_17_puma10.zip")
	f, err := os.Create(bundle)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	base := shpfile[:len(shpfile)-4]
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		w, err := zw.Create("pumas" + ext)
		require.NoError(t, err)
		in, err := os.Open(base + ext)
		require.NoError(t, err)
		_, err = io.Copy(w, in)
		require.NoError(t, err)
		require.NoError(t, in.Close())
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return bundle
}

func TestLoadZippedShapefile(t *testing.T) {
	bundle := zipShapefile(t, writePumaShapefile(t, t.TempDir()))

	regions, err := LoadRegions(bundle, pumas)
	require.NoError(t, err)
	requirePumas(t, regions)
}

func TestLoadRegions_ShapefileURLs(t *testing.T) {
	bundle := zipShapefile(t, writePumaShapefile(t, t.TempDir()))
	data, err := os.ReadFile(bundle)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	regions, err := LoadRegions(srv.URL+"/geo/tl_2010_17_puma10.zip", pumas)
	require.NoError(t, err)
	requirePumas(t, regions)

	_, err = LoadRegions(srv.URL+"/geo/tl_2010_17_puma10.shp", pumas)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must point at a .zip bundle")
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0644))
}
