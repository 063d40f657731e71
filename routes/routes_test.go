package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"region-index/assign"
	"region-index/internal"
	spatialindex "region-index/spatial-index"

	"github.com/gin-gonic/gin"
	"github.com/kofalt/go-memoize"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"
)

type mockPointSearcher struct {
	SearchFunc func(bounds []float64) ([]AssignedPoint, error)
}

func (m *mockPointSearcher) Search(bounds []float64) ([]AssignedPoint, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(bounds)
	}
	return nil, nil
}

func (m *mockPointSearcher) Len() int {
	return 0
}

func square(minX, minY, maxX, maxY float64) orb.Ring {
	return orb.Ring{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}
}

func testIndex(t *testing.T) *spatialindex.Index {
	t.Helper()
	idx, err := spatialindex.BuildIndex([]spatialindex.Region{
		spatialindex.NewRegion("q1", "south west", square(0, 0, 1, 1)),
		spatialindex.NewRegion("q2", "south east", square(1, 0, 2, 1)),
		spatialindex.NewRegion("q3", "north west", square(0, 1, 1, 2)),
		spatialindex.NewRegion("q4", "north east", square(1, 1, 2, 2)),
	}, spatialindex.WithCapacity(1))
	require.NoError(t, err)
	return idx
}

func newContext(method, target string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, w
}

func TestRegionLookup(t *testing.T) {
	idx := testIndex(t)
	handler := RegionLookup(idx, assign.New(idx))

	testCases := []struct {
		name        string
		query       string
		code        int
		contains    string
		matches     []string
		region      string
		emptyRegion bool
	}{
		{name: "first quadrant", query: "lon=0.5&lat=0.5", code: http.StatusOK, matches: []string{"q1"}, region: "q1"},
		{name: "fourth quadrant", query: "lon=1.5&lat=1.5", code: http.StatusOK, matches: []string{"q4"}, region: "q4"},
		{name: "outside", query: "lon=3&lat=3", code: http.StatusOK, matches: []string{}, emptyRegion: true},
		{name: "missing lat", query: "lon=1", code: http.StatusBadRequest, contains: "lat is required"},
		{name: "not a number", query: "lon=abc&lat=1", code: http.StatusBadRequest, contains: "not a valid float"},
		{name: "out of range", query: "lon=1&lat=91", code: http.StatusBadRequest, contains: "must be within"},
		{name: "NaN", query: "lon=NaN&lat=1", code: http.StatusBadRequest, contains: "must be within"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, w := newContext("GET", "/v1/regions/lookup?"+tc.query, "")
			handler(c)

			require.Equal(t, tc.code, w.Code)
			if tc.contains != "" {
				require.Contains(t, w.Body.String(), tc.contains)
				return
			}

			var resp LookupResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Equal(t, tc.matches, resp.Matches)
			if tc.emptyRegion {
				require.Nil(t, resp.Region)
			} else {
				require.Equal(t, tc.region, resp.Region.ID)
			}
		})
	}
}

func TestRegionFeature(t *testing.T) {
	idx := testIndex(t)
	handler := RegionFeature(internal.NewRegionsRepo(idx, memoize.NewMemoizer(time.Minute, time.Minute)))

	c, w := newContext("GET", "/v1/regions/q2", "")
	c.Params = gin.Params{{Key: "id", Value: "q2"}}
	handler(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), `"south east"`)
	require.Contains(t, w.Body.String(), `"Polygon"`)

	c, w = newContext("GET", "/v1/regions/zz", "")
	c.Params = gin.Params{{Key: "id", Value: "zz"}}
	handler(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

type failingRepo struct{}

func (failingRepo) RetrieveFeature(string) (*geojson.Feature, error) {
	return nil, errors.New("disk on fire")
}

func TestRegionFeature_InternalError(t *testing.T) {
	c, w := newContext("GET", "/v1/regions/q1", "")
	c.Params = gin.Params{{Key: "id", Value: "q1"}}
	RegionFeature(failingRepo{})(c)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "An internal server error occurred")
}

func TestAssignPoints(t *testing.T) {
	idx := testIndex(t)
	handler := AssignPoints(assign.New(idx))

	body := `[{"longitude":0.5,"latitude":0.5},{"longitude":1.5,"latitude":0.5},{"longitude":9,"latitude":9},{"longitude":null,"latitude":1}]`
	c, w := newContext("POST", "/v1/assign", body)
	handler(c)

	require.Equal(t, http.StatusOK, w.Code)

	var resp AssignResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 4)
	require.Equal(t, "q1", *resp.Results[0].Region)
	require.Equal(t, "q2", *resp.Results[1].Region)
	require.Nil(t, resp.Results[2].Region)
	require.Nil(t, resp.Results[3].Region)
	require.Equal(t, assign.Report{Total: 4, MissingCoordinates: 1, Unmatched: 1, Matched: 2}, resp.Report)
}

func TestAssignPoints_LooseCoordinates(t *testing.T) {
	handler := AssignPoints(assign.New(testIndex(t)))

	body := `[
		{"longitude":"0.5","latitude":"0.5"},
		{"longitude":"","latitude":""},
		{"longitude":"abc","latitude":1},
		null,
		{"longitude":1.5,"latitude":" 1.5 "},
		{"latitude":0.5}
	]`
	c, w := newContext("POST", "/v1/assign", body)
	handler(c)

	require.Equal(t, http.StatusOK, w.Code)

	var resp AssignResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 6)
	require.Equal(t, "q1", *resp.Results[0].Region)
	require.Equal(t, 0.5, *resp.Results[0].Longitude)
	require.Nil(t, resp.Results[1].Longitude)
	require.Nil(t, resp.Results[1].Region)
	require.Nil(t, resp.Results[2].Longitude)
	require.Equal(t, 1.0, *resp.Results[2].Latitude)
	require.NotNil(t, resp.Results[3])
	require.Equal(t, "q4", *resp.Results[4].Region)
	require.Nil(t, resp.Results[5].Region)
	require.Equal(t, assign.Report{Total: 6, MissingCoordinates: 4, Matched: 2}, resp.Report)
}

func TestCoordinate_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected *float64
	}{
		{name: "number", input: `-87.7`, expected: ptr(-87.7)},
		{name: "numeric string", input: `"41.9"`, expected: ptr(41.9)},
		{name: "empty string", input: `""`},
		{name: "null", input: `null`},
		{name: "text", input: `"n/a"`},
		{name: "bool", input: `true`},
		{name: "NaN string", input: `"NaN"`},
		{name: "infinite string", input: `"-Inf"`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var c coordinate
			require.NoError(t, json.Unmarshal([]byte(tc.input), &c))
			require.Equal(t, tc.expected, c.value)
		})
	}
}

func ptr(f float64) *float64 {
	return &f
}

func TestAssignPoints_BadBody(t *testing.T) {
	handler := AssignPoints(assign.New(testIndex(t)))

	c, w := newContext("POST", "/v1/assign", `{"longitude": 1}`)
	handler(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid request body")
}

func TestPointSearch_BadBBox(t *testing.T) {
	c, w := newContext("GET", "/v1/points?bbox=bad,bbox,values", "")
	PointSearch(&mockPointSearcher{})(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "bbox must have 4 comma-separated values")
}

func TestPointSearch_TooBig(t *testing.T) {
	c, w := newContext("GET", "/v1/points?bbox=-88,41,-87,42", "")
	PointSearch(&mockPointSearcher{})(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "bbox is too large")
}

func TestPointSearch_InternalError(t *testing.T) {
	c, w := newContext("GET", "/v1/points?bbox=-87.7,41.7,-87.69,41.71", "")
	PointSearch(&mockPointSearcher{
		SearchFunc: func(bounds []float64) ([]AssignedPoint, error) {
			return nil, errors.New("fail")
		},
	})(c)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "An internal server error occurred")
}

func TestPointSearch_Success(t *testing.T) {
	region := "03165"
	var got []float64
	c, w := newContext("GET", "/v1/points?bbox=-87.71,41.76,-87.69,41.78", "")
	PointSearch(&mockPointSearcher{
		SearchFunc: func(bounds []float64) ([]AssignedPoint, error) {
			got = bounds
			return []AssignedPoint{{ID: "HW229606", Year: 2023, Longitude: -87.70, Latitude: 41.77, RegionID: &region}}, nil
		},
	})(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []float64{-87.71, 41.76, -87.69, 41.78}, got)
	require.Contains(t, w.Body.String(), "HW229606")
	require.Contains(t, w.Body.String(), `"region_id":"03165"`)
}

func TestPointSearch_WithPointIndex(t *testing.T) {
	idx := spatialindex.NewPointIndex[AssignedPoint]()
	idx.Insert(orb.Point{-87.70, 41.77}, AssignedPoint{ID: "inside"})
	idx.Insert(orb.Point{-87.60, 41.77}, AssignedPoint{ID: "outside"})

	c, w := newContext("GET", "/v1/points?bbox=-87.71,41.76,-87.69,41.78", "")
	PointSearch(idx)(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"inside"`)
	require.NotContains(t, w.Body.String(), `"outside"`)
}

func TestParseBBox(t *testing.T) {
	testCases := []struct {
		name        string
		bboxStr     string
		expectErr   bool
		errContains string
	}{
		{name: "valid", bboxStr: "-87.7,41.7,-87.6,41.8", expectErr: false},
		{name: "too few parts", bboxStr: "1,2,3", expectErr: true, errContains: "bbox must have 4 comma-separated values"},
		{name: "not numbers", bboxStr: "a,b,c,d", expectErr: true, errContains: "invalid bbox value"},
		{name: "min greater than max", bboxStr: "4,3,2,1", expectErr: true, errContains: "invalid bbox: min values must be less than or equal to max values"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseBBox(tc.bboxStr)
			if tc.expectErr {
				require.Error(t, err)
				if tc.errContains != "" {
					require.Contains(t, err.Error(), tc.errContains)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestIsTooBig(t *testing.T) {
	testCases := []struct {
		name     string
		bbox     []float64
		expected bool
	}{
		{name: "not too big", bbox: []float64{-87.70, 41.70, -87.68, 41.72}, expected: false},
		{name: "too wide", bbox: []float64{-87.9, 41.70, -87.5, 41.72}, expected: true},
		{name: "too high", bbox: []float64{-87.70, 41.6, -87.68, 42.0}, expected: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, isTooBig(tc.bbox))
		})
	}
}
