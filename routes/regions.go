package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"region-index/assign"
	"region-index/internal"
	"region-index/internal/metrics"
	spatialindex "region-index/spatial-index"

	"github.com/gin-gonic/gin"
)

// MaxAssignBatch caps the rows accepted by a single POST /v1/assign.
const MaxAssignBatch = 100_000

type LookupResponse struct {
	Matches []string             `json:"matches"`
	Region  *spatialindex.Region `json:"region"`
}

type AssignResponse struct {
	Results []*assign.Location `json:"results"`
	Report  assign.Report      `json:"report"`
}

func RegionLookup(index *spatialindex.Index, assigner *assign.Assigner) func(c *gin.Context) {
	return func(c *gin.Context) {
		lon, err := parseCoordinate(c.Query("lon"), "lon", 180)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		lat, err := parseCoordinate(c.Query("lat"), "lat", 90)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		loc := assign.NewLocation(lon, lat)
		p, _ := loc.Coordinates()
		resp := LookupResponse{Matches: index.Query(p)}
		metrics.ObserveLookup(len(resp.Matches))

		if id := assigner.AssignRegion(&loc); id != nil {
			if region, ok := index.Region(*id); ok {
				resp.Region = &region
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func RegionFeature(repo internal.RegionsRepo) func(c *gin.Context) {
	return func(c *gin.Context) {
		id := c.Param("id")
		feature, err := repo.RetrieveFeature(id)
		if errors.Is(err, internal.ErrRegionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("region %s not found", id)})
			return
		}
		if err != nil {
			log.Printf("error while rendering region %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal server error occurred"})
			return
		}

		c.Header("Content-Type", "application/geo+json")
		c.JSON(http.StatusOK, feature)
	}
}

// coordinate accepts a JSON number, a numeric string, "" or null. Anything
// that does not parse as a finite number decodes as missing.
type coordinate struct {
	value *float64
}

func (c *coordinate) UnmarshalJSON(data []byte) error {
	c.value = nil
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		c.value = &v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			c.value = &f
		}
	}
	return nil
}

type assignRow struct {
	Longitude coordinate `json:"longitude"`
	Latitude  coordinate `json:"latitude"`
}

func AssignPoints(assigner *assign.Assigner) func(c *gin.Context) {
	return func(c *gin.Context) {
		var rows []assignRow
		if err := c.ShouldBindJSON(&rows); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
			return
		}
		if len(rows) > MaxAssignBatch {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("too many points, must be at most %d", MaxAssignBatch)})
			return
		}
		locations := make([]*assign.Location, len(rows))
		for i, row := range rows {
			locations[i] = &assign.Location{Longitude: row.Longitude.value, Latitude: row.Latitude.value}
		}

		results, report := assign.Batch(assigner, locations)
		c.JSON(http.StatusOK, AssignResponse{Results: results, Report: report})
	}
}

func parseCoordinate(s, name string, limit float64) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value '%s': not a valid float", name, s)
	}
	if !(v >= -limit && v <= limit) {
		return 0, fmt.Errorf("invalid %s value '%s': must be within ±%g", name, s, limit)
	}
	return v, nil
}
