package routes

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// AssignedPoint is a point record after assignment, as served by PointSearch.
type AssignedPoint struct {
	ID        string  `json:"id"`
	Year      int     `json:"year"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	RegionID  *string `json:"region_id"`
}

type PointSearcher interface {
	Search(bounds []float64) ([]AssignedPoint, error)
	Len() int
}

type PointSearchResponse struct {
	Results []AssignedPoint `json:"results"`
}

// MAX_BOUNDS limits a bbox side to roughly 5 km at Chicago's latitude.
const MAX_BOUNDS = 0.05

func PointSearch(points PointSearcher) func(c *gin.Context) {
	return func(c *gin.Context) {
		bbox, err := parseBBox(c.Query("bbox"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if isTooBig(bbox) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("bbox is too large, must be less than %g degrees in width and height", MAX_BOUNDS)})
			return
		}

		results, err := points.Search(bbox)
		if err != nil {
			log.Printf("error while searching assigned points: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal server error occurred"})
			return
		}

		c.JSON(http.StatusOK, PointSearchResponse{Results: results})
	}
}

func parseBBox(bboxStr string) ([]float64, error) {
	bboxParts := strings.Split(bboxStr, ",")
	if len(bboxParts) != 4 {
		return nil, fmt.Errorf("bbox must have 4 comma-separated values")
	}

	bbox := make([]float64, 4)
	for i, part := range bboxParts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox value '%s': not a valid float", part)
		}
		bbox[i] = val
	}

	if !(bbox[0] <= bbox[2] && bbox[1] <= bbox[3]) {
		return nil, fmt.Errorf("invalid bbox: min values must be less than or equal to max values")
	}

	return bbox, nil
}

func isTooBig(bbox []float64) bool {
	return bbox[2]-bbox[0] > MAX_BOUNDS || bbox[3]-bbox[1] > MAX_BOUNDS
}
