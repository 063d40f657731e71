package assign

import (
	"math"

	"github.com/paulmach/orb"
)

// Record is any point observation that can be placed into a region.
type Record interface {
	Coordinates() (orb.Point, bool)
	RegionID() *string
	SetRegionID(id *string)
}

// Location carries the coordinate and assigned region of a record. Embed it
// to satisfy Record.
type Location struct {
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`
	Region    *string  `json:"region_id"`
}

func NewLocation(lon, lat float64) Location {
	return Location{Longitude: &lon, Latitude: &lat}
}

// Coordinates is false when either coordinate is missing or not a finite number.
func (l *Location) Coordinates() (orb.Point, bool) {
	if l.Longitude == nil || l.Latitude == nil {
		return orb.Point{}, false
	}
	lon, lat := *l.Longitude, *l.Latitude
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}

func (l *Location) RegionID() *string {
	return l.Region
}

func (l *Location) SetRegionID(id *string) {
	l.Region = id
}
