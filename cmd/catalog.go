package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"region-index/assign"
	"region-index/internal"
	"region-index/records"
	"region-index/routes"
	spatialindex "region-index/spatial-index"

	"github.com/paulmach/orb"
)

// CatalogConfig is shared by every command that builds a region index.
type CatalogConfig struct {
	Regions  string
	Load     internal.LoadOptions
	Capacity int
	Workers  int
	TieBreak string
}

func (cfg CatalogConfig) build() (*spatialindex.Index, *assign.Assigner, error) {
	tieBreak, err := assign.ParseTieBreak(cfg.TieBreak)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	regions, err := internal.LoadRegions(cfg.Regions, cfg.Load)
	if err != nil {
		return nil, nil, err
	}

	index, err := spatialindex.BuildIndex(regions, spatialindex.WithCapacity(cfg.Capacity))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build region index from %s: %w", cfg.Regions, err)
	}

	stats := index.Stats()
	log.Printf("Region index built with %d regions (%d nodes, %d leaves, depth %d, %d entries) in %s",
		index.Len(), stats.Nodes, stats.Leaves, stats.MaxDepth, stats.Entries, time.Since(start))

	return index, assign.New(index, assign.WithTieBreak(tieBreak), assign.WithWorkers(cfg.Workers)), nil
}

const (
	KindCrime  = "crime"
	KindSchool = "school"
)

func loadFile[R any](uri string, load func(io.Reader) ([]R, error)) ([]R, error) {
	return internal.TransientDownload(uri, func(filename string) ([]R, error) {
		f, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("Error closing file: %v", err)
			}
		}()
		return load(f)
	})
}

func writeFile[R any](filename string, rows []R, write func(io.Writer, []R) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := write(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// assignedPoints loads and assigns a point file, flattening the rows for the
// bbox search endpoint.
func assignedPoints(assigner *assign.Assigner, uri, kind string) ([]routes.AssignedPoint, assign.Report, error) {
	switch kind {
	case KindCrime:
		crimes, err := loadFile(uri, records.LoadCrimes)
		if err != nil {
			return nil, assign.Report{}, err
		}
		crimes, report := assign.Batch(assigner, crimes)
		points := make([]routes.AssignedPoint, 0, len(crimes))
		for _, c := range crimes {
			points = appendPoint(points, c.CaseNumber, c.Year, &c.Location)
		}
		return points, report, nil

	case KindSchool:
		schools, err := loadFile(uri, records.LoadSchools)
		if err != nil {
			return nil, assign.Report{}, err
		}
		schools, report := assign.Batch(assigner, schools)
		points := make([]routes.AssignedPoint, 0, len(schools))
		for _, s := range schools {
			points = appendPoint(points, s.ID, s.Year, &s.Location)
		}
		return points, report, nil

	default:
		return nil, assign.Report{}, fmt.Errorf("unknown point kind %q: must be one of %s, %s", kind, KindCrime, KindSchool)
	}
}

// Rows without coordinates cannot be placed in the R-tree and are skipped.
func appendPoint(points []routes.AssignedPoint, id string, year int, loc *assign.Location) []routes.AssignedPoint {
	p, ok := loc.Coordinates()
	if !ok {
		return points
	}
	return append(points, routes.AssignedPoint{
		ID:        id,
		Year:      year,
		Longitude: p.X(),
		Latitude:  p.Y(),
		RegionID:  loc.RegionID(),
	})
}

func newPointIndex(points []routes.AssignedPoint) *spatialindex.PointIndex[routes.AssignedPoint] {
	idx := spatialindex.NewPointIndex[routes.AssignedPoint]()
	for _, p := range points {
		idx.Insert(orb.Point{p.Longitude, p.Latitude}, p)
	}
	return idx
}
