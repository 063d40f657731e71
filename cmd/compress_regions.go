package cmd

import (
	"log"

	"region-index/internal"
	spatialindex "region-index/spatial-index"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/paulmach/orb"
)

// CompressRegions converts a region catalog (typically a shapefile) into the
// bzip2 GeoJSON form the other commands load fastest.
func CompressRegions(source, outputFile string, opts internal.LoadOptions) {
	regions, err := internal.LoadRegions(source, opts)
	if err != nil {
		log.Fatalf("Error loading regions: %v", err)
	}
	if len(regions) == 0 {
		log.Fatalf("No regions found in %s", source)
	}

	for i := range regions {
		truncateCoordinates(regions[i].Polygon)
	}
	if _, err := spatialindex.BuildIndex(regions); err != nil {
		log.Fatalf("Catalog in %s cannot be indexed: %v", source, err)
	}

	fc := internal.FeatureCollectionFromRegions(regions)
	raw, err := fc.MarshalJSON()
	if err != nil {
		log.Fatalf("Error marshalling GeoJSON: %v", err)
	}

	newSize, err := internal.CompressFeatureCollection(outputFile, fc)
	if err != nil {
		log.Fatalf("Error compressing file %s: %v", outputFile, err)
	}

	successful := color.New(color.FgGreen).SprintFunc()
	log.Printf("Processed %d regions into %s: GeoJSON size %s -> %s (%0.2f%% reduction)\n",
		len(regions),
		successful(outputFile),
		humanize.Bytes(uint64(len(raw))),
		humanize.Bytes(uint64(newSize)),
		100-float64(newSize)/float64(len(raw))*100)
}

func truncateCoordinates(mp orb.MultiPolygon) {
	for _, polygon := range mp {
		for _, ring := range polygon {
			for j := range ring {
				ring[j] = orb.Point{truncate(ring[j].X()), truncate(ring[j].Y())}
			}
		}
	}
}

// truncate keeps six decimal places, about 10cm.
func truncate(value float64) float64 {
	return float64(int(value*1e6)) / 1e6
}
