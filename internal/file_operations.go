package internal

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dsnet/compress/bzip2"
	jsoniter "github.com/json-iterator/go"
	"github.com/paulmach/orb/geojson"
)

var c = jsoniter.Config{EscapeHTML: true, SortMapKeys: true, MarshalFloatWith6Digits: true}.Froze()

func init() {
	geojson.CustomJSONMarshaler = c
	geojson.CustomJSONUnmarshaler = c
}

// CompressFeatureCollection writes a region catalog as bzip2 GeoJSON and
// returns the compressed size.
func CompressFeatureCollection(bz2filename string, fc *geojson.FeatureCollection) (int, error) {
	f, err := os.Create(bz2filename)
	if err != nil {
		return 0, fmt.Errorf("error creating output file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing file %s: %v", bz2filename, err)
		}
	}()

	w, err := bzip2.NewWriter(f, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return 0, fmt.Errorf("error creating bzip2 writer: %w", err)
	}

	if err := c.NewEncoder(w).Encode(fc); err != nil {
		return 0, fmt.Errorf("error writing bzip2 file: %w", err)
	}

	// close before reading OutputOffset so the final block is counted
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("error closing bzip2 writer: %w", err)
	}

	return int(w.OutputOffset), nil
}

func DecompressFeatureCollection(bz2filename string) (*geojson.FeatureCollection, error) {
	return withFile(bz2filename, func(r io.Reader) (*geojson.FeatureCollection, error) {
		br, err := bzip2.NewReader(r, &bzip2.ReaderConfig{})
		if err != nil {
			return nil, fmt.Errorf("error creating bzip2 reader: %w", err)
		}
		return DecodeFeatureCollection(br)
	})
}

func ReadFeatureCollection(filename string) (*geojson.FeatureCollection, error) {
	return withFile(filename, DecodeFeatureCollection)
}

func DecodeFeatureCollection(r io.Reader) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	if err := c.NewDecoder(r).Decode(fc); err != nil {
		return nil, fmt.Errorf("error decoding GeoJSON: %w", err)
	}
	return fc, nil
}

func withFile[T any](filename string, fn func(io.Reader) (T, error)) (T, error) {
	var zero T
	file, err := os.Open(filename)
	if err != nil {
		return zero, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Printf("Error closing file %s: %v", filename, err)
		}
	}()
	return fn(file)
}
