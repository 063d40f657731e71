package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

type Result[T any] struct {
	LineNum int
	Value   T
	Error   error
}

// parseCSV yields one Result per data line. The first error is yielded and
// ends the sequence.
func parseCSV[T any](r io.Reader, hasHeader bool, fromFunc func(record []string, headers []string) (T, error)) iter.Seq[Result[T]] {
	return func(yield func(Result[T]) bool) {
		reader := csv.NewReader(r)
		reader.ReuseRecord = false

		var headers []string
		if hasHeader {
			h, err := reader.Read()
			if err != nil {
				yield(Result[T]{Error: fmt.Errorf("failed to read CSV headers: %w", err)})
				return
			}
			headers = h
		}

		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var parseErr *csv.ParseError
				lineNum := 0
				if errors.As(err, &parseErr) {
					lineNum = parseErr.StartLine
				}
				yield(Result[T]{LineNum: lineNum, Error: err})
				return
			}

			// file line, so quoted multi-line fields and the header are counted
			lineNum, _ := reader.FieldPos(0)
			value, err := fromFunc(record, headers)
			if err != nil {
				yield(Result[T]{LineNum: lineNum, Error: fmt.Errorf("failed to parse CSV line %d: %w", lineNum, err)})
				return
			}
			if !yield(Result[T]{LineNum: lineNum, Value: value}) {
				return
			}
		}
	}
}

// columns maps lower-cased, trimmed header names to their position.
type columns map[string]int

func newColumns(headers []string) columns {
	c := make(columns, len(headers))
	for i, h := range headers {
		c[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return c
}

func (c columns) require(names ...string) error {
	for _, n := range names {
		if _, ok := c[n]; !ok {
			return fmt.Errorf("missing required column %q", n)
		}
	}
	return nil
}

// get returns the first of the named columns present in the record.
func (c columns) get(record []string, names ...string) string {
	for _, n := range names {
		if i, ok := c[n]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
	}
	return ""
}

// parseCoordinate treats empty or unparseable strings as missing rather than
// zero, so the record is kept but never placed.
func parseCoordinate(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseOptionalFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y", "1":
		return true
	}
	return false
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func parseString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func formatString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
