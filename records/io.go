package records

import (
	"encoding/csv"
	"fmt"
	"io"
)

func load[T any](r io.Reader, build func(columns, []string) (T, error)) ([]T, error) {
	var cols columns
	fromFunc := func(record []string, headers []string) (T, error) {
		if cols == nil {
			cols = newColumns(headers)
		}
		return build(cols, record)
	}

	out := make([]T, 0, 1024)
	for result := range parseCSV(r, true, fromFunc) {
		if result.Error != nil {
			return nil, result.Error
		}
		out = append(out, result.Value)
	}
	return out, nil
}

func write[T any](w io.Writer, headers []string, rows []T, toRow func(T) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(toRow(row)); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
