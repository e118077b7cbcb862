// Package seedfile loads a table's data_file: a CSV file whose rows are
// merged with (or substitute for) a table's inline data rows per
// spec.md §4.4 item 9.
package seedfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Load reads path (resolved relative to baseDir when it is not absolute)
// as CSV and returns its rows. A header row is not assumed — every row,
// including the first, is treated as data, matching the column order of
// the table's declared columns.
func Load(baseDir, path string) ([][]string, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(baseDir, path)
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("seedfile: opening %s: %w", full, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("seedfile: reading %s: %w", full, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
