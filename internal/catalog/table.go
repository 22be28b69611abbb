// Package catalog loads the optional GCP catalog: a comma-separated table
// of expected labels, optional per-image bindings, and arbitrary attributes.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is an ordered record table with named-column lookup.
// Every row has exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ReadCSV parses a comma-separated table whose first record is the header.
// Short rows are padded with empty cells and long rows are truncated.
// Repeated header names get a numeric suffix ("note", "note_2").
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("catalog is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Columns: uniqueColumns(header)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog row %d: %w", len(t.Rows)+2, err)
		}
		row := make([]string, len(header))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// LoadTable reads a CSV table from disk.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Value returns the cell at (row, column), or "" if the column is unknown.
func (t *Table) Value(row int, column string) string {
	i := t.Index(column)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][i]
}

// FindColumn returns the column whose trimmed, case-folded name equals the
// earliest of names that matches, or "" if none does.
func (t *Table) FindColumn(names ...string) string {
	for _, n := range names {
		for _, c := range t.Columns {
			if strings.EqualFold(strings.TrimSpace(c), n) {
				return c
			}
		}
	}
	return ""
}

func uniqueColumns(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	for i, c := range header {
		name := c
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s_%d", c, n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}
