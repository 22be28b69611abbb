package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrColumnNotFound is returned when a required catalog column is missing.
var ErrColumnNotFound = errors.New("catalog column not found")

// ColumnError reports a column that could not be resolved. It carries the
// parsed table so a caller can offer the available columns and retry New.
type ColumnError struct {
	Path     string
	Kind     string // "label" or "filename"
	Column   string // Requested name, "" when auto-detection failed
	Filename string // Requested filename column, for retrying New
	Table    *Table
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%v: %s column %q (available: %s)",
		ErrColumnNotFound, e.Kind, e.Column, strings.Join(e.Table.Columns, ", "))
}

func (e *ColumnError) Unwrap() error {
	return ErrColumnNotFound
}

// Column names recognized without configuration.
var (
	labelColumnNames    = []string{"gcp label", "label"}
	filenameColumnNames = []string{"filename"}
)

// Catalog is a loaded table with its label column (and filename column, if
// any) resolved.
type Catalog struct {
	Path           string
	Table          *Table
	LabelColumn    string
	FilenameColumn string // "" when the catalog has no per-image bindings

	labels []string
	known  map[string]bool
}

// New resolves the label and filename columns of t. Empty column names are
// auto-detected; a named column that does not exist is an error.
func New(t *Table, labelColumn, filenameColumn string) (*Catalog, error) {
	if labelColumn == "" {
		labelColumn = t.FindColumn(labelColumnNames...)
	}
	if labelColumn == "" || t.Index(labelColumn) < 0 {
		return nil, &ColumnError{Kind: "label", Column: labelColumn, Filename: filenameColumn, Table: t}
	}

	if filenameColumn == "" {
		filenameColumn = t.FindColumn(filenameColumnNames...)
	} else if t.Index(filenameColumn) < 0 {
		return nil, &ColumnError{Kind: "filename", Column: filenameColumn, Filename: filenameColumn, Table: t}
	}

	c := &Catalog{
		Table:          t,
		LabelColumn:    labelColumn,
		FilenameColumn: filenameColumn,
		known:          make(map[string]bool),
	}
	for i := range t.Rows {
		l := c.Label(i)
		if l == "" || c.known[l] {
			continue
		}
		c.known[l] = true
		c.labels = append(c.labels, l)
	}
	return c, nil
}

// Load reads and resolves a catalog file.
func Load(path, labelColumn, filenameColumn string) (*Catalog, error) {
	t, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	c, err := New(t, labelColumn, filenameColumn)
	var ce *ColumnError
	if errors.As(err, &ce) {
		ce.Path = path
	}
	if err != nil {
		return nil, err
	}
	c.Path = path
	return c, nil
}

// HasFilename reports whether rows bind labels to specific images.
func (c *Catalog) HasFilename() bool {
	return c.FilenameColumn != ""
}

// Label returns the trimmed label of a row.
func (c *Catalog) Label(row int) string {
	return strings.TrimSpace(c.Table.Value(row, c.LabelColumn))
}

// Filename returns the trimmed filename of a row, or "" without a filename column.
func (c *Catalog) Filename(row int) string {
	if c.FilenameColumn == "" {
		return ""
	}
	return strings.TrimSpace(c.Table.Value(row, c.FilenameColumn))
}

// Labels returns the distinct non-empty labels in first-appearance order.
func (c *Catalog) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// SortedLabels returns the distinct labels sorted, for display in prompts.
func (c *Catalog) SortedLabels() []string {
	out := c.Labels()
	sort.Strings(out)
	return out
}

// HasLabel reports whether l is one of the catalog's labels.
func (c *Catalog) HasLabel(l string) bool {
	return c.known[l]
}

// RowsForLabel returns the indexes of the rows carrying label, in file order.
func (c *Catalog) RowsForLabel(label string) []int {
	var rows []int
	for i := range c.Table.Rows {
		if c.Label(i) == label {
			rows = append(rows, i)
		}
	}
	return rows
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	return len(c.Table.Rows)
}
