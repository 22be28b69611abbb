// Package export validates a session's marks and writes them as a table,
// optionally merged against the GCP catalog.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gcp-marker/internal/catalog"
	"gcp-marker/internal/marks"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Output table base names.
const (
	PlainName  = "pixel_coordinates"
	MergedName = "pixel_coordinates_merged"
)

// MinImagesPerLabel is how many distinct images every label must be marked
// on before export; triangulation needs at least two views of each point.
const MinImagesPerLabel = 2

// Format selects the output encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a format name. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unknown export format %q (supported: csv, parquet)", s)
	}
}

// IncompleteError reports labels marked on too few images.
type IncompleteError struct {
	Labels []string       // Sorted offending labels
	Counts map[string]int // Marked image count per offending label
}

func (e *IncompleteError) Error() string {
	parts := make([]string, len(e.Labels))
	for i, l := range e.Labels {
		parts[i] = fmt.Sprintf("%s (%d)", l, e.Counts[l])
	}
	return fmt.Sprintf("each label must be marked on at least %d images; under-marked: %s",
		MinImagesPerLabel, strings.Join(parts, ", "))
}

// Validate checks that every marked label appears on at least two images.
func Validate(store *marks.Store) error {
	counts := store.CountByLabel()
	var bad []string
	for l, n := range counts {
		if n < MinImagesPerLabel {
			bad = append(bad, l)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	e := &IncompleteError{Labels: bad, Counts: make(map[string]int, len(bad))}
	for _, l := range bad {
		e.Counts[l] = counts[l]
	}
	return e
}

// Options controls where and how the table is written.
type Options struct {
	Dir    string // Output directory; "" = current directory
	Format Format
}

// Summary describes an exported table.
type Summary struct {
	Rows               int
	Marks              int
	Labels             int
	MeanImagesPerLabel float64
	MinImagesPerLabel  int
}

// Result is the outcome of a successful export.
type Result struct {
	Path    string
	Merged  bool
	Summary Summary
}

// Run validates the store and writes the output table. images is the session's
// ordered image list; cat may be nil. Nothing is written when validation fails.
func Run(store *marks.Store, images []string, cat *catalog.Catalog, opts Options) (*Result, error) {
	if err := Validate(store); err != nil {
		return nil, err
	}

	table := Build(store, images, cat)
	name := PlainName
	if cat != nil {
		name = MergedName
	}
	format := opts.Format
	if format == "" {
		format = FormatCSV
	}
	path := filepath.Join(opts.Dir, name+"."+string(format))

	var err error
	switch format {
	case FormatCSV:
		err = writeAtomic(path, func(f *os.File) error { return writeCSV(f, table) })
	case FormatParquet:
		err = writeAtomic(path, func(f *os.File) error { return writeParquet(f, table) })
	default:
		err = fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		Path:    path,
		Merged:  cat != nil,
		Summary: summarize(store, len(table.Rows)),
	}, nil
}

// Build assembles the output table without validating or writing it.
func Build(store *marks.Store, images []string, cat *catalog.Catalog) *catalog.Table {
	if cat == nil {
		return buildPlain(store, images)
	}
	if cat.HasFilename() {
		return buildBound(store, images, cat)
	}
	return buildCrossProduct(store, images, cat)
}

// buildPlain writes one row per mark, ordered by label then image order.
func buildPlain(store *marks.Store, images []string) *catalog.Table {
	order := imageOrder(images)
	all := store.All()
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Label != all[j].Label {
			return all[i].Label < all[j].Label
		}
		oi, iok := order[all[i].Image]
		oj, jok := order[all[j].Image]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return all[i].Image < all[j].Image
	})

	t := &catalog.Table{Columns: []string{"label", "filename", "x", "y"}}
	for _, m := range all {
		t.Rows = append(t.Rows, []string{
			m.Label, m.Image, strconv.Itoa(m.Position.X), strconv.Itoa(m.Position.Y),
		})
	}
	return t
}

// buildCrossProduct pairs every catalog label with every image, then joins
// catalog attributes on label and marks on (label, image).
func buildCrossProduct(store *marks.Store, images []string, cat *catalog.Catalog) *catalog.Table {
	cols := append([]string{}, cat.Table.Columns...)
	cols = append(cols, uniqueName(cols, "filename"))
	cols = append(cols, uniqueName(cols, "x"))
	cols = append(cols, uniqueName(cols, "y"))
	t := &catalog.Table{Columns: cols}

	for _, label := range cat.Labels() {
		rows := cat.RowsForLabel(label)
		for _, img := range images {
			x, y := position(store, label, img)
			for _, r := range rows {
				out := append([]string{}, cat.Table.Rows[r]...)
				out = append(out, img, x, y)
				t.Rows = append(t.Rows, out)
			}
		}
	}
	return t
}

// buildBound keeps only the catalog rows whose filename is in the image set
// and joins marks on (label, filename).
func buildBound(store *marks.Store, images []string, cat *catalog.Catalog) *catalog.Table {
	present := imageOrder(images)
	cols := append([]string{}, cat.Table.Columns...)
	cols = append(cols, uniqueName(cols, "x"))
	cols = append(cols, uniqueName(cols, "y"))
	t := &catalog.Table{Columns: cols}

	for r := range cat.Table.Rows {
		label, img := cat.Label(r), cat.Filename(r)
		if label == "" || img == "" {
			continue
		}
		if _, ok := present[img]; !ok {
			continue
		}
		x, y := position(store, label, img)
		out := append([]string{}, cat.Table.Rows[r]...)
		out = append(out, x, y)
		t.Rows = append(t.Rows, out)
	}
	return t
}

func position(store *marks.Store, label, image string) (string, string) {
	p, ok := store.Get(label, image)
	if !ok {
		return "", ""
	}
	return strconv.Itoa(p.X), strconv.Itoa(p.Y)
}

func imageOrder(images []string) map[string]int {
	m := make(map[string]int, len(images))
	for i, n := range images {
		m[n] = i
	}
	return m
}

// uniqueName returns want, suffixed if a column of that name already exists.
func uniqueName(existing []string, want string) string {
	taken := make(map[string]bool, len(existing))
	for _, c := range existing {
		taken[c] = true
	}
	name := want
	for i := 2; taken[name]; i++ {
		name = fmt.Sprintf("%s_%d", want, i)
	}
	return name
}

func summarize(store *marks.Store, rows int) Summary {
	s := Summary{Rows: rows, Marks: store.Len()}
	counts := store.CountByLabel()
	s.Labels = len(counts)
	if len(counts) == 0 {
		return s
	}
	vals := make([]float64, 0, len(counts))
	for _, n := range counts {
		vals = append(vals, float64(n))
	}
	s.MeanImagesPerLabel = stat.Mean(vals, nil)
	s.MinImagesPerLabel = int(floats.Min(vals))
	return s
}

// writeAtomic writes to a temporary file next to path and renames it into
// place, replacing any previous export.
func writeAtomic(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
