package export

import (
	"encoding/csv"
	"io"

	"gcp-marker/internal/catalog"

	"github.com/parquet-go/parquet-go"
)

func writeCSV(w io.Writer, t *catalog.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// writeParquet stores every column as an optional UTF-8 string so catalog
// attributes keep their original text; empty cells become nulls.
func writeParquet(w io.Writer, t *catalog.Table) error {
	group := parquet.Group{}
	for _, c := range t.Columns {
		group[c] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("gcp_pixel_coordinates", group)

	// Leaf columns follow the schema's field order, which is sorted by name.
	fields := schema.Fields()
	source := make([]int, len(fields))
	for leaf, f := range fields {
		source[leaf] = t.Index(f.Name())
	}

	rows := make([]parquet.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make(parquet.Row, len(fields))
		for leaf, col := range source {
			v := ""
			if col >= 0 {
				v = r[col]
			}
			if v == "" {
				row[leaf] = parquet.NullValue().Level(0, 0, leaf)
			} else {
				row[leaf] = parquet.ByteArrayValue([]byte(v)).Level(0, 1, leaf)
			}
		}
		rows = append(rows, row)
	}

	pw := parquet.NewWriter(w, schema)
	if _, err := pw.WriteRows(rows); err != nil {
		pw.Close()
		return err
	}
	return pw.Close()
}
