package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = "\ufeffEasting,Northing,Elevation,filename,GCP Label\n" +
	"472946.18,4953066.39,243.5,DJI_0104.JPG,POINT_01\n" +
	"472950.00,4953070.00,244.1,DJI_0105.JPG, POINT_02 \n" +
	"472946.18,4953066.39,243.5,DJI_0105.JPG,POINT_01\n" +
	"1,2\n"

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if tbl.Columns[0] != "Easting" {
		t.Errorf("BOM not stripped: %q", tbl.Columns[0])
	}
	if len(tbl.Rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(tbl.Rows))
	}
	if got := tbl.Value(3, "GCP Label"); got != "" {
		t.Errorf("short row not padded, got %q", got)
	}
	if got := tbl.Value(0, "nope"); got != "" {
		t.Errorf("unknown column returned %q", got)
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty catalog")
	}
}

func TestNewDetectsColumns(t *testing.T) {
	tbl, _ := ReadCSV(strings.NewReader(sampleCSV))
	c, err := New(tbl, "", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.LabelColumn != "GCP Label" {
		t.Errorf("LabelColumn = %q", c.LabelColumn)
	}
	if !c.HasFilename() || c.FilenameColumn != "filename" {
		t.Errorf("FilenameColumn = %q", c.FilenameColumn)
	}

	labels := c.Labels()
	if len(labels) != 2 || labels[0] != "POINT_01" || labels[1] != "POINT_02" {
		t.Errorf("Labels = %v", labels)
	}
	if !c.HasLabel("POINT_02") || c.HasLabel("POINT_03") {
		t.Error("HasLabel mismatch")
	}
	if rows := c.RowsForLabel("POINT_01"); len(rows) != 2 || rows[0] != 0 || rows[1] != 2 {
		t.Errorf("RowsForLabel = %v", rows)
	}
	if got := c.Filename(1); got != "DJI_0105.JPG" {
		t.Errorf("Filename(1) = %q", got)
	}
}

func TestNewMissingLabelColumn(t *testing.T) {
	tbl, _ := ReadCSV(strings.NewReader("a,b\n1,2\n"))

	if _, err := New(tbl, "", ""); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("auto-detect: err = %v, want ErrColumnNotFound", err)
	}
	if _, err := New(tbl, "c", ""); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("explicit: err = %v, want ErrColumnNotFound", err)
	}
	if _, err := New(tbl, "a", "zzz"); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("filename: err = %v, want ErrColumnNotFound", err)
	}

	c, err := New(tbl, "a", "")
	if err != nil {
		t.Fatalf("explicit label column: %v", err)
	}
	if c.HasFilename() {
		t.Error("unexpected filename column")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gcps.csv")
	if err := os.WriteFile(path, []byte("label,Elevation\nA,1\nB,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path, "", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Path != path || c.Len() != 2 || c.LabelColumn != "label" {
		t.Errorf("unexpected catalog: %+v", c)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv"), "", ""); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadCSVDuplicateColumns(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("label,note,note,note_2\nA,x,y,z\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	want := []string{"label", "note", "note_2", "note_2_2"}
	if strings.Join(tbl.Columns, "|") != strings.Join(want, "|") {
		t.Errorf("Columns = %q, want %q", tbl.Columns, want)
	}
	if got := tbl.Value(0, "note_2"); got != "y" {
		t.Errorf("second note = %q, want y", got)
	}
}

func TestNewPrefersGCPLabelColumn(t *testing.T) {
	tbl, _ := ReadCSV(strings.NewReader("label,GCP Label\nrow1,P1\n"))
	c, err := New(tbl, "", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.LabelColumn != "GCP Label" {
		t.Errorf("LabelColumn = %q, want GCP Label", c.LabelColumn)
	}
}

func TestLoadColumnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gcps.csv")
	if err := os.WriteFile(path, []byte("name,E\nP1,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path, "", "")
	var ce *ColumnError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *ColumnError", err)
	}
	if ce.Path != path || ce.Kind != "label" || len(ce.Table.Columns) != 2 {
		t.Errorf("ColumnError = %+v", ce)
	}
	if !strings.Contains(err.Error(), "name, E") {
		t.Errorf("error does not list columns: %v", err)
	}

	c, err := New(ce.Table, "name", ce.Filename)
	if err != nil {
		t.Fatalf("retry with chosen column: %v", err)
	}
	if !c.HasLabel("P1") {
		t.Error("retry did not load labels")
	}
}
