package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gcp-marker/internal/marks"
	"gcp-marker/pkg/geometry"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	imgDir := filepath.Join(dir, "photos")
	path := filepath.Join(dir, "site.gcpsession")

	s := marks.NewStore()
	s.Set("P1", "A.jpg", geometry.PointInt{X: 10, Y: 20})
	s.Set("P2", "B.jpg", geometry.PointInt{X: 3, Y: 4})

	f := New(imgDir)
	f.CatalogPath = filepath.Join(dir, "gcps.csv")
	f.ActiveLabel = "P2"
	f.CurrentImage = "B.jpg"
	f.SetMarks(s)
	if err := f.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), imgDir) {
		t.Errorf("image dir stored as absolute path:\n%s", raw)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ImageDir != imgDir {
		t.Errorf("ImageDir = %q, want %q", got.ImageDir, imgDir)
	}
	if got.CatalogPath != f.CatalogPath {
		t.Errorf("CatalogPath = %q, want %q", got.CatalogPath, f.CatalogPath)
	}
	if got.ActiveLabel != "P2" || got.CurrentImage != "B.jpg" {
		t.Errorf("position = %q/%q", got.ActiveLabel, got.CurrentImage)
	}

	store := got.Store()
	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}
	if p, ok := store.Get("P1", "A.jpg"); !ok || p != (geometry.PointInt{X: 10, Y: 20}) {
		t.Errorf("P1/A.jpg = %v, %v", p, ok)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"garbage.json": "{not json",
		"future.json":  `{"version": 99, "image_dir": "x"}`,
	}
	for name, content := range tests {
		path := filepath.Join(dir, name)
		os.WriteFile(path, []byte(content), 0644)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); !os.IsNotExist(err) {
		t.Errorf("missing file: err = %v", err)
	}
}

func TestWorkingDirRelativePathsSurviveRoundTrip(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)
	for _, d := range []string{"flight1", "sessions"} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile("gcps.csv", []byte("label\nP1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := New("flight1")
	f.CatalogPath = "gcps.csv"
	path := filepath.Join("sessions", "s.gcpsession")
	if err := f.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if info, err := os.Stat(got.ImageDir); err != nil || !info.IsDir() {
		t.Errorf("ImageDir %q does not point at flight1: %v", got.ImageDir, err)
	}
	if _, err := os.Stat(got.CatalogPath); err != nil {
		t.Errorf("CatalogPath %q does not point at gcps.csv: %v", got.CatalogPath, err)
	}
	if filepath.Clean(got.ImageDir) != "flight1" {
		t.Errorf("ImageDir = %q, want flight1", got.ImageDir)
	}
}
