package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", prefsFile)
	p := LoadFrom(path)
	if p.String(KeyLastCatalog) != "" {
		t.Fatal("fresh prefs not empty")
	}

	p.SetString(KeyLastCatalog, "/data/gcps.csv")
	p.SetFloat(KeyWindowWidth, 1280)
	if err := p.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	q := LoadFrom(path)
	if got := q.String(KeyLastCatalog); got != "/data/gcps.csv" {
		t.Errorf("catalog = %q", got)
	}
	if got := q.FloatWithFallback(KeyWindowWidth, 0); got != 1280 {
		t.Errorf("width = %v", got)
	}
	if got := q.FloatWithFallback(KeyWindowHeight, 720); got != 720 {
		t.Errorf("fallback = %v", got)
	}
}

func TestSaveSkipsUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	p := LoadFrom(path)
	if err := p.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("unchanged prefs written to disk")
	}
}
