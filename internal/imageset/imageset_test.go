package imageset

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 4, 3)
	writePNG(t, filepath.Join(dir, "A.PNG"), 4, 3)
	os.WriteFile(filepath.Join(dir, "c.JPEG"), []byte("not really"), 0o644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755)

	s, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{"A.PNG", "b.png", "c.JPEG"}
	got := s.Names()
	if len(got) != len(want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if i, ok := s.Index("b.png"); !ok || i != 1 {
		t.Errorf("Index(b.png) = %d, %v", i, ok)
	}
	if s.Contains("notes.txt") {
		t.Error("unsupported file included")
	}
}

func TestDiscoverErrors(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing folder")
	}

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o644)
	if _, err := Discover(dir); !errors.Is(err, ErrNoImages) {
		t.Errorf("err = %v, want ErrNoImages", err)
	}
}

func TestDimensionsAndLoad(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 40, 30)
	os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("garbage"), 0o644)
	s := NewSet(dir, []string{"broken.jpg", "a.png"})

	d, err := s.Dimensions("a.png")
	if err != nil {
		t.Fatalf("Dimensions: %v", err)
	}
	if d.Width != 40 || d.Height != 30 {
		t.Errorf("Dimensions = %+v", d)
	}

	img, err := s.Load("a.png")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	again, _ := s.Load("a.png")
	if img != again {
		t.Error("expected cached image on second load")
	}

	if _, err := s.Dimensions("broken.jpg"); err == nil {
		t.Error("expected decode error for corrupt file")
	}
	if _, err := s.Load("broken.jpg"); err == nil {
		t.Error("expected load error for corrupt file")
	}
	if _, err := s.Metadata("a.png"); err == nil {
		t.Error("expected EXIF error for PNG without EXIF")
	}
}

func TestIsSupportedFormat(t *testing.T) {
	tests := map[string]bool{
		"x.jpg":  true,
		"x.JPG":  true,
		"x.jpeg": true,
		"x.png":  true,
		"x.tif":  false,
		"x":      false,
	}
	for path, want := range tests {
		if got := IsSupportedFormat(path); got != want {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", path, got, want)
		}
	}
}
