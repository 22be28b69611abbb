// Package imageset provides the ordered set of photos marked in a session,
// with on-demand decoding and metadata lookup.
package imageset

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gcp-marker/pkg/geometry"

	"github.com/rwcarlsen/goexif/exif"
)

// ErrNoImages is returned when a folder holds no supported image files.
var ErrNoImages = errors.New("no images found")

// SupportedFormats returns the list of supported image extensions.
func SupportedFormats() []string {
	return []string{".jpg", ".jpeg", ".png"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// Set is an ordered, read-only list of image file names in one folder.
// Decoding state is cached, so a Set must not be used from several
// goroutines at once.
type Set struct {
	Dir   string
	names []string
	index map[string]int
	dims  map[string]geometry.Size

	cachedName  string
	cachedImage image.Image
}

// Discover lists the supported images in dir, sorted lexicographically.
func Discover(dir string) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image folder: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedFormat(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	return NewSet(dir, names), nil
}

// NewSet builds a set from explicit names; they are sorted and de-duplicated.
func NewSet(dir string, names []string) *Set {
	sorted := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			sorted = append(sorted, n)
		}
	}
	sort.Strings(sorted)

	s := &Set{
		Dir:   dir,
		names: sorted,
		index: make(map[string]int, len(sorted)),
		dims:  make(map[string]geometry.Size),
	}
	for i, n := range sorted {
		s.index[n] = i
	}
	return s
}

// Len returns the number of images.
func (s *Set) Len() int {
	return len(s.names)
}

// Names returns a copy of the ordered image names.
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Name returns the i-th image name.
func (s *Set) Name(i int) string {
	return s.names[i]
}

// Index returns the position of name in the set.
func (s *Set) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Contains reports whether name is in the set.
func (s *Set) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Path returns the full path of an image.
func (s *Set) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Dimensions returns an image's pixel size, reading only its header.
// Successful lookups are cached.
func (s *Set) Dimensions(name string) (geometry.Size, error) {
	if d, ok := s.dims[name]; ok {
		return d, nil
	}
	f, err := os.Open(s.Path(name))
	if err != nil {
		return geometry.Size{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	d := geometry.Size{Width: cfg.Width, Height: cfg.Height}
	if d.Empty() {
		return geometry.Size{}, fmt.Errorf("image %s has no pixels", name)
	}
	s.dims[name] = d
	return d, nil
}

// Load decodes an image. The most recently decoded image is kept so repeated
// redraws of the same photo do not decode it again.
func (s *Set) Load(name string) (image.Image, error) {
	if s.cachedName == name && s.cachedImage != nil {
		return s.cachedImage, nil
	}

	f, err := os.Open(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	b := img.Bounds()
	s.dims[name] = geometry.Size{Width: b.Dx(), Height: b.Dy()}
	s.cachedName = name
	s.cachedImage = img
	return img, nil
}

// Metadata is the EXIF information shown alongside a photo.
type Metadata struct {
	Captured time.Time
	Lat, Lon float64
	HasGPS   bool
}

// Metadata reads capture time and camera GPS position from EXIF.
// Photos without EXIF return an error; missing individual tags are left zero.
func (s *Set) Metadata(name string) (Metadata, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return Metadata{}, fmt.Errorf("no EXIF data in %s: %w", name, err)
	}

	var md Metadata
	if t, err := x.DateTime(); err == nil {
		md.Captured = t
	}
	if lat, lon, err := x.LatLong(); err == nil {
		md.Lat, md.Lon, md.HasGPS = lat, lon, true
	}
	return md, nil
}
