// Package project provides session file handling and persistence.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gcp-marker/internal/marks"
)

// FormatVersion is the current session file version.
const FormatVersion = 1

// File represents a marking session file (.gcpsession).
type File struct {
	Version  int       `json:"version"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Paths (relative to the session file when possible)
	ImageDir    string `json:"image_dir"`
	CatalogPath string `json:"catalog,omitempty"`

	// Catalog column choices
	LabelColumn    string `json:"label_column,omitempty"`
	FilenameColumn string `json:"filename_column,omitempty"`

	// Where the operator left off
	CurrentImage string `json:"current_image,omitempty"`
	ActiveLabel  string `json:"active_label,omitempty"`

	Marks []marks.Mark `json:"marks"`
}

// New creates an empty session for an image folder.
func New(imageDir string) *File {
	now := time.Now()
	return &File{
		Version:  FormatVersion,
		Created:  now,
		Modified: now,
		ImageDir: imageDir,
	}
}

// Load loads a session from a file. Relative paths are resolved against the
// session file's directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid session file %s: %w", path, err)
	}
	if f.Version > FormatVersion {
		return nil, fmt.Errorf("session file %s has version %d, newer than supported %d",
			path, f.Version, FormatVersion)
	}

	f.ImageDir = resolve(path, f.ImageDir)
	f.CatalogPath = resolve(path, f.CatalogPath)
	return &f, nil
}

// Save writes the session to path, storing paths relative to it where possible.
// The previous file is replaced atomically.
func (f *File) Save(path string) error {
	f.Modified = time.Now()
	if f.Version == 0 {
		f.Version = FormatVersion
	}

	out := *f
	out.ImageDir = relative(path, f.ImageDir)
	out.CatalogPath = relative(path, f.CatalogPath)

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// SetMarks replaces the stored marks with the contents of a store.
func (f *File) SetMarks(s *marks.Store) {
	f.Marks = s.All()
}

// Store rebuilds a mark store from the saved marks.
func (f *File) Store() *marks.Store {
	s := marks.NewStore()
	for _, m := range f.Marks {
		s.Set(m.Label, m.Image, m.Position)
	}
	return s
}

// relative expresses target relative to the session file's directory, the
// base resolve uses on load. Working-directory-relative targets are made
// absolute first.
func relative(sessionPath, target string) string {
	if target == "" {
		return target
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return target
	}
	absSession, err := filepath.Abs(sessionPath)
	if err != nil {
		return absTarget
	}
	rel, err := filepath.Rel(filepath.Dir(absSession), absTarget)
	if err != nil {
		return absTarget
	}
	return rel
}

func resolve(sessionPath, target string) string {
	if target == "" || filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(sessionPath), target)
}
