// Package marks holds the per-session table of marked ground control points.
package marks

import (
	"sort"

	"gcp-marker/pkg/geometry"
)

// Key identifies a mark: one label on one image.
type Key struct {
	Label string
	Image string
}

// Mark is one recorded pixel position for a (label, image) pair.
type Mark struct {
	Label    string            `json:"label"`
	Image    string            `json:"filename"`
	Position geometry.PointInt `json:"position"`
}

// Key returns the mark's store key.
func (m Mark) Key() Key {
	return Key{Label: m.Label, Image: m.Image}
}

// Store maps (label, image) to a pixel position. It holds at most one
// position per key; a later Set replaces the earlier one.
// Store is not safe for concurrent use; the session controller serializes access.
type Store struct {
	marks map[Key]geometry.PointInt
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{marks: make(map[Key]geometry.PointInt)}
}

// Set records a position, overwriting any previous one for the same key.
// It reports whether a previous position was replaced.
func (s *Store) Set(label, image string, p geometry.PointInt) bool {
	k := Key{Label: label, Image: image}
	_, existed := s.marks[k]
	s.marks[k] = p
	return existed
}

// Get returns the position recorded for (label, image).
func (s *Store) Get(label, image string) (geometry.PointInt, bool) {
	p, ok := s.marks[Key{Label: label, Image: image}]
	return p, ok
}

// Len returns the number of marks.
func (s *Store) Len() int {
	return len(s.marks)
}

// ImageCount returns how many distinct images carry a mark for label.
func (s *Store) ImageCount(label string) int {
	n := 0
	for k := range s.marks {
		if k.Label == label {
			n++
		}
	}
	return n
}

// CountByLabel returns the number of distinct marked images per label.
func (s *Store) CountByLabel() map[string]int {
	counts := make(map[string]int)
	for k := range s.marks {
		counts[k.Label]++
	}
	return counts
}

// Labels returns the distinct labels that have at least one mark, sorted.
func (s *Store) Labels() []string {
	counts := s.CountByLabel()
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// All returns every mark sorted by label, then image name.
func (s *Store) All() []Mark {
	out := make([]Mark, 0, len(s.marks))
	for k, p := range s.marks {
		out = append(out, Mark{Label: k.Label, Image: k.Image, Position: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Image < out[j].Image
	})
	return out
}

// ForLabel returns the marks for one label sorted by image name.
func (s *Store) ForLabel(label string) []Mark {
	var out []Mark
	for k, p := range s.marks {
		if k.Label == label {
			out = append(out, Mark{Label: k.Label, Image: k.Image, Position: p})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Image < out[j].Image })
	return out
}

// Snapshot returns a copy of the underlying table.
func (s *Store) Snapshot() map[Key]geometry.PointInt {
	out := make(map[Key]geometry.PointInt, len(s.marks))
	for k, p := range s.marks {
		out[k] = p
	}
	return out
}
