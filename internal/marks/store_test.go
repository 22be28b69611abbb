package marks

import (
	"testing"

	"gcp-marker/pkg/geometry"
)

func TestSetOverwrites(t *testing.T) {
	s := NewStore()

	if replaced := s.Set("P1", "A.jpg", geometry.PointInt{X: 1, Y: 2}); replaced {
		t.Error("first Set reported a replacement")
	}
	if replaced := s.Set("P1", "A.jpg", geometry.PointInt{X: 30, Y: 40}); !replaced {
		t.Error("second Set did not report a replacement")
	}

	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	p, ok := s.Get("P1", "A.jpg")
	if !ok || p != (geometry.PointInt{X: 30, Y: 40}) {
		t.Errorf("Get = %+v, %v; want latest position", p, ok)
	}
}

func TestCountsAndOrdering(t *testing.T) {
	s := NewStore()
	s.Set("P2", "B.jpg", geometry.PointInt{X: 1, Y: 1})
	s.Set("P1", "B.jpg", geometry.PointInt{X: 2, Y: 2})
	s.Set("P1", "A.jpg", geometry.PointInt{X: 3, Y: 3})

	if got := s.ImageCount("P1"); got != 2 {
		t.Errorf("ImageCount(P1) = %d, want 2", got)
	}
	if got := s.ImageCount("missing"); got != 0 {
		t.Errorf("ImageCount(missing) = %d, want 0", got)
	}

	counts := s.CountByLabel()
	if counts["P1"] != 2 || counts["P2"] != 1 {
		t.Errorf("CountByLabel = %v", counts)
	}

	all := s.All()
	want := []Key{{"P1", "A.jpg"}, {"P1", "B.jpg"}, {"P2", "B.jpg"}}
	if len(all) != len(want) {
		t.Fatalf("All returned %d marks, want %d", len(all), len(want))
	}
	for i, k := range want {
		if all[i].Key() != k {
			t.Errorf("All[%d] = %+v, want %+v", i, all[i].Key(), k)
		}
	}

	labels := s.Labels()
	if len(labels) != 2 || labels[0] != "P1" || labels[1] != "P2" {
		t.Errorf("Labels = %v", labels)
	}

	if got := s.ForLabel("P1"); len(got) != 2 || got[0].Image != "A.jpg" {
		t.Errorf("ForLabel(P1) = %+v", got)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := NewStore()
	s.Set("P1", "A.jpg", geometry.PointInt{X: 1, Y: 1})

	snap := s.Snapshot()
	snap[Key{"P1", "A.jpg"}] = geometry.PointInt{X: 9, Y: 9}

	if p, _ := s.Get("P1", "A.jpg"); p.X != 1 {
		t.Error("mutating snapshot changed the store")
	}
}
