package interval

import (
	"testing"
	"time"
)

func at(t *testing.T, hour, min int) time.Time {
	t.Helper()
	return time.Date(2026, 1, 28, hour, min, 0, 0, time.UTC)
}

func TestMerge_OverlappingPair(t *testing.T) {
	busy := []Span{
		{Start: at(t, 9, 0), End: at(t, 9, 15)},
		{Start: at(t, 9, 10), End: at(t, 9, 30)},
	}
	merged := Merge(busy)
	if len(merged) != 1 {
		t.Fatalf("expected 1 span, got %d", len(merged))
	}
	if !merged[0].Start.Equal(at(t, 9, 0)) || !merged[0].End.Equal(at(t, 9, 30)) {
		t.Fatalf("expected 09:00-09:30, got %v-%v", merged[0].Start, merged[0].End)
	}
}

func TestMerge_FusesExactAdjacency(t *testing.T) {
	busy := []Span{
		{Start: at(t, 9, 0), End: at(t, 9, 30)},
		{Start: at(t, 9, 30), End: at(t, 10, 0)},
	}
	merged := Merge(busy)
	if len(merged) != 1 {
		t.Fatalf("expected adjacent spans fused into 1, got %d", len(merged))
	}
	if !merged[0].End.Equal(at(t, 10, 0)) {
		t.Fatalf("expected end 10:00, got %v", merged[0].End)
	}
}

func TestMerge_KeepsStrictGaps(t *testing.T) {
	busy := []Span{
		{Start: at(t, 11, 0), End: at(t, 12, 0)},
		{Start: at(t, 9, 0), End: at(t, 9, 30)},
	}
	merged := Merge(busy)
	if len(merged) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(merged))
	}
	if !merged[0].Start.Equal(at(t, 9, 0)) {
		t.Fatalf("expected sorted output, first start %v", merged[0].Start)
	}
}

func TestMerge_DropsInvalidSpans(t *testing.T) {
	busy := []Span{
		{Start: at(t, 9, 0), End: at(t, 9, 0)},  // empty
		{Start: at(t, 10, 0), End: at(t, 9, 0)}, // inverted
		{Start: at(t, 13, 0), End: at(t, 14, 0)},
	}
	merged := Merge(busy)
	if len(merged) != 1 {
		t.Fatalf("expected invalid spans dropped, got %d spans", len(merged))
	}
}

func TestMerge_Idempotent(t *testing.T) {
	busy := []Span{
		{Start: at(t, 9, 0), End: at(t, 9, 15)},
		{Start: at(t, 9, 10), End: at(t, 9, 30)},
		{Start: at(t, 9, 30), End: at(t, 10, 0)},
		{Start: at(t, 14, 0), End: at(t, 15, 0)},
	}
	once := Merge(busy)
	twice := Merge(once)
	if len(once) != len(twice) {
		t.Fatalf("merge not idempotent: %d vs %d spans", len(once), len(twice))
	}
	for i := range once {
		if !once[i].Start.Equal(twice[i].Start) || !once[i].End.Equal(twice[i].End) {
			t.Fatalf("merge not idempotent at index %d: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestMerge_Empty(t *testing.T) {
	if got := Merge(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestOverlaps_HalfOpenBoundaries(t *testing.T) {
	a := Span{Start: at(t, 9, 0), End: at(t, 9, 30)}
	b := Span{Start: at(t, 9, 30), End: at(t, 10, 0)}
	if a.Overlaps(b) || b.Overlaps(a) {
		t.Fatal("touching spans must not overlap")
	}
	c := Span{Start: at(t, 9, 29), End: at(t, 10, 0)}
	if !a.Overlaps(c) {
		t.Fatal("expected one-minute intersection to overlap")
	}
}

func TestOverlapsAny(t *testing.T) {
	set := []Span{
		{Start: at(t, 9, 0), End: at(t, 9, 30)},
		{Start: at(t, 11, 0), End: at(t, 12, 0)},
	}
	if OverlapsAny(Span{Start: at(t, 10, 0), End: at(t, 10, 30)}, set) {
		t.Fatal("gap slot must not conflict")
	}
	if !OverlapsAny(Span{Start: at(t, 11, 30), End: at(t, 12, 30)}, set) {
		t.Fatal("expected conflict with second busy span")
	}
}
