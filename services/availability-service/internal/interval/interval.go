// Package interval provides the half-open time interval model used by the
// availability engine. Every span is [Start, End); callers keep both endpoints
// in the same location before comparing.
package interval

import (
	"sort"
	"time"
)

// Span is a half-open time interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

func (s Span) Valid() bool { return s.Start.Before(s.End) }

func (s Span) Duration() time.Duration { return s.End.Sub(s.Start) }

// Overlaps reports whether two half-open spans intersect:
// [a.Start, a.End) overlaps [b.Start, b.End) iff a.Start < b.End && b.Start < a.End.
// Spans that merely touch do not overlap.
func (s Span) Overlaps(other Span) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// OverlapsAny reports whether s intersects any span in the set.
func OverlapsAny(s Span, set []Span) bool {
	for _, b := range set {
		if s.Overlaps(b) {
			return true
		}
	}
	return false
}

// Merge canonicalizes a collection of busy spans. Invalid spans (end at or
// before start) are dropped, the rest are sorted by start and folded so that
// overlapping or exactly adjacent spans fuse into one. The result is sorted
// ascending by start with no two spans overlapping or touching. Merging an
// already merged set returns an equal set.
func Merge(spans []Span) []Span {
	valid := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Valid() {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].Start.Before(valid[j].Start) })

	merged := []Span{valid[0]}
	for _, s := range valid[1:] {
		last := &merged[len(merged)-1]
		// s.Start <= last.End covers both overlap and exact adjacency.
		if !s.Start.After(last.End) {
			if s.End.After(last.End) {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
