// Package timezone projects canonical clinic-zone instants into a caller's
// display zone and reverses a caller's local selection back into the clinic
// zone. Both directions are pure: the underlying instants never change, only
// their zone-relative rendering.
package timezone

import (
	"fmt"
	"time"

	"github.com/clinicbook/clinicbook/services/availability-service/internal/interval"
)

// Project re-expresses a span's endpoints in loc.
func Project(s interval.Span, loc *time.Location) interval.Span {
	return interval.Span{Start: s.Start.In(loc), End: s.End.In(loc)}
}

// naiveLayouts are accepted wall-clock formats carrying no zone information.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ResolveLocalStart parses a caller-chosen start time. Zone-qualified input
// (RFC 3339 with an offset) is honoured as-is. Naive wall-clock input is
// interpreted in callerLoc, or in resourceLoc when the caller declared no
// timezone.
func ResolveLocalStart(raw string, callerLoc, resourceLoc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	loc := resourceLoc
	if callerLoc != nil {
		loc = callerLoc
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized start time %q", raw)
}

// CanonicalRange converts a resolved start plus duration into the clinic
// zone's half-open booking range.
func CanonicalRange(start time.Time, d time.Duration, resourceLoc *time.Location) interval.Span {
	s := start.In(resourceLoc)
	return interval.Span{Start: s, End: s.Add(d)}
}
