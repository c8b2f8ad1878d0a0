package availability

import (
	"time"

	"github.com/clinicbook/clinicbook/services/availability-service/internal/interval"
)

// Slots returns candidate start times within window where a booking of length
// slotLen would not overlap any of the busy spans. The step grid is anchored
// at the window start: the first candidate is the window start itself and each
// subsequent candidate advances by step rather than slotLen, so offered slots
// may overlap one another when step < slotLen. Every returned start is a
// whole number of steps after the window start.
//
// Candidates starting at or before now are rejected. All times are expected
// to be in the same location.
func Slots(window interval.Span, slotLen, step time.Duration, busy []interval.Span, now time.Time) []time.Time {
	if slotLen <= 0 || step <= 0 {
		return nil
	}
	if !window.Valid() {
		return nil
	}

	var slots []time.Time
	for t := window.Start; !t.Add(slotLen).After(window.End); t = t.Add(step) {
		if !t.After(now) {
			continue
		}
		if !interval.OverlapsAny(interval.Span{Start: t, End: t.Add(slotLen)}, busy) {
			slots = append(slots, t)
		}
	}
	return slots
}
