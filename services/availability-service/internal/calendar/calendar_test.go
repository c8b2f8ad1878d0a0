package calendar

import (
	"testing"
	"time"

	"github.com/clinicbook/clinicbook/services/availability-service/internal/interval"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return loc
}

func TestBusySpansMergesOverlaps(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 2, 3, 0, 0, 0, 0, loc)
	events := []RawEvent{
		{StartTime: day.Add(9 * time.Hour), EndTime: day.Add(9*time.Hour + 15*time.Minute)},
		{StartTime: day.Add(9*time.Hour + 10*time.Minute), EndTime: day.Add(9*time.Hour + 30*time.Minute)},
	}

	got := BusySpans(events, loc)
	want := []interval.Span{{Start: day.Add(9 * time.Hour), End: day.Add(9*time.Hour + 30*time.Minute)}}
	if len(got) != 1 || !got[0].Start.Equal(want[0].Start) || !got[0].End.Equal(want[0].End) {
		t.Fatalf("BusySpans = %v, want %v", got, want)
	}
}

func TestBusySpansAllDayEvent(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	events := []RawEvent{{StartDate: "2026-02-03", EndDate: "2026-02-04"}}

	got := BusySpans(events, loc)
	if len(got) != 1 {
		t.Fatalf("BusySpans len = %d, want 1", len(got))
	}
	wantStart := time.Date(2026, 2, 3, 0, 0, 0, 0, loc)
	wantEnd := time.Date(2026, 2, 4, 0, 0, 0, 0, loc)
	if !got[0].Start.Equal(wantStart) || !got[0].End.Equal(wantEnd) {
		t.Fatalf("BusySpans = %v, want [%v, %v)", got[0], wantStart, wantEnd)
	}
}

func TestBusySpansAllDayWithoutEndDate(t *testing.T) {
	loc := time.UTC
	events := []RawEvent{{StartDate: "2026-02-03"}}

	got := BusySpans(events, loc)
	if len(got) != 1 {
		t.Fatalf("BusySpans len = %d, want 1", len(got))
	}
	if d := got[0].End.Sub(got[0].Start); d != 24*time.Hour {
		t.Fatalf("all-day span duration = %v, want 24h", d)
	}
}

func TestBusySpansDropsMalformed(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 2, 3, 12, 0, 0, 0, loc)
	events := []RawEvent{
		{},                                        // nothing set
		{StartDate: "not-a-date", EndDate: "also-bad"},
		{StartTime: now, EndTime: now},            // zero-length
		{StartTime: now, EndTime: now.Add(-time.Hour)}, // inverted
		{StartTime: now, EndTime: now.Add(time.Hour)},
	}

	got := BusySpans(events, loc)
	if len(got) != 1 {
		t.Fatalf("BusySpans len = %d, want 1 (only the valid event)", len(got))
	}
	if !got[0].Start.Equal(now) || !got[0].End.Equal(now.Add(time.Hour)) {
		t.Fatalf("BusySpans = %v", got[0])
	}
}

func TestBusySpansEmpty(t *testing.T) {
	if got := BusySpans(nil, time.UTC); got != nil {
		t.Fatalf("BusySpans(nil) = %v, want nil", got)
	}
}
