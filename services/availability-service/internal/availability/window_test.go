package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/clinicbook/clinicbook/services/availability-service/internal/policy"
)

func TestDayWindow_OperatingHours(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}
	pol := policy.Default()
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, loc) // a Wednesday

	window, ok, err := DayWindow(day, pol, loc)
	if err != nil || !ok {
		t.Fatalf("expected window, got ok=%v err=%v", ok, err)
	}
	if window.Start.Hour() != 9 || window.End.Hour() != 17 {
		t.Fatalf("expected 09:00-17:00, got %v-%v", window.Start, window.End)
	}
	if window.Start.Location() != loc {
		t.Fatalf("window must be in the clinic zone, got %v", window.Start.Location())
	}
}

func TestDayWindow_ExcludesWeekends(t *testing.T) {
	pol := policy.Default()
	saturday := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for _, day := range []time.Time{saturday, sunday} {
		_, ok, err := DayWindow(day, pol, time.UTC)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatalf("expected %s excluded", day.Weekday())
		}
	}
}

func TestDayWindow_AllowWeekends(t *testing.T) {
	pol := policy.Default()
	pol.AllowWeekends = true
	saturday := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	_, ok, err := DayWindow(saturday, pol, time.UTC)
	if err != nil || !ok {
		t.Fatalf("expected saturday window with AllowWeekends, got ok=%v err=%v", ok, err)
	}
}

func TestDayWindow_MisconfiguredHours(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	for _, pol := range []policy.Policy{
		{DayStartHour: 17, DayEndHour: 9},
		{DayStartHour: 9, DayEndHour: 9},
		{DayStartHour: -1, DayEndHour: 17},
		{DayStartHour: 9, DayEndHour: 25},
	} {
		_, _, err := DayWindow(day, pol, time.UTC)
		if !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("expected ErrInvalidWindow for %+v, got %v", pol, err)
		}
	}
}
