// Package calendar defines the engine's external collaborator contracts — a
// busy-interval source and a reservation sink — plus implementations backed
// by the Google Calendar API and by a self-hosted Postgres schedule.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/clinicbook/clinicbook/services/availability-service/internal/interval"
)

// Sentinel errors implementations map upstream failures onto.
var (
	// ErrUnavailable wraps any transport or upstream fault; callers treat it
	// as retryable.
	ErrUnavailable = errors.New("calendar upstream unavailable")

	// ErrSlotTaken means the sink's conditional create rejected a duplicate
	// reservation for the same resource and interval.
	ErrSlotTaken = errors.New("reservation slot already taken")

	// ErrAttendeeNotification means the upstream refused to notify attendees
	// under the current trust configuration.
	ErrAttendeeNotification = errors.New("upstream cannot notify attendees")
)

// RawEvent is one busy entry as the upstream reports it. Timed entries carry
// StartTime/EndTime; date-only (all-day) entries carry StartDate/EndDate as
// YYYY-MM-DD strings with an exclusive end date, matching the upstream
// calendar convention.
type RawEvent struct {
	StartTime time.Time
	EndTime   time.Time
	StartDate string
	EndDate   string
}

// BusySource fetches raw busy entries for one clinician over [timeMin, timeMax).
// Entries may be unmerged, overlapping, or date-only.
type BusySource interface {
	FetchBusy(ctx context.Context, resourceID string, timeMin, timeMax time.Time) ([]RawEvent, error)
}

// Reservation is the canonical booking range plus event details sent to the sink.
type Reservation struct {
	Span     interval.Span
	Summary  string
	Attendee string
}

type Confirmation struct {
	ID   string
	Link string
}

// ReservationSink creates the reservation upstream. Implementations must make
// the create conditional on the slot still being free for the same resource
// and interval; the engine's pre-check alone cannot guarantee exclusion.
type ReservationSink interface {
	CreateReservation(ctx context.Context, resourceID string, res Reservation) (Confirmation, error)
}

// BusySpans normalizes raw entries into a merged busy set in loc. Date-only
// entries expand to [start-of-day, start-of-next-day); entries with missing or
// inverted endpoints are dropped, never failing the batch.
func BusySpans(events []RawEvent, loc *time.Location) []interval.Span {
	spans := make([]interval.Span, 0, len(events))
	for _, e := range events {
		if s, ok := e.span(loc); ok {
			spans = append(spans, s)
		}
	}
	return interval.Merge(spans)
}

func (e RawEvent) span(loc *time.Location) (interval.Span, bool) {
	start, end := e.StartTime, e.EndTime
	if e.StartDate != "" {
		d, err := time.ParseInLocation("2006-01-02", e.StartDate, loc)
		if err != nil {
			return interval.Span{}, false
		}
		start = d
		// A lone start date means a single all-day entry.
		end = d.AddDate(0, 0, 1)
	}
	if e.EndDate != "" {
		d, err := time.ParseInLocation("2006-01-02", e.EndDate, loc)
		if err != nil {
			return interval.Span{}, false
		}
		end = d
	}
	if start.IsZero() || end.IsZero() {
		return interval.Span{}, false
	}
	s := interval.Span{Start: start.In(loc), End: end.In(loc)}
	if !s.Valid() {
		return interval.Span{}, false
	}
	return s, true
}
