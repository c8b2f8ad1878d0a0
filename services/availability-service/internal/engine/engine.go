package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicbook/clinicbook/services/availability-service/internal/availability"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/calendar"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/interval"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/policy"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/timezone"
)

// Engine composes policy resolution, busy-time normalization, slot generation
// and the reservation guard. It owns no storage itself; the calendar backend
// is injected.
type Engine struct {
	policies *policy.Table
	source   calendar.BusySource
	sink     calendar.ReservationSink
	logger   *slog.Logger
	tracer   trace.Tracer

	now func() time.Time // overridden in tests
}

func New(policies *policy.Table, source calendar.BusySource, sink calendar.ReservationSink, logger *slog.Logger) *Engine {
	return &Engine{
		policies: policies,
		source:   source,
		sink:     sink,
		logger:   logger,
		tracer:   otel.Tracer("availability-service/engine"),
		now:      time.Now,
	}
}

// Availability scans consecutive calendar days starting at req.Date and
// returns up to the requested number of open slots in chronological order.
// Days outside the clinician's working pattern contribute nothing but still
// count against the scan horizon.
func (e *Engine) Availability(ctx context.Context, req AvailabilityRequest) (AvailabilityResponse, error) {
	ctx, span := e.tracer.Start(ctx, "engine.availability",
		trace.WithAttributes(attribute.String("clinician.id", req.ResourceID)))
	defer span.End()

	pol, loc, err := e.policies.Resolve(req.ResourceID)
	if err != nil {
		return AvailabilityResponse{}, newError(KindUnknownResource, "unknown clinician "+req.ResourceID, err)
	}

	date := req.Date
	if date == "" {
		// "Today" is the clinician's today, not the server's.
		date = e.now().In(loc).Format("2006-01-02")
	}
	startDay, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return AvailabilityResponse{}, newError(KindInvalidDate, "date must be YYYY-MM-DD", err)
	}

	displayLoc := loc
	if req.CallerTimezone != "" {
		displayLoc, err = time.LoadLocation(req.CallerTimezone)
		if err != nil {
			return AvailabilityResponse{}, newError(KindInvalidTimezone, "unknown timezone "+req.CallerTimezone, err)
		}
	}

	days := clamp(req.DaysToCheck, defaultDaysToCheck, maxDaysToCheck)
	maxSlots := clamp(req.MaxSlots, defaultMaxSlots, maxMaxSlots)
	slotLen := minutesOr(req.SlotMinutes, pol.SlotMinutes)
	step := minutesOr(req.StepMinutes, pol.SlotStepMinutes)
	if slotLen <= 0 || step <= 0 {
		return AvailabilityResponse{}, newError(KindInvalidWindow, "slot and step must be positive", nil)
	}
	slotDur := time.Duration(slotLen) * time.Minute
	stepDur := time.Duration(step) * time.Minute

	now := e.now()
	resp := AvailabilityResponse{ResourceID: req.ResourceID, Timezone: loc.String(), Slots: []Slot{}}

	for offset := 0; offset < days && len(resp.Slots) < maxSlots; offset++ {
		day := startDay.AddDate(0, 0, offset)
		window, open, err := availability.DayWindow(day, pol, loc)
		if err != nil {
			return AvailabilityResponse{}, newError(KindInvalidWindow, "operating hours misconfigured for "+req.ResourceID, err)
		}
		if !open {
			continue
		}

		events, err := e.source.FetchBusy(ctx, req.ResourceID, window.Start, window.End)
		if err != nil {
			span.RecordError(err)
			return AvailabilityResponse{}, newError(KindUpstreamUnavailable, "calendar lookup failed", err)
		}
		busy := calendar.BusySpans(events, loc)

		for _, start := range availability.Slots(window, slotDur, stepDur, busy, now) {
			if len(resp.Slots) == maxSlots {
				break
			}
			resp.Slots = append(resp.Slots, makeSlot(start, slotLen, displayLoc))
		}
	}

	e.logger.InfoContext(ctx, "availability computed",
		"clinician_id", req.ResourceID,
		"date", req.Date,
		"days", days,
		"slots", len(resp.Slots))
	return resp, nil
}

// Book re-checks availability for the requested interval against the live
// busy set of the target day, then hands the reservation to the sink. The
// sink's conditional create is the final arbiter against races.
func (e *Engine) Book(ctx context.Context, req BookingRequest) (BookingResponse, error) {
	ctx, span := e.tracer.Start(ctx, "engine.book",
		trace.WithAttributes(attribute.String("clinician.id", req.ResourceID)))
	defer span.End()

	pol, loc, err := e.policies.Resolve(req.ResourceID)
	if err != nil {
		return BookingResponse{}, newError(KindUnknownResource, "unknown clinician "+req.ResourceID, err)
	}

	callerLoc := loc
	if req.CallerTimezone != "" {
		callerLoc, err = time.LoadLocation(req.CallerTimezone)
		if err != nil {
			return BookingResponse{}, newError(KindInvalidTimezone, "unknown timezone "+req.CallerTimezone, err)
		}
	}

	start, err := timezone.ResolveLocalStart(req.Start, callerLoc, loc)
	if err != nil {
		return BookingResponse{}, newError(KindInvalidDate, "unparsable start time", err)
	}

	dur := time.Duration(minutesOr(req.DurationMinutes, pol.SlotMinutes)) * time.Minute
	if dur <= 0 {
		return BookingResponse{}, newError(KindInvalidWindow, "duration must be positive", nil)
	}
	slot := timezone.CanonicalRange(start, dur, loc)

	now := e.now()
	if !slot.Start.After(now) {
		return BookingResponse{}, newError(KindSlotNoLongerAvailable, "requested start is in the past", nil)
	}

	// Guard against the full calendar day so busy entries that merely brush
	// the requested interval are all visible.
	dayStart := time.Date(slot.Start.Year(), slot.Start.Month(), slot.Start.Day(), 0, 0, 0, 0, loc)
	events, err := e.source.FetchBusy(ctx, req.ResourceID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		span.RecordError(err)
		return BookingResponse{}, newError(KindUpstreamUnavailable, "calendar lookup failed", err)
	}
	if interval.OverlapsAny(slot, calendar.BusySpans(events, loc)) {
		return BookingResponse{}, newError(KindSlotNoLongerAvailable, "slot no longer available", nil)
	}

	summary := req.Summary
	if summary == "" {
		summary = "Appointment"
		if req.Attendee != "" {
			summary += " with " + req.Attendee
		}
	}

	conf, err := e.sink.CreateReservation(ctx, req.ResourceID, calendar.Reservation{
		Span:     slot,
		Summary:  summary,
		Attendee: req.Attendee,
	})
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, calendar.ErrSlotTaken):
			return BookingResponse{}, newError(KindSlotNoLongerAvailable, "slot no longer available", err)
		case errors.Is(err, calendar.ErrAttendeeNotification):
			return BookingResponse{}, newError(KindAttendeeUnsupported, "upstream cannot notify attendees", err)
		default:
			return BookingResponse{}, newError(KindUpstreamUnavailable, "reservation create failed", err)
		}
	}

	e.logger.InfoContext(ctx, "reservation created",
		"clinician_id", req.ResourceID,
		"reservation_id", conf.ID,
		"start", slot.Start,
		"end", slot.End)
	return BookingResponse{ReservationID: conf.ID, ReservationLink: conf.Link, Span: slot}, nil
}

func makeSlot(start time.Time, slotMinutes int, displayLoc *time.Location) Slot {
	s := interval.Span{Start: start, End: start.Add(time.Duration(slotMinutes) * time.Minute)}
	disp := timezone.Project(s, displayLoc)
	return Slot{
		Date:         start.Format("2006-01-02"),
		Start:        s.Start,
		End:          s.End,
		DisplayStart: disp.Start.Format(time.RFC3339),
		DisplayEnd:   disp.End.Format(time.RFC3339),
	}
}

func clamp(v, def, max int) int {
	switch {
	case v <= 0:
		return def
	case v > max:
		return max
	default:
		return v
	}
}

func minutesOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
