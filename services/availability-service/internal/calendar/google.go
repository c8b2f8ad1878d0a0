package calendar

import (
	"context"
	"crypto/sha1"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/clinicbook/clinicbook/services/availability-service/internal/interval"
)

// GoogleClient implements BusySource and ReservationSink against the Google
// Calendar API. The clinician id doubles as the calendar id. Credentials are
// an opaque JSON blob handed straight to the client library; they are never
// written to disk.
type GoogleClient struct {
	svc *gcal.Service
}

func NewGoogleClient(ctx context.Context, credentialsJSON []byte) (*GoogleClient, error) {
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("init calendar client: %w", err)
	}
	return &GoogleClient{svc: svc}, nil
}

func (c *GoogleClient) FetchBusy(ctx context.Context, resourceID string, timeMin, timeMax time.Time) ([]RawEvent, error) {
	var out []RawEvent
	pageToken := ""
	for {
		call := c.svc.Events.List(resourceID).
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(250).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("%w: list events for %s: %v", ErrUnavailable, resourceID, err)
		}
		for _, item := range resp.Items {
			if item.Status == "cancelled" || item.Transparency == "transparent" {
				continue
			}
			out = append(out, rawEventFromItem(item))
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

func rawEventFromItem(item *gcal.Event) RawEvent {
	var ev RawEvent
	if item.Start != nil {
		ev.StartDate = item.Start.Date
		if item.Start.DateTime != "" {
			if t, err := time.Parse(time.RFC3339, item.Start.DateTime); err == nil {
				ev.StartTime = t
			}
		}
	}
	if item.End != nil {
		ev.EndDate = item.End.Date
		if item.End.DateTime != "" {
			if t, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
				ev.EndTime = t
			}
		}
	}
	return ev
}

func (c *GoogleClient) CreateReservation(ctx context.Context, resourceID string, res Reservation) (Confirmation, error) {
	ev := &gcal.Event{
		Id:      reservationEventID(resourceID, res.Span),
		Summary: res.Summary,
		Start:   &gcal.EventDateTime{DateTime: res.Span.Start.Format(time.RFC3339)},
		End:     &gcal.EventDateTime{DateTime: res.Span.End.Format(time.RFC3339)},
	}
	call := c.svc.Events.Insert(resourceID, ev).Context(ctx)
	if res.Attendee != "" {
		ev.Attendees = []*gcal.EventAttendee{{Email: res.Attendee}}
		call = call.SendUpdates("all")
	}

	created, err := call.Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.Code == 409:
				// The deterministic event id already exists: someone else
				// reserved the same resource and interval first.
				return Confirmation{}, ErrSlotTaken
			case apiErr.Code == 403 && mentionsAttendeeRestriction(apiErr.Message):
				return Confirmation{}, ErrAttendeeNotification
			}
		}
		return Confirmation{}, fmt.Errorf("%w: insert event for %s: %v", ErrUnavailable, resourceID, err)
	}
	return Confirmation{ID: created.Id, Link: created.HtmlLink}, nil
}

func mentionsAttendeeRestriction(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "invite attendees") || strings.Contains(m, "domain-wide delegation")
}

// reservationEventID derives a deterministic calendar event id from the
// resource and interval, so retries and racing duplicate bookings collapse to
// a single upstream create. The encoding stays within the API's base32hex
// id alphabet.
func reservationEventID(resourceID string, s interval.Span) string {
	sum := sha1.Sum([]byte(resourceID + "|" + s.Start.UTC().Format(time.RFC3339) + "|" + s.End.UTC().Format(time.RFC3339)))
	return strings.ToLower(base32.HexEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:]))
}
