package engine

import (
	"time"

	"github.com/clinicbook/clinicbook/services/availability-service/internal/interval"
)

const (
	defaultDaysToCheck = 7
	maxDaysToCheck     = 60
	defaultMaxSlots    = 10
	maxMaxSlots        = 50
)

// AvailabilityRequest asks for open slots for one clinician starting at Date.
// Zero-valued knobs fall back to the clinician's policy or engine defaults.
type AvailabilityRequest struct {
	ResourceID     string
	Date           string // YYYY-MM-DD in the clinician's zone
	DaysToCheck    int
	SlotMinutes    int
	StepMinutes    int
	MaxSlots       int
	CallerTimezone string // optional IANA name for display times
}

type Slot struct {
	Date         string    `json:"date"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	DisplayStart string    `json:"display_start"`
	DisplayEnd   string    `json:"display_end"`
}

type AvailabilityResponse struct {
	ResourceID string `json:"clinician_id"`
	Timezone   string `json:"timezone"`
	Slots      []Slot `json:"slots"`
}

type BookingRequest struct {
	ResourceID      string
	Start           string // RFC3339 or naive local datetime
	DurationMinutes int
	CallerTimezone  string
	Attendee        string
	Summary         string
}

type BookingResponse struct {
	ReservationID   string        `json:"reservation_id"`
	ReservationLink string        `json:"reservation_link,omitempty"`
	Span            interval.Span `json:"span"`
}
