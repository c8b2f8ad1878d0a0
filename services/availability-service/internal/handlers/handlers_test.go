package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clinicbook/clinicbook/services/availability-service/internal/calendar"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/engine"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/events"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/policy"
)

type stubCalendar struct {
	events    []calendar.RawEvent
	createErr error
	created   int
}

func (s *stubCalendar) FetchBusy(context.Context, string, time.Time, time.Time) ([]calendar.RawEvent, error) {
	return s.events, nil
}

func (s *stubCalendar) CreateReservation(context.Context, string, calendar.Reservation) (calendar.Confirmation, error) {
	if s.createErr != nil {
		return calendar.Confirmation{}, s.createErr
	}
	s.created++
	return calendar.Confirmation{ID: "resv-1"}, nil
}

func newTestAPI(t *testing.T, cal *stubCalendar) *API {
	t.Helper()
	table, err := policy.NewTable(policy.Default(), map[string]policy.Overrides{"dr-lee": {}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(table, cal, cal, logger)
	return NewAPI(eng, table, events.NewPublisher("", logger), logger)
}

// futureMonday returns an upcoming weekday date far enough out that no slot
// falls in the past.
func futureMonday() string {
	d := time.Now().UTC().AddDate(0, 0, 14)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

func TestAvailabilityEndpoint(t *testing.T) {
	api := newTestAPI(t, &stubCalendar{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability?clinician_id=dr-lee&date="+futureMonday()+"&days_to_check=1", nil)
	rec := httptest.NewRecorder()
	api.Availability(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp engine.AvailabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ResourceID != "dr-lee" || resp.Timezone != "UTC" {
		t.Fatalf("resp = %+v", resp)
	}
	if len(resp.Slots) == 0 {
		t.Fatal("no slots for an empty calendar")
	}
}

func TestAvailabilityAcceptsDoctorIDAlias(t *testing.T) {
	api := newTestAPI(t, &stubCalendar{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability?doctor_id=dr-lee&date="+futureMonday(), nil)
	rec := httptest.NewRecorder()
	api.Availability(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestAvailabilityValidation(t *testing.T) {
	api := newTestAPI(t, &stubCalendar{})

	cases := []struct {
		name   string
		target string
		status int
	}{
		{"missing clinician", "/api/v1/availability", http.StatusBadRequest},
		{"unknown clinician", "/api/v1/availability?clinician_id=dr-nobody", http.StatusNotFound},
		{"bad date", "/api/v1/availability?clinician_id=dr-lee&date=tomorrow", http.StatusBadRequest},
		{"bad tz", "/api/v1/availability?clinician_id=dr-lee&date=" + futureMonday() + "&tz=Mars/Olympus", http.StatusUnprocessableEntity},
		{"bad days", "/api/v1/availability?clinician_id=dr-lee&days_to_check=zero", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			rec := httptest.NewRecorder()
			api.Availability(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}

func TestAvailabilityMethodNotAllowed(t *testing.T) {
	api := newTestAPI(t, &stubCalendar{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/availability", nil)
	rec := httptest.NewRecorder()
	api.Availability(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestBookEndpoint(t *testing.T) {
	cal := &stubCalendar{}
	api := newTestAPI(t, cal)

	body := `{"clinician_id":"dr-lee","start":"` + futureMonday() + `T14:00:00Z","duration_minutes":30,"summary":"Checkup"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/book", strings.NewReader(body))
	rec := httptest.NewRecorder()
	api.Book(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Status        string `json:"status"`
		ReservationID string `json:"reservation_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "reserved" || resp.ReservationID != "resv-1" {
		t.Fatalf("resp = %+v", resp)
	}
	if cal.created != 1 {
		t.Fatalf("created = %d", cal.created)
	}
}

func TestBookConflict(t *testing.T) {
	api := newTestAPI(t, &stubCalendar{createErr: calendar.ErrSlotTaken})

	body := `{"clinician_id":"dr-lee","start":"` + futureMonday() + `T14:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/book", strings.NewReader(body))
	rec := httptest.NewRecorder()
	api.Book(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestBookValidation(t *testing.T) {
	api := newTestAPI(t, &stubCalendar{})

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing fields", `{}`, http.StatusBadRequest},
		{"unknown clinician", `{"clinician_id":"dr-nobody","start":"` + futureMonday() + `T14:00:00Z"}`, http.StatusNotFound},
		{"past start", `{"clinician_id":"dr-lee","start":"2020-01-06T14:00:00Z"}`, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/book", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			api.Book(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}

func TestCliniciansEndpoint(t *testing.T) {
	api := newTestAPI(t, &stubCalendar{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clinicians", nil)
	rec := httptest.NewRecorder()
	api.Clinicians(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []clinicianItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].ClinicianID != "dr-lee" || items[0].Timezone != "UTC" {
		t.Fatalf("items = %+v", items)
	}
}
