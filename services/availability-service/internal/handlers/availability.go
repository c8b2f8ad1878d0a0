package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clinicbook/clinicbook/services/availability-service/internal/engine"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/events"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/policy"
)

type API struct {
	engine    *engine.Engine
	policies  *policy.Table
	publisher *events.Publisher
	logger    *slog.Logger
}

func NewAPI(eng *engine.Engine, policies *policy.Table, publisher *events.Publisher, logger *slog.Logger) *API {
	return &API{engine: eng, policies: policies, publisher: publisher, logger: logger}
}

// queryValue returns the first non-empty value among the given keys, so the
// handler accepts both the canonical names and legacy aliases (doctor_id, tz).
func queryValue(r *http.Request, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.URL.Query().Get(k)); v != "" {
			return v
		}
	}
	return ""
}

func queryInt(r *http.Request, keys ...string) (int, bool) {
	raw := queryValue(r, keys...)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (a *API) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := engine.AvailabilityRequest{
		ResourceID:     queryValue(r, "clinician_id", "doctor_id"),
		Date:           queryValue(r, "date"),
		CallerTimezone: queryValue(r, "timezone", "tz"),
	}
	if req.ResourceID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "clinician_id required"})
		return
	}

	var ok bool
	if req.DaysToCheck, ok = queryInt(r, "days_to_check", "days"); !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "days_to_check must be a positive integer"})
		return
	}
	if req.SlotMinutes, ok = queryInt(r, "slot_minutes", "duration_minutes", "required_free_minutes"); !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "slot_minutes must be a positive integer"})
		return
	}
	if req.StepMinutes, ok = queryInt(r, "step_minutes", "alignment_minutes"); !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "step_minutes must be a positive integer"})
		return
	}
	if req.MaxSlots, ok = queryInt(r, "max_slots"); !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "max_slots must be a positive integer"})
		return
	}

	resp, err := a.engine.Availability(r.Context(), req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type bookResponse struct {
	Status          string    `json:"status"`
	ReservationID   string    `json:"reservation_id"`
	ReservationLink string    `json:"reservation_link,omitempty"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
}

type bookRequest struct {
	ClinicianID     string `json:"clinician_id"`
	DoctorID        string `json:"doctor_id"` // legacy alias
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
	Timezone        string `json:"timezone"`
	TZ              string `json:"tz"` // legacy alias
	Attendee        string `json:"attendee"`
	AttendeeEmail   string `json:"attendee_email"` // legacy alias
	Summary         string `json:"summary"`
}

func (a *API) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json body"})
		return
	}

	clinicianID := strings.TrimSpace(req.ClinicianID)
	if clinicianID == "" {
		clinicianID = strings.TrimSpace(req.DoctorID)
	}
	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = strings.TrimSpace(req.TZ)
	}
	attendee := strings.TrimSpace(req.Attendee)
	if attendee == "" {
		attendee = strings.TrimSpace(req.AttendeeEmail)
	}
	start := strings.TrimSpace(req.Start)

	if clinicianID == "" || start == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "clinician_id and start required"})
		return
	}
	if req.DurationMinutes < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "duration_minutes must be positive"})
		return
	}

	resp, err := a.engine.Book(r.Context(), engine.BookingRequest{
		ResourceID:      clinicianID,
		Start:           start,
		DurationMinutes: req.DurationMinutes,
		CallerTimezone:  tz,
		Attendee:        attendee,
		Summary:         strings.TrimSpace(req.Summary),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	a.publisher.PublishReservationCreated(r.Context(), events.ReservationCreated{
		ReservationID: resp.ReservationID,
		ClinicianID:   clinicianID,
		Start:         resp.Span.Start,
		End:           resp.Span.End,
		Attendee:      attendee,
		CreatedAt:     time.Now().UTC(),
	})

	writeJSON(w, http.StatusCreated, bookResponse{
		Status:          "reserved",
		ReservationID:   resp.ReservationID,
		ReservationLink: resp.ReservationLink,
		Start:           resp.Span.Start,
		End:             resp.Span.End,
	})
}

type clinicianItem struct {
	ClinicianID   string `json:"clinician_id"`
	Timezone      string `json:"timezone"`
	DayStartHour  int    `json:"day_start_hour"`
	DayEndHour    int    `json:"day_end_hour"`
	AllowWeekends bool   `json:"allow_weekends"`
	SlotMinutes   int    `json:"slot_minutes"`
}

func (a *API) Clinicians(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ids := a.policies.Resources()
	items := make([]clinicianItem, 0, len(ids))
	for _, id := range ids {
		pol, _, err := a.policies.Resolve(id)
		if err != nil {
			continue
		}
		items = append(items, clinicianItem{
			ClinicianID:   id,
			Timezone:      pol.Timezone,
			DayStartHour:  pol.DayStartHour,
			DayEndHour:    pol.DayEndHour,
			AllowWeekends: pol.AllowWeekends,
			SlotMinutes:   pol.SlotMinutes,
		})
	}
	writeJSON(w, http.StatusOK, items)
}
