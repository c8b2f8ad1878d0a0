package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clinicbook/clinicbook/services/availability-service/internal/engine"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

type errorBody struct {
	Error string      `json:"error"`
	Kind  engine.Kind `json:"kind,omitempty"`
}

func statusForKind(kind engine.Kind) int {
	switch kind {
	case engine.KindInvalidDate, engine.KindInvalidWindow:
		return http.StatusBadRequest
	case engine.KindUnknownResource:
		return http.StatusNotFound
	case engine.KindInvalidTimezone, engine.KindAttendeeUnsupported:
		return http.StatusUnprocessableEntity
	case engine.KindSlotNoLongerAvailable:
		return http.StatusConflict
	case engine.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	msg := "internal error"
	var e *engine.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	writeJSON(w, statusForKind(engine.KindOf(err)), errorBody{Error: msg, Kind: engine.KindOf(err)})
}
