package engine

import "errors"

// Kind classifies engine failures for transport-level mapping. The engine
// never exposes upstream error text beyond the wrapped cause.
type Kind string

const (
	KindInvalidDate           Kind = "invalid_date"
	KindInvalidWindow         Kind = "invalid_window"
	KindUnknownResource       Kind = "unknown_resource"
	KindInvalidTimezone       Kind = "invalid_timezone"
	KindUpstreamUnavailable   Kind = "upstream_unavailable"
	KindSlotNoLongerAvailable Kind = "slot_no_longer_available"
	KindAttendeeUnsupported   Kind = "attendee_notification_unsupported"
)

type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, cause: cause}
}

// KindOf extracts the classification from err, or "" for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
