// Package availability holds the pure slot computation: building a day's
// bookable window from policy and filtering grid-aligned candidate starts
// against busy intervals. Nothing here performs I/O.
package availability

import (
	"errors"
	"time"

	"github.com/clinicbook/clinicbook/services/availability-service/internal/interval"
	"github.com/clinicbook/clinicbook/services/availability-service/internal/policy"
)

var ErrInvalidWindow = errors.New("operating window misconfigured")

// DayWindow returns the bookable window for the calendar day containing day's
// year/month/day, expressed in loc. ok is false when the day is excluded
// (weekend while the policy disallows weekends); the caller must skip such
// days without fetching busy data.
func DayWindow(day time.Time, pol policy.Policy, loc *time.Location) (interval.Span, bool, error) {
	if pol.DayStartHour < 0 || pol.DayEndHour > 24 || pol.DayEndHour <= pol.DayStartHour {
		return interval.Span{}, false, ErrInvalidWindow
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), pol.DayStartHour, 0, 0, 0, loc)
	if !pol.AllowWeekends {
		wd := start.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			return interval.Span{}, false, nil
		}
	}
	end := time.Date(day.Year(), day.Month(), day.Day(), pol.DayEndHour, 0, 0, 0, loc)
	return interval.Span{Start: start, End: end}, true, nil
}
