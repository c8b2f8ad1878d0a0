// Package policy holds per-clinician scheduling configuration: operating
// hours, weekend allowance, the slot alignment grid and the required free
// minutes per slot. Policies are resolved once at startup into an immutable
// table; nothing mutates them afterwards.
package policy

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrUnknownResource = errors.New("unknown clinician")

type Policy struct {
	Timezone        string
	DayStartHour    int
	DayEndHour      int
	AllowWeekends   bool
	SlotStepMinutes int
	SlotMinutes     int
}

// Default is the system fallback applied before any overrides.
func Default() Policy {
	return Policy{
		Timezone:        "UTC",
		DayStartHour:    9,
		DayEndHour:      17,
		AllowWeekends:   false,
		SlotStepMinutes: 30,
		SlotMinutes:     30,
	}
}

// Overrides carries per-clinician settings. Nil fields fall back to the
// defaults; there is no deeper merge than field-level replacement.
type Overrides struct {
	Timezone        *string `json:"timezone,omitempty"`
	DayStartHour    *int    `json:"day_start_hour,omitempty"`
	DayEndHour      *int    `json:"day_end_hour,omitempty"`
	AllowWeekends   *bool   `json:"allow_weekends,omitempty"`
	SlotStepMinutes *int    `json:"slot_step_minutes,omitempty"`
	SlotMinutes     *int    `json:"slot_minutes,omitempty"`
}

func (o Overrides) Apply(base Policy) Policy {
	out := base
	if o.Timezone != nil {
		out.Timezone = *o.Timezone
	}
	if o.DayStartHour != nil {
		out.DayStartHour = *o.DayStartHour
	}
	if o.DayEndHour != nil {
		out.DayEndHour = *o.DayEndHour
	}
	if o.AllowWeekends != nil {
		out.AllowWeekends = *o.AllowWeekends
	}
	if o.SlotStepMinutes != nil {
		out.SlotStepMinutes = *o.SlotStepMinutes
	}
	if o.SlotMinutes != nil {
		out.SlotMinutes = *o.SlotMinutes
	}
	return out
}

func (p Policy) validate() error {
	if p.DayStartHour < 0 || p.DayEndHour > 24 || p.DayEndHour <= p.DayStartHour {
		return fmt.Errorf("operating hours misconfigured: start %d, end %d", p.DayStartHour, p.DayEndHour)
	}
	if p.SlotStepMinutes <= 0 || p.SlotMinutes <= 0 {
		return fmt.Errorf("slot configuration misconfigured: step %d, minutes %d", p.SlotStepMinutes, p.SlotMinutes)
	}
	return nil
}

type entry struct {
	policy Policy
	loc    *time.Location
}

// Table is the read-only policy registry keyed by clinician id. It is built
// once at process start; timezones and operating hours are validated here so
// request handling never sees a misconfigured policy.
type Table struct {
	entries map[string]entry
}

func NewTable(defaults Policy, overrides map[string]Overrides) (*Table, error) {
	t := &Table{entries: make(map[string]entry, len(overrides))}
	for id, o := range overrides {
		resolved := o.Apply(defaults)
		if err := resolved.validate(); err != nil {
			return nil, fmt.Errorf("clinician %s: %w", id, err)
		}
		loc, err := time.LoadLocation(resolved.Timezone)
		if err != nil {
			return nil, fmt.Errorf("clinician %s: invalid timezone %q", id, resolved.Timezone)
		}
		t.entries[id] = entry{policy: resolved, loc: loc}
	}
	return t, nil
}

// Resolve returns the clinician's policy and its timezone location.
func (t *Table) Resolve(resourceID string) (Policy, *time.Location, error) {
	e, ok := t.entries[resourceID]
	if !ok {
		return Policy{}, nil, fmt.Errorf("%w: %s", ErrUnknownResource, resourceID)
	}
	return e.policy, e.loc, nil
}

// Resources lists the configured clinician ids in stable order.
func (t *Table) Resources() []string {
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
