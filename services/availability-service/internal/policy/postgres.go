package policy

import (
	"context"
	"fmt"

	"github.com/clinicbook/clinicbook/libs/db"
)

// LoadPostgres reads per-clinician overrides from the scheduling_policies
// table. NULL columns stay nil so the defaults apply. The table is read once
// at startup; changing a policy requires a restart.
//
//	CREATE TABLE scheduling_policies (
//	    clinician_id      text PRIMARY KEY,
//	    timezone          text,
//	    day_start_hour    int,
//	    day_end_hour      int,
//	    allow_weekends    boolean,
//	    slot_step_minutes int,
//	    slot_minutes      int
//	);
func LoadPostgres(ctx context.Context, pool *db.Pool) (map[string]Overrides, error) {
	rows, err := pool.Query(ctx, `
		SELECT clinician_id, timezone, day_start_hour, day_end_hour,
			allow_weekends, slot_step_minutes, slot_minutes
		FROM scheduling_policies
	`)
	if err != nil {
		return nil, fmt.Errorf("load scheduling policies: %w", err)
	}
	defer rows.Close()

	out := map[string]Overrides{}
	for rows.Next() {
		var id string
		var o Overrides
		if err := rows.Scan(&id, &o.Timezone, &o.DayStartHour, &o.DayEndHour,
			&o.AllowWeekends, &o.SlotStepMinutes, &o.SlotMinutes); err != nil {
			return nil, fmt.Errorf("scan scheduling policy: %w", err)
		}
		out[id] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load scheduling policies: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("scheduling_policies table is empty")
	}
	return out, nil
}
