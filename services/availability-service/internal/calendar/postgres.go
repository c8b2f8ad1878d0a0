package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicbook/clinicbook/libs/db"
)

// PostgresStore implements BusySource and ReservationSink on top of an
// appointments table. Double booking is prevented by an exclusion constraint
// on the clinician's time range:
//
//	CREATE EXTENSION IF NOT EXISTS btree_gist;
//
//	CREATE TABLE appointments (
//	    id            BIGSERIAL PRIMARY KEY,
//	    clinician_id  TEXT        NOT NULL,
//	    start_time    TIMESTAMPTZ NOT NULL,
//	    end_time      TIMESTAMPTZ NOT NULL,
//	    summary       TEXT        NOT NULL DEFAULT '',
//	    attendee      TEXT        NOT NULL DEFAULT '',
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    CHECK (start_time < end_time),
//	    EXCLUDE USING gist (
//	        clinician_id WITH =,
//	        tstzrange(start_time, end_time) WITH &&
//	    )
//	);
type PostgresStore struct {
	pool *db.Pool
}

func NewPostgresStore(pool *db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FetchBusy(ctx context.Context, resourceID string, timeMin, timeMax time.Time) ([]RawEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT start_time, end_time
		FROM appointments
		WHERE clinician_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time`, resourceID, timeMin, timeMax)
	if err != nil {
		return nil, fmt.Errorf("%w: query appointments for %s: %v", ErrUnavailable, resourceID, err)
	}
	defer rows.Close()

	var out []RawEvent
	for rows.Next() {
		var ev RawEvent
		if err := rows.Scan(&ev.StartTime, &ev.EndTime); err != nil {
			return nil, fmt.Errorf("%w: scan appointment: %v", ErrUnavailable, err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read appointments: %v", ErrUnavailable, err)
	}
	return out, nil
}

func (s *PostgresStore) CreateReservation(ctx context.Context, resourceID string, res Reservation) (Confirmation, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO appointments (clinician_id, start_time, end_time, summary, attendee)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		resourceID, res.Span.Start, res.Span.End, res.Summary, res.Attendee,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505") {
			return Confirmation{}, ErrSlotTaken
		}
		return Confirmation{}, fmt.Errorf("%w: insert appointment for %s: %v", ErrUnavailable, resourceID, err)
	}
	return Confirmation{ID: fmt.Sprintf("%d", id)}, nil
}
