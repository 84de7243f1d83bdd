// README: Append-only audit ledger for applied transitions, backed by
// PostgreSQL.
package booking

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger records every applied transition. A nil pool disables the ledger;
// Append and History become no-ops so the lifecycle works without Postgres.
type Ledger struct {
	db *pgxpool.Pool
}

func NewLedger(db *pgxpool.Pool) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Append(ctx context.Context, e Event) error {
	if l == nil || l.db == nil {
		return nil
	}
	_, err := l.db.Exec(ctx, `
		INSERT INTO booking_state_events (
			booking_id, from_status, to_status, actor, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.BookingID,
		string(e.FromStatus),
		string(e.ToStatus),
		e.Actor,
		e.Notes,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append booking event: %w", err)
	}
	return nil
}

func (l *Ledger) History(ctx context.Context, bookingID string) ([]Event, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	rows, err := l.db.Query(ctx, `
		SELECT id, booking_id, from_status, to_status, actor, notes, created_at
		FROM booking_state_events
		WHERE booking_id = $1
		ORDER BY id`, bookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("query booking events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var from, to string
		if err := rows.Scan(&e.ID, &e.BookingID, &from, &to, &e.Actor, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking event: %w", err)
		}
		e.FromStatus = Status(from)
		e.ToStatus = Status(to)
		out = append(out, e)
	}
	return out, rows.Err()
}
