package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scaleworks/libralog/internal/model"
	"github.com/scaleworks/libralog/internal/store"
)

// eventColumns is the column list used for SELECT statements on the
// scale_events table.
const eventColumns = `sequence, model, device_id, timestamp, action, amount, location, ingredient, synced`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// unavailable wraps a driver error so callers can test with
// errors.Is(err, store.ErrUnavailable).
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, store.ErrUnavailable, err)
}

func queryMaxSequence(ctx context.Context, db executor) (int64, error) {
	var seq sql.NullInt64
	err := db.QueryRowContext(ctx, `SELECT MAX(sequence) FROM scale_events`).Scan(&seq)
	if err != nil {
		return 0, unavailable("max sequence", err)
	}
	// NULL when the table is empty.
	return seq.Int64, nil
}

func queryEventsAfter(ctx context.Context, db executor, after int64) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM scale_events
		WHERE sequence > $1
		ORDER BY sequence ASC`, after)
	if err != nil {
		return nil, unavailable("events after", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func queryEventsForDevice(ctx context.Context, db executor, deviceID string, limit int) ([]*model.Event, error) {
	q := `
		SELECT ` + eventColumns + `
		FROM scale_events
		WHERE device_id = $1
		ORDER BY sequence DESC`
	args := []any{deviceID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, unavailable("events for device", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func queryRecentEvents(ctx context.Context, db executor, limit int) ([]*model.Event, error) {
	q := `
		SELECT ` + eventColumns + `
		FROM scale_events
		ORDER BY sequence DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, unavailable("recent events", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func queryInsertEvent(ctx context.Context, db executor, e *model.Event) error {
	err := db.QueryRowContext(ctx, `
		INSERT INTO scale_events (model, device_id, timestamp, action, amount, location, ingredient, synced)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING sequence`,
		e.Model,
		e.DeviceID,
		e.Timestamp,
		string(e.Action),
		e.Amount,
		e.Location,
		e.Ingredient,
		e.Synced,
	).Scan(&e.Sequence)
	if err != nil {
		return unavailable("insert event", err)
	}
	return nil
}
