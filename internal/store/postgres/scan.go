package postgres

import (
	"database/sql"

	"github.com/scaleworks/libralog/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanEvent scans a single row into a model.Event.
// The row must contain columns in the order defined by eventColumns.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var action string
	err := row.Scan(
		&e.Sequence,
		&e.Model,
		&e.DeviceID,
		&e.Timestamp,
		&action,
		&e.Amount,
		&e.Location,
		&e.Ingredient,
		&e.Synced,
	)
	if err != nil {
		return nil, err
	}
	e.Action = model.Action(action)
	return &e, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
