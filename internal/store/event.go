package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Event represents one stabilized gesture recognition stored in the
// database.
type Event struct {
	ID           string
	Label        string
	Confidence   float64
	RecognizedAt time.Time
}

// EventRepository provides persistence for recognition events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts a new recognition event into the database.
func (r *EventRepository) Create(e *Event) error {
	if e.RecognizedAt.IsZero() {
		e.RecognizedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, label, confidence, recognized_at)
		 VALUES (?, ?, ?, ?)`,
		e.ID, e.Label, e.Confidence, e.RecognizedAt,
	)
	return err
}

// List retrieves the most recent events, newest first, up to limit.
func (r *EventRepository) List(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(
		`SELECT id, label, confidence, recognized_at
		 FROM events ORDER BY recognized_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.Label, &e.Confidence, &e.RecognizedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountByLabel returns how many events exist per label.
func (r *EventRepository) CountByLabel() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT label, COUNT(*) FROM events GROUP BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, err
		}
		counts[label] = count
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// Prune deletes events recognized before the cutoff. Returns how many rows
// were removed.
func (r *EventRepository) Prune(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM events WHERE recognized_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
