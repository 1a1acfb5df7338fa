package store

import (
	"database/sql"
	"errors"
	"time"
)

// Binding represents a gesture-label-to-command mapping stored in the
// database. When a stable gesture with the label is recognized, the bound
// command is executed.
type Binding struct {
	ID        string
	Label     string
	Command   string
	Enabled   bool
	CreatedAt time.Time
}

// BindingRepository provides CRUD operations for bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

// Create inserts a new binding into the database.
func (r *BindingRepository) Create(b *Binding) error {
	b.CreatedAt = time.Now()

	enabled := 0
	if b.Enabled {
		enabled = 1
	}

	_, err := r.db.Exec(
		`INSERT INTO bindings (id, label, command, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Label, b.Command, enabled, b.CreatedAt,
	)
	return err
}

// GetByLabel retrieves the binding for a gesture label.
// Returns nil, nil if no binding exists for the label.
func (r *BindingRepository) GetByLabel(label string) (*Binding, error) {
	b := &Binding{}
	var enabled int

	err := r.db.QueryRow(
		`SELECT id, label, command, enabled, created_at
		 FROM bindings WHERE label = ?`,
		label,
	).Scan(&b.ID, &b.Label, &b.Command, &enabled, &b.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Silent skip - no binding for this label
		}
		return nil, err
	}

	b.Enabled = enabled != 0
	return b, nil
}

// List retrieves all bindings from the database.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(
		`SELECT id, label, command, enabled, created_at
		 FROM bindings ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b := &Binding{}
		var enabled int

		if err := rows.Scan(&b.ID, &b.Label, &b.Command, &enabled, &b.CreatedAt); err != nil {
			return nil, err
		}

		b.Enabled = enabled != 0
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// Update updates an existing binding in the database.
func (r *BindingRepository) Update(b *Binding) error {
	enabled := 0
	if b.Enabled {
		enabled = 1
	}

	result, err := r.db.Exec(
		`UPDATE bindings SET label = ?, command = ?, enabled = ? WHERE id = ?`,
		b.Label, b.Command, enabled, b.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a binding from the database by its ID.
func (r *BindingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
