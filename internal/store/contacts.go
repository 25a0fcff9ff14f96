package store

import (
	"fmt"
	"time"
)

// UpsertContacts inserts or updates directory entries in a single transaction.
func (db *DB) UpsertContacts(owner string, contacts []Contact) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, c := range contacts {
		if _, err := tx.Exec(`
			INSERT INTO contacts (owner, id, email, name, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(owner, id) DO UPDATE SET
				email = CASE WHEN excluded.email != '' THEN excluded.email ELSE contacts.email END,
				name = CASE WHEN excluded.name != '' THEN excluded.name ELSE contacts.name END,
				updated_at = excluded.updated_at`,
			owner, c.ID, c.Email, c.Name, now); err != nil {
			return fmt.Errorf("upsert contact %q: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// ListContacts returns owner's cached directory ordered by name.
func (db *DB) ListContacts(owner string) ([]Contact, error) {
	rows, err := db.Query(`
		SELECT id, email, name
		FROM contacts
		WHERE owner = ?
		ORDER BY name COLLATE NOCASE, id`, owner)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Email, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
