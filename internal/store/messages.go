package store

import (
	"fmt"

	"github.com/matheus3301/hrchat/internal/status"
)

const messageColumns = `id, signature, from_id, to_id, body, time_ms, status, deleting, cannot_delete`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (Message, error) {
	var (
		m  Message
		st string
	)
	if err := row.Scan(&m.ID, &m.Signature, &m.From, &m.To, &m.Text, &m.Time, &st, &m.Deleting, &m.CannotDelete); err != nil {
		return Message{}, err
	}
	parsed, err := status.Parse(st)
	if err != nil {
		return Message{}, fmt.Errorf("message %q: %w", m.ID, err)
	}
	m.Status = parsed
	return m, nil
}

// LoadMessages returns owner's full message list in insertion order.
func (db *DB) LoadMessages(owner string) ([]Message, error) {
	rows, err := db.Query(`
		SELECT `+messageColumns+`
		FROM messages
		WHERE owner = ?
		ORDER BY seq ASC`, owner)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// SaveMessages replaces owner's message list in a single transaction.
func (db *DB) SaveMessages(owner string, msgs []Message) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM messages WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (owner, ` + messageColumns + `, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner, id) DO UPDATE SET
			status = excluded.status,
			deleting = excluded.deleting,
			cannot_delete = excluded.cannot_delete`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, m := range msgs {
		if _, err := stmt.Exec(owner, m.ID, m.Signature, m.From, m.To, m.Text, m.Time,
			string(m.Status), m.Deleting, m.CannotDelete, i); err != nil {
			return fmt.Errorf("insert message %q: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// ListConversation returns the last limit messages exchanged between owner
// and peer, oldest first.
func (db *DB) ListConversation(owner, peer string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT `+messageColumns+` FROM (
			SELECT `+messageColumns+`, seq
			FROM messages
			WHERE owner = ?
			  AND ((from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?))
			ORDER BY seq DESC
			LIMIT ?
		) ORDER BY seq ASC`, owner, owner, peer, peer, owner, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MessageCount returns the number of messages stored for owner.
func (db *DB) MessageCount(owner string) (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages WHERE owner = ?`, owner).Scan(&count)
	return count, err
}
