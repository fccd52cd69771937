package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Outbox holds finished games whose result could not be saved to the server
type Outbox struct {
	db   *sql.DB
	path string
}

// PendingUpdate is one queued game record
type PendingUpdate struct {
	Session   *Session
	Attempts  int
	LastError string
	QueuedAt  time.Time
}

// Enqueue stores the record, replacing an older copy for the same game
func (o *Outbox) Enqueue(session *Session, cause error) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal game %d: %w", session.ID, err)
	}
	lastErr := ""
	if cause != nil {
		lastErr = cause.Error()
	}
	_, err = o.db.Exec(`
		INSERT INTO pending_updates (chat_id, payload, attempts, last_error, queued_at) VALUES (?, ?, 0, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET payload = excluded.payload, last_error = excluded.last_error`,
		session.ID, string(payload), lastErr, time.Now().Unix())
	if err != nil {
		return &StorageError{Path: o.path, Op: "write", Err: err}
	}
	return nil
}

// Pending lists queued records, oldest first
func (o *Outbox) Pending() ([]PendingUpdate, error) {
	rows, err := o.db.Query("SELECT payload, attempts, last_error, queued_at FROM pending_updates ORDER BY queued_at, chat_id")
	if err != nil {
		return nil, &StorageError{Path: o.path, Op: "read", Err: err}
	}
	defer rows.Close()

	var out []PendingUpdate
	for rows.Next() {
		var (
			payload  string
			lastErr  sql.NullString
			queuedAt int64
			p        PendingUpdate
		)
		if err := rows.Scan(&payload, &p.Attempts, &lastErr, &queuedAt); err != nil {
			return nil, &StorageError{Path: o.path, Op: "read", Err: err}
		}
		var s Session
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			LogWarn("Skipping unreadable outbox entry: %v", err)
			continue
		}
		p.Session = &s
		p.LastError = lastErr.String
		p.QueuedAt = time.Unix(queuedAt, 0)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Path: o.path, Op: "read", Err: err}
	}
	return out, nil
}

// MarkAttempt records a failed retry
func (o *Outbox) MarkAttempt(chatID int64, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if _, err := o.db.Exec("UPDATE pending_updates SET attempts = attempts + 1, last_error = ? WHERE chat_id = ?", msg, chatID); err != nil {
		return &StorageError{Path: o.path, Op: "write", Err: err}
	}
	return nil
}

// Remove drops a record once it is saved
func (o *Outbox) Remove(chatID int64) error {
	if _, err := o.db.Exec("DELETE FROM pending_updates WHERE chat_id = ?", chatID); err != nil {
		return &StorageError{Path: o.path, Op: "write", Err: err}
	}
	return nil
}
