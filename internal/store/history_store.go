package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/peakmode/coach/internal/domain"
)

// DefaultHistoryCap bounds per-user history. Retention is a ring buffer:
// appending beyond the cap evicts the oldest rows.
const DefaultHistoryCap = 200

// HistoryStore persists per-user conversation history.
type HistoryStore struct {
	db  *DB
	cap int
}

// NewHistoryStore creates a history store. A non-positive cap uses
// DefaultHistoryCap.
func NewHistoryStore(db *DB, cap int) *HistoryStore {
	if cap <= 0 {
		cap = DefaultHistoryCap
	}
	return &HistoryStore{db: db, cap: cap}
}

// Append inserts a message at the end of the user's history and evicts the
// oldest rows beyond the retention cap.
func (s *HistoryStore) Append(userID string, msg domain.Message) error {
	var cards sql.NullString
	if len(msg.Cards) > 0 {
		if data, err := json.Marshal(msg.Cards); err == nil {
			cards = sql.NullString{String: string(data), Valid: true}
		}
	}

	var confidence sql.NullFloat64
	if msg.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *msg.Confidence, Valid: true}
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.sql.Exec(
		`INSERT INTO history (msg_id, user_id, role, text, timestamp, intent, confidence, cards, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, userID, string(msg.Role), msg.Text, ts.Format(time.RFC3339Nano),
		msg.Intent, confidence, cards, string(msg.Status),
	)
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}

	// Evict beyond the cap. Cheap: at most one row leaves per append.
	_, err = s.db.sql.Exec(
		`DELETE FROM history WHERE user_id = ? AND seq NOT IN (
			SELECT seq FROM history WHERE user_id = ? ORDER BY seq DESC LIMIT ?
		)`,
		userID, userID, s.cap,
	)
	if err != nil {
		return fmt.Errorf("evicting history: %w", err)
	}
	return nil
}

// History returns the user's messages in insertion order. Rows that fail to
// deserialize are skipped silently; a missing user yields an empty history.
func (s *HistoryStore) History(userID string) []domain.Message {
	rows, err := s.db.sql.Query(
		`SELECT msg_id, role, text, timestamp, intent, confidence, cards, status
		 FROM history WHERE user_id = ? ORDER BY seq`, userID,
	)
	if err != nil {
		s.db.log.Error().Err(err).Str("userId", userID).Msg("history query failed")
		return nil
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var (
			msg        domain.Message
			role, ts   string
			status     string
			confidence sql.NullFloat64
			cards      sql.NullString
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Text, &ts, &msg.Intent, &confidence, &cards, &status); err != nil {
			continue
		}
		msg.Role = domain.Role(role)
		msg.Status = domain.Status(status)
		msg.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		if confidence.Valid {
			c := confidence.Float64
			msg.Confidence = &c
		}
		if cards.Valid && cards.String != "" {
			_ = json.Unmarshal([]byte(cards.String), &msg.Cards)
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// Count returns the number of stored messages for a user.
func (s *HistoryStore) Count(userID string) int {
	var n int
	_ = s.db.sql.QueryRow(
		`SELECT COUNT(*) FROM history WHERE user_id = ?`, userID,
	).Scan(&n)
	return n
}

// UpdateStatus persists a message's status transition.
func (s *HistoryStore) UpdateStatus(msgID string, status domain.Status) error {
	_, err := s.db.sql.Exec(
		`UPDATE history SET status = ? WHERE msg_id = ?`, string(status), msgID,
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return nil
}

// Clear removes every stored message for a user.
func (s *HistoryStore) Clear(userID string) error {
	if _, err := s.db.sql.Exec(`DELETE FROM history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// SetActiveSession records the remote coaching-session id for a user.
func (s *HistoryStore) SetActiveSession(userID, sessionID string) error {
	_, err := s.db.sql.Exec(
		`INSERT INTO active_sessions (user_id, session_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET session_id = excluded.session_id, updated_at = excluded.updated_at`,
		userID, sessionID, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving active session: %w", err)
	}
	return nil
}

// ActiveSession returns the stored remote session id, if any.
func (s *HistoryStore) ActiveSession(userID string) (string, bool) {
	var id string
	err := s.db.sql.QueryRow(
		`SELECT session_id FROM active_sessions WHERE user_id = ?`, userID,
	).Scan(&id)
	if err != nil {
		return "", false
	}
	return id, true
}

// ClearActiveSession drops the stored remote session id.
func (s *HistoryStore) ClearActiveSession(userID string) error {
	if _, err := s.db.sql.Exec(`DELETE FROM active_sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clearing active session: %w", err)
	}
	return nil
}
