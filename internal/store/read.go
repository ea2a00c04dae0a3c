package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReadSession retrieves a session by ID.
// Returns ErrSessionNotFound if there is no such session.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_seq
		FROM sessions
		WHERE id = ?
	`, id).Scan(&sess.ID, &sess.CreatedSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	return sess, nil
}

// ListSessions returns all sessions ordered by creation.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_seq
		FROM sessions
		ORDER BY created_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.CreatedSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// GetValue returns the value stored under key for a session.
// ok is false when the key is not set.
func (s *Store) GetValue(ctx context.Context, sessionID, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT value
		FROM session_values
		WHERE session_id = ? AND key = ?
	`, sessionID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get value: %w", err)
	}
	return value, true, nil
}

// ReadValues returns every key/value pair of a session.
func (s *Store) ReadValues(ctx context.Context, sessionID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value
		FROM session_values
		WHERE session_id = ?
		ORDER BY key COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session values: %w", err)
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan session value: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session values: %w", err)
	}
	return values, nil
}

// ReadQueryLog returns the query log of a session.
// Results are ordered deterministically: ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if the session has no queries.
func (s *Store) ReadQueryLog(ctx context.Context, sessionID string) ([]QueryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, type_name, spec_json, result_count, seq
		FROM query_log
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close()

	records := []QueryRecord{}
	for rows.Next() {
		rec, err := scanQueryRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query log: %w", err)
	}
	return records, nil
}

func scanQueryRecord(rows *sql.Rows) (QueryRecord, error) {
	var rec QueryRecord
	err := rows.Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.TypeName,
		&rec.SpecJSON,
		&rec.ResultCount,
		&rec.Seq,
	)
	if err != nil {
		return QueryRecord{}, fmt.Errorf("scan query record: %w", err)
	}
	return rec, nil
}

// GetLastSeq returns the highest seq number used in the store.
// Used on startup to resume the logical clock from the correct position.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var sessionSeq, querySeq int64

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(created_seq), 0) FROM sessions
	`).Scan(&sessionSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq from sessions: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM query_log
	`).Scan(&querySeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq from query_log: %w", err)
	}

	return max(sessionSeq, querySeq), nil
}
