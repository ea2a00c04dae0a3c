package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/modelq/internal/ir"
)

// CreateSession inserts a session row.
// Uses ON CONFLICT(id) DO NOTHING for idempotency; created reports whether
// a new row was written.
func (s *Store) CreateSession(ctx context.Context, id string, seq int64) (created bool, err error) {
	if id == "" {
		return false, fmt.Errorf("create session: empty id")
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, created_seq)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, seq)
	if err != nil {
		return false, fmt.Errorf("create session: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create session: rows affected: %w", err)
	}
	return n > 0, nil
}

// PutValue stores value under key for a session, replacing any previous
// value. Returns ErrSessionNotFound if the session does not exist.
func (s *Store) PutValue(ctx context.Context, sessionID, key, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put value: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := requireSession(ctx, tx, sessionID); err != nil {
		return fmt.Errorf("put value: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO session_values (session_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value
	`, sessionID, key, value)
	if err != nil {
		return fmt.Errorf("put value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put value: commit: %w", err)
	}
	return nil
}

// AppendQuery writes a query log record and returns it with its ID set.
//
// When rec.ID is empty it is computed with ir.QueryID, so appending the
// same record twice is a no-op (ON CONFLICT(id) DO NOTHING).
// Returns ErrSessionNotFound if the session does not exist.
func (s *Store) AppendQuery(ctx context.Context, rec QueryRecord) (QueryRecord, error) {
	if rec.SpecJSON == "" {
		rec.SpecJSON = "{}"
	}
	if rec.ID == "" {
		id, err := ir.QueryID(rec.SessionID, rec.TypeName, rec.SpecJSON, rec.Seq)
		if err != nil {
			return QueryRecord{}, fmt.Errorf("append query: %w", err)
		}
		rec.ID = id
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return QueryRecord{}, fmt.Errorf("append query: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := requireSession(ctx, tx, rec.SessionID); err != nil {
		return QueryRecord{}, fmt.Errorf("append query: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO query_log
		(id, session_id, type_name, spec_json, result_count, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.SessionID,
		rec.TypeName,
		rec.SpecJSON,
		rec.ResultCount,
		rec.Seq,
	)
	if err != nil {
		return QueryRecord{}, fmt.Errorf("append query: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return QueryRecord{}, fmt.Errorf("append query: commit: %w", err)
	}
	return rec, nil
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func requireSession(ctx context.Context, q queryRower, sessionID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return fmt.Errorf("lookup session: %w", err)
	}
	return nil
}
