package store

import "errors"

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("session not found")

// Session is a persisted session.
type Session struct {
	ID         string `json:"id"`
	CreatedSeq int64  `json:"created_seq"`
}

// QueryRecord is one entry of a session's query log.
//
// SpecJSON is the canonical JSON of the condition spec; "{}" for an
// unfiltered instances query.
type QueryRecord struct {
	ID          string `json:"id"`
	SessionID   string `json:"session_id"`
	TypeName    string `json:"type_name"`
	SpecJSON    string `json:"spec"`
	ResultCount int    `json:"result_count"`
	Seq         int64  `json:"seq"`
}
