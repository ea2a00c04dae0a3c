package harness

import (
	"github.com/roach88/modelq/internal/engine"
	"github.com/roach88/modelq/internal/ir"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect field matches.
	Pass bool `json:"pass"`

	// Errors contains expectation mismatches.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Query is the human-readable form of the query that ran.
	Query string `json:"query,omitempty"`

	// QuerySpec is the canonical JSON of the query, "" if it did not decode.
	QuerySpec string `json:"-"`

	// ErrorCode is the code of the error the query failed with, "" on success.
	ErrorCode string `json:"error_code,omitempty"`

	// Err is the error the query failed with.
	Err error `json:"-"`

	// Nodes are the query results in document order.
	Nodes []*ir.Node `json:"-"`

	// Count is len(Nodes).
	Count int `json:"count"`

	Stats engine.Stats `json:"stats"`

	// QueryID is the id of the query log record written by a successful run.
	QueryID string `json:"query_id,omitempty"`

	// Warnings are the validation warnings for the query.
	Warnings []string `json:"warnings,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Errors:   []string{},
		Nodes:    []*ir.Node{},
		Warnings: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
