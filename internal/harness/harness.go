package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/modelq/internal/config"
	"github.com/roach88/modelq/internal/platform"
	"github.com/roach88/modelq/internal/queryir"
	"github.com/roach88/modelq/internal/store"
	"github.com/roach88/modelq/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and fixed session ids, so a
// scenario produces the same query log record on every run.
type Harness struct {
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// New creates a harness. A nil logger discards all output.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{
		clock:  testutil.NewDeterministicClock(),
		logger: logger,
	}
}

// Run executes a test scenario with a quiet harness.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(context.Background(), scenario)
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Create fresh in-memory database and compile the metamodel
//  2. Open the scenario session and load the model
//  3. Run the query and record its outcome
//  4. Compare the outcome with the expect block
//
// Failures of the query itself (unknown type, bad model, ...) are part of
// the result and may be expected. The returned error is reserved for
// scenarios that cannot run at all.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h.clock.Reset()
	p, err := platform.New(ctx, &config.Config{Metamodel: scenario.Metamodel}, st, h.logger,
		platform.WithClock(h.clock),
		platform.WithIDGenerator(platform.NewFixedGenerator(scenario.SessionID())),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load metamodel: %w", err)
	}

	sess, err := p.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	result := NewResult()
	h.execute(ctx, p, sess, scenario, result)
	evaluate(scenario.Expect, result)

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"count", result.Count,
		"error_code", result.ErrorCode,
	)
	return result, nil
}

// execute decodes the query, loads the model and runs the query, filling
// in result. The first failure stops execution and is recorded.
func (h *Harness) execute(ctx context.Context, p *platform.Platform, sess *platform.Session, scenario *Scenario, result *Result) {
	spec, err := scenario.Spec()
	if err != nil {
		result.fail(err)
		return
	}
	result.Query = spec.String()
	result.Warnings = append(result.Warnings, queryir.Validate(spec).Warnings...)
	if result.QuerySpec, err = queryir.Canonical(spec); err != nil {
		result.fail(err)
		return
	}

	if _, err := p.LoadModel(ctx, sess, scenario.Model); err != nil {
		result.fail(err)
		return
	}

	qr, err := p.Query(ctx, sess, scenario.Type, spec)
	if err != nil {
		result.fail(err)
		return
	}
	result.Nodes = qr.Nodes
	result.Count = len(qr.Nodes)
	result.Stats = qr.Stats
	result.QueryID = qr.Record.ID
}

func (r *Result) fail(err error) {
	r.Err = err
	r.ErrorCode = platform.ErrorCode(err)
}

// evaluate compares the outcome in result with expect.
func evaluate(expect Expect, result *Result) {
	if expect.Error != "" {
		switch {
		case result.Err == nil:
			result.AddError(fmt.Sprintf("expected error %s, query returned %d results", expect.Error, result.Count))
		case result.ErrorCode != expect.Error:
			result.AddError(fmt.Sprintf("expected error %s, got %s: %v", expect.Error, result.ErrorCode, result.Err))
		}
		return
	}

	if result.Err != nil {
		result.AddError(fmt.Sprintf("unexpected error %s: %v", result.ErrorCode, result.Err))
		return
	}
	if expect.Count != nil && *expect.Count != result.Count {
		result.AddError(fmt.Sprintf("expected %d results, got %d", *expect.Count, result.Count))
	}
	if expect.Names != nil {
		got := testutil.Strings(result.Nodes, expect.attribute())
		if !slices.Equal(expect.Names, got) {
			result.AddError(fmt.Sprintf("expected %s %q, got %q", expect.attribute(), expect.Names, got))
		}
	}
}
