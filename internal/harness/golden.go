package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/modelq/internal/ir"
)

// Snapshot returns the canonical JSON snapshot of a scenario run: the
// query, its outcome and the result documents in order. Snapshots are
// byte-stable across runs and are what golden files hold.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	snap := map[string]any{
		"scenario_name": scenario.Name,
		"type":          scenario.Type,
	}
	if result.QuerySpec != "" {
		snap["query"] = result.QuerySpec
	}

	if result.Err != nil {
		snap["error_code"] = result.ErrorCode
		return ir.MarshalCanonical(snap)
	}

	docs := make([]any, len(result.Nodes))
	for i, n := range result.Nodes {
		docs[i] = ir.NodeDocument(n)
	}
	hash, err := ir.ResultHash(result.Nodes)
	if err != nil {
		return nil, err
	}
	snap["count"] = result.Count
	snap["query_id"] = result.QueryID
	snap["result_hash"] = hash
	snap["results"] = docs
	return ir.MarshalCanonical(snap)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot run.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario, result)
}

// AssertGolden compares an existing result against the scenario's golden
// file without re-running it.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)
	return nil
}
