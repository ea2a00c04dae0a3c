// Package harness runs query scenarios: declarative tests that load a
// metamodel and a model, run one query and check the outcome.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: long_tasks
//	description: "Tasks that take more than three days"
//	metamodel: projects.cue
//	model: project.yaml
//	type: Task
//	where: days greater than 3
//	expect:
//	  count: 1
//	  attribute: description
//	  names: ["this is the second task"]
//
// Paths are relative to the scenario file. The query is given either as
// a "where" expression or as a "query" map in wire shape:
//
//	query:
//	  condition1: { kind: string, attribute: name, comparator: starts with }
//	  stringValue1: Project
//
// An expect block checks the result count, the values of one attribute of
// each result in order, or the error code the scenario must fail with
// (TYPE_NOT_FOUND, ATTRIBUTE_NOT_FOUND, E009, ...).
//
// # Deterministic Testing
//
// Every scenario runs in its own in-memory SQLite database, under a fixed
// session id (scenario.session or DefaultSession) with a logical clock that
// restarts at 1. Query log ids are therefore identical across runs, and
// Snapshot output can be compared byte for byte with golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/long_tasks.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
