package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/modelq/internal/queryir"
)

// Scenario defines one query test: a metamodel, a model, and a query
// against one type with the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Metamodel is the CUE metamodel file or directory.
	// Relative paths are resolved against the scenario file's directory.
	Metamodel string `yaml:"metamodel"`

	// Model is the YAML or JSON model document, resolved like Metamodel.
	Model string `yaml:"model"`

	// Type is the queried type name.
	Type string `yaml:"type"`

	// Query is a condition spec in wire shape (condition1, stringValue1,
	// conditionComposition, ...). Mutually exclusive with Where.
	Query map[string]any `yaml:"query,omitempty"`

	// Where is a query expression such as "days greater than 3".
	Where string `yaml:"where,omitempty"`

	// Session is a fixed session id for deterministic query log ids.
	// Defaults to DefaultSession.
	Session string `yaml:"session,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Expect is the expected outcome of a scenario. At least one field must
// be set.
type Expect struct {
	// Count is the expected number of results.
	Count *int `yaml:"count,omitempty"`

	// Error is the expected error code, e.g. TYPE_NOT_FOUND or E009.
	// An empty Error means the query must succeed.
	Error string `yaml:"error,omitempty"`

	// Names are the expected values of Attribute for each result, in order.
	Names []string `yaml:"names,omitempty"`

	// Attribute is the attribute Names are read from. Defaults to "name".
	Attribute string `yaml:"attribute,omitempty"`
}

// DefaultSession is the session id used when a scenario names none.
const DefaultSession = "test-session-default"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "expects:" vs "expect:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve paths relative to the scenario file BEFORE validation
	base := filepath.Dir(path)
	scenario.Metamodel = resolve(scenario.Metamodel, base)
	scenario.Model = resolve(scenario.Model, base)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolve(path, base string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Spec decodes the scenario's query. A scenario with neither Query nor
// Where yields an empty spec (all instances).
func (s *Scenario) Spec() (*queryir.ConditionSpec, error) {
	if s.Query != nil {
		return queryir.Decode(s.Query)
	}
	return queryir.ParseExpression(s.Where)
}

// SessionID returns the session id the scenario runs under.
func (s *Scenario) SessionID() string {
	if s.Session != "" {
		return s.Session
	}
	return DefaultSession
}

// attribute returns the attribute Expect.Names is read from.
func (e Expect) attribute() string {
	if e.Attribute != "" {
		return e.Attribute
	}
	return "name"
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Metamodel == "" {
		return fmt.Errorf("metamodel is required")
	}
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if s.Type == "" {
		return fmt.Errorf("type is required")
	}

	if s.Query != nil && s.Where != "" {
		return fmt.Errorf("query and where are mutually exclusive")
	}

	if s.Expect.Count == nil && s.Expect.Error == "" && s.Expect.Names == nil {
		return fmt.Errorf("expect: at least one of count, error or names is required")
	}
	if s.Expect.Count != nil && *s.Expect.Count < 0 {
		return fmt.Errorf("expect.count must be non-negative")
	}
	if s.Expect.Error != "" && (s.Expect.Count != nil || s.Expect.Names != nil) {
		return fmt.Errorf("expect.error cannot be combined with count or names")
	}

	// Validate metamodel path exists; a missing model is left to the run so
	// scenarios can expect E005.
	if _, err := os.Stat(s.Metamodel); os.IsNotExist(err) {
		return fmt.Errorf("metamodel not found: %s", s.Metamodel)
	}

	return nil
}
