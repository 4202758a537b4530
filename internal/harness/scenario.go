package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
	"github.com/roach88/ndcsqlite/internal/schema"
)

// Scenario defines a conformance test scenario: a catalog, the rows it is
// seeded with, one query request and what that request must produce.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the inline catalog, in the same form schema.LoadYAML reads.
	Schema CatalogSpec `yaml:"schema"`

	// Fixtures are SQL statements run, in order, against a fresh in-memory
	// database before the request.
	Fixtures []string `yaml:"fixtures"`

	// Request is the protocol query request.
	Request RequestSpec `yaml:"request"`

	// Expect is the exact response row set: "rows" and/or "aggregates".
	// Compared after canonical encoding, so key order does not matter.
	Expect map[string]any `yaml:"expect,omitempty"`

	// ExpectError is the error kind the request must fail with
	// (bad_request, not_supported, unresolved_relationship, internal).
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions are extra checks on the response and compiled SQL.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Golden is a file holding the canonical response, relative to the
	// scenario file.
	Golden string `yaml:"golden,omitempty"`
}

// CatalogSpec decodes an inline catalog.
type CatalogSpec struct {
	*ir.Catalog
}

// UnmarshalYAML decodes the catalog with schema's column shorthand.
func (c *CatalogSpec) UnmarshalYAML(node *yaml.Node) error {
	catalog, err := schema.DecodeYAMLNode(node)
	if err != nil {
		return err
	}
	c.Catalog = catalog
	return nil
}

// RequestSpec holds a request as JSON. It is decoded when the scenario
// runs, so decode failures can be expected like any other error.
type RequestSpec struct {
	JSON []byte
}

// UnmarshalYAML re-encodes the YAML request as JSON.
func (r *RequestSpec) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("line %d: request is not JSON-compatible: %w", node.Line, err)
	}
	r.JSON = data
	return nil
}

// Decode parses the request.
func (r RequestSpec) Decode() (*queryir.QueryRequest, error) {
	return queryir.DecodeQueryRequest(r.JSON)
}

// Assertion is an extra check on a scenario's outcome.
type Assertion struct {
	// Type selects the check: row_count, rows_contain or sql_contains.
	Type string `yaml:"type"`

	// Count is the expected number of rows (row_count).
	Count int `yaml:"count,omitempty"`

	// Row must be a subset of some returned row (rows_contain).
	Row map[string]any `yaml:"row,omitempty"`

	// Text must appear in the compiled row or aggregate SQL (sql_contains).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertRowCount    = "row_count"
	AssertRowsContain = "rows_contain"
	AssertSQLContains = "sql_contains"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative Golden path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Golden != "" && !filepath.IsAbs(scenario.Golden) {
		scenario.Golden = filepath.Join(filepath.Dir(path), scenario.Golden)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema.Catalog == nil {
		return fmt.Errorf("schema is required")
	}
	if errs := schema.Validate(s.Schema.Catalog); len(errs) > 0 {
		return fmt.Errorf("schema: %w", errs)
	}
	if len(s.Request.JSON) == 0 {
		return fmt.Errorf("request is required")
	}

	if s.Expect == nil && s.ExpectError == "" {
		return fmt.Errorf("one of expect or expect_error is required")
	}
	if s.Expect != nil && s.ExpectError != "" {
		return fmt.Errorf("expect and expect_error are mutually exclusive")
	}
	for key := range s.Expect {
		if key != "rows" && key != "aggregates" {
			return fmt.Errorf("expect: unknown key %q (want rows or aggregates)", key)
		}
	}
	if s.ExpectError != "" {
		switch queryir.ErrorKind(s.ExpectError) {
		case queryir.KindBadRequest, queryir.KindNotSupported, queryir.KindUnresolvedRelationship, queryir.KindInternal:
		default:
			return fmt.Errorf("expect_error: unknown error kind %q", s.ExpectError)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	case AssertRowsContain:
		if len(a.Row) == 0 {
			return fmt.Errorf("assertions[%d]: row is required for rows_contain", index)
		}
	case AssertSQLContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for sql_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// FindScenarioFiles returns the .yaml and .yml files under dir whose base
// name (without extension) matches filter. An empty filter matches all.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(filepath.Base(path), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}
