package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/roach88/ndcsqlite/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertRowCount:
			err = assertRowCount(result.rows(), assertion)
		case AssertRowsContain:
			err = assertRowsContain(result.rows(), assertion)
		case AssertSQLContains:
			err = assertSQLContains(result.SQL, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func assertRowCount(rows []ir.IRObject, assertion Assertion) error {
	if len(rows) != assertion.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows", assertion.Count),
			Actual:   fmt.Sprintf("%d rows", len(rows)),
		}
	}
	return nil
}

// assertRowsContain checks that some row holds every expected field
// (subset match). Extra fields in the row are ignored.
func assertRowsContain(rows []ir.IRObject, assertion Assertion) error {
	want, err := ir.FromGo(assertion.Row)
	if err != nil {
		return fmt.Errorf("rows_contain: %w", err)
	}
	for _, row := range rows {
		if matchRow(row, want.(ir.IRObject)) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertRowsContain,
		Expected: fmt.Sprintf("a row matching %v", assertion.Row),
		Actual:   fmt.Sprintf("no match in %d rows", len(rows)),
	}
}

// matchRow checks if actual contains all expected fields, comparing
// values by canonical encoding.
func matchRow(actual, expected ir.IRObject) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b ir.IRValue) bool {
	ab, err := ir.MarshalCanonical(a)
	if err != nil {
		return false
	}
	bb, err := ir.MarshalCanonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

func assertSQLContains(sql map[string]string, assertion Assertion) error {
	if strings.Contains(sql[ir.ExplainSQL], assertion.Text) || strings.Contains(sql[ir.ExplainAggregatesSQL], assertion.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSQLContains,
		Expected: fmt.Sprintf("compiled SQL containing %q", assertion.Text),
		Actual:   sql[ir.ExplainSQL],
	}
}
