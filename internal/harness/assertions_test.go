package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ndcsqlite/internal/ir"
)

func assertionResult() *Result {
	r := NewResult()
	r.Response = ir.QueryResponse{{Rows: []ir.IRObject{
		{"id": ir.IRInt(1), "name": ir.IRString("Ann"), "score": ir.IRFloat(3.5)},
		{"id": ir.IRInt(2), "name": ir.IRNull{}, "score": ir.IRInt(2)},
	}}}
	r.SQL = map[string]string{ir.ExplainSQL: `SELECT "table_0"."id" FROM "users" AS "table_0"`}
	return r
}

func TestEvaluateAssertions(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		pass      bool
	}{
		{"row count matches", Assertion{Type: AssertRowCount, Count: 2}, true},
		{"row count differs", Assertion{Type: AssertRowCount, Count: 3}, false},
		{"row subset", Assertion{Type: AssertRowsContain, Row: map[string]any{"name": "Ann"}}, true},
		{"row subset with null", Assertion{Type: AssertRowsContain, Row: map[string]any{"id": 2, "name": nil}}, true},
		{"row float compares by value", Assertion{Type: AssertRowsContain, Row: map[string]any{"score": 2.0}}, true},
		{"row not found", Assertion{Type: AssertRowsContain, Row: map[string]any{"name": "Bo"}}, false},
		{"row key missing", Assertion{Type: AssertRowsContain, Row: map[string]any{"email": "x"}}, false},
		{"sql contains", Assertion{Type: AssertSQLContains, Text: `AS "table_0"`}, true},
		{"sql lacks", Assertion{Type: AssertSQLContains, Text: "WHERE"}, false},
		{"unknown type", Assertion{Type: "final_state"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(assertionResult(), []Assertion{tt.assertion})
			if tt.pass {
				assert.Empty(t, errs)
			} else {
				assert.Len(t, errs, 1)
			}
		})
	}
}

func TestEvaluateAssertions_NoResponse(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertRowCount, Count: 0}})
	assert.Empty(t, errs)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: "row_count", Expected: "2 rows", Actual: "3 rows"}
	assert.Equal(t, "Assertion failed: row_count\n  Expected: 2 rows\n  Actual: 3 rows", err.Error())
}
