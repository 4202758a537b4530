package ir

import (
	"bytes"
	"fmt"
)

// RowSet is the result of one query: the requested rows and/or the
// requested aggregates. A nil Rows means rows were not requested; an empty
// non-nil slice means they were requested and none matched. The same holds
// for Aggregates.
type RowSet struct {
	Aggregates IRObject   `json:"aggregates,omitempty"`
	Rows       []IRObject `json:"rows,omitempty"`
}

// MarshalJSON emits "aggregates" and "rows" only when requested, keeping an
// empty row list as [] rather than dropping it.
func (rs RowSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	wrote := false

	if rs.Aggregates != nil {
		b, err := rs.Aggregates.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("aggregates: %w", err)
		}
		buf.WriteString(`"aggregates":`)
		buf.Write(b)
		wrote = true
	}

	if rs.Rows != nil {
		if wrote {
			buf.WriteByte(',')
		}
		buf.WriteString(`"rows":[`)
		for i, row := range rs.Rows {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := row.MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("rows[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ToIR converts the row set into its IR object form, used for canonical
// encoding in golden files and scenario comparison.
func (rs RowSet) ToIR() IRObject {
	obj := IRObject{}
	if rs.Aggregates != nil {
		obj["aggregates"] = rs.Aggregates
	}
	if rs.Rows != nil {
		rows := make(IRArray, len(rs.Rows))
		for i, r := range rs.Rows {
			rows[i] = r
		}
		obj["rows"] = rows
	}
	return obj
}

// QueryResponse holds one RowSet per executed query.
type QueryResponse []RowSet

// ExplainResponse carries the compiled SQL for diagnostics.
type ExplainResponse struct {
	Details map[string]string `json:"details"`
}

// Explain detail keys.
const (
	ExplainSQL              = "sql"
	ExplainParams           = "params"
	ExplainAggregatesSQL    = "aggregates_sql"
	ExplainAggregatesParams = "aggregates_params"
)
