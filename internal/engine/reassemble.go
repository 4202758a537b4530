package engine

import (
	"fmt"

	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
)

// Reassemble turns flat result rows into response rows shaped like fields.
//
// Column fields copy through unchanged. A relationship field arrives as one
// JSON document {"rows": [...]}, either still as text (top level, SQLite)
// or already structured (embedded in an enclosing document, or decoded by
// the driver); its rows are reassembled recursively against the nested
// query's fields. Columns that were not requested, such as the filler
// column, are dropped.
//
// Anything that does not match that shape is an internal error: the SQL
// the compiler emitted and the rows that came back disagree.
func Reassemble(fields map[string]queryir.Field, rows []ir.IRObject) ([]ir.IRObject, error) {
	out := make([]ir.IRObject, 0, len(rows))
	for i, row := range rows {
		obj, err := reassembleRow(fields, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, obj)
	}
	return out, nil
}

func reassembleRow(fields map[string]queryir.Field, row ir.IRObject) (ir.IRObject, error) {
	obj := make(ir.IRObject, len(fields))
	for name, f := range fields {
		v, ok := row[name]
		if !ok {
			return nil, queryir.Internal("result row has no column %q", name)
		}
		switch f := f.(type) {
		case queryir.ColumnField:
			obj[name] = v
		case queryir.RelationshipField:
			nested, err := reassembleRelationship(name, f, v)
			if err != nil {
				return nil, err
			}
			obj[name] = nested
		default:
			return nil, queryir.Internal("unhandled field type %T", f)
		}
	}
	return obj, nil
}

func reassembleRelationship(name string, f queryir.RelationshipField, v ir.IRValue) (ir.IRValue, error) {
	doc := v
	if text, ok := v.(ir.IRString); ok {
		parsed, err := ir.UnmarshalIRValue([]byte(text))
		if err != nil {
			return nil, queryir.Internal("relationship field %q: malformed JSON: %v", name, err)
		}
		doc = parsed
	}

	obj, ok := doc.(ir.IRObject)
	if !ok {
		return nil, queryir.Internal("relationship field %q: expected object, got %T", name, doc)
	}
	arr, ok := obj["rows"].(ir.IRArray)
	if !ok {
		return nil, queryir.Internal("relationship field %q: rows is %T, expected array", name, obj["rows"])
	}

	nested := make([]ir.IRObject, len(arr))
	for i, elem := range arr {
		row, ok := elem.(ir.IRObject)
		if !ok {
			return nil, queryir.Internal("relationship field %q: row %d is %T, expected object", name, i, elem)
		}
		nested[i] = row
	}

	var rs ir.RowSet
	if f.Query.Fields != nil {
		rows, err := Reassemble(f.Query.Fields, nested)
		if err != nil {
			return nil, fmt.Errorf("relationship field %q: %w", name, err)
		}
		rs.Rows = rows
	}
	return rs.ToIR(), nil
}
