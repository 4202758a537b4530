package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/ndcsqlite/internal/ir"
)

// scanObjects converts every remaining row into an IRObject.
// Drivers disagree on concrete types; ir.FromSQL normalises them.
func scanObjects(rows *sql.Rows) ([]ir.IRObject, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := []ir.IRObject{}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		obj := make(ir.IRObject, len(cols))
		for i, col := range cols {
			v, err := ir.FromSQL(values[i])
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col, err)
			}
			obj[col] = v
		}
		result = append(result, obj)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
