package querysql

import (
	"strings"

	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
)

// orderBy emits the ORDER BY clause. Every statement has one.
//
// Requested elements come first, in request order. Primary key columns not
// already named follow as ascending tiebreakers, so pagination over rows
// with equal sort keys is stable. A table with neither falls back to a
// constant ordering.
func (cp *compilation) orderBy(alias string, table *ir.Table, elements []queryir.OrderByElement) error {
	collate := cp.dialect.OrderCollation()
	terms := make([]string, 0, len(elements)+len(table.PrimaryKey))
	named := make(map[string]bool, len(elements))

	for _, el := range elements {
		t, ok := el.Target.(queryir.OrderByColumn)
		if !ok {
			return queryir.NotSupported("ordering by %T is not supported", el.Target)
		}
		if len(t.Path) > 0 {
			return queryir.NotSupported("ordering through relationships is not supported")
		}
		dir, err := direction(el.Direction)
		if err != nil {
			return err
		}
		terms = append(terms, columnRef(alias, t.Name)+collate+dir)
		named[t.Name] = true
	}

	for _, pk := range table.PrimaryKey {
		if !named[pk] {
			terms = append(terms, columnRef(alias, pk)+collate+" ASC")
		}
	}

	if len(terms) == 0 {
		terms = append(terms, "(SELECT NULL)")
	}
	cp.w.write(" ORDER BY ", strings.Join(terms, ", "))
	return nil
}

func direction(d queryir.OrderDirection) (string, error) {
	switch d {
	case queryir.Asc:
		return " ASC", nil
	case queryir.Desc:
		return " DESC", nil
	default:
		return "", queryir.BadRequest("order_direction must be asc or desc, got %q", d)
	}
}
