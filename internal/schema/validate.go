package schema

import (
	"fmt"

	"github.com/roach88/ndcsqlite/internal/ir"
)

// Validate checks a catalog for structural problems and returns all of
// them, or nil. The query compiler trusts every name a valid catalog
// declares, so a catalog must pass Validate before it is used.
func Validate(catalog *ir.Catalog) ValidationErrors {
	var errs ValidationErrors
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if catalog == nil || len(catalog.Tables) == 0 {
		add(ErrCodeNoTables, "tables", "catalog declares no tables")
		return errs
	}

	seen := make(map[string]bool, len(catalog.Tables))
	for i, t := range catalog.Tables {
		field := fmt.Sprintf("tables[%d]", i)
		if t.Name == "" {
			add(ErrTableNameEmpty, field+".name", "table name is required")
		} else {
			field = "tables." + t.Name
			if seen[t.Name] {
				add(ErrDuplicateTable, field, "table %q is declared more than once", t.Name)
			}
			seen[t.Name] = true
		}

		if len(t.Columns) == 0 {
			add(ErrTableNoColumns, field+".columns", "table declares no columns")
		}
		cols := make(map[string]bool, len(t.Columns))
		for j, c := range t.Columns {
			switch {
			case c.Name == "":
				add(ErrColumnInvalid, fmt.Sprintf("%s.columns[%d]", field, j), "column name is required")
			case cols[c.Name]:
				add(ErrColumnInvalid, fmt.Sprintf("%s.columns[%d]", field, j), "column %q is declared more than once", c.Name)
			}
			cols[c.Name] = true
		}

		for _, pk := range t.PrimaryKey {
			if !t.HasColumn(pk) {
				add(ErrPKColumnMissing, field+".primary_key", "primary key column %q is not a column of %q", pk, t.Name)
			}
		}

		for _, name := range t.SortedForeignKeyNames() {
			errs = append(errs, validateForeignKey(catalog, &catalog.Tables[i], name, field+".foreign_keys."+name)...)
		}
	}
	return errs
}

func validateForeignKey(catalog *ir.Catalog, owner *ir.Table, name, field string) ValidationErrors {
	var errs ValidationErrors
	fk := owner.ForeignKeys[name]

	target, ok := catalog.Table(fk.TargetTable)
	if !ok {
		errs = append(errs, ValidationError{
			Code:    ErrFKTargetMissing,
			Field:   field + ".target_table",
			Message: fmt.Sprintf("foreign key %q targets unknown table %q", name, fk.TargetTable),
		})
	}
	if len(fk.Columns) == 0 {
		errs = append(errs, ValidationError{
			Code:    ErrFKColumnsRequired,
			Field:   field + ".columns",
			Message: fmt.Sprintf("foreign key %q maps no columns", name),
		})
	}

	for _, src := range sortedColumnKeys(fk.Columns) {
		if !owner.HasColumn(src) {
			errs = append(errs, ValidationError{
				Code:    ErrFKSourceColumn,
				Field:   field + ".columns." + src,
				Message: fmt.Sprintf("column %q is not a column of %q", src, owner.Name),
			})
		}
		if tgt := fk.Columns[src]; ok && !target.HasColumn(tgt) {
			errs = append(errs, ValidationError{
				Code:    ErrFKTargetColumn,
				Field:   field + ".columns." + src,
				Message: fmt.Sprintf("column %q is not a column of %q", tgt, target.Name),
			})
		}
	}
	return errs
}
