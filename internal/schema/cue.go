package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/ndcsqlite/internal/ir"
)

// LoadCUE loads a catalog from the CUE package in dir. Tables are declared
// under a top-level "table" struct, in the order they should be listed:
//
//	table: users: {
//		columns: ["id", "name", {name: "email", type: "TEXT"}]
//		primary_key: ["id"]
//	}
//	table: posts: {
//		columns: ["id", "user_id", "title"]
//		primary_key: ["id"]
//		foreign_keys: author: {target_table: "users", columns: {user_id: "id"}}
//	}
//
// LoadCUE stops at the first malformed table. It does not run Validate.
func LoadCUE(dir string) (*ir.Catalog, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		loadErr := formatCUEError(err, "").(*LoadError)
		loadErr.Code = ErrCodeBuildFailed
		return nil, loadErr
	}
	return CompileCatalog(value)
}

// CompileCatalog reads the "table" struct of a built CUE value.
func CompileCatalog(v cue.Value) (*ir.Catalog, error) {
	tablesVal := v.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &LoadError{Code: ErrCodeNoTables, Message: "no tables declared (expected a top-level \"table\" struct)", Pos: v.Pos()}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err, "table")
	}

	catalog := &ir.Catalog{}
	for iter.Next() {
		table, err := CompileTable(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		catalog.Tables = append(catalog.Tables, *table)
	}
	return catalog, nil
}

// CompileTable parses one table declaration.
func CompileTable(name string, v cue.Value) (*ir.Table, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, "table."+name)
	}
	field := "table." + name
	table := &ir.Table{Name: name}

	columnsVal := v.LookupPath(cue.ParsePath("columns"))
	if !columnsVal.Exists() {
		return nil, &LoadError{Code: ErrCodeBadTable, Field: field + ".columns", Message: "columns is required", Pos: v.Pos()}
	}
	cols, err := columnsVal.List()
	if err != nil {
		return nil, formatCUEError(err, field+".columns")
	}
	for cols.Next() {
		col, err := parseColumn(cols.Value(), field+".columns")
		if err != nil {
			return nil, err
		}
		table.Columns = append(table.Columns, col)
	}

	if pkVal := v.LookupPath(cue.ParsePath("primary_key")); pkVal.Exists() {
		if err := pkVal.Decode(&table.PrimaryKey); err != nil {
			return nil, formatCUEError(err, field+".primary_key")
		}
	}

	if fkVal := v.LookupPath(cue.ParsePath("foreign_keys")); fkVal.Exists() {
		fks, err := parseForeignKeys(fkVal, field+".foreign_keys")
		if err != nil {
			return nil, err
		}
		table.ForeignKeys = fks
	}

	return table, nil
}

// parseColumn accepts either a bare name or {name, type?}.
func parseColumn(v cue.Value, field string) (ir.Column, error) {
	if name, err := v.String(); err == nil {
		return ir.Column{Name: name}, nil
	}

	var col ir.Column
	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return col, &LoadError{Code: ErrCodeBadTable, Field: field, Message: "column must be a string or a struct with a name", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return col, formatCUEError(err, field)
	}
	col.Name = name

	if typeVal := v.LookupPath(cue.ParsePath("type")); typeVal.Exists() {
		typ, err := typeVal.String()
		if err != nil {
			return col, formatCUEError(err, field)
		}
		col.Type = typ
	}
	return col, nil
}

func parseForeignKeys(v cue.Value, field string) (map[string]ir.ForeignKey, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err, field)
	}

	fks := make(map[string]ir.ForeignKey)
	for iter.Next() {
		name := iter.Label()
		fkField := field + "." + name
		fkVal := iter.Value()

		var fk ir.ForeignKey
		targetVal := fkVal.LookupPath(cue.ParsePath("target_table"))
		if !targetVal.Exists() {
			return nil, &LoadError{Code: ErrCodeBadTable, Field: fkField, Message: "target_table is required", Pos: fkVal.Pos()}
		}
		if fk.TargetTable, err = targetVal.String(); err != nil {
			return nil, formatCUEError(err, fkField+".target_table")
		}

		colsVal := fkVal.LookupPath(cue.ParsePath("columns"))
		if colsVal.Exists() {
			if err := colsVal.Decode(&fk.Columns); err != nil {
				return nil, formatCUEError(err, fkField+".columns")
			}
		}
		fks[name] = fk
	}
	return fks, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
