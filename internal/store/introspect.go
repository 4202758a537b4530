package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/roach88/ndcsqlite/internal/ir"
)

// IntrospectSQLite builds a catalog from the live SQLite schema: every
// user table with its columns (declaration order), primary key (key order)
// and foreign keys.
//
// Foreign keys are named after their target table; a second key to the
// same target gets the constraint id appended.
func (s *Store) IntrospectSQLite(ctx context.Context) (*ir.Catalog, error) {
	if s.driver != DriverSQLite {
		return nil, fmt.Errorf("introspection requires %s, store uses %s", DriverSQLite, s.driver)
	}

	names, err := s.tableNames(ctx)
	if err != nil {
		return nil, err
	}

	catalog := &ir.Catalog{Tables: make([]ir.Table, 0, len(names))}
	for _, name := range names {
		table, err := s.introspectTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		catalog.Tables = append(catalog.Tables, table)
	}
	return catalog, nil
}

func (s *Store) tableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return names, nil
}

func (s *Store) introspectTable(ctx context.Context, name string) (ir.Table, error) {
	table := ir.Table{Name: name}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type, pk FROM pragma_table_info(?) ORDER BY cid ASC`, name)
	if err != nil {
		return table, fmt.Errorf("table info: %w", err)
	}
	type pkCol struct {
		name string
		pos  int
	}
	var pks []pkCol
	for rows.Next() {
		var col ir.Column
		var pk int
		if err := rows.Scan(&col.Name, &col.Type, &pk); err != nil {
			rows.Close()
			return table, fmt.Errorf("scan column: %w", err)
		}
		table.Columns = append(table.Columns, col)
		if pk > 0 {
			pks = append(pks, pkCol{name: col.Name, pos: pk})
		}
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return table, fmt.Errorf("iterate columns: %w", err)
	}

	sort.Slice(pks, func(i, j int) bool { return pks[i].pos < pks[j].pos })
	for _, pk := range pks {
		table.PrimaryKey = append(table.PrimaryKey, pk.name)
	}

	fks, err := s.foreignKeys(ctx, name)
	if err != nil {
		return table, err
	}
	if len(fks) > 0 {
		table.ForeignKeys = fks
	}
	return table, nil
}

func (s *Store) foreignKeys(ctx context.Context, table string) (map[string]ir.ForeignKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id ASC, seq ASC`, table)
	if err != nil {
		return nil, fmt.Errorf("foreign key list: %w", err)
	}

	type constraint struct {
		id     int
		target string
		from   []string
		to     []sql.NullString
	}
	var order []*constraint
	byID := map[int]*constraint{}

	for rows.Next() {
		var (
			id           int
			target, from string
			to           sql.NullString
		)
		if err := rows.Scan(&id, &target, &from, &to); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		c, ok := byID[id]
		if !ok {
			c = &constraint{id: id, target: target}
			byID[id] = c
			order = append(order, c)
		}
		c.from = append(c.from, from)
		c.to = append(c.to, to)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}

	result := make(map[string]ir.ForeignKey, len(order))
	for _, c := range order {
		name := c.target
		if _, taken := result[name]; taken {
			name = fmt.Sprintf("%s_%d", c.target, c.id)
		}

		// REFERENCES t without a column list targets t's primary key.
		var targetPK []string
		fk := ir.ForeignKey{TargetTable: c.target, Columns: make(map[string]string, len(c.from))}
		for i, from := range c.from {
			if c.to[i].Valid && c.to[i].String != "" {
				fk.Columns[from] = c.to[i].String
				continue
			}
			if targetPK == nil {
				targetPK, err = s.primaryKey(ctx, c.target)
				if err != nil {
					return nil, err
				}
			}
			if i >= len(targetPK) {
				return nil, fmt.Errorf("foreign key to %q has no matching primary key column for %q", c.target, from)
			}
			fk.Columns[from] = targetPK[i]
		}
		result[name] = fk
	}
	return result, nil
}

func (s *Store) primaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk ASC`, table)
	if err != nil {
		return nil, fmt.Errorf("primary key of %q: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan primary key column: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}
