package ir

import "slices"

// Catalog is the trusted schema the compiler validates every identifier
// against. Table and column names only ever reach SQL text after they have
// been found here.
type Catalog struct {
	Tables []Table `json:"tables" yaml:"tables"`
}

// Table describes one collection backed by a SQL table.
type Table struct {
	Name        string                `json:"name" yaml:"name"`
	Columns     []Column              `json:"columns" yaml:"columns"`
	PrimaryKey  []string              `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	ForeignKeys map[string]ForeignKey `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
}

// Column is a named table column. Type is informational (the declared SQL
// type, when known); values are not coerced by it.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// ForeignKey maps columns of the owning table to columns of TargetTable.
type ForeignKey struct {
	TargetTable string            `json:"target_table" yaml:"target_table"`
	Columns     map[string]string `json:"columns" yaml:"columns"`
}

// Table returns the table with the given name.
func (c *Catalog) Table(name string) (*Table, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i], true
		}
	}
	return nil, false
}

// TableNames returns table names in declaration order.
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.Tables))
	for _, t := range c.Tables {
		names = append(names, t.Name)
	}
	return names
}

// HasColumn reports whether the table declares the named column.
func (t *Table) HasColumn(name string) bool {
	return slices.ContainsFunc(t.Columns, func(c Column) bool { return c.Name == name })
}

// ColumnNames returns column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// SortedForeignKeyNames returns foreign key names in lexical order.
func (t *Table) SortedForeignKeyNames() []string {
	names := make([]string, 0, len(t.ForeignKeys))
	for name := range t.ForeignKeys {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
