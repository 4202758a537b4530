package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ndcsqlite/internal/ir"
)

// yamlCatalog is the on-disk YAML form. Columns may be written as bare
// names or as {name, type} mappings:
//
//	tables:
//	  - name: users
//	    columns: [id, name, {name: email, type: TEXT}]
//	    primary_key: [id]
type yamlCatalog struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name        string            `yaml:"name"`
	Columns     []yamlColumn      `yaml:"columns"`
	PrimaryKey  []string          `yaml:"primary_key"`
	ForeignKeys map[string]yamlFK `yaml:"foreign_keys"`
}

type yamlFK struct {
	TargetTable string            `yaml:"target_table"`
	Columns     map[string]string `yaml:"columns"`
}

type yamlColumn ir.Column

// UnmarshalYAML accepts a scalar column name or a {name, type} mapping.
func (c *yamlColumn) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		c.Name = node.Value
		return nil
	case yaml.MappingNode:
		var m struct {
			Name string `yaml:"name"`
			Type string `yaml:"type"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		c.Name, c.Type = m.Name, m.Type
		return nil
	default:
		return fmt.Errorf("line %d: column must be a name or a {name, type} mapping", node.Line)
	}
}

// LoadYAML reads a catalog from a YAML file.
func LoadYAML(path string) (*ir.Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return DecodeYAML(bytes.NewReader(data))
}

// DecodeYAML decodes a catalog document. Unknown keys are rejected.
func DecodeYAML(r io.Reader) (*ir.Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc yamlCatalog
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Code: ErrCodeNoTables, Message: "empty schema document"}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return doc.catalog(), nil
}

// DecodeYAMLNode decodes a catalog embedded in a larger YAML document.
func DecodeYAMLNode(node *yaml.Node) (*ir.Catalog, error) {
	var doc yamlCatalog
	if err := node.Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return doc.catalog(), nil
}

func (doc yamlCatalog) catalog() *ir.Catalog {
	catalog := &ir.Catalog{Tables: make([]ir.Table, 0, len(doc.Tables))}
	for _, t := range doc.Tables {
		table := ir.Table{Name: t.Name, PrimaryKey: t.PrimaryKey}
		for _, c := range t.Columns {
			table.Columns = append(table.Columns, ir.Column(c))
		}
		if len(t.ForeignKeys) > 0 {
			table.ForeignKeys = make(map[string]ir.ForeignKey, len(t.ForeignKeys))
			for name, fk := range t.ForeignKeys {
				table.ForeignKeys[name] = ir.ForeignKey{TargetTable: fk.TargetTable, Columns: fk.Columns}
			}
		}
		catalog.Tables = append(catalog.Tables, table)
	}
	return catalog
}

// MarshalYAML renders a catalog in the form LoadYAML reads back.
func MarshalYAML(catalog *ir.Catalog) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(catalog); err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return buf.Bytes(), nil
}
