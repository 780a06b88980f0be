package repository

import (
	"context"
	"fmt"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	entschema "entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	dbschema "github.com/joseph-ayodele/invoice-tracker/db/ent/schema"
)

const (
	invoicesTable = "invoices"
	logsTable     = "processing_logs"
)

// node pairs an ent schema with the Go type name edges refer to it by.
type node struct {
	name   string
	schema ent.Interface
}

var nodes = []node{
	{name: "Invoice", schema: dbschema.Invoice{}},
	{name: "ProcessingLog", schema: dbschema.ProcessingLog{}},
}

// Tables derives migration tables from the ent schema definitions.
func Tables() ([]*entschema.Table, error) {
	byType := make(map[string]*entschema.Table, len(nodes))
	tables := make([]*entschema.Table, 0, len(nodes))
	for _, n := range nodes {
		t, err := tableFor(n.schema)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.name, err)
		}
		byType[n.name] = t
		tables = append(tables, t)
	}

	// inverse edges with a field become foreign keys on the owning table
	for i, n := range nodes {
		t := tables[i]
		for _, e := range n.schema.Edges() {
			d := e.Descriptor()
			if !d.Inverse || d.Field == "" {
				continue
			}
			ref, ok := byType[d.Type]
			if !ok {
				return nil, fmt.Errorf("%s: edge %q references unknown type %q", n.name, d.Name, d.Type)
			}
			col, ok := t.Column(d.Field)
			if !ok {
				return nil, fmt.Errorf("%s: edge %q field %q missing", n.name, d.Name, d.Field)
			}
			t.ForeignKeys = append(t.ForeignKeys, &entschema.ForeignKey{
				Symbol:     fmt.Sprintf("%s_%s_%s", t.Name, ref.Name, d.Name),
				Columns:    []*entschema.Column{col},
				RefTable:   ref,
				RefColumns: []*entschema.Column{ref.PrimaryKey[0]},
				OnDelete:   entschema.SetNull,
			})
		}
	}
	return tables, nil
}

func tableFor(s ent.Interface) (*entschema.Table, error) {
	t := &entschema.Table{Name: tableName(s)}
	for _, f := range s.Fields() {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, d.Err
		}
		col := &entschema.Column{
			Name:       d.Name,
			Type:       d.Info.Type,
			Unique:     d.Unique,
			Nullable:   d.Optional || d.Nillable,
			SchemaType: d.SchemaType,
		}
		if d.Info.Type == field.TypeString && d.Size > 0 {
			col.Size = int64(d.Size)
		}
		t.Columns = append(t.Columns, col)
		if d.Name == "id" {
			t.PrimaryKey = []*entschema.Column{col}
		}
	}
	if len(t.PrimaryKey) == 0 {
		return nil, fmt.Errorf("table %s has no id field", t.Name)
	}
	for _, idx := range s.Indexes() {
		d := idx.Descriptor()
		var cols []*entschema.Column
		for _, name := range d.Fields {
			c, ok := t.Column(name)
			if !ok {
				return nil, fmt.Errorf("index on unknown column %q", name)
			}
			cols = append(cols, c)
		}
		name := d.StorageKey
		if name == "" {
			name = t.Name + "_" + joinNames(d.Fields)
		}
		t.Indexes = append(t.Indexes, &entschema.Index{Name: name, Unique: d.Unique, Columns: cols})
	}
	return t, nil
}

func tableName(s ent.Interface) string {
	for _, a := range s.Annotations() {
		switch v := a.(type) {
		case entsql.Annotation:
			if v.Table != "" {
				return v.Table
			}
		case *entsql.Annotation:
			if v != nil && v.Table != "" {
				return v.Table
			}
		}
	}
	return ""
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += "_"
		}
		out += n
	}
	return out
}

// Migrate creates or updates the invoice tables.
func Migrate(ctx context.Context, drv dialect.Driver) error {
	tables, err := Tables()
	if err != nil {
		return fmt.Errorf("build tables: %w", err)
	}
	m, err := entschema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// validators returns the string validators declared on a schema, keyed by column.
func validators(s ent.Interface) map[string][]func(string) error {
	out := map[string][]func(string) error{}
	for _, f := range s.Fields() {
		d := f.Descriptor()
		for _, v := range d.Validators {
			if fn, ok := v.(func(string) error); ok {
				out[d.Name] = append(out[d.Name], fn)
			}
		}
	}
	return out
}
