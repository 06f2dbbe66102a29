package pgschema

import (
	"github.com/optics-team/prism-action-mapper/pkg/config"
	"github.com/optics-team/prism-action-mapper/pkg/resource"
	"github.com/optics-team/prism-action-mapper/pkg/security"
)

// Schema represents the set of Tables (and views) fetched from postgres
type Schema struct {
	Tables []*Table
}

// Entities converts every table into an entity descriptor, in schema order
func (s *Schema) Entities() []*resource.Entity {
	entities := make([]*resource.Entity, 0, len(s.Tables))
	for _, t := range s.Tables {
		entities = append(entities, t.Entity())
	}
	return entities
}

// ToActionMap generates a provisional action map based on an existing schema.
// Tables with primary keys get every action and a security backend; views
// and tables without keys can only be listed. This can be a good starting
// point for writing a mapping config.
func (s *Schema) ToActionMap() config.ActionMap {
	m := make(config.ActionMap, len(s.Tables))
	for _, t := range s.Tables {
		entry := &config.Entry{ReadCollection: &config.ActionConfig{}}
		if t.Kind == resource.KindTable && len(t.PrimaryKeys.cols) > 0 {
			entry.Backend = &config.BackendConfig{}
			entry.ReadItem = &config.ActionConfig{}
			entry.CreateItem = &config.ActionConfig{}
			entry.UpdateItem = &config.ActionConfig{}
			entry.DeleteItem = &config.ActionConfig{}
		}
		m[t.Name] = config.Static{Entry: entry}
	}
	return m
}

// ToZedSchema generates an (example) zed schema for the postgres schema.
// Foreign keys into tables outside the schema get empty definitions.
func (s *Schema) ToZedSchema() (zedSchema string) {
	for _, t := range s.Tables {
		zedSchema += security.Definition(t.Name, t.Entity().ForeignKeys)
	}
	for _, name := range security.UndefinedTypes(zedSchema) {
		zedSchema += security.Definition(name, nil)
	}
	return
}

// Table is associated with a set of PrimaryKeys and a set of ForeignKeys
type Table struct {
	// ID is the int table identifier in postgres
	ID          uint32
	Name        string
	Schema      string
	Kind        resource.Kind
	PrimaryKeys PrimaryKey
	ForeignKeys []ForeignKey
	Cols        []Col
}

// Entity converts the table into an entity descriptor. The postgres schema
// and table id are kept as extended metadata.
func (t *Table) Entity() *resource.Entity {
	e := &resource.Entity{
		Name:        t.Name,
		Kind:        t.Kind,
		PrimaryKeys: append([]string(nil), t.PrimaryKeys.cols...),
		Extra: map[string]interface{}{
			"oid":    t.ID,
			"schema": t.Schema,
		},
	}
	for _, c := range t.Cols {
		e.Columns = append(e.Columns, resource.Column{Name: c.name, Type: c.typ})
	}
	for _, fk := range t.ForeignKeys {
		e.ForeignKeys = append(e.ForeignKeys, resource.ForeignKey{
			Name:    fk.name,
			Columns: append([]string(nil), fk.cols...),
			Table:   fk.primaryTable,
		})
	}
	return e
}

// PrimaryKey is the name of a primary key field in a table
type PrimaryKey struct {
	colids []int
	cols   []string
}

// Col is the name, index and type of a column in a table
type Col struct {
	name string
	id   int
	typ  string
}

// ForeignKey represents a foreign key relationship
// the ForeignKey named "name" indicates that the columns "cols" on Table "foreignTable"
// references the primary key columns "cols" of "primaryTable"
type ForeignKey struct {
	name         string
	cols         []string
	colids       []int
	foreignTable string
	primaryTable string
}
