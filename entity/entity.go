package entity

import (
	"fmt"

	"github.com/go-openapi/inflect"
)

// Entity describes a database table: its name, columns and primary key.
// The executor pipeline is written against this interface; Schema is
// the declarative implementation most callers use.
type Entity interface {
	TableName() string
	Columns() []Column
	PrimaryKey() []string
}

// Column is the definition of a single table column.
type Column struct {
	Name          string
	Type          ColumnType
	Nullable      bool
	Unique        bool
	AutoIncrement bool
	Default       any
}

// Schema is a declarative Entity.
type Schema struct {
	Table string
	Cols  []Column
	PK    []string
}

// TableName implements the Entity interface.
func (s Schema) TableName() string { return s.Table }

// Columns implements the Entity interface.
func (s Schema) Columns() []Column { return s.Cols }

// PrimaryKey implements the Entity interface. Defaults to "id" when
// unset.
func (s Schema) PrimaryKey() []string {
	if len(s.PK) == 0 {
		return []string{"id"}
	}
	return s.PK
}

// Column returns the definition of the named column.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Cols {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the names of all columns, in definition order.
func ColumnNames(e Entity) []string {
	cols := e.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// ColumnByName returns the definition of the named column of the entity.
func ColumnByName(e Entity, name string) (Column, error) {
	for _, c := range e.Columns() {
		if c.Name == name {
			return c, nil
		}
	}
	return Column{}, fmt.Errorf("entity: %s has no column %q", e.TableName(), name)
}

// AutoIncrementColumn returns the auto-increment primary key column, if
// the entity has one.
func AutoIncrementColumn(e Entity) (Column, bool) {
	for _, c := range e.Columns() {
		if c.AutoIncrement {
			return c, true
		}
	}
	return Column{}, false
}

// TableNameFor derives the default table name from a Go type name:
// snake_cased and pluralized ("OrderItem" -> "order_items").
func TableNameFor(typeName string) string {
	return inflect.Pluralize(inflect.Underscore(typeName))
}
