// Package entity holds the runtime table metadata the execution layer
// is driven by: entity (table) definitions, column types with driver
// value normalization, and the ActiveModel mutation-tracking layer.
//
// # Entities
//
// An Entity names a table, its columns and its primary key:
//
//	var Users = entity.Schema{
//	    Table: "users",
//	    Cols: []entity.Column{
//	        {Name: "id", Type: entity.TypeBigInt, AutoIncrement: true},
//	        {Name: "email", Type: entity.TypeString, Unique: true},
//	        {Name: "created_at", Type: entity.TypeTime},
//	    },
//	    PK: []string{"id"},
//	}
//
// TableNameFor derives conventional table names from Go type names
// ("OrderItem" -> "order_items").
//
// # ActiveModel
//
// An ActiveModel records which columns carry pending writes. Each value
// is in one of three states: Set (pending write), Unchanged (mirrors
// the stored row) or NotSet (absent). Inserts write the Set columns;
// updates write the Set columns and locate the row by the primary key,
// which may be Set or Unchanged.
//
//	am := entity.NewRecord(Users).
//	    Set("email", "alice@example.com")
package entity
