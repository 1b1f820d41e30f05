package entity

import (
	"fmt"
)

// ValueState is the mutation state of a single ActiveModel value.
type ValueState uint8

// Value states. NotSet columns are omitted from generated statements,
// Set columns carry pending writes, Unchanged columns mirror what is
// already stored (and locate the row on update).
const (
	StateNotSet ValueState = iota
	StateSet
	StateUnchanged
)

// String returns the state name.
func (s ValueState) String() string {
	switch s {
	case StateSet:
		return "set"
	case StateUnchanged:
		return "unchanged"
	default:
		return "not-set"
	}
}

// ActiveValue is a mutation-tracked value of type T.
type ActiveValue[T any] struct {
	v     T
	state ValueState
}

// Set returns an ActiveValue carrying a pending write.
func Set[T any](v T) ActiveValue[T] {
	return ActiveValue[T]{v: v, state: StateSet}
}

// Unchanged returns an ActiveValue mirroring a stored value.
func Unchanged[T any](v T) ActiveValue[T] {
	return ActiveValue[T]{v: v, state: StateUnchanged}
}

// NotSet returns an empty ActiveValue.
func NotSet[T any]() ActiveValue[T] {
	return ActiveValue[T]{}
}

// State returns the mutation state.
func (a ActiveValue[T]) State() ValueState { return a.state }

// IsSet reports whether the value carries a pending write.
func (a ActiveValue[T]) IsSet() bool { return a.state == StateSet }

// IsUnchanged reports whether the value mirrors a stored value.
func (a ActiveValue[T]) IsUnchanged() bool { return a.state == StateUnchanged }

// IsNotSet reports whether the value is absent.
func (a ActiveValue[T]) IsNotSet() bool { return a.state == StateNotSet }

// Value returns the held value. ok is false for NotSet.
func (a ActiveValue[T]) Value() (v T, ok bool) {
	if a.state == StateNotSet {
		return v, false
	}
	return a.v, true
}

// TakeSet returns the value only when it carries a pending write.
func (a ActiveValue[T]) TakeSet() (v T, ok bool) {
	if a.state != StateSet {
		return v, false
	}
	return a.v, true
}

// Reset promotes an Unchanged value to Set, forcing it to be written on
// the next save.
func (a ActiveValue[T]) Reset() ActiveValue[T] {
	if a.state == StateUnchanged {
		a.state = StateSet
	}
	return a
}

// ActiveModel tracks pending mutations against an entity's columns.
// Record is the map-backed implementation; applications may implement
// the interface on typed structs.
type ActiveModel interface {
	// Entity returns the entity the model mutates.
	Entity() Entity
	// Get returns the value and state of the given column.
	Get(column string) (any, ValueState)
	// SetValue records a pending write for the column.
	SetValue(column string, v any)
}

// Record is a map-backed ActiveModel.
type Record struct {
	entity Entity
	values map[string]ActiveValue[any]
}

// NewRecord returns an empty Record for the entity: every column starts
// NotSet.
func NewRecord(e Entity) *Record {
	return &Record{entity: e, values: make(map[string]ActiveValue[any])}
}

// RecordFromRow returns a Record with every given column Unchanged,
// mirroring a row fetched from the database.
func RecordFromRow(e Entity, row map[string]any) *Record {
	r := NewRecord(e)
	for col, v := range row {
		r.values[col] = Unchanged(v)
	}
	return r
}

// Entity implements the ActiveModel interface.
func (r *Record) Entity() Entity { return r.entity }

// Get implements the ActiveModel interface.
func (r *Record) Get(column string) (any, ValueState) {
	av, ok := r.values[column]
	if !ok {
		return nil, StateNotSet
	}
	v, _ := av.Value()
	return v, av.State()
}

// SetValue implements the ActiveModel interface.
func (r *Record) SetValue(column string, v any) {
	r.values[column] = Set(v)
}

// Set records a pending write and returns the record for chaining.
func (r *Record) Set(column string, v any) *Record {
	r.SetValue(column, v)
	return r
}

// SetUnchanged records a stored value and returns the record for
// chaining.
func (r *Record) SetUnchanged(column string, v any) *Record {
	r.values[column] = Unchanged(v)
	return r
}

// Unset clears the column back to NotSet.
func (r *Record) Unset(column string) *Record {
	delete(r.values, column)
	return r
}

// Reset promotes the column from Unchanged to Set.
func (r *Record) Reset(column string) *Record {
	if av, ok := r.values[column]; ok {
		r.values[column] = av.Reset()
	}
	return r
}

// ResetAll promotes every Unchanged column to Set.
func (r *Record) ResetAll() *Record {
	for col, av := range r.values {
		r.values[col] = av.Reset()
	}
	return r
}

// IsChanged reports whether any column carries a pending write.
func (r *Record) IsChanged() bool {
	for _, av := range r.values {
		if av.IsSet() {
			return true
		}
	}
	return false
}

// SetColumns returns the columns carrying pending writes, in entity
// column order.
func SetColumns(am ActiveModel) (cols []string, vals []any) {
	for _, c := range am.Entity().Columns() {
		if v, state := am.Get(c.Name); state == StateSet {
			cols = append(cols, c.Name)
			vals = append(vals, v)
		}
	}
	return cols, vals
}

// PrimaryKeyValues returns the primary key values of the model, from
// Set or Unchanged columns. An error is returned if any primary key
// column is NotSet.
func PrimaryKeyValues(am ActiveModel) (cols []string, vals []any, err error) {
	e := am.Entity()
	for _, pk := range e.PrimaryKey() {
		v, state := am.Get(pk)
		if state == StateNotSet {
			return nil, nil, fmt.Errorf("entity: primary key %s.%s is not set", e.TableName(), pk)
		}
		cols = append(cols, pk)
		vals = append(vals, v)
	}
	return cols, vals, nil
}

// HasPrimaryKey reports whether every primary key column is Set or
// Unchanged.
func HasPrimaryKey(am ActiveModel) bool {
	for _, pk := range am.Entity().PrimaryKey() {
		if _, state := am.Get(pk); state == StateNotSet {
			return false
		}
	}
	return true
}
