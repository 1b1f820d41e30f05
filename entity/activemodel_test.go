package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveValue(t *testing.T) {
	av := NotSet[string]()
	assert.True(t, av.IsNotSet())
	assert.Equal(t, "not-set", av.State().String())
	_, ok := av.Value()
	assert.False(t, ok)

	av = Set("x")
	assert.True(t, av.IsSet())
	v, ok := av.Value()
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	v, ok = av.TakeSet()
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	av = Unchanged("y")
	assert.True(t, av.IsUnchanged())
	_, ok = av.TakeSet()
	assert.False(t, ok)

	// Reset promotes Unchanged to Set, forcing a rewrite.
	av = av.Reset()
	assert.True(t, av.IsSet())
	// Reset on NotSet stays NotSet.
	assert.True(t, NotSet[string]().Reset().IsNotSet())
}

func TestRecord_States(t *testing.T) {
	r := NewRecord(userSchema)
	assert.False(t, r.IsChanged())
	assert.Equal(t, "users", r.Entity().TableName())

	r = NewRecord(userSchema).
		Set("name", "alice").
		SetUnchanged("id", int64(1))

	v, state := r.Get("name")
	assert.Equal(t, StateSet, state)
	assert.Equal(t, "alice", v)

	v, state = r.Get("id")
	assert.Equal(t, StateUnchanged, state)
	assert.Equal(t, int64(1), v)

	_, state = r.Get("email")
	assert.Equal(t, StateNotSet, state)

	assert.True(t, r.IsChanged())
	r.Unset("name")
	assert.False(t, r.IsChanged())

	r.Reset("id")
	_, state = r.Get("id")
	assert.Equal(t, StateSet, state)
}

func TestRecordFromRow(t *testing.T) {
	r := RecordFromRow(userSchema, map[string]any{"id": int64(7), "name": "bob"})
	assert.False(t, r.IsChanged())
	r.ResetAll()
	assert.True(t, r.IsChanged())
	cols, vals := SetColumns(r)
	assert.Equal(t, []string{"id", "name"}, cols)
	assert.Equal(t, []any{int64(7), "bob"}, vals)
}

func TestSetColumns_EntityOrder(t *testing.T) {
	// Set order must not leak into statement order.
	r := NewRecord(userSchema).
		Set("email", "a@b.c").
		Set("name", "alice")
	cols, vals := SetColumns(r)
	assert.Equal(t, []string{"name", "email"}, cols)
	assert.Equal(t, []any{"alice", "a@b.c"}, vals)
}

func TestPrimaryKeyValues(t *testing.T) {
	r := NewRecord(userSchema).SetUnchanged("id", int64(3))
	cols, vals, err := PrimaryKeyValues(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, cols)
	assert.Equal(t, []any{int64(3)}, vals)
	assert.True(t, HasPrimaryKey(r))

	empty := NewRecord(userSchema)
	_, _, err = PrimaryKeyValues(empty)
	assert.ErrorContains(t, err, "primary key users.id is not set")
	assert.False(t, HasPrimaryKey(empty))
}
