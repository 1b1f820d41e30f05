package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertValue(t *testing.T) {
	t.Run("Null", func(t *testing.T) {
		v, err := TypeString.ConvertValue(nil)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("Bool", func(t *testing.T) {
		v, err := TypeBool.ConvertValue(int64(1))
		require.NoError(t, err)
		assert.Equal(t, true, v)
		v, err = TypeBool.ConvertValue(false)
		require.NoError(t, err)
		assert.Equal(t, false, v)
	})

	t.Run("Int", func(t *testing.T) {
		v, err := TypeBigInt.ConvertValue([]byte("42"))
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)
		v, err = TypeInt.ConvertValue(7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)
	})

	t.Run("Float", func(t *testing.T) {
		v, err := TypeDouble.ConvertValue([]byte("1.5"))
		require.NoError(t, err)
		assert.Equal(t, 1.5, v)
	})

	t.Run("Decimal", func(t *testing.T) {
		// MySQL returns DECIMAL columns as []byte.
		v, err := TypeDecimal.ConvertValue([]byte("19.99"))
		require.NoError(t, err)
		assert.True(t, v.(decimal.Decimal).Equal(decimal.RequireFromString("19.99")))

		_, err = TypeDecimal.ConvertValue("not-a-number")
		assert.Error(t, err)
	})

	t.Run("String", func(t *testing.T) {
		v, err := TypeString.ConvertValue([]byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, "hello", v)
	})

	t.Run("Time", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
		v, err := TypeTime.ConvertValue(now)
		require.NoError(t, err)
		assert.Equal(t, now, v)

		// SQLite stores time as text.
		v, err = TypeTime.ConvertValue("2024-05-01 10:30:00")
		require.NoError(t, err)
		assert.Equal(t, now, v.(time.Time).UTC())

		_, err = TypeTime.ConvertValue("yesterday-ish")
		assert.ErrorContains(t, err, "cannot parse time")
	})

	t.Run("UUID", func(t *testing.T) {
		id := uuid.New()
		v, err := TypeUUID.ConvertValue(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, v)

		raw, _ := id.MarshalBinary()
		v, err = TypeUUID.ConvertValue(raw)
		require.NoError(t, err)
		assert.Equal(t, id, v)
	})

	t.Run("JSON", func(t *testing.T) {
		v, err := TypeJSON.ConvertValue([]byte(`{"a":1}`))
		require.NoError(t, err)
		assert.Equal(t, json.RawMessage(`{"a":1}`), v)
	})

	t.Run("Mismatch", func(t *testing.T) {
		_, err := TypeInt.ConvertValue(true)
		assert.ErrorContains(t, err, "cannot convert bool to int")
	})
}

func TestColumnTypeString(t *testing.T) {
	assert.Equal(t, "bigint", TypeBigInt.String())
	assert.Equal(t, "uuid", TypeUUID.String())
	assert.Equal(t, "invalid", ColumnType(99).String())
}
