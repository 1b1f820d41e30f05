package tidal

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/syssam/tidal/dialect"
)

func TestTranslateError_MySQL(t *testing.T) {
	for _, tt := range []struct {
		number uint16
		kind   ConstraintKind
	}{
		{1062, ConstraintUnique},
		{1169, ConstraintUnique},
		{1451, ConstraintForeignKey},
		{1452, ConstraintForeignKey},
		{1048, ConstraintNotNull},
		{3819, ConstraintCheck},
	} {
		err := TranslateError(dialect.MySQL, &mysql.MySQLError{Number: tt.number, Message: "boom"})
		assert.True(t, IsConstraintError(err), "error %d", tt.number)
		var ce ConstraintError
		assert.ErrorAs(t, err, &ce)
		assert.Equal(t, tt.kind, ce.Kind(), "error %d", tt.number)
	}

	// Deadlocks and lock timeouts are transient.
	assert.True(t, IsRetryable(TranslateError(dialect.MySQL, &mysql.MySQLError{Number: 1213})))
	assert.True(t, IsRetryable(TranslateError(dialect.MySQL, &mysql.MySQLError{Number: 1205})))

	// Unrecognized codes pass through unchanged.
	unknown := &mysql.MySQLError{Number: 1146, Message: "no such table"}
	assert.Equal(t, error(unknown), TranslateError(dialect.MySQL, unknown))
}

func TestTranslateError_Postgres(t *testing.T) {
	for _, tt := range []struct {
		code pq.ErrorCode
		kind ConstraintKind
	}{
		{"23505", ConstraintUnique},
		{"23503", ConstraintForeignKey},
		{"23502", ConstraintNotNull},
		{"23514", ConstraintCheck},
	} {
		err := TranslateError(dialect.Postgres, &pq.Error{Code: tt.code, Message: "boom"})
		var ce ConstraintError
		assert.ErrorAs(t, err, &ce, "code %s", tt.code)
		assert.Equal(t, tt.kind, ce.Kind(), "code %s", tt.code)
	}

	assert.True(t, IsRetryable(TranslateError(dialect.Postgres, &pq.Error{Code: "40001"})))
	assert.True(t, IsRetryable(TranslateError(dialect.Postgres, &pq.Error{Code: "40P01"})))

	unknown := &pq.Error{Code: "42P01"}
	assert.Equal(t, error(unknown), TranslateError(dialect.Postgres, unknown))
}

func TestTranslateError_Passthrough(t *testing.T) {
	assert.NoError(t, TranslateError(dialect.MySQL, nil))
	assert.Equal(t, assert.AnError, TranslateError(dialect.SQLite, assert.AnError))
	assert.Equal(t, assert.AnError, TranslateError("unknown", assert.AnError))
	// Foreign driver errors under the wrong dialect pass through.
	me := &mysql.MySQLError{Number: 1062}
	assert.Equal(t, error(me), TranslateError(dialect.Postgres, me))
}

func TestTranslateError_KeepsCause(t *testing.T) {
	cause := &pq.Error{Code: "23505", Message: "dup"}
	err := TranslateError(dialect.Postgres, cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsUniqueViolation(err))
}
