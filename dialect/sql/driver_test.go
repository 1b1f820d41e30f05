package sql

import (
	"context"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tidal/dialect"
)

func TestDriver_Exec(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.MySQL, db)

	mock.ExpectExec("INSERT INTO `users` (`name`) VALUES (?)").
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(7, 1))

	var res Result
	err = drv.Exec(context.Background(), "INSERT INTO `users` (`name`) VALUES (?)", []any{"alice"}, &res)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDriver_ExecInvalidArgs(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.MySQL, db)

	err = drv.Exec(context.Background(), "DELETE FROM users", "not-a-slice", nil)
	assert.ErrorContains(t, err, "expect []any for args")

	var wrong int
	err = drv.Exec(context.Background(), "DELETE FROM users", []any{}, &wrong)
	assert.ErrorContains(t, err, "expect *sql.Result")
}

func TestDriver_Query(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectQuery(`SELECT "id", "name" FROM "users" WHERE "id" = $1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "alice"))

	var rows Rows
	err = drv.Query(context.Background(), `SELECT "id", "name" FROM "users" WHERE "id" = $1`, []any{int64(1)}, &rows)
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var (
		id   int64
		name string
	)
	require.NoError(t, rows.Scan(&id, &name))
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "alice", name)
	assert.False(t, rows.Next())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDriver_Tx(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.SQLite, db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "name" = ?`).
		WithArgs("bob").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), `UPDATE "users" SET "name" = ?`, []any{"bob"}, nil))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDriver_SessionVars(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectExec("SET app.tenant = '42'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT "id" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	// The variable is reset before the connection goes back to the pool.
	mock.ExpectExec("RESET app.tenant").WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := WithVar(context.Background(), "app.tenant", "42")
	var rows Rows
	require.NoError(t, drv.Query(ctx, `SELECT "id" FROM "users"`, []any{}, &rows))
	for rows.Next() {
	}
	require.NoError(t, rows.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDriver_SessionVarValidation(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.Postgres, db)

	ctx := WithVar(context.Background(), "bad name; DROP TABLE", "x")
	var rows Rows
	err = drv.Query(ctx, "SELECT 1", []any{}, &rows)
	assert.ErrorContains(t, err, "invalid session variable name")
}

func TestVarFromContext(t *testing.T) {
	ctx := WithVar(context.Background(), "a", "1")
	ctx = WithIntVar(ctx, "b", 2)
	v, ok := VarFromContext(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	v, ok = VarFromContext(ctx, "b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	_, ok = VarFromContext(ctx, "missing")
	assert.False(t, ok)
}

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	var slow []string
	drv := NewStatsDriver(OpenDB(dialect.MySQL, db),
		// Zero threshold marks every statement slow, which keeps the
		// hook deterministic.
		WithSlowThreshold(0),
		WithSlowQueryHook(func(_ context.Context, query string, _ []any, _ time.Duration) {
			slow = append(slow, query)
		}),
	)

	mock.ExpectExec("DELETE FROM `users`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("SELECT * FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	require.NoError(t, drv.Exec(context.Background(), "DELETE FROM `users`", []any{}, nil))
	var rows Rows
	require.NoError(t, drv.Query(context.Background(), "SELECT * FROM `users`", []any{}, &rows))
	require.NoError(t, rows.Close())

	snap := drv.QueryStats().Stats()
	assert.Equal(t, int64(1), snap.TotalExecs)
	assert.Equal(t, int64(1), snap.TotalQueries)
	assert.Equal(t, int64(2), snap.SlowQueries)
	assert.Equal(t, int64(0), snap.Errors)
	assert.Len(t, slow, 2)
	assert.Contains(t, snap.String(), "queries=1")

	drv.QueryStats().Reset()
	assert.Equal(t, int64(0), drv.QueryStats().Stats().TotalExecs)
}

func TestStatsDriver_CountsErrors(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	drv := NewStatsDriver(OpenDB(dialect.MySQL, db), WithSlowThreshold(time.Hour))

	mock.ExpectExec("DELETE FROM `users`").WillReturnError(assert.AnError)
	err = drv.Exec(context.Background(), "DELETE FROM `users`", []any{}, nil)
	require.Error(t, err)
	assert.Equal(t, int64(1), drv.QueryStats().Stats().Errors)
	assert.Equal(t, int64(0), drv.QueryStats().Stats().SlowQueries)
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	var logged []string
	drv := NewDebugDriver(OpenDB(dialect.MySQL, db), DebugWithLog(func(_ context.Context, v ...any) {
		logged = append(logged, strings.TrimSpace(strings.Join(toStrings(v), " ")))
	}))

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `users`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "DELETE FROM `users`", []any{}, nil))
	require.NoError(t, tx.Commit())

	require.Len(t, logged, 3)
	assert.Equal(t, "begin transaction", logged[0])
	assert.Contains(t, logged[1], "DELETE FROM `users`")
	assert.Equal(t, "commit transaction", logged[2])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func toStrings(vs []any) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i], _ = v.(string)
	}
	return out
}

func TestDriver_DialectNormalization(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB("postgres-instrumented", db)
	assert.Equal(t, dialect.Postgres, drv.Dialect())
}

func TestIsValidIdentifier(t *testing.T) {
	assert.True(t, isValidIdentifier("app.tenant_id"))
	assert.True(t, isValidIdentifier("_x"))
	assert.False(t, isValidIdentifier(""))
	assert.False(t, isValidIdentifier("1abc"))
	assert.False(t, isValidIdentifier("a b"))
	assert.False(t, isValidIdentifier(strings.Repeat("a", 129)))
}

func TestEscapeStringValue(t *testing.T) {
	assert.Equal(t, "plain", escapeStringValue("plain"))
	assert.Equal(t, "it''s", escapeStringValue("it's"))
	assert.Equal(t, `a\\b`, escapeStringValue(`a\b`))
}
