package tidal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tidal/dialect"
	"github.com/syssam/tidal/dialect/mock"
	"github.com/syssam/tidal/dialect/sql"
	"github.com/syssam/tidal/entity"
)

var usersSchema = entity.Schema{
	Table: "users",
	Cols: []entity.Column{
		{Name: "id", Type: entity.TypeBigInt, AutoIncrement: true},
		{Name: "name", Type: entity.TypeString},
		{Name: "email", Type: entity.TypeString, Unique: true},
	},
}

func newMockDB(d string) (*Database, *mock.Driver) {
	drv := mock.New(d)
	return NewDatabase(drv), drv
}

func TestSelect_All(t *testing.T) {
	db, drv := newMockDB(dialect.Postgres)
	drv.AppendQueryResults([]mock.Row{
		{"id": int64(1), "name": "alice", "email": "a@b.c"},
		{"id": int64(2), "name": "bob", "email": "b@b.c"},
	})

	rows, err := Select(usersSchema).
		Where(sql.EQ("name", "alice")).
		All(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "alice", rows[0]["name"])

	stmts := drv.Statements()
	require.Len(t, stmts, 1)
	assert.Equal(t, `SELECT "id", "name", "email" FROM "users" WHERE "name" = $1`, stmts[0].SQL)
	assert.Equal(t, []any{"alice"}, stmts[0].Args)
	assert.NoError(t, drv.ExpectationsWereMet())
}

func TestSelect_TypeNormalization(t *testing.T) {
	db, drv := newMockDB(dialect.MySQL)
	// MySQL surfaces strings and numbers as []byte in text protocol.
	drv.AppendQueryResults([]mock.Row{
		{"id": []byte("3"), "name": []byte("carol"), "email": []byte("c@b.c")},
	})

	rows, err := Select(usersSchema).All(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0]["id"])
	assert.Equal(t, "carol", rows[0]["name"])
}

func TestSelect_One(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		db, drv := newMockDB(dialect.Postgres)
		drv.AppendQueryResults([]mock.Row{{"id": int64(1), "name": "alice", "email": "a@b.c"}})

		row, err := Select(usersSchema).Where(sql.EQ("id", 1)).One(context.Background(), db)
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, "alice", row["name"])
		assert.Contains(t, drv.Statements()[0].SQL, "LIMIT 1")
	})

	t.Run("EmptyIsNil", func(t *testing.T) {
		db, drv := newMockDB(dialect.Postgres)
		drv.AppendQueryResults([]mock.Row{})

		row, err := Select(usersSchema).One(context.Background(), db)
		require.NoError(t, err)
		assert.Nil(t, row)
		assert.NoError(t, drv.ExpectationsWereMet())
	})

	t.Run("OneOrErr", func(t *testing.T) {
		db, drv := newMockDB(dialect.Postgres)
		drv.AppendQueryResults([]mock.Row{})

		_, err := Select(usersSchema).OneOrErr(context.Background(), db)
		assert.True(t, IsNotFound(err))
		assert.NoError(t, drv.ExpectationsWereMet())
	})
}

func TestSelect_Count(t *testing.T) {
	db, drv := newMockDB(dialect.Postgres)
	drv.AppendQueryResults([]mock.Row{{"count": int64(5)}})

	n, err := Select(usersSchema).
		Where(sql.EQ("email", "a@b.c")).
		OrderBy(sql.Asc("id")).
		Limit(2).
		Count(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	stmt := drv.Statements()[0]
	assert.Equal(t, `SELECT COUNT(*) FROM (SELECT "id", "name", "email" FROM "users" WHERE "email" = $1) AS "count_sub"`, stmt.SQL)
}

func TestSelect_Exist(t *testing.T) {
	db, drv := newMockDB(dialect.Postgres)
	drv.AppendQueryResults([]mock.Row{{"exists": true}})

	ok, err := Select(usersSchema).Where(sql.EQ("id", 1)).Exist(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, ok)

	stmt := drv.Statements()[0]
	assert.Equal(t, `SELECT EXISTS (SELECT "id", "name", "email" FROM "users" WHERE "id" = $1)`, stmt.SQL)
	assert.NoError(t, drv.ExpectationsWereMet())
}

func TestSelect_Only(t *testing.T) {
	t.Run("Single", func(t *testing.T) {
		db, drv := newMockDB(dialect.Postgres)
		drv.AppendQueryResults([]mock.Row{{"id": int64(1), "name": "a", "email": "a@x"}})

		row, err := Select(usersSchema).Only(context.Background(), db)
		require.NoError(t, err)
		assert.Equal(t, int64(1), row["id"])
		assert.NoError(t, drv.ExpectationsWereMet())
	})

	t.Run("Empty", func(t *testing.T) {
		db, drv := newMockDB(dialect.Postgres)
		drv.AppendQueryResults([]mock.Row{})

		_, err := Select(usersSchema).Only(context.Background(), db)
		assert.True(t, IsNotFound(err))
		assert.NoError(t, drv.ExpectationsWereMet())
	})

	t.Run("Multiple", func(t *testing.T) {
		db, drv := newMockDB(dialect.Postgres)
		drv.AppendQueryResults([]mock.Row{
			{"id": int64(1), "name": "a", "email": "a@x"},
			{"id": int64(2), "name": "b", "email": "b@x"},
		})

		_, err := Select(usersSchema).Only(context.Background(), db)
		assert.True(t, IsNotSingular(err))

		// The result is capped while probing for extra rows.
		stmt := drv.Statements()[0]
		assert.Contains(t, stmt.SQL, "LIMIT 2")
	})
}

func TestSelect_QueryErrorWrapping(t *testing.T) {
	db, drv := newMockDB(dialect.Postgres)
	drv.AppendQueryErrors(assert.AnError)

	_, err := Select(usersSchema).All(context.Background(), db)
	require.Error(t, err)
	assert.True(t, IsQueryError(err))
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorContains(t, err, "querying users")
}

type userModel struct {
	ID    int64
	Name  string
	Email string
}

func (u *userModel) FromQueryResult(row map[string]any) error {
	u.ID, _ = row["id"].(int64)
	u.Name, _ = row["name"].(string)
	u.Email, _ = row["email"].(string)
	return nil
}

func TestAllInto(t *testing.T) {
	db, drv := newMockDB(dialect.Postgres)
	drv.AppendQueryResults([]mock.Row{
		{"id": int64(1), "name": "alice", "email": "a@b.c"},
		{"id": int64(2), "name": "bob", "email": "b@b.c"},
	})

	users, err := AllInto[userModel](context.Background(), db, Select(usersSchema))
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
	assert.Equal(t, int64(2), users[1].ID)
}

func TestOneInto(t *testing.T) {
	db, drv := newMockDB(dialect.Postgres)
	drv.AppendQueryResults([]mock.Row{{"id": int64(1), "name": "alice", "email": "a@b.c"}})

	u, err := OneInto[userModel](context.Background(), db, Select(usersSchema))
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(1), u.ID)

	db2, drv2 := newMockDB(dialect.Postgres)
	drv2.AppendQueryResults([]mock.Row{})
	u, err = OneInto[userModel](context.Background(), db2, Select(usersSchema))
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSelect_Rows(t *testing.T) {
	db, drv := newMockDB(dialect.Postgres)
	drv.AppendQueryResults([]mock.Row{
		{"id": int64(1), "name": "alice", "email": "a@b.c"},
		{"id": int64(2), "name": "bob", "email": "b@b.c"},
	})

	it, err := Select(usersSchema).Rows(context.Background(), db)
	require.NoError(t, err)
	var names []string
	for it.Next() {
		names = append(names, it.Row()["name"].(string))
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())
	assert.Equal(t, []string{"alice", "bob"}, names)
}

func TestInsert_MySQL(t *testing.T) {
	db, drv := newMockDB(dialect.MySQL)
	drv.AppendExecResults(mock.ExecResult{LastInsertID: 9, RowsAffected: 1})

	rec := entity.NewRecord(usersSchema).Set("name", "alice").Set("email", "a@b.c")
	res, err := Insert(rec).Exec(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.LastInsertID)
	assert.Equal(t, int64(1), res.RowsAffected)

	stmt := drv.Statements()[0]
	assert.Equal(t, "INSERT INTO `users` (`name`, `email`) VALUES (?, ?)", stmt.SQL)
	assert.Equal(t, []any{"alice", "a@b.c"}, stmt.Args)
}

func TestInsert_PostgresReturning(t *testing.T) {
	db, drv := newMockDB(dialect.Postgres)
	// RETURNING goes through the query path.
	drv.AppendQueryResults([]mock.Row{{"id": int64(9)}})

	rec := entity.NewRecord(usersSchema).Set("name", "alice")
	res, err := Insert(rec).Exec(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.LastInsertID)
	assert.Equal(t, int64(1), res.RowsAffected)

	stmt := drv.Statements()[0]
	assert.Equal(t, `INSERT INTO "users" ("name") VALUES ($1) RETURNING "id"`, stmt.SQL)
}

func TestInsertMany(t *testing.T) {
	db, drv := newMockDB(dialect.MySQL)
	drv.AppendExecResults(mock.ExecResult{LastInsertID: 11, RowsAffected: 2})

	a := entity.NewRecord(usersSchema).Set("name", "alice").Set("email", "a@b.c")
	// The missing email falls back to the column default (nil here).
	b := entity.NewRecord(usersSchema).Set("name", "bob")
	res, err := InsertMany(usersSchema, a, b).Exec(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowsAffected)

	stmt := drv.Statements()[0]
	assert.Equal(t, "INSERT INTO `users` (`name`, `email`) VALUES (?, ?), (?, ?)", stmt.SQL)
	assert.Equal(t, []any{"alice", "a@b.c", "bob", nil}, stmt.Args)
}

func TestInsert_Upsert(t *testing.T) {
	db, drv := newMockDB(dialect.Postgres)
	drv.AppendQueryResults([]mock.Row{{"id": int64(1)}})

	rec := entity.NewRecord(usersSchema).Set("name", "alice").Set("email", "a@b.c")
	_, err := Insert(rec).
		OnConflictUpdate([]string{"email"}, "name").
		Exec(context.Background(), db)
	require.NoError(t, err)

	stmt := drv.Statements()[0]
	assert.Contains(t, stmt.SQL, `ON CONFLICT ("email") DO UPDATE SET "name" = excluded."name"`)
}

func TestInsert_NoModels(t *testing.T) {
	db, drv := newMockDB(dialect.MySQL)

	// An empty insert-many is a no-op.
	res, err := InsertMany(usersSchema).Exec(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, &InsertResult{}, res)
	assert.Empty(t, drv.Statements())

	// Rendering it as a statement still reports the problem.
	_, err = InsertMany(usersSchema).Statement(dialect.MySQL)
	assert.ErrorContains(t, err, "no models")
}

func TestUpdate_ByModel(t *testing.T) {
	db, drv := newMockDB(dialect.MySQL)
	drv.AppendExecResults(mock.ExecResult{RowsAffected: 1})

	rec := entity.NewRecord(usersSchema).
		SetUnchanged("id", int64(7)).
		Set("name", "renamed")
	n, err := Update(rec).Exec(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stmt := drv.Statements()[0]
	assert.Equal(t, "UPDATE `users` SET `name` = ? WHERE `id` = ?", stmt.SQL)
	assert.Equal(t, []any{"renamed", int64(7)}, stmt.Args)
}

func TestUpdate_PrimaryKeyNotAssigned(t *testing.T) {
	db, drv := newMockDB(dialect.MySQL)
	drv.AppendExecResults(mock.ExecResult{RowsAffected: 1})

	// A Set primary key locates the row but never lands in SET.
	rec := entity.NewRecord(usersSchema).
		Set("id", int64(7)).
		Set("name", "renamed")
	n, err := Update(rec).Exec(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stmt := drv.Statements()[0]
	assert.Equal(t, "UPDATE `users` SET `name` = ? WHERE `id` = ?", stmt.SQL)
	assert.Equal(t, []any{"renamed", int64(7)}, stmt.Args)
}

func TestUpdate_NoRowMatched(t *testing.T) {
	db, drv := newMockDB(dialect.MySQL)
	drv.AppendExecResults(mock.ExecResult{RowsAffected: 0})

	rec := entity.NewRecord(usersSchema).
		SetUnchanged("id", int64(404)).
		Set("name", "ghost")
	_, err := Update(rec).Exec(context.Background(), db)
	assert.ErrorIs(t, err, ErrNoRecordsUpdated)
	assert.NoError(t, drv.ExpectationsWereMet())
}

func TestUpdate_MissingPrimaryKey(t *testing.T) {
	db, _ := newMockDB(dialect.MySQL)
	rec := entity.NewRecord(usersSchema).Set("name", "orphan")
	_, err := Update(rec).Exec(context.Background(), db)
	assert.ErrorContains(t, err, "primary key users.id is not set")
}

func TestUpdate_NoAssignmentsIsNoop(t *testing.T) {
	db, drv := newMockDB(dialect.MySQL)
	rec := entity.NewRecord(usersSchema).SetUnchanged("id", int64(1))
	n, err := Update(rec).Exec(context.Background(), db)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, drv.Statements())
}

func TestUpdateMany(t *testing.T) {
	db, drv := newMockDB(dialect.Postgres)
	drv.AppendExecResults(mock.ExecResult{RowsAffected: 3})

	n, err := UpdateMany(usersSchema).
		Set("name", "archived").
		SetNull("email").
		Where(sql.LT("id", 100)).
		Exec(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	stmt := drv.Statements()[0]
	assert.Equal(t, `UPDATE "users" SET "name" = $1, "email" = NULL WHERE "id" < $2`, stmt.SQL)
}

func TestUpdateMany_ZeroAffectedIsFine(t *testing.T) {
	db, drv := newMockDB(dialect.Postgres)
	drv.AppendExecResults(mock.ExecResult{RowsAffected: 0})

	n, err := UpdateMany(usersSchema).Set("name", "x").Exec(context.Background(), db)
	require.NoError(t, err)
	assert.Zero(t, n)
	_ = drv
}

func TestDelete_ByModel(t *testing.T) {
	db, drv := newMockDB(dialect.MySQL)
	drv.AppendExecResults(mock.ExecResult{RowsAffected: 1})

	rec := entity.NewRecord(usersSchema).SetUnchanged("id", int64(7))
	n, err := Delete(rec).Exec(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "DELETE FROM `users` WHERE `id` = ?", drv.Statements()[0].SQL)
}

func TestDeleteMany(t *testing.T) {
	db, drv := newMockDB(dialect.Postgres)
	drv.AppendExecResults(mock.ExecResult{RowsAffected: 2})

	n, err := DeleteMany(usersSchema).
		Where(sql.In("id", 1, 2)).
		Exec(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, `DELETE FROM "users" WHERE "id" IN ($1, $2)`, drv.Statements()[0].SQL)
}

func TestSave(t *testing.T) {
	db, drv := newMockDB(dialect.MySQL)
	drv.AppendExecResults(
		mock.ExecResult{LastInsertID: 21, RowsAffected: 1}, // insert
		mock.ExecResult{RowsAffected: 1},                   // update
	)

	rec := entity.NewRecord(usersSchema).Set("name", "alice")
	require.NoError(t, Save(context.Background(), db, rec))

	// The generated key was written back, so the next save updates.
	v, state := rec.Get("id")
	assert.Equal(t, entity.StateUnchanged, state)
	assert.Equal(t, int64(21), v)

	rec.Set("name", "alicia")
	require.NoError(t, Save(context.Background(), db, rec))

	stmts := drv.Statements()
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0].SQL, "INSERT INTO `users`")
	assert.Equal(t, "UPDATE `users` SET `name` = ? WHERE `id` = ?", stmts[1].SQL)
	assert.Equal(t, []any{"alicia", int64(21)}, stmts[1].Args)
	assert.NoError(t, drv.ExpectationsWereMet())
}

func TestSelectStatement(t *testing.T) {
	db, drv := newMockDB(dialect.Postgres)
	drv.AppendQueryResults([]mock.Row{{"n": int64(1)}})

	rows, err := SelectStatement(context.Background(), db,
		sql.NewStatement(dialect.Postgres, "SELECT 1 AS n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0]["n"])
	_ = drv
}
